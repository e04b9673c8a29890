package automation

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/safecar/internal/envelope"
	"github.com/san-kum/safecar/internal/sweep"
)

// ParameterSweep varies one vehicle constant over [Min, Max] and records
// the sustainable speed at each value.
type ParameterSweep struct {
	Param      string
	Min        float64
	Max        float64
	Steps      int
	Iterations int
	Workers    int
}

// SweepResult is one sample of a ParameterSweep. Err is set when the
// sustainable speed does not exist or the search hit its limit.
type SweepResult struct {
	Value    float64
	MaxSpeed float64
	Err      error
}

// RunParameterSweep evaluates every value concurrently. Per-value engine
// failures are recorded in the results; the returned error covers invalid
// sweeps and cancellation.
func RunParameterSweep(ctx context.Context, base envelope.Vehicle, ps ParameterSweep) ([]SweepResult, error) {
	if ps.Steps < 2 || ps.Max <= ps.Min {
		return nil, fmt.Errorf("parameter sweep over %s needs at least 2 steps over an increasing range", ps.Param)
	}
	if _, err := base.WithParam(ps.Param, ps.Min); err != nil {
		return nil, err
	}
	iterations := ps.Iterations
	if iterations <= 0 {
		iterations = envelope.DefaultMaxSpeedIterations
	}
	workers := ps.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	values := sweep.Linspace(ps.Min, ps.Max, ps.Steps)
	results := make([]SweepResult, len(values))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, val := range values {
		i, val := i, val
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = evaluate(base, ps.Param, val, iterations)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func evaluate(base envelope.Vehicle, param string, val float64, iterations int) SweepResult {
	res := SweepResult{Value: val}
	v, err := base.WithParam(param, val)
	if err != nil {
		res.Err = err
		return res
	}
	eng, err := envelope.New(v)
	if err != nil {
		res.Err = err
		return res
	}
	res.MaxSpeed, res.Err = eng.MaxSustainableSpeed(iterations)
	return res
}
