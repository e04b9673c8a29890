package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/safecar/internal/envelope"
)

// MonteCarloConfig draws random states with |v| <= VMax and
// |delta| <= the vehicle's steering limit.
type MonteCarloConfig struct {
	Trials     int
	Seed       int64
	VMax       float64
	Iterations int
	Bisections int
}

// PropertyViolation is a random state where one of the engine's structural
// properties did not hold.
type PropertyViolation struct {
	Trial    int
	V        float64
	Delta    float64
	Property string
	Detail   string
}

const mirrorTolerance = 1e-9

// RunMonteCarlo checks, at each random state, that
//
//   - the next-step interval is ordered
//   - the bound depends on |delta| only
//   - reversing the current speed mirrors the interval
//   - a smaller steering magnitude never narrows the interval
//   - the worst-case bound lies inside the next-step bound with the same
//     lower edge
//
// Engine errors are reported as violations of property "error".
func RunMonteCarlo(ctx context.Context, eng *envelope.Engine, cfg MonteCarloConfig) ([]PropertyViolation, error) {
	if cfg.Iterations <= 0 {
		cfg.Iterations = envelope.DefaultWorstCaseIterations
	}
	if cfg.Bisections <= 0 {
		cfg.Bisections = envelope.DefaultBisections
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	maxDelta := eng.Vehicle().MaxDelta

	var out []PropertyViolation
	for trial := 0; trial < cfg.Trials; trial++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		v := (rng.Float64()*2 - 1) * cfg.VMax
		delta := (rng.Float64()*2 - 1) * maxDelta
		shrink := rng.Float64()

		report := func(property, format string, args ...any) {
			out = append(out, PropertyViolation{
				Trial: trial, V: v, Delta: delta,
				Property: property, Detail: fmt.Sprintf(format, args...),
			})
		}
		if err := checkState(eng, cfg, v, delta, shrink, report); err != nil {
			report("error", "%v", err)
		}
	}
	return out, nil
}

func checkState(eng *envelope.Engine, cfg MonteCarloConfig, v, delta, shrink float64,
	report func(property, format string, args ...any)) error {
	next, err := eng.NextStepBound(v, delta)
	if err != nil {
		return err
	}
	if next.Feasible() && next.Max < next.Min {
		report("ordered", "max %.9f < min %.9f", next.Max, next.Min)
	}

	flipped, err := eng.NextStepBound(v, -delta)
	if err != nil {
		return err
	}
	if flipped != next {
		report("steering symmetry", "%s vs %s", next, flipped)
	}

	reverse, err := eng.NextStepBound(-v, delta)
	if err != nil {
		return err
	}
	tol := mirrorTolerance * math.Max(1, math.Abs(v))
	switch {
	case reverse.Feasible() != next.Feasible():
		report("reverse mirror", "%s vs %s", next, reverse)
	case next.Feasible() && (math.Abs(reverse.Max+next.Min) > tol || math.Abs(reverse.Min+next.Max) > tol):
		report("reverse mirror", "%s vs %s", next, reverse)
	}

	wider, err := eng.NextStepBound(v, delta*shrink)
	if err != nil {
		return err
	}
	if wider.Width() < next.Width()-mirrorTolerance {
		report("monotone in steering", "width %.9f at %.4f rad < %.9f at %.4f rad",
			wider.Width(), delta*shrink, next.Width(), delta)
	}

	worst, err := eng.WorstCaseBound(v, delta, cfg.Iterations, cfg.Bisections)
	if err != nil {
		return err
	}
	if worst.Feasible() && (!next.Feasible() || worst.Min != next.Min || worst.Max > next.Max) {
		report("worst inside next", "%s not inside %s", worst, next)
	}
	return nil
}
