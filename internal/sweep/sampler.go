package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/safecar/internal/envelope"
	"github.com/san-kum/safecar/internal/logging"
)

// Limits are the iteration budgets passed to the worst-case operations.
type Limits struct {
	WorstCaseIterations int
	Bisections          int
}

func DefaultLimits() Limits {
	return Limits{
		WorstCaseIterations: envelope.DefaultWorstCaseIterations,
		Bisections:          envelope.DefaultBisections,
	}
}

type Sampler struct {
	eng     *envelope.Engine
	limits  Limits
	workers int
	log     *slog.Logger
}

// NewSampler evaluates rows on up to workers goroutines; workers <= 0
// means GOMAXPROCS. A nil logger discards output.
func NewSampler(eng *envelope.Engine, limits Limits, workers int, log *slog.Logger) *Sampler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Sampler{eng: eng, limits: limits, workers: workers, log: log}
}

// Sample evaluates both bounds at every grid point. The first engine error
// cancels the remaining rows and is returned with the failing point.
func (s *Sampler) Sample(ctx context.Context, grid Grid) (*Surface, error) {
	surf := newSurface(grid)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range grid.Speeds {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return s.sampleRow(surf, i)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.Debug("sweep sampled",
		"points", grid.Size(),
		"workers", s.workers,
		"elapsed", time.Since(start))
	return surf, nil
}

func (s *Sampler) sampleRow(surf *Surface, i int) error {
	v := surf.Speeds[i]
	for j, d := range surf.Deltas {
		next, err := s.eng.NextStepBound(v, d)
		if err != nil {
			return fmt.Errorf("next-step bound at v=%g delta=%g: %w", v, d, err)
		}
		worst, err := s.eng.WorstCaseBound(v, d, s.limits.WorstCaseIterations, s.limits.Bisections)
		if err != nil {
			return fmt.Errorf("worst-case bound at v=%g delta=%g: %w", v, d, err)
		}
		surf.Next[i][j] = next
		surf.Worst[i][j] = worst
	}
	return nil
}
