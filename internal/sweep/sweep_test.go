package sweep

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/safecar/internal/envelope"
)

func newEngine(t *testing.T) *envelope.Engine {
	t.Helper()
	eng, err := envelope.New(envelope.DefaultVehicle())
	if err != nil {
		t.Fatalf("envelope.New: %v", err)
	}
	return eng
}

func TestLinspace(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
		n      int
		want   []float64
	}{
		{"empty", 0, 1, 0, nil},
		{"single", 2, 5, 1, []float64{2}},
		{"pair", -1, 1, 2, []float64{-1, 1}},
		{"five", 0, 1, 5, []float64{0, 0.25, 0.5, 0.75, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Linspace(tt.lo, tt.hi, tt.n)); diff != "" {
				t.Errorf("Linspace mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSampler_MatchesEngine(t *testing.T) {
	eng := newEngine(t)
	grid := NewGrid(0, 2, 5, -1.2, 1.2, 7)

	surf, err := NewSampler(eng, DefaultLimits(), 3, nil).Sample(context.Background(), grid)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	for i, v := range grid.Speeds {
		for j, d := range grid.Deltas {
			next, _ := eng.NextStepBound(v, d)
			worst, _ := eng.WorstCaseBound(v, d, envelope.DefaultWorstCaseIterations, envelope.DefaultBisections)
			if surf.Next[i][j] != next {
				t.Errorf("Next[%d][%d] = %v, want %v", i, j, surf.Next[i][j], next)
			}
			if surf.Worst[i][j] != worst {
				t.Errorf("Worst[%d][%d] = %v, want %v", i, j, surf.Worst[i][j], worst)
			}
		}
	}

	// ±1.2 lies outside the steering range.
	for i := range grid.Speeds {
		if surf.Next[i][0].Feasible() || surf.Next[i][6].Feasible() {
			t.Errorf("row %d: steering beyond max_delta should be infeasible", i)
		}
	}
}

func TestSampler_PropagatesEngineErrors(t *testing.T) {
	eng := newEngine(t)
	grid := NewGrid(0, 1, 3, 0, 0.5, 3)

	_, err := NewSampler(eng, Limits{WorstCaseIterations: 2, Bisections: 4}, 2, nil).Sample(context.Background(), grid)
	if !errors.Is(err, envelope.ErrIterationLimit) {
		t.Fatalf("expected ErrIterationLimit, got %v", err)
	}
}

func TestSampler_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSampler(newEngine(t), DefaultLimits(), 1, nil).Sample(ctx, NewGrid(0, 1, 4, 0, 1, 4))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSurface_Slices(t *testing.T) {
	grid := NewGrid(0, 1, 3, -0.5, 0.5, 3)
	surf := newSurface(grid)
	for i := range surf.Speeds {
		for j := range surf.Deltas {
			surf.Next[i][j] = envelope.Interval{Max: float64(i + j + 1), Min: float64(i + j)}
			surf.Worst[i][j] = envelope.Infeasible
		}
	}

	maxs, mins := surf.SpeedSlice(NextStep, 1)
	if diff := cmp.Diff([]float64{2, 3, 4}, maxs); diff != "" {
		t.Errorf("SpeedSlice maxs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 2, 3}, mins); diff != "" {
		t.Errorf("SpeedSlice mins (-want +got):\n%s", diff)
	}

	wmaxs, _ := surf.DeltaSlice(WorstCase, 0)
	for _, v := range wmaxs {
		if !math.IsNaN(v) {
			t.Errorf("infeasible points should slice as NaN, got %v", v)
		}
	}

	if j := surf.NearestDelta(0.4); j != 2 {
		t.Errorf("NearestDelta(0.4) = %d, want 2", j)
	}
	if i := surf.NearestSpeed(-3); i != 0 {
		t.Errorf("NearestSpeed(-3) = %d, want 0", i)
	}
}

func TestSurface_Stats(t *testing.T) {
	surf := newSurface(NewGrid(0, 1, 2, 0, 1, 2))
	surf.Next[0][0] = envelope.Interval{Max: 1, Min: 0}
	surf.Next[0][1] = envelope.Infeasible
	surf.Next[1][0] = envelope.Interval{Max: 3, Min: 2}
	surf.Next[1][1] = envelope.Interval{Max: 2.5, Min: 2}

	st := surf.Stats(NextStep)
	if st.Points != 4 || st.Feasible != 3 || st.MaxSpeed != 3 {
		t.Errorf("unexpected stats %+v", st)
	}
	if math.Abs(st.MeanWidth-2.5/3) > 1e-12 {
		t.Errorf("MeanWidth = %v, want %v", st.MeanWidth, 2.5/3)
	}

	for i := range surf.Worst {
		for j := range surf.Worst[i] {
			surf.Worst[i][j] = envelope.Infeasible
		}
	}
	if st := surf.Stats(WorstCase); st.Feasible != 0 || st.MaxSpeed != 0 {
		t.Errorf("all-infeasible stats %+v", st)
	}
}

func TestSurface_MonotonicityViolations(t *testing.T) {
	surf := newSurface(Grid{Speeds: []float64{1}, Deltas: []float64{-0.4, 0, 0.2, 0.4}})
	surf.Next[0] = []envelope.Interval{
		{Max: 1.1, Min: 0.9}, // |d| = 0.4
		{Max: 1.3, Min: 0.7}, // |d| = 0
		{Max: 1.2, Min: 0.8}, // |d| = 0.2
		{Max: 1.25, Min: 0.8},
	}

	got := surf.MonotonicityViolations(NextStep, 1e-9)
	if len(got) != 1 {
		t.Fatalf("expected 1 violation, got %+v", got)
	}
	if got[0].DeltaTo != 0.4 || got[0].Speed != 1 {
		t.Errorf("unexpected violation %+v", got[0])
	}
}

func TestSurface_PhysicalModelIsMonotone(t *testing.T) {
	surf, err := NewSampler(newEngine(t), DefaultLimits(), 0, nil).
		Sample(context.Background(), NewGrid(0, 4, 9, -1.1, 1.1, 23))
	if err != nil {
		t.Fatal(err)
	}
	if v := surf.MonotonicityViolations(NextStep, 1e-9); len(v) > 0 {
		t.Errorf("next-step width grew with |delta|: %+v", v)
	}
}

func TestKind_String(t *testing.T) {
	if NextStep.String() != "next-step" || WorstCase.String() != "worst-case" {
		t.Error("unexpected Kind names")
	}
}
