package sweep

import (
	"math"
	"sort"

	"github.com/san-kum/safecar/internal/envelope"
)

// Kind selects which of the two bounds a Surface query reads.
type Kind int

const (
	NextStep Kind = iota
	WorstCase
)

func (k Kind) String() string {
	if k == WorstCase {
		return "worst-case"
	}
	return "next-step"
}

// Surface holds intervals indexed [speed][delta].
type Surface struct {
	Speeds []float64
	Deltas []float64
	Next   [][]envelope.Interval
	Worst  [][]envelope.Interval
}

func newSurface(g Grid) *Surface {
	s := &Surface{
		Speeds: g.Speeds,
		Deltas: g.Deltas,
		Next:   make([][]envelope.Interval, len(g.Speeds)),
		Worst:  make([][]envelope.Interval, len(g.Speeds)),
	}
	for i := range g.Speeds {
		s.Next[i] = make([]envelope.Interval, len(g.Deltas))
		s.Worst[i] = make([]envelope.Interval, len(g.Deltas))
	}
	return s
}

func (s *Surface) Rows(k Kind) [][]envelope.Interval {
	if k == WorstCase {
		return s.Worst
	}
	return s.Next
}

// NearestDelta returns the column index closest to delta.
func (s *Surface) NearestDelta(delta float64) int { return nearest(s.Deltas, delta) }

// NearestSpeed returns the row index closest to v.
func (s *Surface) NearestSpeed(v float64) int { return nearest(s.Speeds, v) }

// SpeedSlice returns the upper and lower edges along the speed axis at
// column j. Infeasible points are NaN, since -1 is also a valid reverse
// speed.
func (s *Surface) SpeedSlice(k Kind, j int) (maxs, mins []float64) {
	rows := s.Rows(k)
	maxs = make([]float64, len(rows))
	mins = make([]float64, len(rows))
	for i := range rows {
		maxs[i], mins[i] = edges(rows[i][j])
	}
	return maxs, mins
}

// DeltaSlice returns the upper and lower edges along the steering axis at row i.
func (s *Surface) DeltaSlice(k Kind, i int) (maxs, mins []float64) {
	row := s.Rows(k)[i]
	maxs = make([]float64, len(row))
	mins = make([]float64, len(row))
	for j, iv := range row {
		maxs[j], mins[j] = edges(iv)
	}
	return maxs, mins
}

func edges(iv envelope.Interval) (float64, float64) {
	if !iv.Feasible() {
		return math.NaN(), math.NaN()
	}
	return iv.Max, iv.Min
}

// Stats summarises one bound kind over the whole grid.
type Stats struct {
	Points    int
	Feasible  int
	MaxSpeed  float64
	MeanWidth float64
}

func (s *Surface) Stats(k Kind) Stats {
	st := Stats{MaxSpeed: math.Inf(-1)}
	widthSum := 0.0
	for _, row := range s.Rows(k) {
		for _, iv := range row {
			st.Points++
			if !iv.Feasible() {
				continue
			}
			st.Feasible++
			widthSum += iv.Width()
			st.MaxSpeed = math.Max(st.MaxSpeed, iv.Max)
		}
	}
	if st.Feasible > 0 {
		st.MeanWidth = widthSum / float64(st.Feasible)
	} else {
		st.MaxSpeed = 0
	}
	return st
}

// Violation records a grid step where a larger steering magnitude gave a
// wider feasible interval.
type Violation struct {
	Kind      Kind
	Speed     float64
	DeltaFrom float64
	DeltaTo   float64
	WidthFrom float64
	WidthTo   float64
}

// MonotonicityViolations walks each speed row in order of increasing
// |delta| and reports every step where the interval width grows by more
// than tol. The model predicts none; results are for investigation, not a
// hard failure.
func (s *Surface) MonotonicityViolations(k Kind, tol float64) []Violation {
	order := make([]int, len(s.Deltas))
	for j := range order {
		order[j] = j
	}
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(s.Deltas[order[a]]) < math.Abs(s.Deltas[order[b]])
	})

	var out []Violation
	for i, row := range s.Rows(k) {
		for n := 1; n < len(order); n++ {
			from, to := row[order[n-1]], row[order[n]]
			if to.Width() > from.Width()+tol {
				out = append(out, Violation{
					Kind:      k,
					Speed:     s.Speeds[i],
					DeltaFrom: s.Deltas[order[n-1]],
					DeltaTo:   s.Deltas[order[n]],
					WidthFrom: from.Width(),
					WidthTo:   to.Width(),
				})
			}
		}
	}
	return out
}
