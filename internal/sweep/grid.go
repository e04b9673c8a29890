package sweep

import "math"

// Grid is the cartesian product of current speeds and steering angles.
type Grid struct {
	Speeds []float64
	Deltas []float64
}

func NewGrid(vMin, vMax float64, vSteps int, dMin, dMax float64, dSteps int) Grid {
	return Grid{
		Speeds: Linspace(vMin, vMax, vSteps),
		Deltas: Linspace(dMin, dMax, dSteps),
	}
}

func (g Grid) Size() int { return len(g.Speeds) * len(g.Deltas) }

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// nearest returns the index of the value in xs closest to x.
func nearest(xs []float64, x float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, v := range xs {
		if d := math.Abs(v - x); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
