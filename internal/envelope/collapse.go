package envelope

import "math"

// CollapseFunc reduces a feasible interval to the single speed the
// worst-case simulation carries into its next step.
type CollapseFunc func(iv Interval) float64

// SlowestSpeed stops when the interval straddles zero and otherwise keeps
// the edge with the smaller magnitude.
func SlowestSpeed(iv Interval) float64 {
	if iv.Min*iv.Max <= 0 {
		return 0
	}
	return math.Copysign(math.Min(math.Abs(iv.Min), math.Abs(iv.Max)), iv.Min)
}

// FastestSpeed keeps the edge with the larger magnitude. It is a
// deliberately aggressive policy for comparing against SlowestSpeed.
func FastestSpeed(iv Interval) float64 {
	if math.Abs(iv.Max) >= math.Abs(iv.Min) {
		return iv.Max
	}
	return iv.Min
}
