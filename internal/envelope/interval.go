package envelope

import "fmt"

// InfeasibleSpeed is the marker stored in both edges of [Infeasible].
const InfeasibleSpeed = -1.0

// Interval is a range of next-step speeds with Max >= Min.
type Interval struct {
	Max float64
	Min float64

	infeasible bool
}

// Infeasible is returned when no speed satisfies the constraints. It never
// compares equal to an Interval built from real roots, even one at -1.
var Infeasible = Interval{Max: InfeasibleSpeed, Min: InfeasibleSpeed, infeasible: true}

func point(v float64) Interval { return Interval{Max: v, Min: v} }

func (iv Interval) Feasible() bool { return !iv.infeasible }

// Width is Max-Min, or 0 for the infeasible interval.
func (iv Interval) Width() float64 {
	if iv.infeasible {
		return 0
	}
	return iv.Max - iv.Min
}

// Contains reports whether v lies within the interval.
func (iv Interval) Contains(v float64) bool {
	return !iv.infeasible && v >= iv.Min && v <= iv.Max
}

func (iv Interval) String() string {
	if iv.infeasible {
		return "infeasible"
	}
	return fmt.Sprintf("[%.6f, %.6f]", iv.Min, iv.Max)
}
