package envelope

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidVehicle indicates a vehicle constant that is not strictly positive.
	ErrInvalidVehicle = errors.New("envelope: invalid vehicle configuration")

	// ErrTooManyRoots indicates the bound quartic produced more than two real
	// roots. The quartic is convex, so this is a defect, never an input problem.
	ErrTooManyRoots = errors.New("envelope: too many real roots in next-step quartic")

	// ErrIterationLimit indicates a search ran out of iterations before
	// reaching a verdict. Raising the limit may resolve it.
	ErrIterationLimit = errors.New("envelope: iteration limit exceeded")

	// ErrNoSustainableSpeed indicates the fixed-point search hit an
	// infeasible bound at zero steering.
	ErrNoSustainableSpeed = errors.New("envelope: no sustainable speed at zero steering")
)

// RootCountError carries the inputs that produced an impossible root count.
type RootCountError struct {
	VCurrent  float64
	DeltaNext float64
	Roots     []float64
}

func (e *RootCountError) Error() string {
	return fmt.Sprintf("%v: %d roots %v (v=%g, delta=%g)",
		ErrTooManyRoots, len(e.Roots), e.Roots, e.VCurrent, e.DeltaNext)
}

func (e *RootCountError) Unwrap() error {
	return ErrTooManyRoots
}

// IterationLimitError names the search that ran out of iterations.
type IterationLimitError struct {
	Op    string
	Limit int
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("%s: %v (limit %d)", e.Op, ErrIterationLimit, e.Limit)
}

func (e *IterationLimitError) Unwrap() error {
	return ErrIterationLimit
}
