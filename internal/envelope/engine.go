package envelope

import (
	"fmt"
	"math"

	"github.com/san-kum/safecar/internal/poly"
)

const (
	DefaultWorstCaseIterations = 100
	DefaultBisections          = 20
	DefaultMaxSpeedIterations  = 1000

	// ConvergenceTolerance ends the max-speed fixed-point search.
	ConvergenceTolerance = 1e-4

	// DefaultRootTolerance is the relative imaginary part below which a
	// quartic root counts as real.
	DefaultRootTolerance = 1e-9

	// Below this alpha*dt the companion matrix is badly scaled; roots are
	// found by polishing the zero-curvature solution instead.
	negligibleCurvature = 1e-7
	residualTolerance   = 1e-9
)

// Engine evaluates velocity bounds for one vehicle.
type Engine struct {
	vehicle  Vehicle
	rootTol  float64
	collapse CollapseFunc
}

type Option func(*Engine)

// WithRootTolerance sets the relative imaginary-part tolerance used to
// classify quartic roots as real.
func WithRootTolerance(tol float64) Option {
	return func(e *Engine) {
		if tol > 0 {
			e.rootTol = tol
		}
	}
}

// WithCollapse replaces the policy that picks the speed carried between
// worst-case simulation steps.
func WithCollapse(fn CollapseFunc) Option {
	return func(e *Engine) {
		if fn != nil {
			e.collapse = fn
		}
	}
}

func New(v Vehicle, opts ...Option) (*Engine, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		vehicle:  v,
		rootTol:  DefaultRootTolerance,
		collapse: SlowestSpeed,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Vehicle() Vehicle { return e.vehicle }

// Quartic returns the feasibility polynomial for the given state:
//
//	alpha^2 v^4 + v^2/dt^2 - 2 vCurrent/dt^2 v + vCurrent^2/dt^2 - (c^2/L)^2
//
// with alpha = tan|deltaNext| / L. Its roots bound the next-step speed.
func (e *Engine) Quartic(vCurrent, deltaNext float64) poly.Polynomial {
	alpha := math.Tan(math.Abs(deltaNext)) / e.vehicle.Wheelbase
	dt2 := e.vehicle.Dt * e.vehicle.Dt
	accel := e.vehicle.FrictionAccel()
	return poly.Polynomial{
		vCurrent*vCurrent/dt2 - accel*accel,
		-2 * vCurrent / dt2,
		1 / dt2,
		0,
		alpha * alpha,
	}
}

// NextStepBound returns the interval of speeds that keep the combined
// longitudinal and lateral acceleration inside the friction circle for one
// step at steering angle deltaNext. Negative speeds denote reverse motion.
func (e *Engine) NextStepBound(vCurrent, deltaNext float64) (Interval, error) {
	if math.Abs(deltaNext) > e.vehicle.MaxDelta {
		return Infeasible, nil
	}

	roots, err := e.realRoots(vCurrent, deltaNext)
	if err != nil {
		return Infeasible, err
	}

	switch len(roots) {
	case 0:
		return Infeasible, nil
	case 1:
		return point(roots[0]), nil
	case 2:
		return Interval{Max: roots[1], Min: roots[0]}, nil
	default:
		return Infeasible, &RootCountError{VCurrent: vCurrent, DeltaNext: deltaNext, Roots: roots}
	}
}

func (e *Engine) realRoots(vCurrent, deltaNext float64) ([]float64, error) {
	q := e.Quartic(vCurrent, deltaNext)

	alpha := math.Tan(math.Abs(deltaNext)) / e.vehicle.Wheelbase
	if alpha*e.vehicle.Dt >= negligibleCurvature {
		roots, err := q.RealRoots(e.rootTol)
		if err != nil {
			return nil, fmt.Errorf("next-step quartic: %w", err)
		}
		return roots, nil
	}

	// Seeds from (v - vCurrent)^2 = (dt * mu*g)^2, then polished against the
	// full quartic. A seed that cannot be driven to a root is dropped.
	accel := e.vehicle.FrictionAccel()
	reach := e.vehicle.Dt * accel
	scale := accel*accel + vCurrent*vCurrent/(e.vehicle.Dt*e.vehicle.Dt)
	roots := make([]float64, 0, 2)
	for _, seed := range []float64{vCurrent - reach, vCurrent + reach} {
		x := q.Polish(seed, poly.DefaultPolishIterations)
		if math.Abs(q.Eval(x)) <= residualTolerance*scale {
			roots = append(roots, x)
		}
	}
	return roots, nil
}

// WorstCaseFeasible simulates vCandidate while the steering keeps turning
// at its maximum rate in the direction of deltaNext. It passes once the
// trajectory has survived one full step at the saturated angle and fails
// as soon as a step has no feasible speed.
func (e *Engine) WorstCaseFeasible(vCandidate, deltaNext float64, iterationLimit int) (bool, error) {
	return e.worstCase(vCandidate, deltaNext, iterationLimit, nil)
}

// Step is one iteration of a worst-case simulation.
type Step struct {
	Index     int
	Speed     float64 // speed entering the step
	Delta     float64 // steering angle commanded for the step
	Bound     Interval
	Saturated bool
}

// WorstCaseTrace runs the same simulation as WorstCaseFeasible and also
// returns every step it evaluated, the failing one included.
func (e *Engine) WorstCaseTrace(vCandidate, deltaNext float64, iterationLimit int) ([]Step, bool, error) {
	var steps []Step
	ok, err := e.worstCase(vCandidate, deltaNext, iterationLimit, func(s Step) {
		steps = append(steps, s)
	})
	return steps, ok, err
}

func (e *Engine) worstCase(vCandidate, deltaNext float64, iterationLimit int, observe func(Step)) (bool, error) {
	dir := 1.0
	if deltaNext < 0 {
		dir = -1.0
	}

	steer := steeringState{angle: deltaNext}
	speed := vCandidate
	for i := 0; i < iterationLimit; i++ {
		iv, err := e.NextStepBound(speed, steer.angle)
		if err != nil {
			return false, err
		}
		if observe != nil {
			observe(Step{Index: i, Speed: speed, Delta: steer.angle, Bound: iv, Saturated: steer.saturated})
		}
		if !iv.Feasible() {
			return false, nil
		}
		speed = e.collapse(iv)

		if steer.saturated {
			return true, nil
		}
		steer.advance(dir*e.vehicle.SteeringStep(), e.vehicle.MaxDelta)
	}

	return false, &IterationLimitError{Op: "worst-case test", Limit: iterationLimit}
}

// steeringState is the simulated command of one worst-case run.
type steeringState struct {
	angle     float64
	saturated bool
}

// advance moves the angle by step, clamping at ±maxDelta. Saturation is
// only acted on by the caller in the following iteration.
func (s *steeringState) advance(step, maxDelta float64) {
	s.angle += step
	if math.Abs(s.angle) >= maxDelta {
		s.angle = math.Copysign(maxDelta, s.angle)
		s.saturated = true
	}
}

// WorstCaseBound returns the next-step interval restricted to speeds that
// pass the worst-case test. Only the upper edge is ever lowered; the
// lower edge must pass for any refinement to happen.
func (e *Engine) WorstCaseBound(vCurrent, deltaNext float64, iterationLimit, bisections int) (Interval, error) {
	iv, err := e.NextStepBound(vCurrent, deltaNext)
	if err != nil || !iv.Feasible() {
		return Infeasible, err
	}

	maxOK, err := e.WorstCaseFeasible(iv.Max, deltaNext, iterationLimit)
	if err != nil {
		return Infeasible, err
	}

	if iv.Max == iv.Min {
		if maxOK {
			return iv, nil
		}
		return Infeasible, nil
	}

	minOK, err := e.WorstCaseFeasible(iv.Min, deltaNext, iterationLimit)
	if err != nil {
		return Infeasible, err
	}

	switch {
	case maxOK:
		return iv, nil
	case minOK:
		refined, err := e.refineMax(iv, deltaNext, iterationLimit, bisections)
		if err != nil {
			return Infeasible, err
		}
		return Interval{Max: refined, Min: iv.Min}, nil
	default:
		return Infeasible, nil
	}
}

// refineMax bisects between a passing iv.Min and a failing iv.Max and
// returns the highest speed seen to pass.
func (e *Engine) refineMax(iv Interval, deltaNext float64, iterationLimit, bisections int) (float64, error) {
	good, bad := iv.Min, iv.Max
	for i := 0; i < bisections; i++ {
		mid := good + (bad-good)/2
		ok, err := e.WorstCaseFeasible(mid, deltaNext, iterationLimit)
		if err != nil {
			return 0, err
		}
		if ok {
			good = mid
		} else {
			bad = mid
		}
	}
	return good, nil
}

// MaxSustainableSpeed iterates speed = WorstCaseBound(speed, 0).Max from
// rest until successive values agree within ConvergenceTolerance.
func (e *Engine) MaxSustainableSpeed(iterationLimit int) (float64, error) {
	speed := 0.0
	for i := 0; i < iterationLimit; i++ {
		iv, err := e.WorstCaseBound(speed, 0, DefaultWorstCaseIterations, DefaultBisections)
		if err != nil {
			return 0, err
		}
		if !iv.Feasible() {
			return 0, fmt.Errorf("%w (from %.6f m/s)", ErrNoSustainableSpeed, speed)
		}
		if math.Abs(iv.Max-speed) < ConvergenceTolerance {
			return iv.Max, nil
		}
		speed = iv.Max
	}
	return 0, &IterationLimitError{Op: "max sustainable speed", Limit: iterationLimit}
}
