// Package envelope computes dynamically safe velocity intervals for a
// steered vehicle modelled as a kinematic bicycle.
//
// The operations are layered, each built on the previous one:
//
//   - [Engine.NextStepBound]: speeds reachable next step that respect the
//     friction limit at the commanded steering angle
//   - [Engine.WorstCaseFeasible]: forward simulation under maximum-rate
//     steering escalation until the steering saturates
//   - [Engine.WorstCaseBound]: the next-step interval with its upper edge
//     refined so that it survives the worst case
//   - [Engine.MaxSustainableSpeed]: fixed point of the worst-case bound at
//     zero steering
//
// # Example
//
//	eng, _ := envelope.New(envelope.DefaultVehicle())
//	iv, err := eng.WorstCaseBound(2.0, 0.1, envelope.DefaultWorstCaseIterations, envelope.DefaultBisections)
//	if err == nil && iv.Feasible() {
//	    // command a speed within [iv.Min, iv.Max]
//	}
//
// # Thread Safety
//
// An Engine holds only immutable configuration. All methods may be called
// concurrently.
package envelope
