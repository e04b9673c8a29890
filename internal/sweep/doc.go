// Package sweep samples the velocity envelope over a grid of current
// speeds and steering angles.
//
// A [Surface] holds both the next-step and the worst-case interval at every
// grid point and is the input of the terminal and image renderers:
//
//	s := sweep.NewSampler(eng, sweep.DefaultLimits(), 0, nil)
//	surf, err := s.Sample(ctx, sweep.NewGrid(0, 10, 100, -1.2, 1.2, 100))
package sweep
