// Package viz renders velocity envelopes in the terminal.
//
// The package provides static renderers for sampled surfaces and the
// shared styles used by the interactive explorer in package tui:
//
//   - [SpeedSlice], [DeltaSlice]: asciigraph line plots of the interval
//     edges along one axis of a [sweep.Surface]
//   - [Heatmap]: shaded map of the upper edge over the whole grid
//   - [Sparkline], [IntervalBar]: one-line gauges
//   - [Theme]: color schemes shared by every renderer
package viz
