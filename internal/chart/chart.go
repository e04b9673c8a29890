// Package chart exports sampled envelopes as PNG, SVG or PDF line plots.
package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/safecar/internal/sweep"
)

var ErrUnsupportedFormat = errors.New("chart: unsupported image format")

const (
	DefaultWidth  = 10 * vg.Inch
	DefaultHeight = 6 * vg.Inch
)

var formats = map[string]bool{"png": true, "svg": true, "pdf": true}

// SpeedSlices plots both edges of k against current speed, one pair of
// lines per steering column nearest each of deltas. Upper edges are solid
// and lower edges dashed; infeasible samples leave gaps.
func SpeedSlices(surf *sweep.Surface, k sweep.Kind, deltas []float64) (*plot.Plot, error) {
	p := newPlot(fmt.Sprintf("%s bound vs current speed", k), "v_current (m/s)")
	for i, d := range deltas {
		j := surf.NearestDelta(d)
		maxs, mins := surf.SpeedSlice(k, j)
		label := fmt.Sprintf("delta=%.3f", surf.Deltas[j])
		if err := addEdges(p, surf.Speeds, maxs, mins, label, i); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// DeltaSlices is SpeedSlices along the steering axis, one pair of lines
// per speed row nearest each of speeds.
func DeltaSlices(surf *sweep.Surface, k sweep.Kind, speeds []float64) (*plot.Plot, error) {
	p := newPlot(fmt.Sprintf("%s bound vs steering angle", k), "delta_next (rad)")
	for n, v := range speeds {
		i := surf.NearestSpeed(v)
		maxs, mins := surf.DeltaSlice(k, i)
		label := fmt.Sprintf("v=%.2f", surf.Speeds[i])
		if err := addEdges(p, surf.Deltas, maxs, mins, label, n); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func newPlot(title, xLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "v_next (m/s)"
	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p
}

func addEdges(p *plot.Plot, xs, maxs, mins []float64, label string, series int) error {
	color := plotutil.Color(series)

	upper, err := segments(xs, maxs)
	if err != nil {
		return err
	}
	lower, err := segments(xs, mins)
	if err != nil {
		return err
	}

	for n, l := range upper {
		l.Color = color
		l.Width = vg.Points(1.5)
		p.Add(l)
		if n == 0 {
			p.Legend.Add(label+" max", l)
		}
	}
	for n, l := range lower {
		l.Color = color
		l.Width = vg.Points(1)
		l.Dashes = plotutil.Dashes(1)
		p.Add(l)
		if n == 0 {
			p.Legend.Add(label+" min", l)
		}
	}
	return nil
}

// segments splits a series into runs of feasible samples. Each run becomes
// its own line so gaps are not bridged.
func segments(xs, ys []float64) ([]*plotter.Line, error) {
	var lines []*plotter.Line
	var run plotter.XYs
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		l, err := plotter.NewLine(run)
		if err != nil {
			return err
		}
		lines = append(lines, l)
		run = nil
		return nil
	}

	for i, y := range ys {
		if math.IsNaN(y) {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		run = append(run, plotter.XY{X: xs[i], Y: y})
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Save writes p to path in the format named by its extension.
func Save(p *plot.Plot, path string) error {
	if _, err := format(path); err != nil {
		return err
	}
	if err := p.Save(DefaultWidth, DefaultHeight, path); err != nil {
		return fmt.Errorf("save plot: %w", err)
	}
	return nil
}

// Write renders p to w as format ("png", "svg" or "pdf").
func Write(w io.Writer, p *plot.Plot, format string) error {
	if !formats[format] {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	wt, err := p.WriterTo(DefaultWidth, DefaultHeight, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

func format(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !formats[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
	return ext, nil
}
