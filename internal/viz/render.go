package viz

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/safecar/internal/sweep"
)

var ErrNoFeasiblePoints = errors.New("viz: slice has no feasible points")

// PlotOptions sizes the asciigraph output.
type PlotOptions struct {
	Width  int
	Height int
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 80, Height: 12}
}

// SpeedSlice plots Max and Min against current speed at the steering
// column nearest delta.
func SpeedSlice(surf *sweep.Surface, k sweep.Kind, delta float64, opts PlotOptions) (string, error) {
	j := surf.NearestDelta(delta)
	maxs, mins := surf.SpeedSlice(k, j)
	caption := fmt.Sprintf("%s bound vs v_current (delta=%.3f rad, v %.2f..%.2f m/s)",
		k, surf.Deltas[j], surf.Speeds[0], surf.Speeds[len(surf.Speeds)-1])
	return plotEdges(maxs, mins, caption, opts)
}

// DeltaSlice plots Max and Min against steering angle at the speed row
// nearest v.
func DeltaSlice(surf *sweep.Surface, k sweep.Kind, v float64, opts PlotOptions) (string, error) {
	i := surf.NearestSpeed(v)
	maxs, mins := surf.DeltaSlice(k, i)
	caption := fmt.Sprintf("%s bound vs delta_next (v=%.2f m/s, delta %.2f..%.2f rad)",
		k, surf.Speeds[i], surf.Deltas[0], surf.Deltas[len(surf.Deltas)-1])
	return plotEdges(maxs, mins, caption, opts)
}

// plotEdges draws both edges; NaN samples are left as gaps.
func plotEdges(hi, lo []float64, caption string, opts PlotOptions) (string, error) {
	feasible := false
	for _, v := range hi {
		if !math.IsNaN(v) {
			feasible = true
			break
		}
	}
	if !feasible {
		return "", ErrNoFeasiblePoints
	}

	return asciigraph.PlotMany([][]float64{hi, lo},
		asciigraph.Height(opts.Height),
		asciigraph.Width(opts.Width),
		asciigraph.Precision(3),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red),
		asciigraph.Caption(caption),
	), nil
}

var shades = []rune{'░', '▒', '▓', '█'}

// Heatmap shades the upper edge of k over the grid, steering on the
// vertical axis (largest angle on top) and speed on the horizontal axis.
// Infeasible points are blank. Each cell is one grid point.
func Heatmap(surf *sweep.Surface, k sweep.Kind) string {
	rows := surf.Rows(k)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range rows {
		for _, iv := range row {
			if iv.Feasible() {
				lo, hi = math.Min(lo, iv.Max), math.Max(hi, iv.Max)
			}
		}
	}
	rng := hi - lo
	if rng <= 0 || math.IsInf(rng, 0) {
		rng = 1
	}

	safe := lipgloss.NewStyle().Foreground(CurrentTheme.Safe)
	var sb strings.Builder
	for j := len(surf.Deltas) - 1; j >= 0; j-- {
		fmt.Fprintf(&sb, "%+6.2f │", surf.Deltas[j])
		var line strings.Builder
		for i := range surf.Speeds {
			iv := rows[i][j]
			if !iv.Feasible() {
				line.WriteRune(' ')
				continue
			}
			idx := int((iv.Max - lo) / rng * float64(len(shades)-1))
			line.WriteRune(shades[min(max(idx, 0), len(shades)-1)])
		}
		sb.WriteString(safe.Render(line.String()))
		sb.WriteString("\n")
	}
	sb.WriteString("       └" + strings.Repeat("─", len(surf.Speeds)) + "\n")
	fmt.Fprintf(&sb, "        v %.2f .. %.2f m/s   %s max %.3f..%.3f m/s\n",
		surf.Speeds[0], surf.Speeds[len(surf.Speeds)-1], k, math.Max(lo, 0), math.Max(hi, 0))
	return sb.String()
}

// Summary formats sweep statistics for both bound kinds.
func Summary(surf *sweep.Surface) string {
	var sb strings.Builder
	for _, k := range []sweep.Kind{sweep.NextStep, sweep.WorstCase} {
		st := surf.Stats(k)
		fmt.Fprintf(&sb, "%s\n", titleStyle().Render(k.String()))
		fmt.Fprintf(&sb, "%s%s\n", labelStyle.Render("feasible"), valueStyle.Render(fmt.Sprintf("%d / %d", st.Feasible, st.Points)))
		fmt.Fprintf(&sb, "%s%s\n", labelStyle.Render("top speed"), valueStyle.Render(fmt.Sprintf("%.4f m/s", st.MaxSpeed)))
		fmt.Fprintf(&sb, "%s%s\n", labelStyle.Render("mean width"), valueStyle.Render(fmt.Sprintf("%.4f m/s", st.MeanWidth)))
	}
	return panelStyle.Render(strings.TrimRight(sb.String(), "\n"))
}
