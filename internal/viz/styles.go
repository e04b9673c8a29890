package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Accent).MarginBottom(1)
}

func statusStyle(ok bool) lipgloss.Style {
	if ok {
		return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Safe)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Danger)
}

// Sparkline renders values as block characters scaled between their own
// minimum and maximum. NaN entries render as gaps.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	rng := hi - lo
	if rng <= 0 || math.IsInf(rng, 0) {
		rng = 1
	}

	// Show the most recent values when there are more than fit.
	if len(values) > width {
		values = values[len(values)-width:]
	}

	var sb strings.Builder
	for _, v := range values {
		if math.IsNaN(v) {
			sb.WriteRune(' ')
			continue
		}
		idx := int((v - lo) / rng * float64(len(chars)-1))
		idx = min(max(idx, 0), len(chars)-1)
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

// IntervalBar draws [lo, hi] on an axis spanning [axisMin, axisMax] with a
// marker at the current speed.
func IntervalBar(lo, hi, current, axisMin, axisMax float64, width int, feasible bool) string {
	if width <= 0 || axisMax <= axisMin {
		return ""
	}
	col := func(v float64) int {
		c := int(math.Round((v - axisMin) / (axisMax - axisMin) * float64(width-1)))
		return min(max(c, 0), width-1)
	}

	cells := []rune(strings.Repeat("·", width))
	if feasible {
		for c := col(lo); c <= col(hi); c++ {
			cells[c] = '━'
		}
	}
	cells[col(current)] = '▼'
	return string(cells)
}
