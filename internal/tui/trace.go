package tui

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/san-kum/safecar/internal/envelope"
)

const (
	traceWidth  = 60
	traceHeight = 18
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

type point struct{ x, y float64 }

// TraceRenderer draws a worst-case run as the path the vehicle would
// drive, followed by one row per simulated step. With a positive frame
// delay the path is animated one step at a time.
type TraceRenderer struct {
	w       io.Writer
	vehicle envelope.Vehicle
	delay   time.Duration
	canvas  [][]rune
}

func NewTraceRenderer(w io.Writer, vehicle envelope.Vehicle, delay time.Duration) *TraceRenderer {
	canvas := make([][]rune, traceHeight)
	for i := range canvas {
		canvas[i] = make([]rune, traceWidth)
	}
	return &TraceRenderer{w: w, vehicle: vehicle, delay: delay, canvas: canvas}
}

// Render writes the trace. passed is the outcome of the worst-case test.
func (r *TraceRenderer) Render(steps []envelope.Step, passed bool) error {
	path := r.path(steps)
	if r.delay <= 0 {
		return r.frame(steps, path, len(steps), passed)
	}

	fmt.Fprint(r.w, hideCursor)
	defer fmt.Fprint(r.w, showCursor)
	for n := 1; n <= len(steps); n++ {
		if _, err := fmt.Fprint(r.w, clearScreen); err != nil {
			return err
		}
		if err := r.frame(steps, path, n, passed); err != nil {
			return err
		}
		if n < len(steps) {
			time.Sleep(r.delay)
		}
	}
	return nil
}

// path integrates the kinematic bicycle over each step, heading starting
// along +y.
func (r *TraceRenderer) path(steps []envelope.Step) []point {
	pts := make([]point, 0, len(steps)+1)
	var p point
	heading := 0.0
	pts = append(pts, p)
	for _, s := range steps {
		heading += s.Speed * math.Tan(s.Delta) / r.vehicle.Wheelbase * r.vehicle.Dt
		p.x += s.Speed * math.Sin(heading) * r.vehicle.Dt
		p.y += s.Speed * math.Cos(heading) * r.vehicle.Dt
		pts = append(pts, p)
	}
	return pts
}

func (r *TraceRenderer) frame(steps []envelope.Step, path []point, n int, passed bool) error {
	r.clear()
	r.drawPath(path, n)

	var b strings.Builder
	b.WriteString("  " + dimmer.Render(strings.Repeat("─", traceWidth)) + "\n")
	for _, row := range r.canvas {
		b.WriteString("  " + string(row) + "\n")
	}
	b.WriteString("  " + dimmer.Render(strings.Repeat("─", traceWidth)) + "\n")

	fmt.Fprintf(&b, "  %s\n", dim.Render(fmt.Sprintf("%4s  %10s  %9s  %-26s  %s", "step", "v (m/s)", "delta", "bound", "")))
	for _, s := range steps[:n] {
		bound := danger().Render(fmt.Sprintf("%-26s", s.Bound))
		if s.Bound.Feasible() {
			bound = safe().Render(fmt.Sprintf("%-26s", s.Bound))
		}
		mark := ""
		if s.Saturated {
			mark = warn().Render("saturated")
		}
		fmt.Fprintf(&b, "  %4d  %+10.5f  %+9.4f  %s  %s\n", s.Index, s.Speed, s.Delta, bound, mark)
	}

	if n == len(steps) {
		if passed {
			fmt.Fprintf(&b, "\n  %s\n", safe().Render("PASS"))
		} else {
			fmt.Fprintf(&b, "\n  %s\n", danger().Render("FAIL"))
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *TraceRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *TraceRenderer) set(x, y int, c rune) {
	if x >= 0 && x < traceWidth && y >= 0 && y < traceHeight {
		r.canvas[y][x] = c
	}
}

// drawPath fits the whole path into the canvas, keeping the aspect ratio
// (a cell is about twice as tall as it is wide), and draws the first n
// segments.
func (r *TraceRenderer) drawPath(path []point, n int) {
	minX, maxX, minY, maxY := 0.0, 0.0, 0.0, 0.0
	for _, p := range path {
		minX, maxX = math.Min(minX, p.x), math.Max(maxX, p.x)
		minY, maxY = math.Min(minY, p.y), math.Max(maxY, p.y)
	}
	scaleY := math.Inf(1)
	if maxY > minY {
		scaleY = float64(traceHeight-1) / (maxY - minY)
	}
	if maxX > minX {
		scaleY = math.Min(scaleY, float64(traceWidth-1)/(2*(maxX-minX)))
	}
	if math.IsInf(scaleY, 1) {
		scaleY = 1
	}
	scaleX := 2 * scaleY

	cell := func(p point) (int, int) {
		return int(math.Round((p.x - minX) * scaleX)), traceHeight - 1 - int(math.Round((p.y-minY)*scaleY))
	}

	for i := 0; i < n && i+1 < len(path); i++ {
		x1, y1 := cell(path[i])
		x2, y2 := cell(path[i+1])
		r.line(x1, y1, x2, y2, '·')
	}
	x, y := cell(path[0])
	r.set(x, y, '+')
	x, y = cell(path[min(n, len(path)-1)])
	r.set(x, y, 'O')
}

func (r *TraceRenderer) line(x1, y1, x2, y2 int, c rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		r.set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
