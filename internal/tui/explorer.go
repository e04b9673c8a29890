// Package tui hosts the interactive envelope explorer and the step-by-step
// worst-case trace printer.
//
// # Key Bindings
//
//	←/→ h/l - Decrease/increase steering angle
//	↑/↓ k/j - Increase/decrease current speed
//	n       - Step: take the upper worst-case edge as the new speed
//	s       - Step: take the collapsed speed of the worst-case bound
//	r       - Reset
//	t       - Cycle color themes
//	p       - Pick another preset
//	?       - Toggle help
//	q       - Quit
package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/safecar/internal/config"
	"github.com/san-kum/safecar/internal/envelope"
	"github.com/san-kum/safecar/internal/sweep"
	"github.com/san-kum/safecar/internal/viz"
)

var (
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

func accent() lipgloss.Style  { return lipgloss.NewStyle().Foreground(viz.CurrentTheme.Accent) }
func primary() lipgloss.Style { return lipgloss.NewStyle().Foreground(viz.CurrentTheme.Primary) }
func safe() lipgloss.Style    { return lipgloss.NewStyle().Foreground(viz.CurrentTheme.Safe) }
func warn() lipgloss.Style    { return lipgloss.NewStyle().Foreground(viz.CurrentTheme.Warning) }
func danger() lipgloss.Style  { return lipgloss.NewStyle().Foreground(viz.CurrentTheme.Danger) }

const (
	speedStep   = 0.1
	historySize = 60
	barWidth    = 40
)

type state int

const (
	stateMenu state = iota
	stateExplore
)

// Explorer is a Bubble Tea model that re-evaluates both bounds whenever the
// current speed or the next steering angle changes.
type Explorer struct {
	state   state
	cursor  int
	presets []string

	preset string
	cfg    *config.Config
	eng    *envelope.Engine
	limits sweep.Limits

	speed float64
	delta float64
	next  envelope.Interval
	worst envelope.Interval
	err   error

	maxSpeed    float64
	maxSpeedErr error

	history  []float64
	showHelp bool
}

// NewExplorer starts the explorer on cfg. preset only labels the view.
func NewExplorer(cfg *config.Config, preset string) (*Explorer, error) {
	m := &Explorer{presets: config.ListPresets()}
	if err := m.load(cfg, preset); err != nil {
		return nil, err
	}
	m.state = stateExplore
	return m, nil
}

func (m *Explorer) load(cfg *config.Config, preset string) error {
	eng, err := cfg.Engine()
	if err != nil {
		return err
	}
	m.cfg = cfg
	m.preset = preset
	m.eng = eng
	m.limits = sweep.Limits{
		WorstCaseIterations: cfg.Solver.WorstCaseIterations,
		Bisections:          cfg.Solver.Bisections,
	}
	m.maxSpeed, m.maxSpeedErr = eng.MaxSustainableSpeed(cfg.Solver.MaxSpeedIterations)
	m.reset()
	return nil
}

func (m *Explorer) reset() {
	m.speed = 0
	m.delta = 0
	m.history = m.history[:0]
	m.evaluate()
}

func (m *Explorer) evaluate() {
	m.next, m.err = m.eng.NextStepBound(m.speed, m.delta)
	if m.err != nil {
		m.worst = envelope.Infeasible
		return
	}
	m.worst, m.err = m.eng.WorstCaseBound(m.speed, m.delta, m.limits.WorstCaseIterations, m.limits.Bisections)
}

func (m *Explorer) setSpeed(v float64) {
	m.speed = v
	m.history = append(m.history, v)
	if len(m.history) > historySize {
		m.history = m.history[1:]
	}
	m.evaluate()
}

func (m *Explorer) Init() tea.Cmd { return nil }

func (m *Explorer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if key.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.state {
	case stateMenu:
		return m.menuKey(key)
	default:
		return m.exploreKey(key)
	}
}

func (m *Explorer) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		if m.eng != nil {
			m.state = stateExplore
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		name := m.presets[m.cursor]
		cfg, err := config.GetPreset(name)
		if err == nil {
			err = m.load(cfg, name)
		}
		if err != nil {
			m.err = err
			return m, nil
		}
		m.state = stateExplore
	}
	return m, nil
}

func (m *Explorer) exploreKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	step := m.eng.Vehicle().SteeringStep()
	limit := 1.5 * m.eng.Vehicle().MaxDelta

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h":
		m.delta = math.Max(m.delta-step, -limit)
		m.evaluate()
	case "right", "l":
		m.delta = math.Min(m.delta+step, limit)
		m.evaluate()
	case "up", "k":
		m.setSpeed(m.speed + speedStep)
	case "down", "j":
		m.setSpeed(m.speed - speedStep)
	case "n":
		if m.worst.Feasible() {
			m.setSpeed(m.worst.Max)
		}
	case "s":
		if m.worst.Feasible() {
			m.setSpeed(envelope.SlowestSpeed(m.worst))
		}
	case "r":
		m.reset()
	case "t":
		viz.NextTheme()
	case "p", "esc":
		m.state = stateMenu
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Explorer) View() string {
	if m.state == stateMenu {
		return m.viewMenu()
	}
	return m.viewExplore()
}

func (m *Explorer) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + accent().Render("s a f e c a r") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n\n")

	for i, name := range m.presets {
		if i == m.cursor {
			b.WriteString("      " + accent().Render("▸ ") + white.Render(name) + "\n")
		} else {
			b.WriteString("        " + dim.Render(name) + "\n")
		}
	}
	if m.err != nil {
		b.WriteString("\n      " + danger().Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dim.Render("      ↑↓ select   enter load   esc back   q quit") + "\n")
	return b.String()
}

func (m *Explorer) viewExplore() string {
	var b strings.Builder
	v := m.eng.Vehicle()

	fmt.Fprintf(&b, "\n   %s  %s\n", accent().Render(m.preset), dim.Render(viz.CurrentTheme.Name))
	fmt.Fprintf(&b, "   %s\n\n", dim.Render(fmt.Sprintf(
		"omega %.2f rad/s  max delta %.2f rad  dt %.3f s  L %.3f m  c %.2f  mu*g %.2f m/s²",
		v.Omega, v.MaxDelta, v.Dt, v.Wheelbase, v.Friction, v.FrictionAccel())))

	deltaStyle := white
	if math.Abs(m.delta) > v.MaxDelta {
		deltaStyle = danger()
	}
	fmt.Fprintf(&b, "   %s %s   %s %s\n\n",
		dim.Render("v"), white.Render(fmt.Sprintf("%+.4f m/s", m.speed)),
		dim.Render("delta"), deltaStyle.Render(fmt.Sprintf("%+.4f rad", m.delta)))

	lo, hi := m.axis()
	b.WriteString(m.boundLine("next ", m.next, lo, hi))
	b.WriteString(m.boundLine("worst", m.worst, lo, hi))
	fmt.Fprintf(&b, "         %s\n", dimmer.Render(fmt.Sprintf("%-*.2f%*.2f", barWidth/2, lo, barWidth/2, hi)))

	switch {
	case m.maxSpeedErr != nil:
		fmt.Fprintf(&b, "\n   %s %s\n", dim.Render("sustainable"), danger().Render(m.maxSpeedErr.Error()))
	default:
		fmt.Fprintf(&b, "\n   %s %s\n", dim.Render("sustainable"), primary().Render(fmt.Sprintf("%.4f m/s", m.maxSpeed)))
	}

	if m.err != nil {
		fmt.Fprintf(&b, "   %s\n", danger().Render(m.err.Error()))
	}

	if len(m.history) > 1 {
		fmt.Fprintf(&b, "   %s %s\n", dim.Render("v"), accent().Render(viz.Sparkline(m.history, 40)))
	}

	if m.showHelp {
		b.WriteString("\n" + dim.Render("   ←→ steer  ↑↓ speed  n take worst max  s take collapsed speed") + "\n")
		b.WriteString(dim.Render("   r reset  t theme  p presets  ? help  q quit") + "\n")
	} else {
		b.WriteString("\n" + dim.Render("   ←→ steer  ↑↓ speed  n/s step  ? help  q quit") + "\n")
	}
	return b.String()
}

func (m *Explorer) boundLine(label string, iv envelope.Interval, lo, hi float64) string {
	bar := viz.IntervalBar(iv.Min, iv.Max, m.speed, lo, hi, barWidth, iv.Feasible())
	status := danger().Render("infeasible")
	style := danger()
	if iv.Feasible() {
		status = safe().Render(iv.String())
		style = safe()
		if iv.Width() == 0 {
			style = warn()
		}
	}
	return fmt.Sprintf("   %s %s  %s\n", dim.Render(label), style.Render(bar), status)
}

// axis spans the current speed, both intervals and the sustainable speed.
func (m *Explorer) axis() (lo, hi float64) {
	lo, hi = math.Min(0, m.speed), math.Max(m.speed, m.maxSpeed)
	for _, iv := range []envelope.Interval{m.next, m.worst} {
		if iv.Feasible() {
			lo, hi = math.Min(lo, iv.Min), math.Max(hi, iv.Max)
		}
	}
	pad := 0.1 * (hi - lo)
	if pad == 0 {
		pad = 1
	}
	return lo - pad, hi + pad
}
