package tui

import (
	"bytes"
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/safecar/internal/config"
	"github.com/san-kum/safecar/internal/envelope"
)

func newTestExplorer(t *testing.T) *Explorer {
	t.Helper()
	m, err := NewExplorer(config.DefaultConfig(), "default")
	if err != nil {
		t.Fatalf("NewExplorer: %v", err)
	}
	return m
}

func press(m *Explorer, msg tea.KeyMsg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestExplorer_Initial(t *testing.T) {
	m := newTestExplorer(t)
	if m.speed != 0 || m.delta != 0 {
		t.Fatalf("expected rest state, got v=%v delta=%v", m.speed, m.delta)
	}
	if !m.next.Feasible() || !m.worst.Feasible() {
		t.Fatalf("bounds at rest should be feasible: %v %v", m.next, m.worst)
	}
	if m.maxSpeedErr != nil || math.Abs(m.maxSpeed-1.6221466) > 1e-4 {
		t.Errorf("max sustainable speed = %v, %v", m.maxSpeed, m.maxSpeedErr)
	}
	if !strings.Contains(m.View(), "sustainable") {
		t.Error("view should show the sustainable speed")
	}
}

func TestExplorer_Steering(t *testing.T) {
	m := newTestExplorer(t)
	step := envelope.DefaultVehicle().SteeringStep()

	press(m, tea.KeyMsg{Type: tea.KeyRight})
	if math.Abs(m.delta-step) > 1e-12 {
		t.Errorf("delta = %v, want %v", m.delta, step)
	}
	press(m, runes("h"))
	press(m, runes("h"))
	if math.Abs(m.delta+step) > 1e-12 {
		t.Errorf("delta = %v, want %v", m.delta, -step)
	}

	for i := 0; i < 50; i++ {
		press(m, tea.KeyMsg{Type: tea.KeyLeft})
	}
	if m.delta < -1.5*envelope.DefaultMaxDelta-1e-12 {
		t.Errorf("delta should be clamped, got %v", m.delta)
	}
	if m.next.Feasible() {
		t.Error("steering past the limit should be infeasible")
	}
}

func TestExplorer_SpeedKeys(t *testing.T) {
	m := newTestExplorer(t)

	press(m, tea.KeyMsg{Type: tea.KeyUp})
	press(m, runes("k"))
	if math.Abs(m.speed-0.2) > 1e-12 {
		t.Errorf("speed = %v, want 0.2", m.speed)
	}
	press(m, runes("j"))
	if math.Abs(m.speed-0.1) > 1e-12 {
		t.Errorf("speed = %v, want 0.1", m.speed)
	}
	if len(m.history) != 3 {
		t.Errorf("history length = %d, want 3", len(m.history))
	}

	press(m, runes("r"))
	if m.speed != 0 || len(m.history) != 0 {
		t.Errorf("reset left v=%v history=%v", m.speed, m.history)
	}
}

func TestExplorer_StepToWorstMax(t *testing.T) {
	m := newTestExplorer(t)
	want := m.worst.Max

	press(m, runes("n"))
	if m.speed != want || m.speed <= 0 {
		t.Errorf("speed = %v, want %v", m.speed, want)
	}

	prev := m.speed
	for i := 0; i < 30; i++ {
		press(m, runes("n"))
	}
	if m.speed < prev || math.Abs(m.speed-m.maxSpeed) > 1e-3 {
		t.Errorf("repeated steps should approach %v, got %v", m.maxSpeed, m.speed)
	}
}

func TestExplorer_PresetMenu(t *testing.T) {
	m := newTestExplorer(t)

	press(m, runes("p"))
	if m.state != stateMenu || !strings.Contains(m.View(), "s a f e c a r") {
		t.Fatal("p should open the preset menu")
	}

	press(m, tea.KeyMsg{Type: tea.KeyDown})
	press(m, tea.KeyMsg{Type: tea.KeyDown})
	name := m.presets[m.cursor]
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state != stateExplore || m.preset != name {
		t.Fatalf("expected preset %q loaded, got %q (state %v)", name, m.preset, m.state)
	}
	if !strings.Contains(m.View(), name) {
		t.Errorf("view should name the preset %q", name)
	}
}

func TestExplorer_Quit(t *testing.T) {
	m := newTestExplorer(t)
	cmd := press(m, runes("q"))
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestExplorer_HelpToggle(t *testing.T) {
	m := newTestExplorer(t)
	press(m, runes("?"))
	if !strings.Contains(m.View(), "take collapsed speed") {
		t.Error("help should list every key")
	}
	press(m, runes("?"))
	if strings.Contains(m.View(), "take collapsed speed") {
		t.Error("help should toggle off")
	}
}

func TestTraceRenderer(t *testing.T) {
	eng, err := envelope.New(envelope.DefaultVehicle())
	if err != nil {
		t.Fatal(err)
	}

	steps, ok, err := eng.WorstCaseTrace(0.3, 0, envelope.DefaultWorstCaseIterations)
	if err != nil || !ok {
		t.Fatalf("trace: %v %v", ok, err)
	}

	var buf bytes.Buffer
	if err := NewTraceRenderer(&buf, eng.Vehicle(), 0).Render(steps, ok); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"PASS", "saturated", "O", "+"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, clearScreen) {
		t.Error("static render should not clear the screen")
	}

	steps, ok, err = eng.WorstCaseTrace(5, 1.0, envelope.DefaultWorstCaseIterations)
	if err != nil || ok {
		t.Fatalf("trace: %v %v", ok, err)
	}
	buf.Reset()
	if err := NewTraceRenderer(&buf, eng.Vehicle(), 0).Render(steps, ok); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "FAIL") || !strings.Contains(buf.String(), "infeasible") {
		t.Errorf("failing trace should be marked:\n%s", buf.String())
	}
}
