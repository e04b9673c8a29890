// Package automation runs scripted and randomized batches of envelope
// queries: YAML scenarios with expected outcomes, one-parameter sweeps of
// the sustainable speed, and Monte Carlo property checks.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/safecar/internal/config"
	"github.com/san-kum/safecar/internal/envelope"
	"github.com/san-kum/safecar/internal/logging"
)

var (
	ErrUnknownOp       = errors.New("automation: unknown operation")
	ErrUnknownErrorTag = errors.New("automation: unknown expected error")
)

const DefaultTolerance = 1e-6

// Scenario is a scripted list of envelope queries with expected outcomes.
type Scenario struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Preset      string             `yaml:"preset"`
	Vehicle     map[string]float64 `yaml:"vehicle"`
	Steps       []ScenarioStep     `yaml:"steps"`
}

// ScenarioStep is one query. Op is bound, worst, check or maxspeed.
// Zero iteration limits fall back to the scenario's config.
type ScenarioStep struct {
	Op         string  `yaml:"op"`
	V          float64 `yaml:"v"`
	Delta      float64 `yaml:"delta"`
	Iterations int     `yaml:"iterations"`
	Bisections int     `yaml:"bisections"`
	Expect     Expect  `yaml:"expect"`
}

// Expect lists the checks applied to a step's outcome. Unset fields are
// not checked.
type Expect struct {
	Feasible *bool    `yaml:"feasible"`
	Max      *float64 `yaml:"max"`
	Min      *float64 `yaml:"min"`
	Pass     *bool    `yaml:"pass"`
	Speed    *float64 `yaml:"speed"`
	Error    string   `yaml:"error"`
	Tol      float64  `yaml:"tol"`
}

// StepResult is the outcome of one step and the expectations it missed.
type StepResult struct {
	Index    int
	Op       string
	Interval envelope.Interval
	Pass     bool
	Speed    float64
	Err      error
	Failures []string
}

func (r StepResult) OK() bool { return len(r.Failures) == 0 }

var errorTags = map[string]error{
	"iteration_limit":      envelope.ErrIterationLimit,
	"no_sustainable_speed": envelope.ErrNoSustainableSpeed,
	"too_many_roots":       envelope.ErrTooManyRoots,
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := scenario.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &scenario, nil
}

func (s *Scenario) validate() error {
	for i, step := range s.Steps {
		switch step.Op {
		case "bound", "worst", "check", "maxspeed":
		default:
			return fmt.Errorf("step %d: %w %q", i+1, ErrUnknownOp, step.Op)
		}
		if step.Expect.Error != "" {
			if _, ok := errorTags[step.Expect.Error]; !ok {
				return fmt.Errorf("step %d: %w %q", i+1, ErrUnknownErrorTag, step.Expect.Error)
			}
		}
	}
	return nil
}

// Config resolves the scenario's preset (default when empty) and applies
// its vehicle overrides.
func (s *Scenario) Config() (*config.Config, error) {
	name := s.Preset
	if name == "" {
		name = "default"
	}
	cfg, err := config.GetPreset(name)
	if err != nil {
		return nil, err
	}

	v := cfg.VehicleParams()
	for param, val := range s.Vehicle {
		if v, err = v.WithParam(param, val); err != nil {
			return nil, err
		}
	}
	cfg.Vehicle = config.VehicleConfig{
		Omega:     v.Omega,
		MaxDelta:  v.MaxDelta,
		Dt:        v.Dt,
		Wheelbase: v.Wheelbase,
		Friction:  v.Friction,
	}
	return cfg, cfg.Validate()
}

// RunScenario executes every step in order. Failed expectations are
// reported in the results; the error is reserved for a scenario that
// cannot run at all.
func RunScenario(ctx context.Context, s *Scenario, log *slog.Logger) ([]StepResult, error) {
	if log == nil {
		log = logging.Discard()
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	cfg, err := s.Config()
	if err != nil {
		return nil, err
	}
	eng, err := cfg.Engine()
	if err != nil {
		return nil, err
	}

	results := make([]StepResult, 0, len(s.Steps))
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := runStep(eng, cfg, step)
		res.Index = i + 1
		res.Failures = step.Expect.check(res)
		log.Debug("scenario step", "scenario", s.Name, "step", res.Index, "op", step.Op, "ok", res.OK())
		results = append(results, res)
	}
	return results, nil
}

func runStep(eng *envelope.Engine, cfg *config.Config, step ScenarioStep) StepResult {
	iterations := step.Iterations
	bisections := step.Bisections
	if iterations <= 0 {
		iterations = cfg.Solver.WorstCaseIterations
	}
	if bisections <= 0 {
		bisections = cfg.Solver.Bisections
	}

	res := StepResult{Op: step.Op}
	switch step.Op {
	case "bound":
		res.Interval, res.Err = eng.NextStepBound(step.V, step.Delta)
	case "worst":
		res.Interval, res.Err = eng.WorstCaseBound(step.V, step.Delta, iterations, bisections)
	case "check":
		res.Pass, res.Err = eng.WorstCaseFeasible(step.V, step.Delta, iterations)
	case "maxspeed":
		if step.Iterations <= 0 {
			iterations = cfg.Solver.MaxSpeedIterations
		}
		res.Speed, res.Err = eng.MaxSustainableSpeed(iterations)
	}
	return res
}

func (e Expect) check(res StepResult) []string {
	var failures []string
	fail := func(format string, args ...any) {
		failures = append(failures, fmt.Sprintf(format, args...))
	}

	if e.Error != "" {
		if !errors.Is(res.Err, errorTags[e.Error]) {
			fail("expected error %s, got %v", e.Error, res.Err)
		}
		return failures
	}
	if res.Err != nil {
		fail("unexpected error: %v", res.Err)
		return failures
	}

	tol := e.Tol
	if tol <= 0 {
		tol = DefaultTolerance
	}
	near := func(got, want float64) bool { return math.Abs(got-want) <= tol }

	if e.Feasible != nil && res.Interval.Feasible() != *e.Feasible {
		fail("feasible = %v, want %v", res.Interval.Feasible(), *e.Feasible)
	}
	if e.Max != nil && (!res.Interval.Feasible() || !near(res.Interval.Max, *e.Max)) {
		fail("max = %s, want %.6f", res.Interval, *e.Max)
	}
	if e.Min != nil && (!res.Interval.Feasible() || !near(res.Interval.Min, *e.Min)) {
		fail("min = %s, want %.6f", res.Interval, *e.Min)
	}
	if e.Pass != nil && res.Pass != *e.Pass {
		fail("pass = %v, want %v", res.Pass, *e.Pass)
	}
	if e.Speed != nil && !near(res.Speed, *e.Speed) {
		fail("speed = %.6f, want %.6f", res.Speed, *e.Speed)
	}
	return failures
}
