package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/safecar/internal/envelope"
)

const (
	DefaultVMin       = 0.0
	DefaultVMax       = 10.0
	DefaultVSteps     = 100
	DefaultDeltaMin   = -1.2
	DefaultDeltaMax   = 1.2
	DefaultDeltaSteps = 100
)

var ErrInvalidConfig = errors.New("config: invalid value")

type Config struct {
	Vehicle VehicleConfig `yaml:"vehicle"`
	Solver  SolverConfig  `yaml:"solver"`
	Sweep   SweepConfig   `yaml:"sweep"`
}

type VehicleConfig struct {
	Omega     float64 `yaml:"omega"`
	MaxDelta  float64 `yaml:"max_delta"`
	Dt        float64 `yaml:"dt"`
	Wheelbase float64 `yaml:"wheelbase"`
	Friction  float64 `yaml:"friction"`
}

type SolverConfig struct {
	RootTolerance       float64 `yaml:"root_tolerance"`
	WorstCaseIterations int     `yaml:"worst_case_iterations"`
	Bisections          int     `yaml:"bisections"`
	MaxSpeedIterations  int     `yaml:"max_speed_iterations"`
}

// SweepConfig is the sampling grid over current speed and steering angle.
type SweepConfig struct {
	VMin       float64 `yaml:"v_min"`
	VMax       float64 `yaml:"v_max"`
	VSteps     int     `yaml:"v_steps"`
	DeltaMin   float64 `yaml:"delta_min"`
	DeltaMax   float64 `yaml:"delta_max"`
	DeltaSteps int     `yaml:"delta_steps"`
	Workers    int     `yaml:"workers"`
}

func DefaultConfig() *Config {
	return &Config{
		Vehicle: VehicleConfig{
			Omega:     envelope.DefaultOmega,
			MaxDelta:  envelope.DefaultMaxDelta,
			Dt:        envelope.DefaultDt,
			Wheelbase: envelope.DefaultWheelbase,
			Friction:  envelope.DefaultFriction,
		},
		Solver: SolverConfig{
			RootTolerance:       envelope.DefaultRootTolerance,
			WorstCaseIterations: envelope.DefaultWorstCaseIterations,
			Bisections:          envelope.DefaultBisections,
			MaxSpeedIterations:  envelope.DefaultMaxSpeedIterations,
		},
		Sweep: SweepConfig{
			VMin:       DefaultVMin,
			VMax:       DefaultVMax,
			VSteps:     DefaultVSteps,
			DeltaMin:   DefaultDeltaMin,
			DeltaMax:   DefaultDeltaMax,
			DeltaSteps: DefaultDeltaSteps,
		},
	}
}

// Load reads a YAML file on top of the defaults, so omitted keys keep
// their default values.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file on top of base, typically a preset. base is
// modified in place and returned.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) VehicleParams() envelope.Vehicle {
	return envelope.Vehicle{
		Omega:     c.Vehicle.Omega,
		MaxDelta:  c.Vehicle.MaxDelta,
		Dt:        c.Vehicle.Dt,
		Wheelbase: c.Vehicle.Wheelbase,
		Friction:  c.Vehicle.Friction,
	}
}

func (c *Config) Validate() error {
	if err := c.VehicleParams().Validate(); err != nil {
		return err
	}
	switch {
	case c.Solver.RootTolerance <= 0:
		return fmt.Errorf("%w: root_tolerance must be positive", ErrInvalidConfig)
	case c.Solver.WorstCaseIterations <= 0 || c.Solver.Bisections < 0 || c.Solver.MaxSpeedIterations <= 0:
		return fmt.Errorf("%w: solver iteration limits must be positive", ErrInvalidConfig)
	case c.Sweep.VSteps < 2 || c.Sweep.DeltaSteps < 2:
		return fmt.Errorf("%w: sweep needs at least 2 steps per axis", ErrInvalidConfig)
	case c.Sweep.VMax <= c.Sweep.VMin || c.Sweep.DeltaMax <= c.Sweep.DeltaMin:
		return fmt.Errorf("%w: sweep ranges must be increasing", ErrInvalidConfig)
	case c.Sweep.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Engine builds an envelope engine from the vehicle and solver sections.
func (c *Config) Engine() (*envelope.Engine, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return envelope.New(c.VehicleParams(), envelope.WithRootTolerance(c.Solver.RootTolerance))
}
