package config

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownPreset = errors.New("config: unknown preset")

// Presets returns a fresh config per call, so callers may modify the result.
var Presets = map[string]func() *Config{
	"default": DefaultConfig,
	// Same chassis on a high-grip surface.
	"rc-grippy": func() *Config {
		cfg := DefaultConfig()
		cfg.Vehicle.Friction = 1.4
		return cfg
	},
	// Fast steering servo and a 100 Hz controller.
	"rc-fast": func() *Config {
		cfg := DefaultConfig()
		cfg.Vehicle.Omega = 6.0
		cfg.Vehicle.Dt = 0.01
		return cfg
	},
	"slow-servo": func() *Config {
		cfg := DefaultConfig()
		cfg.Vehicle.Omega = 1.5
		cfg.Vehicle.MaxDelta = 0.6
		return cfg
	},
	"buggy": func() *Config {
		cfg := DefaultConfig()
		cfg.Vehicle.Wheelbase = 0.5
		cfg.Vehicle.Friction = 1.5
		cfg.Vehicle.MaxDelta = 0.8
		cfg.Sweep.VMax = 15
		return cfg
	},
}

func GetPreset(name string) (*Config, error) {
	fn, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %v)", ErrUnknownPreset, name, ListPresets())
	}
	return fn(), nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
