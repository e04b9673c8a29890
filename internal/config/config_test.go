package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/safecar/internal/envelope"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, envelope.DefaultVehicle(), cfg.VehicleParams())
	assert.Equal(t, 100, cfg.Solver.WorstCaseIterations)
	assert.Equal(t, 20, cfg.Solver.Bisections)
	assert.Equal(t, 1000, cfg.Solver.MaxSpeedIterations)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "car.yaml")
	body := "vehicle:\n  friction: 1.25\nsweep:\n  v_steps: 40\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1.25, cfg.Vehicle.Friction)
	assert.Equal(t, 40, cfg.Sweep.VSteps)
	assert.Equal(t, envelope.DefaultOmega, cfg.Vehicle.Omega)
	assert.Equal(t, DefaultDeltaSteps, cfg.Sweep.DeltaSteps)
}

func TestLoadOver_Preset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "car.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vehicle:\n  dt: 0.02\n"), 0644))

	base, err := GetPreset("rc-grippy")
	require.NoError(t, err)
	cfg, err := LoadOver(path, base)
	require.NoError(t, err)

	assert.Equal(t, 0.02, cfg.Vehicle.Dt)
	assert.Equal(t, 1.4, cfg.Vehicle.Friction, "preset values not named in the file survive")
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("vehicle:\n  dt: 0\n"), 0644))
	_, err := Load(bad)
	assert.ErrorIs(t, err, envelope.ErrInvalidVehicle)

	garbage := filepath.Join(dir, "garbage.yaml")
	require.NoError(t, os.WriteFile(garbage, []byte("vehicle: [1, 2"), 0644))
	_, err = Load(garbage)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg, err := GetPreset("buggy")
	require.NoError(t, err)
	cfg.Sweep.Workers = 3

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)

	if diff := cmp.Diff(cfg, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		tweak func(*Config)
	}{
		{"root tolerance", func(c *Config) { c.Solver.RootTolerance = 0 }},
		{"worst case iterations", func(c *Config) { c.Solver.WorstCaseIterations = 0 }},
		{"negative bisections", func(c *Config) { c.Solver.Bisections = -1 }},
		{"single speed step", func(c *Config) { c.Sweep.VSteps = 1 }},
		{"reversed delta range", func(c *Config) { c.Sweep.DeltaMin, c.Sweep.DeltaMax = 1, -1 }},
		{"negative workers", func(c *Config) { c.Sweep.Workers = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.tweak(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestEngine(t *testing.T) {
	eng, err := DefaultConfig().Engine()
	require.NoError(t, err)
	assert.Equal(t, envelope.DefaultVehicle(), eng.Vehicle())

	cfg := DefaultConfig()
	cfg.Vehicle.Wheelbase = -1
	_, err = cfg.Engine()
	assert.ErrorIs(t, err, envelope.ErrInvalidVehicle)
}

func TestGetPreset(t *testing.T) {
	cfg, err := GetPreset("rc-grippy")
	require.NoError(t, err)
	assert.Equal(t, 1.4, cfg.Vehicle.Friction)

	cfg.Vehicle.Friction = 9
	again, err := GetPreset("rc-grippy")
	require.NoError(t, err)
	assert.Equal(t, 1.4, again.Vehicle.Friction, "presets must not share state")

	_, err = GetPreset("nonexistent")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	assert.Contains(t, names, "default")
	assert.IsIncreasing(t, names)

	for _, name := range names {
		cfg, err := GetPreset(name)
		require.NoError(t, err)
		assert.NoError(t, cfg.Validate(), name)
	}
}
