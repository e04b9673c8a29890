package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/safecar/internal/config"
	"github.com/san-kum/safecar/internal/logging"
	"github.com/san-kum/safecar/internal/sweep"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string

	// Vehicle overrides
	omega     float64
	maxDelta  float64
	dt        float64
	wheelbase float64
	friction  float64
)

// main registers every command and exits with status 1 when a command
// fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "safecar",
		Short:         "velocity bounds for a kinematic bicycle under friction",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(logging.New(os.Stderr, level, os.Getenv("NO_COLOR") != ""))
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".safecar", "data directory")
	pf.StringVar(&configFile, "config", "", "YAML config file")
	pf.StringVar(&preset, "preset", "", "named preset (see 'safecar presets')")
	pf.StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	pf.Float64Var(&omega, "omega", 0, "max steering rate, rad/s")
	pf.Float64Var(&maxDelta, "max-delta", 0, "max steering angle, rad")
	pf.Float64Var(&dt, "dt", 0, "control period, s")
	pf.Float64Var(&wheelbase, "wheelbase", 0, "wheelbase, m")
	pf.Float64Var(&friction, "friction", 0, "friction constant c = sqrt(L*mu*g)")

	rootCmd.AddCommand(
		boundCmd(), worstCmd(), checkCmd(), traceCmd(), maxSpeedCmd(), monotonicCmd(),
		sweepCmd(), listCmd(), showCmd(), heatmapCmd(),
		exportCSVCmd(), exportJSONCmd(), exportPlotCmd(),
		scenarioCmd(), paramSweepCmd(), tuneCmd(), monteCarloCmd(),
		exploreCmd(), presetsCmd(), initConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// resolveConfig applies defaults, then the preset, then the config file,
// then explicitly set vehicle flags. It returns the config and the name
// recorded with saved runs.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "default"

	if preset != "" {
		p, err := config.GetPreset(preset)
		if err != nil {
			return nil, "", err
		}
		cfg, name = p, preset
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if preset == "" {
			name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		}
	}

	overrides := []struct {
		flag string
		dst  *float64
		val  float64
	}{
		{"omega", &cfg.Vehicle.Omega, omega},
		{"max-delta", &cfg.Vehicle.MaxDelta, maxDelta},
		{"dt", &cfg.Vehicle.Dt, dt},
		{"wheelbase", &cfg.Vehicle.Wheelbase, wheelbase},
		{"friction", &cfg.Vehicle.Friction, friction},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.dst = o.val
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	slog.Debug("config resolved", "name", name, "vehicle", cfg.VehicleParams())
	return cfg, name, nil
}

// limitsFlags registers --iterations and --bisections on cmd.
func limitsFlags(cmd *cobra.Command, iterations, bisections *int) {
	cmd.Flags().IntVar(iterations, "iterations", 0, "worst-case iteration limit (default from config)")
	if bisections != nil {
		cmd.Flags().IntVar(bisections, "bisections", 0, "bisection steps (default from config)")
	}
}

// solverLimits takes the config's solver section, overridden by flags the
// user set.
func solverLimits(cmd *cobra.Command, cfg *config.Config, iterations, bisections int) sweep.Limits {
	limits := sweep.Limits{
		WorstCaseIterations: cfg.Solver.WorstCaseIterations,
		Bisections:          cfg.Solver.Bisections,
	}
	if cmd.Flags().Changed("iterations") {
		limits.WorstCaseIterations = iterations
	}
	if cmd.Flags().Changed("bisections") {
		limits.Bisections = bisections
	}
	return limits
}

func parseState(args []string) (v, delta float64, err error) {
	if v, err = strconv.ParseFloat(args[0], 64); err != nil {
		return 0, 0, fmt.Errorf("invalid speed %q: %w", args[0], err)
	}
	if delta, err = strconv.ParseFloat(args[1], 64); err != nil {
		return 0, 0, fmt.Errorf("invalid steering angle %q: %w", args[1], err)
	}
	return v, delta, nil
}

func parseKind(s string) (sweep.Kind, error) {
	switch s {
	case "next", "next-step":
		return sweep.NextStep, nil
	case "worst", "worst-case":
		return sweep.WorstCase, nil
	}
	return 0, fmt.Errorf("unknown bound kind %q (want next or worst)", s)
}
