package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"

	"github.com/san-kum/safecar/internal/chart"
	"github.com/san-kum/safecar/internal/config"
	"github.com/san-kum/safecar/internal/storage"
	"github.com/san-kum/safecar/internal/sweep"
	"github.com/san-kum/safecar/internal/tui"
	"github.com/san-kum/safecar/internal/viz"
)

// sample evaluates both bounds over the config's sweep grid.
func sample(cfg *config.Config) (*sweep.Surface, error) {
	eng, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	s := cfg.Sweep
	grid := sweep.NewGrid(s.VMin, s.VMax, s.VSteps, s.DeltaMin, s.DeltaMax, s.DeltaSteps)
	limits := sweep.Limits{
		WorstCaseIterations: cfg.Solver.WorstCaseIterations,
		Bisections:          cfg.Solver.Bisections,
	}

	ctx, cancel := signalContext()
	defer cancel()

	slog.Info("sampling", "points", grid.Size(), "workers", s.Workers)
	return sweep.NewSampler(eng, limits, s.Workers, slog.Default()).Sample(ctx, grid)
}

func sweepCmd() *cobra.Command {
	var save bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "sample both bounds over the speed and steering grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, name, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			surf, err := sample(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, viz.Summary(surf))
			fmt.Fprintln(out, viz.Heatmap(surf, sweep.WorstCase))

			violations := len(surf.MonotonicityViolations(sweep.NextStep, 1e-9)) +
				len(surf.MonotonicityViolations(sweep.WorstCase, 1e-9))
			if violations > 0 {
				slog.Warn("monotonicity violations in sweep", "count", violations)
			}

			if !save {
				return nil
			}

			eng, err := cfg.Engine()
			if err != nil {
				return err
			}
			maxSpeed, err := eng.MaxSustainableSpeed(cfg.Solver.MaxSpeedIterations)
			if err != nil {
				slog.Warn("max sustainable speed unavailable", "err", err)
			}

			st := storage.New(dataDir, slog.Default())
			if err := st.Init(); err != nil {
				return err
			}
			meta := storage.RunMetadata{
				Preset:              name,
				Timestamp:           time.Now(),
				Vehicle:             cfg.VehicleParams(),
				Sweep:               cfg.Sweep,
				WorstCaseIterations: cfg.Solver.WorstCaseIterations,
				Bisections:          cfg.Solver.Bisections,
				MaxSustainable:      maxSpeed,
				Stats: map[string]sweep.Stats{
					sweep.NextStep.String():  surf.Stats(sweep.NextStep),
					sweep.WorstCase.String(): surf.Stats(sweep.WorstCase),
				},
				Violations: violations,
			}
			id, err := st.Save(meta, surf)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "saved run %s\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store the sampled surface under --data")
	return cmd
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list saved sweeps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir, slog.Default()).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPRESET\tTIME\tGRID\tMAX SPEED\tVIOLATIONS")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%.4f\t%d\n",
					run.ID,
					run.Preset,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Sweep.VSteps, run.Sweep.DeltaSteps,
					run.MaxSustainable,
					run.Violations,
				)
			}
			return w.Flush()
		},
	}
}

// loadRun returns the metadata and surface of a saved sweep.
func loadRun(runID string) (*storage.RunMetadata, *sweep.Surface, error) {
	st := storage.New(dataDir, slog.Default())
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	surf, err := st.LoadSurface(runID)
	if err != nil {
		return nil, nil, err
	}
	return meta, surf, nil
}

func showCmd() *cobra.Command {
	var (
		kind  string
		delta float64
		speed float64
	)
	cmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "plot slices of a saved sweep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			meta, surf, err := loadRun(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s  max sustainable %.4f m/s\n\n",
				meta.ID, meta.Timestamp.Format("2006-01-02 15:04:05"), meta.MaxSustainable)

			graph, err := viz.SpeedSlice(surf, k, delta, viz.DefaultPlotOptions())
			if err != nil {
				return err
			}
			fmt.Fprintln(out, graph)

			if cmd.Flags().Changed("speed") {
				graph, err := viz.DeltaSlice(surf, k, speed, viz.DefaultPlotOptions())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "\n"+graph)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "worst", "bound kind: next or worst")
	cmd.Flags().Float64Var(&delta, "delta", 0, "steering angle of the speed slice")
	cmd.Flags().Float64Var(&speed, "speed", 0, "also plot the steering slice at this speed")
	return cmd
}

func heatmapCmd() *cobra.Command {
	var kind, theme string
	cmd := &cobra.Command{
		Use:   "heatmap [run_id]",
		Short: "shaded map of the upper bound over a saved sweep",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			if theme != "" && !viz.SetTheme(theme) {
				return fmt.Errorf("unknown theme %q (available: %v)", theme, viz.ThemeNames())
			}
			_, surf, err := loadRun(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), viz.Heatmap(surf, k))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "worst", "bound kind: next or worst")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme")
	return cmd
}

func exportCSVCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export a saved sweep to CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, surf, err := loadRun(args[0])
			if err != nil {
				return err
			}
			return storage.WriteCSV(cmd.OutOrStdout(), surf)
		},
	}
}

func exportJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a saved sweep to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, surf, err := loadRun(args[0])
			if err != nil {
				return err
			}
			return storage.WriteJSON(cmd.OutOrStdout(), *meta, surf)
		},
	}
}

func exportPlotCmd() *cobra.Command {
	var (
		out    string
		kind   string
		deltas []float64
		speeds []float64
	)
	cmd := &cobra.Command{
		Use:   "export-plot [run_id]",
		Short: "write bound curves of a saved sweep as PNG, SVG or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKind(kind)
			if err != nil {
				return err
			}
			_, surf, err := loadRun(args[0])
			if err != nil {
				return err
			}

			var p *plot.Plot
			if len(speeds) > 0 {
				p, err = chart.DeltaSlices(surf, k, speeds)
			} else {
				p, err = chart.SpeedSlices(surf, k, deltas)
			}
			if err != nil {
				return err
			}
			if err := chart.Save(p, out); err != nil {
				return err
			}
			slog.Info("plot written", "path", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "bounds.png", "output file; extension selects the format")
	cmd.Flags().StringVar(&kind, "kind", "worst", "bound kind: next or worst")
	cmd.Flags().Float64SliceVar(&deltas, "delta", []float64{0, 0.4, 0.8}, "steering angles of the speed slices")
	cmd.Flags().Float64SliceVar(&speeds, "speed", nil, "plot steering slices at these speeds instead")
	return cmd
}

func exploreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "interactive bound explorer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, name, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			m, err := tui.NewExplorer(cfg, name)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
	}
}

func presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list vehicle presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tOMEGA\tMAX DELTA\tDT\tWHEELBASE\tFRICTION")
			for _, name := range config.ListPresets() {
				cfg, err := config.GetPreset(name)
				if err != nil {
					return err
				}
				v := cfg.Vehicle
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.3f\t%.3f\t%.2f\n",
					name, v.Omega, v.MaxDelta, v.Dt, v.Wheelbase, v.Friction)
			}
			return w.Flush()
		},
	}
}

func initConfigCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the resolved configuration as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force)", path)
			}
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
