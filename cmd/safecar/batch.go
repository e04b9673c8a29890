package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/safecar/internal/automation"
	"github.com/san-kum/safecar/internal/envelope"
	"github.com/san-kum/safecar/internal/optim"
	"github.com/san-kum/safecar/internal/sweep"
)

func scenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "run scripted queries and compare them with expected results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			results, err := automation.RunScenario(ctx, s, slog.Default())
			if err != nil {
				return err
			}

			failed := 0
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\t%s\n", s.Name, s.Description)
			for _, r := range results {
				status := "ok"
				if !r.OK() {
					status = "FAIL: " + strings.Join(r.Failures, "; ")
					failed++
				}
				step := s.Steps[r.Index-1]
				fmt.Fprintf(w, "%d\t%s\tv=%.4f\tdelta=%.4f\t%s\n", r.Index, r.Op, step.V, step.Delta, status)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d steps failed", failed, len(results))
			}
			return nil
		},
	}
}

func paramSweepCmd() *cobra.Command {
	var (
		param  string
		lo, hi float64
		steps  int
	)
	cmd := &cobra.Command{
		Use:   "param-sweep",
		Short: "sustainable speed as one vehicle constant varies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			results, err := automation.RunParameterSweep(ctx, cfg.VehicleParams(), automation.ParameterSweep{
				Param:      param,
				Min:        lo,
				Max:        hi,
				Steps:      steps,
				Iterations: cfg.Solver.MaxSpeedIterations,
				Workers:    cfg.Sweep.Workers,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tMAX SPEED\n", strings.ToUpper(param))
			speeds := make([]float64, 0, len(results))
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(w, "%.4f\t%v\n", r.Value, r.Err)
					continue
				}
				speeds = append(speeds, r.MaxSpeed)
				fmt.Fprintf(w, "%.4f\t%.6f\n", r.Value, r.MaxSpeed)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if len(speeds) > 1 {
				fmt.Fprintln(out, "\n"+asciigraph.Plot(speeds,
					asciigraph.Height(10),
					asciigraph.Width(60),
					asciigraph.Caption(fmt.Sprintf("max sustainable speed vs %s (%.3f..%.3f)", param, lo, hi)),
				))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&param, "param", "friction", "vehicle constant: "+strings.Join(envelope.ParamNames, ", "))
	cmd.Flags().Float64Var(&lo, "min", 0.5, "first value")
	cmd.Flags().Float64Var(&hi, "max", 1.5, "last value")
	cmd.Flags().IntVar(&steps, "steps", 11, "number of values")
	return cmd
}

func tuneCmd() *cobra.Command {
	var specs []string
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search vehicle constants for the highest sustainable speed",
		Long: "Each --param takes name=min:max:steps, for example\n" +
			"  safecar tune --param omega=1:6:6 --param dt=0.01:0.05:5",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(specs) == 0 {
				return fmt.Errorf("at least one --param is required")
			}
			names := make([]string, len(specs))
			ranges := make([][]float64, len(specs))
			for i, spec := range specs {
				name, values, err := parseRange(spec)
				if err != nil {
					return err
				}
				names[i], ranges[i] = name, values
			}

			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			g, err := optim.NewGridSearch(names, ranges)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			res, err := g.Search(ctx, cfg.VehicleParams(), optim.SustainableSpeed(cfg.Solver.MaxSpeedIterations))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "best sustainable speed %.6f m/s (%d evaluated, %d rejected)\n", res.Score, res.Evaluated, res.Rejected)
			for _, name := range names {
				fmt.Fprintf(out, "  %s = %.4f\n", name, res.Params[name])
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&specs, "param", nil, "name=min:max:steps")
	return cmd
}

// parseRange reads name=min:max:steps.
func parseRange(spec string) (string, []float64, error) {
	name, rng, ok := strings.Cut(spec, "=")
	parts := strings.Split(rng, ":")
	if !ok || len(parts) != 3 {
		return "", nil, fmt.Errorf("invalid --param %q (want name=min:max:steps)", spec)
	}
	lo, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid --param %q: %w", spec, err)
	}
	hi, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", nil, fmt.Errorf("invalid --param %q: %w", spec, err)
	}
	n, err := strconv.Atoi(parts[2])
	if err != nil || n < 1 {
		return "", nil, fmt.Errorf("invalid --param %q: steps must be a positive integer", spec)
	}
	return name, sweep.Linspace(lo, hi, n), nil
}

func monteCarloCmd() *cobra.Command {
	var mc automation.MonteCarloConfig
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "check engine properties at random states",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := cfg.Engine()
			if err != nil {
				return err
			}
			mc.Iterations = cfg.Solver.WorstCaseIterations
			mc.Bisections = cfg.Solver.Bisections

			ctx, cancel := signalContext()
			defer cancel()
			violations, err := automation.RunMonteCarlo(ctx, eng, mc)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(violations) == 0 {
				fmt.Fprintf(out, "%d trials, no property violations\n", mc.Trials)
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TRIAL\tV\tDELTA\tPROPERTY\tDETAIL")
			for _, v := range violations {
				fmt.Fprintf(w, "%d\t%+.5f\t%+.5f\t%s\t%s\n", v.Trial, v.V, v.Delta, v.Property, v.Detail)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return fmt.Errorf("%d property violations in %d trials", len(violations), mc.Trials)
		},
	}
	cmd.Flags().IntVar(&mc.Trials, "trials", 1000, "number of random states")
	cmd.Flags().Int64Var(&mc.Seed, "seed", 1, "random seed")
	cmd.Flags().Float64Var(&mc.VMax, "v-max", 5, "largest |v_current| sampled")
	return cmd
}
