package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/safecar/internal/sweep"
	"github.com/san-kum/safecar/internal/tui"
)

func boundCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bound [v_current] [delta_next]",
		Short: "one-step feasible speed interval",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, delta, err := parseState(args)
			if err != nil {
				return err
			}
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := cfg.Engine()
			if err != nil {
				return err
			}
			iv, err := eng.NextStepBound(v, delta)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "next-step bound at v=%.4f m/s, delta=%.4f rad: %s\n", v, delta, iv)
			return nil
		},
	}
}

func worstCmd() *cobra.Command {
	var iterations, bisections int
	cmd := &cobra.Command{
		Use:   "worst [v_current] [delta_next]",
		Short: "feasible speed interval that survives worst-case steering",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, delta, err := parseState(args)
			if err != nil {
				return err
			}
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := cfg.Engine()
			if err != nil {
				return err
			}
			limits := solverLimits(cmd, cfg, iterations, bisections)

			next, err := eng.NextStepBound(v, delta)
			if err != nil {
				return err
			}
			worst, err := eng.WorstCaseBound(v, delta, limits.WorstCaseIterations, limits.Bisections)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "next-step\t%s\n", next)
			fmt.Fprintf(w, "worst-case\t%s\n", worst)
			return w.Flush()
		},
	}
	limitsFlags(cmd, &iterations, &bisections)
	return cmd
}

func checkCmd() *cobra.Command {
	var iterations int
	cmd := &cobra.Command{
		Use:   "check [v_candidate] [delta_next]",
		Short: "worst-case feasibility test for one speed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, delta, err := parseState(args)
			if err != nil {
				return err
			}
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := cfg.Engine()
			if err != nil {
				return err
			}
			limits := solverLimits(cmd, cfg, iterations, 0)

			ok, err := eng.WorstCaseFeasible(v, delta, limits.WorstCaseIterations)
			if err != nil {
				return err
			}
			verdict := "FAIL"
			if ok {
				verdict = "PASS"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: v=%.4f m/s, delta=%.4f rad\n", verdict, v, delta)
			return nil
		},
	}
	limitsFlags(cmd, &iterations, nil)
	return cmd
}

func traceCmd() *cobra.Command {
	var (
		iterations int
		delay      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "trace [v_candidate] [delta_next]",
		Short: "draw every step of the worst-case test",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, delta, err := parseState(args)
			if err != nil {
				return err
			}
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := cfg.Engine()
			if err != nil {
				return err
			}
			limits := solverLimits(cmd, cfg, iterations, 0)

			steps, ok, err := eng.WorstCaseTrace(v, delta, limits.WorstCaseIterations)
			if err != nil {
				return err
			}
			return tui.NewTraceRenderer(cmd.OutOrStdout(), eng.Vehicle(), delay).Render(steps, ok)
		},
	}
	limitsFlags(cmd, &iterations, nil)
	cmd.Flags().DurationVar(&delay, "animate", 0, "frame delay; 0 prints the final frame only")
	return cmd
}

func maxSpeedCmd() *cobra.Command {
	var iterations int
	cmd := &cobra.Command{
		Use:   "maxspeed",
		Short: "highest speed sustainable under worst-case steering",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, name, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := cfg.Engine()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("iterations") {
				iterations = cfg.Solver.MaxSpeedIterations
			}

			start := time.Now()
			v, err := eng.MaxSustainableSpeed(iterations)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %.6f m/s (%s)\n", name, v, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().IntVar(&iterations, "iterations", 0, "fixed-point iteration limit (default from config)")
	return cmd
}

func monotonicCmd() *cobra.Command {
	var tol float64
	cmd := &cobra.Command{
		Use:   "monotonic",
		Short: "check that more steering never widens the feasible interval",
		Long: "Samples the configured sweep grid and reports every speed row where a\n" +
			"larger steering magnitude produced a wider interval. Exits non-zero when\n" +
			"any violation is found.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			surf, err := sample(cfg)
			if err != nil {
				return err
			}

			var total int
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tV\tDELTA FROM\tDELTA TO\tWIDTH FROM\tWIDTH TO")
			for _, k := range []sweep.Kind{sweep.NextStep, sweep.WorstCase} {
				for _, v := range surf.MonotonicityViolations(k, tol) {
					total++
					fmt.Fprintf(w, "%s\t%.4f\t%+.4f\t%+.4f\t%.6f\t%.6f\n",
						v.Kind, v.Speed, v.DeltaFrom, v.DeltaTo, v.WidthFrom, v.WidthTo)
				}
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if total > 0 {
				return fmt.Errorf("%d monotonicity violations", total)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "no violations over %d points\n", len(surf.Speeds)*len(surf.Deltas))
			return nil
		},
	}
	cmd.Flags().Float64Var(&tol, "tol", 1e-9, "width increase tolerated before flagging")
	return cmd
}

// signalContext is canceled on interrupt so long sweeps stop early.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
