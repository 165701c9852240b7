package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/newthinker/strategylab/internal/runner"
	"github.com/newthinker/strategylab/internal/signals"
)

var (
	sweepData       string
	sweepSymbol     string
	sweepInterval   string
	sweepStrategies string
	sweepParallel   int
	sweepBinary     bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run several strategies over one dataset",
	Long: `Run one backtest per strategy in parallel over the same dataset and print a
comparison table. Strategies that cannot run are listed with their error.`,
	RunE: runSweep,
}

func init() {
	f := sweepCmd.Flags()
	f.StringVar(&sweepData, "data", "", "CSV dataset path (required)")
	f.StringVar(&sweepSymbol, "symbol", "", "symbol name (defaults to the file name)")
	f.StringVar(&sweepInterval, "interval", "", "bar interval (defaults to config)")
	f.StringVar(&sweepStrategies, "strategies", "", "comma-separated strategies (defaults to all)")
	f.IntVar(&sweepParallel, "parallel", 0, "runs in flight (defaults to config)")
	f.BoolVar(&sweepBinary, "binary", false, "simulate fixed-expiration binary options")

	sweepCmd.MarkFlagRequired("data")

	rootCmd.AddCommand(sweepCmd)
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer e.close(context.Background())

	base := runner.FromConfig(e.cfg)
	if sweepInterval != "" {
		base.Interval = sweepInterval
	}
	if cmd.Flags().Changed("binary") {
		base.Binary = sweepBinary
	}

	strategies, err := parseStrategies(sweepStrategies)
	if err != nil {
		return err
	}
	reqs := make([]runner.Request, len(strategies))
	for i, s := range strategies {
		reqs[i] = base
		reqs[i].Strategy = s
	}

	s, err := e.loadSeries(sweepData, sweepSymbol, base.Interval, false)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	parallel := sweepParallel
	if parallel < 1 {
		parallel = e.cfg.Sweep.Parallelism
	}
	results := e.runner.Sweep(ctx, s, reqs, parallel)

	fmt.Fprintf(cmd.OutOrStdout(), "=== StrategyLab Sweep: %s (%s, %d bars) ===\n", s.Symbol, base.Interval, s.Len())
	printSweep(cmd.OutOrStdout(), results)
	return ctx.Err()
}

// parseStrategies splits a comma list. An empty list selects every
// strategy.
func parseStrategies(list string) ([]signals.Strategy, error) {
	if strings.TrimSpace(list) == "" {
		return signals.Strategies, nil
	}
	var out []signals.Strategy
	for _, name := range strings.Split(list, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		s, err := signals.Parse(name)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
