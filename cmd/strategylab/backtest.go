package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newthinker/strategylab/internal/report"
	"github.com/newthinker/strategylab/internal/runner"
	"github.com/newthinker/strategylab/internal/signals"
)

var (
	backtestData     string
	backtestSymbol   string
	backtestInterval string
	backtestStrategy string
	backtestBinary   bool
	backtestAnnotate bool
	backtestSave     bool
	backtestML       bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one strategy over a dataset",
	Long: `Evaluate a strategy's signals over a CSV dataset, simulate the trades and
print the summary, the trade ledger and the detected support/resistance levels.`,
	RunE: runBacktest,
}

func init() {
	f := backtestCmd.Flags()
	f.StringVar(&backtestData, "data", "", "CSV dataset path (required)")
	f.StringVar(&backtestSymbol, "symbol", "", "symbol name (defaults to the file name)")
	f.StringVar(&backtestInterval, "interval", "", "bar interval, e.g. 5m or 1h (defaults to config)")
	f.StringVar(&backtestStrategy, "strategy", "", "strategy name (defaults to config)")
	f.BoolVar(&backtestBinary, "binary", false, "simulate fixed-expiration binary options")
	f.BoolVar(&backtestAnnotate, "annotate", false, "recompute indicator columns even if present")
	f.BoolVar(&backtestSave, "save", false, "save the report to the configured storage")
	f.BoolVar(&backtestML, "ml", false, "also fit the learned signal column")

	backtestCmd.MarkFlagRequired("data")

	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer e.close(context.Background())

	req, err := backtestRequest(e, cmd)
	if err != nil {
		return err
	}

	s, err := e.loadSeries(backtestData, backtestSymbol, req.Interval, backtestAnnotate)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}

	rep, err := e.runner.Run(ctx, s, req)
	if err != nil {
		return fmt.Errorf("running backtest: %w", err)
	}
	printReport(cmd.OutOrStdout(), rep)

	if backtestSave {
		store, err := report.NewStore(e.cfg.Storage)
		if err != nil {
			return fmt.Errorf("opening report storage: %w", err)
		}
		dir, err := report.Save(ctx, store, rep)
		if err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		e.log.Info("report saved", zap.String("dir", dir))
		fmt.Fprintf(cmd.OutOrStdout(), "\nSaved to %s\n", dir)
	}
	return nil
}

// backtestRequest applies the command flags over the configured defaults.
func backtestRequest(e *env, cmd *cobra.Command) (runner.Request, error) {
	req := runner.FromConfig(e.cfg)
	if backtestStrategy != "" {
		strategy, err := signals.Parse(backtestStrategy)
		if err != nil {
			return req, err
		}
		req.Strategy = strategy
	}
	if backtestInterval != "" {
		req.Interval = backtestInterval
	}
	if cmd.Flags().Changed("binary") {
		req.Binary = backtestBinary
	}
	if backtestML {
		req.ML.Enabled = true
	}
	return req, nil
}
