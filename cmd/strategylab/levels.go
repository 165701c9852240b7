package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newthinker/strategylab/internal/dataset"
	"github.com/newthinker/strategylab/internal/levels"
)

var (
	levelsData      string
	levelsSymbol    string
	levelsWindow    int
	levelsThreshold float64
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Detect support and resistance levels",
	RunE:  runLevels,
}

func init() {
	f := levelsCmd.Flags()
	f.StringVar(&levelsData, "data", "", "CSV dataset path (required)")
	f.StringVar(&levelsSymbol, "symbol", "", "symbol name (defaults to the file name)")
	f.IntVar(&levelsWindow, "window", 0, "fractal window in bars (defaults to config)")
	f.Float64Var(&levelsThreshold, "threshold", 0, "cluster threshold in percent (defaults to config)")

	levelsCmd.MarkFlagRequired("data")

	rootCmd.AddCommand(levelsCmd)
}

func runLevels(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer e.close(context.Background())

	window := e.cfg.Levels.Window
	if levelsWindow > 0 {
		window = levelsWindow
	}
	threshold := e.cfg.Levels.ThresholdPct
	if levelsThreshold > 0 {
		threshold = levelsThreshold
	}

	s, err := dataset.LoadFile(levelsData, levelsSymbol, e.cfg.Backtest.Interval)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	if err := s.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "=== Levels: %s (%d bars, window %d, threshold %g%%) ===\n", s.Symbol, s.Len(), window, threshold)
	printLevels(out, levels.Detect(s, window, threshold))
	return nil
}
