package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/levels"
	"github.com/newthinker/strategylab/internal/runner"
)

const timeLayout = "2006-01-02 15:04"

// printReport writes the run summary, the ledger and the detected levels.
func printReport(out io.Writer, rep *runner.Report) {
	fmt.Fprintln(out, "=== StrategyLab Backtest ===")
	fmt.Fprintf(out, "Symbol:   %s (%s, %d bars)\n", rep.Symbol, rep.Interval, rep.Bars)
	fmt.Fprintf(out, "Strategy: %s\n", rep.Strategy)
	fmt.Fprintf(out, "Mode:     %s\n", rep.Mode)
	fmt.Fprintf(out, "Run ID:   %s\n", rep.RunID)
	fmt.Fprintln(out)

	printSignalCounts(out, rep.SignalCounts)
	if rep.ML != nil {
		fmt.Fprintf(out, "Learned signal: %s, horizon %d, %d train / %d test rows, test accuracy %.1f%%\n\n",
			rep.ML.Model, rep.ML.Horizon, rep.ML.TrainRows, rep.ML.TestRows, rep.ML.TestAccuracy*100)
	}
	for _, w := range rep.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}

	res := rep.Result
	if len(res.Trades) == 0 {
		fmt.Fprintln(out, "No trades generated.")
	} else {
		printStats(out, res.Stats, rep.Mode)
		fmt.Fprintln(out)
		printLedger(out, res.Trades, rep.Mode)
	}
	if res.Open != nil {
		fmt.Fprintf(out, "\nOpen position: %s at %.4f since %s\n",
			res.Open.Direction, res.Open.EntryPrice, res.Open.EntryTime.Format(timeLayout))
	}

	fmt.Fprintln(out)
	printLevels(out, rep.Levels)
}

func printSignalCounts(out io.Writer, counts map[string]int) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, counts[name]))
	}
	fmt.Fprintf(out, "Signals:  %s\n\n", strings.Join(parts, " "))
}

func printStats(out io.Writer, st backtest.Stats, mode backtest.Mode) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Trades\t%d (%d won, %d lost)\n", st.TotalTrades, st.WinningTrades, st.LosingTrades)
	fmt.Fprintf(w, "Win rate\t%.2f%%\n", st.WinRate)
	fmt.Fprintf(w, "Total return\t%.4f\n", st.TotalReturn)
	fmt.Fprintf(w, "Mean return\t%.4f\n", st.MeanReturn)
	fmt.Fprintf(w, "Best / worst\t%.4f / %.4f\n", st.MaxReturn, st.MinReturn)
	fmt.Fprintf(w, "Profit factor\t%.2f\n", st.ProfitFactor)
	fmt.Fprintf(w, "Max drawdown\t%.2f%%\n", st.MaxDrawdown)
	fmt.Fprintf(w, "Sharpe\t%.2f\n", st.SharpeRatio)
	if mode == backtest.ModeBinary {
		fmt.Fprintf(w, "Net benefit\t%.2f\n", st.NetBenefit)
		fmt.Fprintf(w, "ROI\t%.2f%%\n", st.ROI)
	}
	w.Flush()
}

func printLedger(out io.Writer, trades []backtest.Trade, mode backtest.Mode) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	if mode == backtest.ModeBinary {
		fmt.Fprintln(w, "DIRECTION\tEXECUTED\tEXPIRED\tEXEC PRICE\tEXP PRICE\tOUTCOME\tBENEFIT")
		for _, t := range trades {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%s\t%.2f\n",
				t.Direction, fmtTime(t.EntryTime), fmtTime(t.ExitTime),
				t.EntryPrice, t.ExitPrice, t.Outcome, t.Benefit)
		}
	} else {
		fmt.Fprintln(w, "ENTRY\tEXIT\tENTRY PRICE\tEXIT PRICE\tREASON\tRETURN")
		for _, t := range trades {
			fmt.Fprintf(w, "%s\t%s\t%.4f\t%.4f\t%s\t%.2f%%\n",
				fmtTime(t.EntryTime), fmtTime(t.ExitTime),
				t.EntryPrice, t.ExitPrice, t.ExitReason, t.Return*100)
		}
	}
	w.Flush()
}

func printLevels(out io.Writer, lv levels.Levels) {
	fmt.Fprintf(out, "Supports:    %s\n", joinPrices(lv.Supports))
	fmt.Fprintf(out, "Resistances: %s\n", joinPrices(lv.Resistances))
}

// printSweep writes one line per strategy. Failed runs show their error.
func printSweep(out io.Writer, results []runner.SweepResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STRATEGY\tMODE\tTRADES\tWIN RATE\tTOTAL RETURN\tROI\tNOTE")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t-\t-\tskipped: %v\n", r.Request.Strategy, r.Request.Mode(), r.Err)
			continue
		}
		st := r.Report.Result.Stats
		note := ""
		if st.TotalTrades == 0 {
			note = "no trades"
		}
		if len(r.Report.Warnings) > 0 {
			note = strings.Join(r.Report.Warnings, "; ")
		}
		roi := "-"
		if r.Report.Mode == backtest.ModeBinary {
			roi = fmt.Sprintf("%.2f%%", st.ROI)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f%%\t%.4f\t%s\t%s\n",
			r.Report.Strategy, r.Report.Mode, st.TotalTrades, st.WinRate, st.TotalReturn, roi, note)
	}
	w.Flush()
}

func joinPrices(prices []float64) string {
	if len(prices) == 0 {
		return "none"
	}
	parts := make([]string, len(prices))
	for i, p := range prices {
		parts[i] = fmt.Sprintf("%.4f", p)
	}
	return strings.Join(parts, ", ")
}

func fmtTime(t time.Time) string {
	return t.Format(timeLayout)
}
