package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/runner"
	"github.com/newthinker/strategylab/internal/signals"
)

type recorder struct {
	name string
	err  error
	got  []Summary
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) Notify(_ context.Context, s Summary) error {
	r.got = append(r.got, s)
	return r.err
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	ok := &recorder{name: "ok"}
	bad := &recorder{name: "bad", err: errors.New("down")}

	if err := reg.Register(ok); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(bad); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(&recorder{name: "ok"}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if names := reg.Names(); len(names) != 2 || names[0] != "bad" || names[1] != "ok" {
		t.Errorf("unexpected names %v", names)
	}

	errs := reg.NotifyAll(context.Background(), Summary{Symbol: "X"})
	if len(errs) != 1 || errs["bad"] == nil {
		t.Errorf("expected only bad to fail, got %v", errs)
	}
	if len(ok.got) != 1 || len(bad.got) != 1 {
		t.Error("every notifier must be called even when one fails")
	}
}

func TestSummaryFrom(t *testing.T) {
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	trades := []backtest.Trade{{Return: 0.8, Benefit: 8}, {Return: -1, Benefit: -10}}
	rep := &runner.Report{
		RunID:     "r1",
		Symbol:    "EURUSD",
		Interval:  "5m",
		Strategy:  signals.Stochastic,
		Mode:      backtest.ModeBinary,
		StartedAt: start,
		Duration:  2 * time.Second,
		Result: &backtest.Result{
			Mode:   backtest.ModeBinary,
			Trades: trades,
			Stats:  backtest.CalculateStats(trades, backtest.ModeBinary, 10),
			State:  backtest.StateCompleted,
		},
	}

	s := SummaryFrom(rep, "runs/EURUSD/r1")

	if s.Status != StatusComplete || s.Trades != 2 || s.State != "completed" {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.NetBenefit != -2 {
		t.Errorf("expected net benefit -2, got %v", s.NetBenefit)
	}
	if !s.FinishedAt.Equal(start.Add(2 * time.Second)) {
		t.Errorf("unexpected finish time %v", s.FinishedAt)
	}
	if s.Location != "runs/EURUSD/r1" {
		t.Errorf("unexpected location %s", s.Location)
	}
}

func TestFailedSummary(t *testing.T) {
	req := runner.Request{Strategy: signals.ML, Binary: true, Interval: "1m"}

	s := FailedSummary("BTC", req, errors.New("boom"))

	if s.Status != StatusFailed || s.Error != "boom" || s.Mode != "binary" {
		t.Errorf("unexpected summary %+v", s)
	}
}
