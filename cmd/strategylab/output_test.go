package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/config"
	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/levels"
	"github.com/newthinker/strategylab/internal/runner"
	"github.com/newthinker/strategylab/internal/signals"
)

func emptyReport() *runner.Report {
	return &runner.Report{
		RunID:        "run-1",
		Symbol:       "EURUSD",
		Interval:     "5m",
		Strategy:     signals.Momentum,
		Mode:         backtest.ModeContinuous,
		Bars:         10,
		SignalCounts: map[string]int{"momentum": 0, "sell": 0},
		Result:       &backtest.Result{Mode: backtest.ModeContinuous, Trades: []backtest.Trade{}, State: backtest.StateNoTrades},
		Levels:       levels.Levels{Supports: []float64{}, Resistances: []float64{}},
	}
}

func TestPrintReport_NoTrades(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, emptyReport())

	out := buf.String()
	assert.Contains(t, out, "No trades generated.")
	assert.Contains(t, out, "momentum=0 sell=0")
	assert.Contains(t, out, "Supports:    none")
	assert.NotContains(t, out, "Win rate")
}

func TestPrintReport_BinaryLedger(t *testing.T) {
	at := time.Date(2024, 6, 3, 14, 0, 0, 0, time.UTC)
	trades := []backtest.Trade{
		{Direction: backtest.Call, EntryTime: at, ExitTime: at.Add(15 * time.Minute), EntryPrice: 1.1, ExitPrice: 1.2, Outcome: backtest.Win, Return: 0.8, Benefit: 8},
	}
	rep := emptyReport()
	rep.Mode = backtest.ModeBinary
	rep.Result = &backtest.Result{
		Mode:   backtest.ModeBinary,
		Trades: trades,
		Stats:  backtest.CalculateStats(trades, backtest.ModeBinary, 10),
		State:  backtest.StateCompleted,
	}
	rep.Levels.Supports = []float64{1.05}

	var buf bytes.Buffer
	printReport(&buf, rep)

	out := buf.String()
	assert.NotContains(t, out, "No trades generated.")
	assert.Contains(t, out, "OUTCOME")
	assert.Contains(t, out, "2024-06-03 14:00")
	assert.Contains(t, out, "WIN")
	assert.Contains(t, out, "ROI")
	assert.Contains(t, out, "Supports:    1.0500")
}

func TestPrintSweep(t *testing.T) {
	ok := emptyReport()
	results := []runner.SweepResult{
		{Request: runner.Request{Strategy: signals.Momentum}, Report: ok},
		{Request: runner.Request{Strategy: signals.ML, Binary: true}, Err: core.WrapError(core.ErrInsufficientHorizon, errors.New("1m < 5m"))},
	}

	var buf bytes.Buffer
	printSweep(&buf, results)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "no trades")
	assert.Contains(t, lines[2], "skipped:")
	assert.Contains(t, lines[2], "INSUFFICIENT_HORIZON")
}

func TestParseStrategies(t *testing.T) {
	all, err := parseStrategies("")
	require.NoError(t, err)
	assert.Equal(t, signals.Strategies, all)

	got, err := parseStrategies("momentum, MACD,,vwap")
	require.NoError(t, err)
	assert.Equal(t, []signals.Strategy{signals.Momentum, signals.MACDCross, signals.VWAP}, got)

	_, err = parseStrategies("momentum,grid")
	assert.ErrorIs(t, err, core.ErrUnknownStrategy)
}

func TestBuildNotifiers(t *testing.T) {
	reg, err := buildNotifiers(config.NotifyConfig{})
	require.NoError(t, err)
	assert.Zero(t, reg.Len())

	reg, err = buildNotifiers(config.NotifyConfig{
		Webhook:  config.WebhookConfig{URL: "http://example.com/hook"},
		Telegram: config.TelegramConfig{BotToken: "t", ChatID: "c"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"telegram", "webhook"}, reg.Names())

	_, err = buildNotifiers(config.NotifyConfig{Telegram: config.TelegramConfig{BotToken: "t"}})
	assert.Error(t, err)
}
