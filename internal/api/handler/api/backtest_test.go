package api

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/strategylab/internal/config"
	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/runner"
	"github.com/newthinker/strategylab/internal/signals"
)

func TestBacktestParams_Apply(t *testing.T) {
	req := runner.FromConfig(config.Defaults())
	before := req

	off := false
	BacktestParams{
		StopLossPct:  3,
		Trailing:     &off,
		PayoutPct:    90,
		LevelsWindow: 7,
		ML:           &MLParams{Enabled: true, Model: "logreg", Horizon: 3},
	}.apply(&req)

	assert.InDelta(t, 0.03, req.Continuous.StopLoss, 1e-12)
	assert.Equal(t, before.Continuous.TakeProfit, req.Continuous.TakeProfit, "zero keeps the default")
	assert.False(t, req.Continuous.TrailingEnabled)
	assert.InDelta(t, 0.9, req.Expiration.Payout, 1e-12)
	assert.Equal(t, before.Expiration.Minutes, req.Expiration.Minutes)
	assert.Equal(t, 7, req.Levels.Window)
	assert.True(t, req.ML.Enabled)
	assert.Equal(t, "logreg", req.ML.Model)
	assert.Equal(t, 3, req.ML.Horizon)
	assert.Equal(t, before.ML.Threshold, req.ML.Threshold)
}

func TestBacktestHandler_Request(t *testing.T) {
	h := NewBacktestHandler(BacktestDeps{Defaults: runner.FromConfig(config.Defaults())})

	req, err := h.request(BacktestRequest{Dataset: "x", Strategy: " MACD ", Interval: "1h"})
	require.NoError(t, err)
	assert.Equal(t, signals.MACDCross, req.Strategy)
	assert.Equal(t, "1h", req.Interval)

	_, err = h.request(BacktestRequest{Dataset: "x", Strategy: "momentum", Interval: "1h",
		Params: BacktestParams{Binary: true, ExpirationMinutes: 30}})
	assert.ErrorIs(t, err, core.ErrInsufficientHorizon)

	_, err = h.request(BacktestRequest{Dataset: "x", Strategy: "nope"})
	assert.ErrorIs(t, err, core.ErrUnknownStrategy)
}

func TestDatasets_Path(t *testing.T) {
	d := Datasets{Dir: "/data"}

	tests := []struct {
		name string
		want string
	}{
		{"btc", filepath.Join("/data", "btc.csv")},
		{"btc.csv", filepath.Join("/data", "btc.csv")},
		{"crypto/eth.csv", filepath.Join("/data", "crypto", "eth.csv")},
		{"../../etc/passwd", filepath.Join("/data", "etc", "passwd.csv")},
	}
	for _, tt := range tests {
		got, err := d.Path(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := d.Path("  ")
	assert.ErrorIs(t, err, core.ErrConfigMissing)
}
