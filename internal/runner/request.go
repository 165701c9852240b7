package runner

import (
	"github.com/newthinker/strategylab/internal/backtest"
	"github.com/newthinker/strategylab/internal/config"
	"github.com/newthinker/strategylab/internal/signals"
)

// Request describes one backtest run.
type Request struct {
	Strategy   signals.Strategy `json:"strategy"`
	Binary     bool             `json:"binary"`
	Interval   string           `json:"interval,omitempty"` // defaults to the series interval
	Continuous backtest.Params  `json:"continuous"`
	Expiration Expiration       `json:"expiration"`
	ML         MLOptions        `json:"ml"`
	Levels     LevelsOptions    `json:"levels"`
}

// Expiration configures binary mode. Payout is a fraction of the stake.
type Expiration struct {
	Minutes int     `json:"minutes"`
	Payout  float64 `json:"payout"`
	Stake   float64 `json:"stake"`
}

// MLOptions configures the learned signal. It is fitted when the strategy
// is ml or when Enabled is set.
type MLOptions struct {
	Enabled       bool     `json:"enabled"`
	Model         string   `json:"model"`
	Features      []string `json:"features,omitempty"`
	Horizon       int      `json:"horizon"`
	Threshold     float64  `json:"threshold"`
	TrainFraction float64  `json:"train_fraction"`
}

// LevelsOptions configures the fractal detector.
type LevelsOptions struct {
	Window       int     `json:"window"`
	ThresholdPct float64 `json:"threshold_pct"`
}

// Mode returns the simulator mode the request selects.
func (r Request) Mode() backtest.Mode {
	if r.Binary {
		return backtest.ModeBinary
	}
	return backtest.ModeContinuous
}

// FromConfig builds a request from the configured defaults.
func FromConfig(cfg *config.Config) Request {
	b := cfg.Backtest
	return Request{
		Strategy:   signals.Strategy(b.Strategy),
		Binary:     b.Binary,
		Interval:   b.Interval,
		Continuous: b.ContinuousParams(),
		Expiration: Expiration{
			Minutes: b.ExpirationMinutes,
			Payout:  b.PayoutPct / 100,
			Stake:   b.Stake,
		},
		ML: MLOptions{
			Model:         cfg.ML.Model,
			Features:      cfg.ML.Features,
			Horizon:       cfg.ML.Horizon,
			Threshold:     cfg.ML.Threshold,
			TrainFraction: cfg.ML.TrainFraction,
		},
		Levels: LevelsOptions{
			Window:       cfg.Levels.Window,
			ThresholdPct: cfg.Levels.ThresholdPct,
		},
	}
}
