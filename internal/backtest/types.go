// Package backtest replays a signal column through a single-slot position
// simulator and reduces the resulting ledger to statistics.
package backtest

import (
	"time"
)

// Mode selects the simulator variant.
type Mode string

const (
	ModeContinuous Mode = "continuous"
	ModeBinary     Mode = "binary"
)

// Direction of a position. Continuous mode is long-only.
type Direction string

const (
	Long Direction = "LONG"
	Call Direction = "CALL"
	Put  Direction = "PUT"
)

// ExitReason records why a continuous position was closed.
type ExitReason string

const (
	ExitTakeProfit   ExitReason = "take_profit"
	ExitStopLoss     ExitReason = "stop_loss"
	ExitTrailingStop ExitReason = "trailing_stop"
)

// Outcome of a binary position.
type Outcome string

const (
	Win  Outcome = "WIN"
	Loss Outcome = "LOSS"
)

// State is the terminal state of a run.
type State string

const (
	StateCompleted State = "completed"
	// StateNoTrades marks a run that finished without closing any trade.
	// It is a result, not a failure.
	StateNoTrades State = "no_trades"
)

// Position is the simulator's single slot. The zero value is flat.
type Position struct {
	Open        bool      `json:"open"`
	Direction   Direction `json:"direction"`
	EntryIndex  int       `json:"entry_index"`
	EntryTime   time.Time `json:"entry_time"`
	EntryPrice  float64   `json:"entry_price"`
	Stop        float64   `json:"stop,omitempty"`
	InitialStop float64   `json:"initial_stop,omitempty"`
	Target      float64   `json:"target,omitempty"`
}

// Trade is one closed round trip. In binary mode Entry* is the execution
// and Exit* the expiration.
type Trade struct {
	Direction  Direction  `json:"direction"`
	EntryIndex int        `json:"entry_index"`
	EntryTime  time.Time  `json:"entry_time"`
	EntryPrice float64    `json:"entry_price"`
	ExitIndex  int        `json:"exit_index"`
	ExitTime   time.Time  `json:"exit_time"`
	ExitPrice  float64    `json:"exit_price"`
	ExitReason ExitReason `json:"exit_reason,omitempty"`
	Outcome    Outcome    `json:"outcome,omitempty"`
	Return     float64    `json:"return"`
	Benefit    float64    `json:"benefit,omitempty"`
}

// IsWin returns true if the trade was profitable
func (t Trade) IsWin() bool {
	return t.Return > 0
}

// Stats holds performance statistics. Returns are fractions; rates,
// ROI and drawdown are percentages.
type Stats struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalReturn   float64 `json:"total_return"`
	MeanReturn    float64 `json:"mean_return"`
	MaxReturn     float64 `json:"max_return"`
	MinReturn     float64 `json:"min_return"`
	ProfitFactor  float64 `json:"profit_factor"`
	NetBenefit    float64 `json:"net_benefit,omitempty"`
	ROI           float64 `json:"roi,omitempty"`
	MaxDrawdown   float64 `json:"max_drawdown"`
	SharpeRatio   float64 `json:"sharpe_ratio"`
}

// Result holds the complete simulator output.
type Result struct {
	Mode   Mode      `json:"mode"`
	Trades []Trade   `json:"trades"`
	Open   *Position `json:"open,omitempty"`
	Stats  Stats     `json:"stats"`
	State  State     `json:"state"`
}

func newResult(mode Mode, trades []Trade, stake float64) *Result {
	if trades == nil {
		trades = []Trade{}
	}
	state := StateCompleted
	if len(trades) == 0 {
		state = StateNoTrades
	}
	return &Result{
		Mode:   mode,
		Trades: trades,
		Stats:  CalculateStats(trades, mode, stake),
		State:  state,
	}
}
