package backtest

import (
	"context"
	"fmt"
	"math"

	"github.com/newthinker/strategylab/internal/core"
)

// ctxCheckEvery is how many bars are scanned between context checks.
const ctxCheckEvery = 1024

// Params configures the continuous simulator. Percentages are fractions.
type Params struct {
	StopLoss        float64 `json:"stop_loss"`
	TakeProfit      float64 `json:"take_profit"`
	TrailingEnabled bool    `json:"trailing_enabled"`
	TrailingStop    float64 `json:"trailing_stop"`
}

// atrStopMultiple widens the stop to at least this many ATRs.
const atrStopMultiple = 2.0

// RunContinuous scans the series from index 1 and opens a long position
// whenever entry fires while flat. A position still open at the last bar is
// returned in Result.Open, not in the ledger.
func RunContinuous(ctx context.Context, s core.Series, entry []bool, p Params) (*Result, error) {
	if len(entry) != s.Len() {
		return nil, signalLengthError(len(entry), s.Len())
	}

	var (
		pos    Position
		trades []Trade
		trade  *Trade
	)
	for i := 1; i < s.Len(); i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		pos, trade = stepContinuous(pos, i, s.Bars[i], entry[i], p)
		if trade != nil {
			trades = append(trades, *trade)
		}
	}

	res := newResult(ModeContinuous, trades, 0)
	if pos.Open {
		res.Open = &pos
	}
	return res, nil
}

// stepContinuous advances the position by one bar. A bar that closes a
// position cannot open a new one.
func stepContinuous(pos Position, i int, b core.Bar, entry bool, p Params) (Position, *Trade) {
	if !pos.Open {
		if entry {
			return openLong(i, b, p), nil
		}
		return pos, nil
	}

	if p.TrailingEnabled {
		if candidate := b.Close * (1 - p.TrailingStop); candidate > pos.Stop {
			pos.Stop = candidate
		}
	}

	switch {
	case b.High >= pos.Target:
		return Position{}, closeLong(pos, i, b, pos.Target, ExitTakeProfit)
	case b.Low <= pos.Stop:
		reason := ExitStopLoss
		if pos.Stop > pos.InitialStop {
			reason = ExitTrailingStop
		}
		return Position{}, closeLong(pos, i, b, pos.Stop, reason)
	}
	return pos, nil
}

func openLong(i int, b core.Bar, p Params) Position {
	price := b.Close
	dist := p.StopLoss
	if atr, ok := b.Value(core.ColATR); ok && price > 0 {
		dist = math.Max(p.StopLoss, atrStopMultiple*atr/price)
	}
	stop := price * (1 - dist)
	return Position{
		Open:        true,
		Direction:   Long,
		EntryIndex:  i,
		EntryTime:   b.Time,
		EntryPrice:  price,
		Stop:        stop,
		InitialStop: stop,
		Target:      price * (1 + p.TakeProfit),
	}
}

func closeLong(pos Position, i int, b core.Bar, price float64, reason ExitReason) *Trade {
	return &Trade{
		Direction:  Long,
		EntryIndex: pos.EntryIndex,
		EntryTime:  pos.EntryTime,
		EntryPrice: pos.EntryPrice,
		ExitIndex:  i,
		ExitTime:   b.Time,
		ExitPrice:  price,
		ExitReason: reason,
		Return:     (price - pos.EntryPrice) / pos.EntryPrice,
	}
}

func signalLengthError(got, want int) error {
	return core.WrapError(core.ErrRunFailed, fmt.Errorf("signal has %d values for %d bars", got, want))
}
