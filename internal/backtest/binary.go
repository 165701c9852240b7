package backtest

import (
	"context"
	"fmt"

	"github.com/newthinker/strategylab/internal/core"
)

// BinaryParams configures the binary-option simulator. Payout is the
// fraction of the stake won on a winning trade.
type BinaryParams struct {
	ExpirationSteps int
	Payout          float64
	Stake           float64
}

// ExpirationSteps converts an expiration window into a bar count for the
// given interval. Windows shorter than one bar are a configuration error.
func ExpirationSteps(expirationMinutes int, interval string) (int, error) {
	barMinutes, err := core.IntervalMinutes(interval)
	if err != nil {
		return 0, err
	}
	if expirationMinutes < barMinutes {
		return 0, core.WrapError(core.ErrInsufficientHorizon,
			fmt.Errorf("expiration %dm is shorter than the %s bar", expirationMinutes, interval))
	}
	return expirationMinutes / barMinutes, nil
}

// RunBinary opens a CALL on entry or a PUT on exit while flat and resolves
// it against the close ExpirationSteps bars after the opening bar.
// Resolution happens on the next scanned bar, which cannot open a new
// position.
func RunBinary(ctx context.Context, s core.Series, entry, exit []bool, p BinaryParams) (*Result, error) {
	if p.ExpirationSteps < 1 {
		return nil, core.WrapError(core.ErrInsufficientHorizon, fmt.Errorf("%d expiration steps", p.ExpirationSteps))
	}
	if len(entry) != s.Len() {
		return nil, signalLengthError(len(entry), s.Len())
	}
	if len(exit) != s.Len() {
		return nil, signalLengthError(len(exit), s.Len())
	}

	var (
		pos    Position
		trades []Trade
		trade  *Trade
	)
	last := s.Len() - p.ExpirationSteps
	for i := 0; i < last; i++ {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		pos, trade = stepBinary(pos, s, i, entry[i], exit[i], p)
		if trade != nil {
			trades = append(trades, *trade)
		}
	}
	if pos.Open {
		trades = append(trades, resolveBinary(pos, s, p))
	}

	return newResult(ModeBinary, trades, p.Stake), nil
}

func stepBinary(pos Position, s core.Series, i int, entry, exit bool, p BinaryParams) (Position, *Trade) {
	if pos.Open {
		t := resolveBinary(pos, s, p)
		return Position{}, &t
	}

	var dir Direction
	switch {
	case entry:
		dir = Call
	case exit:
		dir = Put
	default:
		return pos, nil
	}
	b := s.Bars[i]
	return Position{
		Open:       true,
		Direction:  dir,
		EntryIndex: i,
		EntryTime:  b.Time,
		EntryPrice: b.Close,
	}, nil
}

// resolveBinary settles a pending position. Equal prices lose.
func resolveBinary(pos Position, s core.Series, p BinaryParams) Trade {
	exp, _ := s.Ahead(pos.EntryIndex, p.ExpirationSteps)

	won := false
	switch pos.Direction {
	case Call:
		won = exp.Close > pos.EntryPrice
	case Put:
		won = exp.Close < pos.EntryPrice
	}

	t := Trade{
		Direction:  pos.Direction,
		EntryIndex: pos.EntryIndex,
		EntryTime:  pos.EntryTime,
		EntryPrice: pos.EntryPrice,
		ExitIndex:  pos.EntryIndex + p.ExpirationSteps,
		ExitTime:   exp.Time,
		ExitPrice:  exp.Close,
		Outcome:    Loss,
		Return:     -1,
	}
	if won {
		t.Outcome = Win
		t.Return = p.Payout
	}
	t.Benefit = p.Stake * t.Return
	return t
}
