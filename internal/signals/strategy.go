// Package signals derives per-bar boolean entry and exit signals from the
// indicator columns of a series.
package signals

import (
	"fmt"
	"strings"

	"github.com/newthinker/strategylab/internal/core"
)

// Strategy names a selectable entry strategy.
type Strategy string

const (
	Momentum      Strategy = "momentum"
	MeanReversion Strategy = "mean_reversion"
	MACDCross     Strategy = "macd"
	Stochastic    Strategy = "stochastic"
	VWAP          Strategy = "vwap"
	ML            Strategy = "ml"
)

// Sell is the exit signal column. In binary mode it opens PUT positions.
const Sell = "sell"

// Strategies lists every selectable strategy in display order.
var Strategies = []Strategy{Momentum, MeanReversion, MACDCross, Stochastic, VWAP, ML}

// Parse validates a strategy name.
func Parse(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Strategies {
		if s == known {
			return s, nil
		}
	}
	return "", core.WrapError(core.ErrUnknownStrategy, fmt.Errorf("%q", name))
}

// Rule reports whether the strategy is a plain indicator predicate, as
// opposed to the learned classifier.
func (s Strategy) Rule() bool {
	_, ok := Predicates[s]
	return ok
}

func (s Strategy) String() string {
	return string(s)
}
