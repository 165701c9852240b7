package signals

import (
	"fmt"

	"github.com/newthinker/strategylab/internal/core"
)

// Set holds per-bar flags keyed by column name, aligned with a series.
type Set map[string][]bool

// Evaluate applies a predicate to every bar of the series.
func Evaluate(s core.Series, p Predicate) []bool {
	out := make([]bool, len(s.Bars))
	var prev core.Bar
	for i, cur := range s.Bars {
		out[i] = p(prev, cur)
		prev = cur
	}
	return out
}

// Compute evaluates every rule strategy plus the sell exit.
func Compute(s core.Series) Set {
	set := make(Set, len(Predicates)+1)
	for name, p := range Predicates {
		set[string(name)] = Evaluate(s, p)
	}
	set[Sell] = Evaluate(s, SellExit)
	return set
}

// Column returns the flags for a strategy.
func (s Set) Column(strategy Strategy) ([]bool, error) {
	col, ok := s[string(strategy)]
	if !ok {
		return nil, core.WrapError(core.ErrUnknownStrategy, fmt.Errorf("no signal column for %q", strategy))
	}
	return col, nil
}

// Count returns the number of true flags in a column.
func (s Set) Count(name string) int {
	n := 0
	for _, v := range s[name] {
		if v {
			n++
		}
	}
	return n
}

// Falses returns an all-false column of length n.
func Falses(n int) []bool {
	return make([]bool, n)
}
