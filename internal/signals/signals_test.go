package signals

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/strategylab/internal/core"
)

func bar(close, volume float64, ind map[string]float64) core.Bar {
	return core.Bar{
		Time:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Open:       close,
		High:       close,
		Low:        close,
		Close:      close,
		Volume:     volume,
		Indicators: ind,
	}
}

func TestParse(t *testing.T) {
	for _, name := range []string{"momentum", "mean_reversion", "macd", "stochastic", "vwap", "ml", " MACD "} {
		_, err := Parse(name)
		assert.NoError(t, err, name)
	}

	_, err := Parse("martingale")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrUnknownStrategy))
}

func TestStrategy_Rule(t *testing.T) {
	assert.True(t, Momentum.Rule())
	assert.True(t, VWAP.Rule())
	assert.False(t, ML.Rule())
}

func TestMomentumEntry(t *testing.T) {
	prev := bar(99, 1000, map[string]float64{core.ColEMAFast: 100, core.ColEMASlow: 98, core.ColRSI: 55, core.ColVolumeSMA: 1000})
	cur := bar(102, 1500, map[string]float64{core.ColEMAFast: 100.5, core.ColEMASlow: 98.5, core.ColRSI: 60, core.ColVolumeSMA: 1000})

	assert.True(t, MomentumEntry(prev, cur))

	tests := []struct {
		name   string
		mutate func(p, c *core.Bar)
	}{
		{"already above fast ema", func(p, c *core.Bar) { p.Close = 101 }},
		{"below slow ema", func(p, c *core.Bar) { c.Indicators[core.ColEMASlow] = 103 }},
		{"overbought", func(p, c *core.Bar) { c.Indicators[core.ColRSI] = 70 }},
		{"volume not elevated", func(p, c *core.Bar) { c.Volume = 1200 }},
		{"rsi warm-up", func(p, c *core.Bar) { c.Indicators[core.ColRSI] = math.NaN() }},
		{"previous ema missing", func(p, c *core.Bar) { delete(p.Indicators, core.ColEMAFast) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := bar(prev.Close, prev.Volume, clone(prev.Indicators))
			c := bar(cur.Close, cur.Volume, clone(cur.Indicators))
			tt.mutate(&p, &c)
			assert.False(t, MomentumEntry(p, c))
		})
	}
}

func TestMeanReversionEntry(t *testing.T) {
	cur := bar(90, 2000, map[string]float64{core.ColBBLower: 92, core.ColRSI: 25, core.ColVolumeSMA: 1000})
	assert.True(t, MeanReversionEntry(core.Bar{}, cur))

	cur.Indicators[core.ColRSI] = 30
	assert.False(t, MeanReversionEntry(core.Bar{}, cur))
}

func TestMACDCrossEntry(t *testing.T) {
	prev := bar(100, 0, map[string]float64{core.ColMACD: -1.2, core.ColMACDSignal: -1.0})
	cur := bar(100, 0, map[string]float64{core.ColMACD: -0.8, core.ColMACDSignal: -0.9})
	assert.True(t, MACDCrossEntry(prev, cur))

	// crossing above zero is late-cycle
	cur.Indicators[core.ColMACD] = 0.1
	cur.Indicators[core.ColMACDSignal] = 0.0
	assert.False(t, MACDCrossEntry(prev, cur))

	// first bar has no previous values
	assert.False(t, MACDCrossEntry(core.Bar{}, bar(100, 0, map[string]float64{core.ColMACD: -0.8, core.ColMACDSignal: -0.9})))
}

func TestStochasticEntry(t *testing.T) {
	assert.True(t, StochasticEntry(core.Bar{}, bar(1, 0, map[string]float64{core.ColStochK: 15, core.ColStochD: 10})))
	assert.False(t, StochasticEntry(core.Bar{}, bar(1, 0, map[string]float64{core.ColStochK: 15, core.ColStochD: 18})))
	assert.False(t, StochasticEntry(core.Bar{}, bar(1, 0, map[string]float64{core.ColStochK: 25, core.ColStochD: 10})))
}

func TestVWAPEntry(t *testing.T) {
	prev := bar(101, 1000, map[string]float64{core.ColVWAP: 100})
	cur := bar(99, 1300, map[string]float64{core.ColVWAP: 100, core.ColVolumeSMA: 1000})
	assert.True(t, VWAPEntry(prev, cur))

	cur.Volume = 1100
	assert.False(t, VWAPEntry(prev, cur))
}

func TestSellExit(t *testing.T) {
	prev := bar(101, 0, map[string]float64{core.ColEMAFast: 100, core.ColRSI: 50})
	cur := bar(99, 0, map[string]float64{core.ColEMAFast: 100, core.ColRSI: 45})
	assert.True(t, SellExit(prev, cur))

	cur.Indicators[core.ColRSI] = 28
	assert.False(t, SellExit(prev, cur))
}

func TestCompute_FlatSeriesHasNoSignals(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := core.Series{Symbol: "FLAT", Interval: "1d"}
	for i := 0; i < 10; i++ {
		ind := make(map[string]float64, len(core.IndicatorColumns))
		for _, col := range core.IndicatorColumns {
			ind[col] = 100
		}
		ind[core.ColRSI] = 50
		ind[core.ColMACD] = 0
		ind[core.ColMACDSignal] = 0
		ind[core.ColStochK] = 50
		ind[core.ColStochD] = 50
		ind[core.ColVolumeSMA] = 1000
		s.Bars = append(s.Bars, core.Bar{
			Time: start.AddDate(0, 0, i),
			Open: 100, High: 100, Low: 100, Close: 100, Volume: 1000,
			Indicators: ind,
		})
	}

	set := Compute(s)
	require.Len(t, set, len(Predicates)+1)
	for name, col := range set {
		assert.Len(t, col, 10, name)
		assert.Zero(t, set.Count(name), name)
	}

	_, err := set.Column(ML)
	assert.True(t, errors.Is(err, core.ErrUnknownStrategy))
}

func TestEvaluate_FirstBarUsesZeroPrevious(t *testing.T) {
	var seen []core.Bar
	s := core.Series{Bars: []core.Bar{bar(1, 0, nil), bar(2, 0, nil)}}
	out := Evaluate(s, func(prev, cur core.Bar) bool {
		seen = append(seen, prev)
		return cur.Close > prev.Close
	})

	assert.Equal(t, []bool{true, true}, out)
	assert.True(t, seen[0].Time.IsZero())
	assert.Equal(t, 1.0, seen[1].Close)
}

func clone(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
