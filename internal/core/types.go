package core

import (
	"math"
	"sort"
	"time"
)

// Indicator column names. Signal predicates and the learned-signal features
// look indicators up by these keys.
const (
	ColEMAFast    = "ema_fast"
	ColEMASlow    = "ema_slow"
	ColRSI        = "rsi"
	ColMACD       = "macd"
	ColMACDSignal = "macd_signal"
	ColMACDHist   = "macd_hist"
	ColStochK     = "stoch_k"
	ColStochD     = "stoch_d"
	ColVWAP       = "vwap"
	ColATR        = "atr"
	ColVolumeSMA  = "volume_sma"
	ColBBUpper    = "bb_upper"
	ColBBMiddle   = "bb_middle"
	ColBBLower    = "bb_lower"
)

// Base OHLCV field names, resolvable through Bar.Value.
const (
	FieldOpen   = "open"
	FieldHigh   = "high"
	FieldLow    = "low"
	FieldClose  = "close"
	FieldVolume = "volume"
)

// IndicatorColumns lists every indicator column in the contract.
var IndicatorColumns = []string{
	ColEMAFast, ColEMASlow, ColRSI,
	ColMACD, ColMACDSignal, ColMACDHist,
	ColStochK, ColStochD, ColVWAP, ColATR, ColVolumeSMA,
	ColBBUpper, ColBBMiddle, ColBBLower,
}

// Bar is one OHLCV sample annotated with indicator values.
// A NaN or absent indicator means the value is not available yet (warm-up).
type Bar struct {
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Volume     float64
	Indicators map[string]float64
}

// Value returns a named value of the bar. Base fields (open, high, low,
// close, volume) are resolved first, then indicator columns.
// ok is false when the value is missing or NaN.
func (b Bar) Value(name string) (float64, bool) {
	var v float64
	switch name {
	case FieldOpen:
		v = b.Open
	case FieldHigh:
		v = b.High
	case FieldLow:
		v = b.Low
	case FieldClose:
		v = b.Close
	case FieldVolume:
		v = b.Volume
	default:
		iv, ok := b.Indicators[name]
		if !ok {
			return 0, false
		}
		v = iv
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Values resolves several names at once. ok is false if any is unavailable.
func (b Bar) Values(names ...string) ([]float64, bool) {
	out := make([]float64, len(names))
	for i, name := range names {
		v, ok := b.Value(name)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// Series is a time-ordered sequence of bars for one symbol.
type Series struct {
	Symbol   string
	Interval string // "1m", "15m", "1h", "1d", ...
	Bars     []Bar
}

// Len returns the number of bars.
func (s Series) Len() int {
	return len(s.Bars)
}

// At returns the bar at position i.
func (s Series) At(i int) Bar {
	return s.Bars[i]
}

// Ahead returns the bar n steps after position i.
func (s Series) Ahead(i, n int) (Bar, bool) {
	j := i + n
	if i < 0 || j < 0 || j >= len(s.Bars) {
		return Bar{}, false
	}
	return s.Bars[j], true
}

// Index returns the position of the bar with timestamp t, or -1.
func (s Series) Index(t time.Time) int {
	i := sort.Search(len(s.Bars), func(i int) bool {
		return !s.Bars[i].Time.Before(t)
	})
	if i < len(s.Bars) && s.Bars[i].Time.Equal(t) {
		return i
	}
	return -1
}

// Validate checks that the series is non-empty and strictly increasing in time.
func (s Series) Validate() error {
	if len(s.Bars) == 0 {
		return ErrNoData
	}
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Time.After(s.Bars[i-1].Time) {
			return WrapError(ErrNoData, &OrderError{Index: i, Prev: s.Bars[i-1].Time, Curr: s.Bars[i].Time})
		}
	}
	return nil
}

// Closes extracts closing prices.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs extracts high prices.
func (s Series) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows extracts low prices.
func (s Series) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes extracts volumes.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// Column extracts a named value per bar, NaN where unavailable.
func (s Series) Column(name string) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		v, ok := b.Value(name)
		if !ok {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}
