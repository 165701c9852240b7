package signals

import "github.com/newthinker/strategylab/internal/core"

// Predicate evaluates one bar given the previous one. On the first bar prev
// is the zero Bar, which has no indicators, so crossover rules are false.
type Predicate func(prev, cur core.Bar) bool

const (
	volumeSpikeFactor = 1.2
	rsiOverbought     = 70.0
	rsiOversold       = 30.0
	stochOversold     = 20.0
)

// Predicates maps each rule strategy to its entry predicate.
var Predicates = map[Strategy]Predicate{
	Momentum:      MomentumEntry,
	MeanReversion: MeanReversionEntry,
	MACDCross:     MACDCrossEntry,
	Stochastic:    StochasticEntry,
	VWAP:          VWAPEntry,
}

// HighVolume reports volume above 1.2x its trailing average.
func HighVolume(b core.Bar) bool {
	avg, ok := b.Value(core.ColVolumeSMA)
	if !ok {
		return false
	}
	return b.Volume > volumeSpikeFactor*avg
}

// MomentumEntry fires on a fresh upward cross of the fast EMA in an uptrend
// that is not overbought and is confirmed by volume.
func MomentumEntry(prev, cur core.Bar) bool {
	v, ok := cur.Values(core.ColEMAFast, core.ColEMASlow, core.ColRSI)
	if !ok {
		return false
	}
	emaFast, emaSlow, rsi := v[0], v[1], v[2]

	prevFast, ok := prev.Value(core.ColEMAFast)
	if !ok {
		return false
	}

	crossedUp := cur.Close > emaFast && prev.Close <= prevFast
	uptrend := cur.Close > emaFast && cur.Close > emaSlow

	return crossedUp && uptrend && rsi < rsiOverbought && HighVolume(cur)
}

// MeanReversionEntry fires below the lower Bollinger band when oversold on
// elevated volume.
func MeanReversionEntry(_, cur core.Bar) bool {
	v, ok := cur.Values(core.ColBBLower, core.ColRSI)
	if !ok {
		return false
	}
	return cur.Close < v[0] && v[1] < rsiOversold && HighVolume(cur)
}

// MACDCrossEntry fires when the MACD line crosses above its signal line
// while still below zero.
func MACDCrossEntry(prev, cur core.Bar) bool {
	c, ok := cur.Values(core.ColMACD, core.ColMACDSignal)
	if !ok {
		return false
	}
	p, ok := prev.Values(core.ColMACD, core.ColMACDSignal)
	if !ok {
		return false
	}
	return p[0] <= p[1] && c[0] > c[1] && c[0] < 0
}

// StochasticEntry fires while %K is oversold and above %D.
func StochasticEntry(_, cur core.Bar) bool {
	v, ok := cur.Values(core.ColStochK, core.ColStochD)
	if !ok {
		return false
	}
	return v[0] < stochOversold && v[0] > v[1]
}

// VWAPEntry fires when price dips through VWAP on elevated volume.
func VWAPEntry(prev, cur core.Bar) bool {
	vwap, ok := cur.Value(core.ColVWAP)
	if !ok {
		return false
	}
	prevVWAP, ok := prev.Value(core.ColVWAP)
	if !ok {
		return false
	}
	return prev.Close >= prevVWAP && cur.Close < vwap && HighVolume(cur)
}

// SellExit fires when price crosses below the fast EMA without being
// deeply oversold.
func SellExit(prev, cur core.Bar) bool {
	v, ok := cur.Values(core.ColEMAFast, core.ColRSI)
	if !ok {
		return false
	}
	prevFast, ok := prev.Value(core.ColEMAFast)
	if !ok {
		return false
	}
	return prev.Close >= prevFast && cur.Close < v[0] && v[1] > rsiOversold
}
