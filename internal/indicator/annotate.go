package indicator

import "github.com/newthinker/strategylab/internal/core"

// Params holds the look-back periods used by Annotate.
type Params struct {
	EMAFast      int
	EMASlow      int
	RSI          int
	MACDFast     int
	MACDSlow     int
	MACDSignal   int
	StochK       int
	StochD       int
	VWAP         int
	ATR          int
	VolumeSMA    int
	Bollinger    int
	BollingerStd float64
}

// DefaultParams returns the conventional indicator periods.
func DefaultParams() Params {
	return Params{
		EMAFast:      9,
		EMASlow:      21,
		RSI:          14,
		MACDFast:     12,
		MACDSlow:     26,
		MACDSignal:   9,
		StochK:       14,
		StochD:       3,
		VWAP:         14,
		ATR:          14,
		VolumeSMA:    20,
		Bollinger:    20,
		BollingerStd: 2,
	}
}

// Annotate returns a copy of the series with every indicator column filled.
// Existing indicator values on the input bars are overwritten.
func Annotate(s core.Series, p Params) core.Series {
	closes := s.Closes()
	highs := s.Highs()
	lows := s.Lows()
	volumes := s.Volumes()

	macd, macdSignal, macdHist := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	stochK, stochD := Stochastic(highs, lows, closes, p.StochK, p.StochD)
	bbUpper, bbMiddle, bbLower := Bollinger(closes, p.Bollinger, p.BollingerStd)

	columns := map[string][]float64{
		core.ColEMAFast:    EMA(closes, p.EMAFast),
		core.ColEMASlow:    EMA(closes, p.EMASlow),
		core.ColRSI:        RSI(closes, p.RSI),
		core.ColMACD:       macd,
		core.ColMACDSignal: macdSignal,
		core.ColMACDHist:   macdHist,
		core.ColStochK:     stochK,
		core.ColStochD:     stochD,
		core.ColVWAP:       VWAP(highs, lows, closes, volumes, p.VWAP),
		core.ColATR:        ATR(highs, lows, closes, p.ATR),
		core.ColVolumeSMA:  SMA(volumes, p.VolumeSMA),
		core.ColBBUpper:    bbUpper,
		core.ColBBMiddle:   bbMiddle,
		core.ColBBLower:    bbLower,
	}

	out := core.Series{
		Symbol:   s.Symbol,
		Interval: s.Interval,
		Bars:     make([]core.Bar, len(s.Bars)),
	}
	for i, b := range s.Bars {
		ind := make(map[string]float64, len(b.Indicators)+len(columns))
		for k, v := range b.Indicators {
			ind[k] = v
		}
		for name, col := range columns {
			ind[name] = col[i]
		}
		b.Indicators = ind
		out.Bars[i] = b
	}
	return out
}

// HasIndicators reports whether every bar carries every contract column.
func HasIndicators(s core.Series) bool {
	for _, b := range s.Bars {
		for _, name := range core.IndicatorColumns {
			if _, ok := b.Indicators[name]; !ok {
				return false
			}
		}
	}
	return len(s.Bars) > 0
}
