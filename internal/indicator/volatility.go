package indicator

import "math"

// ATR calculates Average True Range with Wilder smoothing. The first bar has
// no previous close, so its true range is high - low.
func ATR(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if period <= 0 || n < period || len(highs) != n || len(lows) != n {
		return out
	}

	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		tr[i] = highs[i] - lows[i]
		if i > 0 {
			tr[i] = math.Max(tr[i], math.Max(
				math.Abs(highs[i]-closes[i-1]),
				math.Abs(lows[i]-closes[i-1]),
			))
		}
	}

	var sum float64
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	atr := sum / float64(period)
	out[period-1] = atr

	for i := period; i < n; i++ {
		atr = (atr*float64(period-1) + tr[i]) / float64(period)
		out[i] = atr
	}
	return out
}

// Bollinger returns the upper, middle and lower bands.
func Bollinger(closes []float64, period int, stdDevs float64) (upper, middle, lower []float64) {
	middle = SMA(closes, period)
	std := RollingStd(closes, period)

	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	for i := range closes {
		upper[i] = middle[i] + stdDevs*std[i]
		lower[i] = middle[i] - stdDevs*std[i]
	}
	return upper, middle, lower
}

// VWAP is a rolling volume-weighted average of the typical price
// ((H+L+C)/3) over period bars.
func VWAP(highs, lows, closes, volumes []float64, period int) []float64 {
	n := len(closes)
	if period <= 0 || len(highs) != n || len(lows) != n || len(volumes) != n {
		return nanSlice(n)
	}

	out := nanSlice(n)
	var sumPV, sumV float64
	for i := 0; i < n; i++ {
		sumPV += (highs[i] + lows[i] + closes[i]) / 3 * volumes[i]
		sumV += volumes[i]

		if i >= period {
			old := i - period
			sumPV -= (highs[old] + lows[old] + closes[old]) / 3 * volumes[old]
			sumV -= volumes[old]
		}
		if i < period-1 || sumV == 0 {
			continue
		}
		out[i] = sumPV / sumV
	}
	return out
}
