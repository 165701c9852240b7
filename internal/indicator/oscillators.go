package indicator

import "math"

// RSI calculates the Relative Strength Index with Wilder smoothing.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gainSum += delta
		} else {
			lossSum -= delta
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	out[period] = rsiFromAvg(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain := math.Max(delta, 0)
		loss := math.Max(-delta, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAvg(avgGain, avgLoss)
	}
	return out
}

func rsiFromAvg(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// MACD returns the MACD line, its signal line and the histogram.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	line = nanSlice(len(closes))
	for i := range closes {
		line[i] = fastEMA[i] - slowEMA[i] // NaN propagates through warm-up
	}

	sig = EMA(line, signal)
	hist = nanSlice(len(closes))
	for i := range closes {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

// Stochastic returns %K over kPeriod bars and %D as the SMA of %K.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (k, d []float64) {
	n := len(closes)
	k = nanSlice(n)
	if kPeriod <= 0 || len(highs) != n || len(lows) != n {
		return k, nanSlice(n)
	}

	for i := kPeriod - 1; i < n; i++ {
		hh, ll := highs[i], lows[i]
		for j := i - kPeriod + 1; j < i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		if hh == ll {
			k[i] = 50
			continue
		}
		k[i] = (closes[i] - ll) / (hh - ll) * 100
	}

	return k, SMA(k, dPeriod)
}
