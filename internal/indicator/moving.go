// Package indicator computes the indicator columns consumed by the signal
// library. Every function returns a slice aligned with its input; positions
// inside the warm-up window hold NaN.
package indicator

import "math"

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// firstValid returns the index of the first non-NaN value, or len(values).
func firstValid(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return len(values)
}

// SMA calculates Simple Moving Average
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	start := firstValid(values)
	if period <= 0 || len(values)-start < period {
		return out
	}

	var sum float64
	for i := start; i < start+period; i++ {
		sum += values[i]
	}
	out[start+period-1] = sum / float64(period)

	// Rolling calculation
	for i := start + period; i < len(values); i++ {
		sum = sum - values[i-period] + values[i]
		out[i] = sum / float64(period)
	}

	return out
}

// EMA calculates Exponential Moving Average, seeded with the SMA of the
// first period values. Leading NaNs (e.g. from another indicator's warm-up)
// are skipped.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	start := firstValid(values)
	if period <= 0 || len(values)-start < period {
		return out
	}

	multiplier := 2.0 / float64(period+1)

	var sum float64
	for i := start; i < start+period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	out[start+period-1] = ema

	for i := start + period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}

	return out
}

// RollingStd returns the population standard deviation over period values.
func RollingStd(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		var mean float64
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)
		var variance float64
		for _, v := range window {
			d := v - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(period))
	}
	return out
}
