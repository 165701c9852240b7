// Package levels detects fractal swing points and clusters them into
// support and resistance price levels.
package levels

import (
	"math"
	"sort"

	"github.com/newthinker/strategylab/internal/core"
)

// Levels holds clustered support and resistance prices, sorted ascending.
type Levels struct {
	Supports    []float64 `json:"supports"`
	Resistances []float64 `json:"resistances"`
}

// Fractals holds the raw swing points found in a series.
type Fractals struct {
	HighIndices []int
	LowIndices  []int
}

// FindFractals returns every bar whose high (low) is strictly above (below)
// every other high (low) within window/2 bars on each side.
func FindFractals(s core.Series, window int) Fractals {
	half := window / 2
	f := Fractals{HighIndices: []int{}, LowIndices: []int{}}
	if half < 1 {
		return f
	}

	for i := half; i < len(s.Bars)-half; i++ {
		isHigh, isLow := true, true
		cur := s.Bars[i]

		for j := i - half; j <= i+half; j++ {
			if j == i {
				continue
			}
			if s.Bars[j].High >= cur.High {
				isHigh = false
			}
			if s.Bars[j].Low <= cur.Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}

		if isHigh {
			f.HighIndices = append(f.HighIndices, i)
		}
		if isLow {
			f.LowIndices = append(f.LowIndices, i)
		}
	}
	return f
}

// Detect finds fractals and clusters the low fractals into supports and the
// high fractals into resistances.
func Detect(s core.Series, window int, thresholdPct float64) Levels {
	f := FindFractals(s, window)

	highs := make([]float64, len(f.HighIndices))
	for i, idx := range f.HighIndices {
		highs[i] = s.Bars[idx].High
	}
	lows := make([]float64, len(f.LowIndices))
	for i, idx := range f.LowIndices {
		lows[i] = s.Bars[idx].Low
	}

	return Levels{
		Supports:    Cluster(lows, thresholdPct),
		Resistances: Cluster(highs, thresholdPct),
	}
}

// Cluster groups sorted prices by their distance to the running cluster mean.
// A price joins the current cluster while it deviates less than thresholdPct
// percent from the mean; a zero mean compares the absolute deviation against
// thresholdPct/100 instead. The input slice is not modified.
func Cluster(values []float64, thresholdPct float64) []float64 {
	if len(values) == 0 {
		return []float64{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var out []float64
	sum, count := sorted[0], 1

	for _, v := range sorted[1:] {
		mean := sum / float64(count)
		if joins(v, mean, thresholdPct) {
			sum += v
			count++
			continue
		}
		out = append(out, mean)
		sum, count = v, 1
	}
	out = append(out, sum/float64(count))

	return out
}

func joins(v, mean, thresholdPct float64) bool {
	dev := math.Abs(v - mean)
	if mean == 0 {
		return dev < thresholdPct/100
	}
	return dev/math.Abs(mean)*100 < thresholdPct
}
