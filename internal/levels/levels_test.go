package levels

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/newthinker/strategylab/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesFromHighsLows(highs, lows []float64) core.Series {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.Bar, len(highs))
	for i := range highs {
		bars[i] = core.Bar{
			Time:  base.Add(time.Duration(i) * time.Hour),
			High:  highs[i],
			Low:   lows[i],
			Close: (highs[i] + lows[i]) / 2,
		}
	}
	return core.Series{Symbol: "TEST", Interval: "1h", Bars: bars}
}

func TestFindFractals(t *testing.T) {
	highs := []float64{10, 11, 15, 11, 10, 12, 10}
	lows := []float64{9, 8, 12, 9, 5, 9, 9}
	s := seriesFromHighsLows(highs, lows)

	f := FindFractals(s, 5)

	assert.Equal(t, []int{2}, f.HighIndices)
	assert.Equal(t, []int{4}, f.LowIndices)
}

func TestFindFractals_TiesAreNotFractals(t *testing.T) {
	highs := []float64{10, 12, 15, 15, 12, 10}
	lows := []float64{5, 5, 5, 5, 5, 5}
	s := seriesFromHighsLows(highs, lows)

	f := FindFractals(s, 3)
	assert.Empty(t, f.HighIndices)
	assert.Empty(t, f.LowIndices)
}

func TestDetect_MonotonicSeriesHasNoLevels(t *testing.T) {
	n := 50
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 100 + float64(i)
		lows[i] = 99 + float64(i)
	}

	for _, window := range []int{2, 3, 5, 7, 10, 21} {
		got := Detect(seriesFromHighsLows(highs, lows), window, 0.5)
		assert.Empty(t, got.Supports, "window %d", window)
		assert.Empty(t, got.Resistances, "window %d", window)
	}
}

func TestDetect_EmptySeries(t *testing.T) {
	got := Detect(core.Series{}, 5, 0.5)
	require.NotNil(t, got.Supports)
	require.NotNil(t, got.Resistances)
	assert.Empty(t, got.Supports)
	assert.Empty(t, got.Resistances)
}

func TestDetect_SmallWindow(t *testing.T) {
	s := seriesFromHighsLows([]float64{1, 3, 1}, []float64{1, 0, 1})
	got := Detect(s, 1, 0.5)
	assert.Empty(t, got.Resistances)
	assert.Empty(t, got.Supports)
}

func TestCluster_Groups(t *testing.T) {
	values := []float64{200.5, 100, 100.2, 200, 100.1}

	got := Cluster(values, 1.0)

	require.Len(t, got, 2)
	assert.InDelta(t, 100.1, got[0], 1e-9)
	assert.InDelta(t, 200.25, got[1], 1e-9)
	assert.Equal(t, []float64{200.5, 100, 100.2, 200, 100.1}, values, "input must not be reordered")
}

func TestCluster_BoundaryStartsNewCluster(t *testing.T) {
	// 101 deviates exactly 1% from 100, which closes the cluster.
	got := Cluster([]float64{100, 101}, 1.0)
	assert.Equal(t, []float64{100, 101}, got)
}

func TestCluster_ZeroMean(t *testing.T) {
	got := Cluster([]float64{0, 0.004, 0.5}, 0.5)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.002, got[0], 1e-12)
	assert.InDelta(t, 0.5, got[1], 1e-12)
}

func TestCluster_NegativeValuesUseMagnitude(t *testing.T) {
	got := Cluster([]float64{-100, -110, -100.5}, 1.0)
	require.Len(t, got, 2)
	assert.InDelta(t, -110, got[0], 1e-12)
	assert.InDelta(t, -100.25, got[1], 1e-12)
}

func TestCluster_Empty(t *testing.T) {
	got := Cluster(nil, 1)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCluster_OrderIndependent(t *testing.T) {
	a := Cluster([]float64{5, 1, 3, 1.01, 5.02}, 1)
	b := Cluster([]float64{1.01, 5.02, 1, 3, 5}, 1)
	assert.Equal(t, a, b)
}

func TestCluster_AdjacentClustersSeparated(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for _, threshold := range []float64{0.1, 0.5, 1, 2.5, 5} {
		values := make([]float64, 200)
		for i := range values {
			values[i] = 50 + rng.Float64()*100
		}

		got := Cluster(values, threshold)
		for i := 1; i < len(got); i++ {
			dev := math.Abs(got[i]-got[i-1]) / got[i-1] * 100
			assert.GreaterOrEqual(t, dev, threshold, "clusters %d/%d at threshold %v", i-1, i, threshold)
		}
	}
}

func TestCluster_MembersCloseToMean(t *testing.T) {
	groups := [][]float64{
		{100, 100.1, 100.3},
		{150, 150.2},
		{300, 300.5, 301},
	}
	var values []float64
	for _, g := range groups {
		values = append(values, g...)
	}

	got := Cluster(values, 1)
	require.Len(t, got, len(groups))
	for i, g := range groups {
		for _, v := range g {
			assert.Less(t, math.Abs(v-got[i])/got[i]*100, 1.0)
		}
	}
}
