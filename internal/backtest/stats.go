package backtest

import (
	"math"
)

// CalculateStats computes performance statistics from a ledger.
func CalculateStats(trades []Trade, mode Mode, stake float64) Stats {
	if len(trades) == 0 {
		return Stats{}
	}

	var winning, losing int
	var totalReturn, gains, losses, netBenefit float64
	returns := make([]float64, 0, len(trades))
	maxReturn, minReturn := math.Inf(-1), math.Inf(1)

	for _, t := range trades {
		returns = append(returns, t.Return)
		totalReturn += t.Return
		netBenefit += t.Benefit
		maxReturn = math.Max(maxReturn, t.Return)
		minReturn = math.Min(minReturn, t.Return)
		if t.IsWin() {
			winning++
			gains += t.Return
		} else {
			losing++
			losses += t.Return
		}
	}

	n := float64(len(trades))
	stats := Stats{
		TotalTrades:   len(trades),
		WinningTrades: winning,
		LosingTrades:  losing,
		WinRate:       float64(winning) / n * 100,
		TotalReturn:   totalReturn,
		MeanReturn:    totalReturn / n,
		MaxReturn:     maxReturn,
		MinReturn:     minReturn,
		MaxDrawdown:   calculateMaxDrawdown(returns) * 100,
		SharpeRatio:   calculateSharpeRatio(returns),
	}
	// no losing trades leaves the factor at zero
	if losses != 0 {
		stats.ProfitFactor = math.Abs(gains) / math.Abs(losses)
	}
	if mode == ModeBinary {
		stats.NetBenefit = netBenefit
		if stake > 0 {
			stats.ROI = netBenefit / (n * stake) * 100
		}
	}
	return stats
}

// calculateMaxDrawdown finds the largest peak-to-trough decline
func calculateMaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	var maxDD float64
	peak := 1.0
	cumulative := 1.0

	for _, r := range returns {
		cumulative *= (1 + r)
		if cumulative > peak {
			peak = cumulative
		}
		if dd := (peak - cumulative) / peak; dd > maxDD {
			maxDD = dd
		}
	}

	return maxDD
}

// calculateSharpeRatio computes risk-adjusted return per trade, annualized
// over 252 periods with a zero risk-free rate.
func calculateSharpeRatio(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(returns)-1))
	if stdDev == 0 {
		return 0
	}

	return mean * 252 / (stdDev * math.Sqrt(252))
}
