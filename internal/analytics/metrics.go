package analytics

import (
	"math"
	"sort"
	"time"

	"market-fusion/internal/domain"
)

// Metric window periods accepted by CalculateMetrics.
const (
	Period7d  = "7d"
	Period30d = "30d"
	Period90d = "90d"
	PeriodAll = "all"
)

func periodCutoff(period string, now time.Time) (time.Time, bool) {
	switch period {
	case Period7d:
		return now.AddDate(0, 0, -7), true
	case Period30d:
		return now.AddDate(0, 0, -30), true
	case Period90d:
		return now.AddDate(0, 0, -90), true
	case PeriodAll:
		return time.Time{}, true
	default:
		return time.Time{}, false
	}
}

// CalculateMetrics derives the performance summary over the closed trades in
// the requested window. An unknown period falls back to "all". An empty
// window yields zero-value metrics rather than an error.
func (t *Tracker) CalculateMetrics(period string) *domain.PerformanceMetrics {
	now := time.Now().UTC()
	cutoff, ok := periodCutoff(period, now)
	if !ok {
		period = PeriodAll
		cutoff = time.Time{}
	}

	var trades []domain.TradeRecord
	for _, r := range t.ClosedTrades() {
		if cutoff.IsZero() || !r.ExitTime.Before(cutoff) {
			trades = append(trades, r)
		}
	}

	metrics := &domain.PerformanceMetrics{
		Period:       period,
		TradingStyle: domain.StyleUnknown,
		ComputedAt:   now,
	}
	if len(trades) == 0 {
		return metrics
	}

	sort.SliceStable(trades, func(i, j int) bool {
		return trades[i].ExitTime.Before(trades[j].ExitTime)
	})

	var (
		sumReturn, sumHold     float64
		grossProfit, grossLoss float64
		sumWinRet, sumLossRet  float64
		profitBySymbol         = make(map[string]float64)
	)
	for _, r := range trades {
		sumReturn += r.ReturnPct
		sumHold += r.HoldingHours
		profitBySymbol[r.Symbol] += r.Profit

		switch {
		case r.Profit > 0:
			metrics.Wins++
			grossProfit += r.Profit
			sumWinRet += r.ReturnPct
		case r.Profit < 0:
			metrics.Losses++
			grossLoss += -r.Profit
			sumLossRet += -r.ReturnPct
		}
	}

	n := float64(len(trades))
	metrics.TotalTrades = len(trades)
	metrics.WinRate = float64(metrics.Wins) / n
	metrics.AvgReturnPct = sumReturn / n
	metrics.AvgHoldHours = sumHold / n
	metrics.SharpeRatio = sharpeLike(trades, metrics.AvgReturnPct)
	metrics.MaxDrawdown = maxDrawdown(trades)
	metrics.TradingStyle = styleFor(metrics.AvgHoldHours)
	metrics.ProfitFactor = profitFactor(grossProfit, grossLoss)
	metrics.RiskReward = riskReward(sumWinRet, metrics.Wins, sumLossRet, metrics.Losses)
	metrics.BestSymbol, metrics.WorstSymbol = bestWorst(profitBySymbol)

	return metrics
}

// sharpeLike is mean return over its standard deviation, without a risk-free
// leg. Zero when variance vanishes.
func sharpeLike(trades []domain.TradeRecord, mean float64) float64 {
	if len(trades) < 2 {
		return 0
	}
	var variance float64
	for _, r := range trades {
		d := r.ReturnPct - mean
		variance += d * d
	}
	variance /= float64(len(trades))
	if variance == 0 {
		return 0
	}
	return mean / math.Sqrt(variance)
}

// maxDrawdown scans the cumulative return curve in chronological order and
// reports the deepest peak-to-trough drop in return points.
func maxDrawdown(trades []domain.TradeRecord) float64 {
	var cumulative, peak, worst float64
	for _, r := range trades {
		cumulative += r.ReturnPct
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > worst {
			worst = dd
		}
	}
	return worst
}

// profitFactor is gross profit over gross loss. All wins and no losses is
// +Inf; neither wins nor losses is 0.
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return grossProfit / grossLoss
}

// riskReward is the mean winner return over the mean loser return. With no
// losers it falls back to the mean winner return itself, so an all-winning
// window still reports a usable ratio.
func riskReward(sumWinRet float64, wins int, sumLossRet float64, losses int) float64 {
	if wins == 0 {
		return 0
	}
	avgWin := sumWinRet / float64(wins)
	if losses == 0 {
		return avgWin
	}
	avgLoss := sumLossRet / float64(losses)
	if avgLoss == 0 {
		return 0
	}
	return avgWin / avgLoss
}

func styleFor(avgHoldHours float64) domain.TradingStyle {
	switch {
	case avgHoldHours <= 0:
		return domain.StyleUnknown
	case avgHoldHours < 4:
		return domain.StyleScalper
	case avgHoldHours < 24:
		return domain.StyleSwing
	default:
		return domain.StylePosition
	}
}

func bestWorst(profitBySymbol map[string]float64) (string, string) {
	var best, worst string
	bestProfit := math.Inf(-1)
	worstProfit := math.Inf(1)

	symbols := make([]string, 0, len(profitBySymbol))
	for sym := range profitBySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		p := profitBySymbol[sym]
		if p > bestProfit {
			bestProfit = p
			best = sym
		}
		if p < worstProfit {
			worstProfit = p
			worst = sym
		}
	}
	return best, worst
}
