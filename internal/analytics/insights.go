package analytics

import (
	"fmt"
	"math"

	"market-fusion/internal/domain"
)

// Insights derives qualitative recommendations from a metrics summary with
// fixed thresholds. Order is deterministic: rules fire in declaration order.
func Insights(m *domain.PerformanceMetrics) []domain.Insight {
	if m == nil || m.TotalTrades == 0 {
		return []domain.Insight{{
			Message:  "Not enough closed trades to evaluate performance yet.",
			Priority: domain.PriorityLow,
		}}
	}

	var out []domain.Insight
	add := func(priority domain.InsightPriority, format string, args ...any) {
		out = append(out, domain.Insight{
			Message:  fmt.Sprintf(format, args...),
			Priority: priority,
		})
	}

	if m.WinRate < 0.4 {
		add(domain.PriorityHigh, "Win rate is %.0f%%. Review entry criteria before taking new positions.", m.WinRate*100)
	} else if m.WinRate > 0.6 {
		add(domain.PriorityLow, "Win rate of %.0f%% is strong. Current entry criteria are working.", m.WinRate*100)
	}

	if m.MaxDrawdown > 15 {
		add(domain.PriorityHigh, "Max drawdown of %.1f points exceeds the comfort band. Consider smaller position sizes.", m.MaxDrawdown)
	}

	if !math.IsInf(m.ProfitFactor, 1) && m.ProfitFactor < 1 && (m.Wins > 0 || m.Losses > 0) {
		add(domain.PriorityHigh, "Profit factor %.2f means losses outweigh wins. Tighten stops.", m.ProfitFactor)
	}

	if m.RiskReward > 0 && m.RiskReward < 1 {
		add(domain.PriorityMedium, "Average win (%.2f risk:reward) is smaller than average loss. Let winners run longer.", m.RiskReward)
	}

	if m.TradingStyle == domain.StyleScalper {
		add(domain.PriorityMedium, "Average hold of %.1f hours marks a scalping style. Watch fee drag on short holds.", m.AvgHoldHours)
	}

	if m.AvgReturnPct < 0 {
		add(domain.PriorityHigh, "Average return per trade is %.2f%%. The current strategy is losing money.", m.AvgReturnPct)
	}

	if len(out) == 0 {
		add(domain.PriorityLow, "Performance is within normal bands over %s.", m.Period)
	}
	return out
}
