package correlation

import (
	"math"
	"sort"

	"market-fusion/internal/domain"
)

const (
	// pivotThreshold gates pairs considered meaningfully correlated for the
	// per-symbol pivot list.
	pivotThreshold = 0.5
	// fusionThreshold gates cross-market pairs attached to signals. Looser
	// than pivotThreshold so signals still surface weaker relationships.
	fusionThreshold = 0.3
	maxPivots       = 10
)

// FindPivots returns the symbols most correlated with the given one, filtered
// to |r| > 0.5 and capped at the top 10 by absolute coefficient. The sort is
// stable so equal coefficients keep candidate order.
func FindPivots(symbol string, market domain.Market, candidates []*domain.CorrelationEdge) []domain.PivotRef {
	var pivots []domain.PivotRef
	for _, edge := range candidates {
		if edge == nil {
			continue
		}
		other, otherMarket, ok := counterpart(symbol, market, edge)
		if !ok {
			continue
		}
		if math.Abs(edge.Correlation) <= pivotThreshold {
			continue
		}
		pivots = append(pivots, domain.PivotRef{
			Symbol:      other,
			Market:      otherMarket,
			Correlation: edge.Correlation,
		})
	}

	sort.SliceStable(pivots, func(i, j int) bool {
		return math.Abs(pivots[i].Correlation) > math.Abs(pivots[j].Correlation)
	})
	if len(pivots) > maxPivots {
		pivots = pivots[:maxPivots]
	}
	return pivots
}

// counterpart resolves the other endpoint of an edge touching symbol/market.
// Self-pairs and unrelated edges report ok=false.
func counterpart(symbol string, market domain.Market, edge *domain.CorrelationEdge) (string, domain.Market, bool) {
	if edge.SymbolA == symbol && edge.MarketA == market {
		if edge.SymbolB == symbol && edge.MarketB == market {
			return "", "", false
		}
		return edge.SymbolB, edge.MarketB, true
	}
	if edge.SymbolB == symbol && edge.MarketB == market {
		return edge.SymbolA, edge.MarketA, true
	}
	return "", "", false
}

// FuseSignals decorates each signal with its strongest cross-market pivots:
// for every pair of signals from different markets, the index is consulted
// and pairs with |r| > 0.3 are attached to both sides, ranked by absolute
// coefficient and capped like FindPivots.
func FuseSignals(signals []*domain.Signal, index *Index) {
	if index == nil {
		return
	}
	for i := range signals {
		for j := range signals {
			if i == j || signals[i].Market == signals[j].Market {
				continue
			}
			edge, ok := index.Lookup(signals[i].Symbol, signals[i].Market, signals[j].Symbol, signals[j].Market)
			if !ok || math.Abs(edge.Correlation) <= fusionThreshold {
				continue
			}
			signals[i].Correlated = append(signals[i].Correlated, domain.PivotRef{
				Symbol:      signals[j].Symbol,
				Market:      signals[j].Market,
				Correlation: edge.Correlation,
			})
		}
		sort.SliceStable(signals[i].Correlated, func(a, b int) bool {
			return math.Abs(signals[i].Correlated[a].Correlation) > math.Abs(signals[i].Correlated[b].Correlation)
		})
		if len(signals[i].Correlated) > maxPivots {
			signals[i].Correlated = signals[i].Correlated[:maxPivots]
		}
	}
}
