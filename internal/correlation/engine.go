package correlation

import (
	"math"
	"time"

	"market-fusion/internal/domain"
)

// minObservations is the smallest sample a coefficient is computed from.
// Below it the estimate is noise, so Compute declines rather than guessing.
const minObservations = 10

// Compute returns the Pearson correlation between two aligned return series,
// or nil when the series are too short or misaligned. Zero-variance input
// yields a coefficient of 0 instead of NaN.
func Compute(symbolA string, marketA domain.Market, symbolB string, marketB domain.Market,
	returnsA, returnsB []float64, window string) *domain.CorrelationEdge {

	n := len(returnsA)
	if n < minObservations || n != len(returnsB) {
		return nil
	}

	r := pearson(returnsA, returnsB)

	return &domain.CorrelationEdge{
		SymbolA:      symbolA,
		MarketA:      marketA,
		SymbolB:      symbolB,
		MarketB:      marketB,
		Correlation:  r,
		Significance: significance(r, n),
		Window:       window,
		SampleSize:   n,
		Timestamp:    time.Now().UTC(),
	}
}

func pearson(xs, ys []float64) float64 {
	n := float64(len(xs))
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / n
	meanY := sumY / n

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}

	r := cov / math.Sqrt(varX*varY)
	// Float drift can push the ratio a hair outside [-1, 1].
	if r > 1 {
		r = 1
	}
	if r < -1 {
		r = -1
	}
	return r
}

// significance buckets the t-statistic of the coefficient into coarse p-value
// tiers. A rough approximation of the t-distribution tail, good enough for
// ranking edges without pulling in a stats dependency.
func significance(r float64, n int) float64 {
	if r == 1 || r == -1 {
		return 0.001
	}
	t := math.Abs(r) * math.Sqrt(float64(n-2)/(1-r*r))
	switch {
	case t > 3.5:
		return 0.001
	case t > 2.7:
		return 0.01
	case t > 2.0:
		return 0.05
	case t > 1.7:
		return 0.1
	default:
		return 1.0
	}
}
