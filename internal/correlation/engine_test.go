package correlation

import (
	"math"
	"testing"

	"market-fusion/internal/domain"
)

func series(n int, f func(i int) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = f(i)
	}
	return out
}

func TestComputeIdenticalSeries(t *testing.T) {
	t.Parallel()

	xs := series(20, func(i int) float64 { return float64(i%7) - 3 })
	edge := Compute("AAPL", domain.MarketStocks, "MSFT", domain.MarketStocks, xs, xs, "30d")
	if edge == nil {
		t.Fatal("expected edge for identical series")
	}
	if math.Abs(edge.Correlation-1.0) > 1e-9 {
		t.Fatalf("expected r=1, got %f", edge.Correlation)
	}
	if edge.Significance != 0.001 {
		t.Fatalf("perfect correlation should be most significant, got %f", edge.Significance)
	}
	if edge.SampleSize != 20 || edge.Window != "30d" {
		t.Fatalf("edge metadata wrong: %+v", edge)
	}
}

func TestComputeNegatedSeries(t *testing.T) {
	t.Parallel()

	xs := series(15, func(i int) float64 { return float64(i) * 0.5 })
	ys := make([]float64, len(xs))
	for i, v := range xs {
		ys[i] = -v
	}

	edge := Compute("BTC", domain.MarketCrypto, "AAPL", domain.MarketStocks, xs, ys, "7d")
	if edge == nil {
		t.Fatal("expected edge")
	}
	if math.Abs(edge.Correlation+1.0) > 1e-9 {
		t.Fatalf("expected r=-1, got %f", edge.Correlation)
	}
}

func TestComputeRejectsShortOrMismatchedSeries(t *testing.T) {
	t.Parallel()

	short := series(9, func(i int) float64 { return float64(i) })
	if Compute("A", domain.MarketStocks, "B", domain.MarketStocks, short, short, "7d") != nil {
		t.Fatal("expected nil below 10 observations")
	}

	xs := series(12, func(i int) float64 { return float64(i) })
	ys := series(11, func(i int) float64 { return float64(i) })
	if Compute("A", domain.MarketStocks, "B", domain.MarketStocks, xs, ys, "7d") != nil {
		t.Fatal("expected nil on length mismatch")
	}
}

func TestComputeZeroVariance(t *testing.T) {
	t.Parallel()

	flat := series(12, func(i int) float64 { return 1.5 })
	moving := series(12, func(i int) float64 { return float64(i) })

	edge := Compute("A", domain.MarketStocks, "B", domain.MarketStocks, flat, moving, "7d")
	if edge == nil {
		t.Fatal("expected edge")
	}
	if edge.Correlation != 0 {
		t.Fatalf("zero variance must yield 0, got %f", edge.Correlation)
	}
	if math.IsNaN(edge.Correlation) {
		t.Fatal("coefficient must never be NaN")
	}
}

func TestSignificanceTiers(t *testing.T) {
	t.Parallel()

	// Weak correlation over a small sample lands in the insignificant tier.
	if got := significance(0.1, 12); got != 1.0 {
		t.Fatalf("expected 1.0 tier, got %f", got)
	}
	// Strong correlation over a large sample is highly significant.
	if got := significance(0.9, 100); got != 0.001 {
		t.Fatalf("expected 0.001 tier, got %f", got)
	}
}
