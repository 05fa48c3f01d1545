package fetcher

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"market-fusion/internal/domain"
)

// placeholderSnapshot synthesizes a deterministic snapshot for a symbol.
// The PRNG is seeded from the symbol plus the UTC day, so the same symbol
// yields the same placeholder across calls within a day and tests stay
// deterministic.
func placeholderSnapshot(symbol string, now time.Time) *domain.PriceSnapshot {
	rng := rand.New(rand.NewSource(placeholderSeed(symbol, now)))

	// Base price spread over a few orders of magnitude so the synthetic
	// universe doesn't cluster.
	price := math.Round((5+rng.Float64()*995)*100) / 100
	changePct := math.Round((rng.Float64()*10-5)*100) / 100
	open := price / (1 + changePct/100)
	spread := price * (0.005 + rng.Float64()*0.02)

	return &domain.PriceSnapshot{
		Symbol:    symbol,
		Price:     price,
		Change:    price - open,
		ChangePct: changePct,
		Volume:    float64(100_000 + rng.Intn(10_000_000)),
		DayHigh:   math.Max(price, open) + spread,
		DayLow:    math.Min(price, open) - spread,
		DayOpen:   open,
		Timestamp: now,
		Source:    domain.SourcePlaceholder,
	}
}

func placeholderSeed(symbol string, now time.Time) int64 {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte("|"))
	h.Write([]byte(now.UTC().Format("2006-01-02")))
	return int64(h.Sum64())
}
