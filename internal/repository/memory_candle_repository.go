package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"market-fusion/internal/domain"
)

// MemoryCandleRepository keeps candle history in process memory. It backs
// the pipeline when no DATABASE_URL is configured; history is lost on
// restart but every read path behaves the same as the Postgres repository.
type MemoryCandleRepository struct {
	mu      sync.RWMutex
	candles map[string]map[int64]*domain.Candle
}

func NewMemoryCandleRepository() *MemoryCandleRepository {
	return &MemoryCandleRepository{candles: make(map[string]map[int64]*domain.Candle)}
}

func seriesKey(symbol, interval string) string {
	return symbol + "|" + interval
}

func (r *MemoryCandleRepository) UpsertCandles(ctx context.Context, candles []*domain.Candle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range candles {
		key := seriesKey(c.Symbol, c.Interval)
		series, ok := r.candles[key]
		if !ok {
			series = make(map[int64]*domain.Candle)
			r.candles[key] = series
		}
		cp := *c
		series[c.OpenTime.Unix()] = &cp
	}
	return nil
}

func (r *MemoryCandleRepository) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	series := r.candles[seriesKey(symbol, interval)]
	out := make([]*domain.Candle, 0, len(series))
	for _, c := range series {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenTime.After(out[j].OpenTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryCandleRepository) CloseSeries(ctx context.Context, symbol, interval string, since time.Time) ([]float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	series := r.candles[seriesKey(symbol, interval)]
	var candles []*domain.Candle
	for _, c := range series {
		if c.OpenTime.Before(since) {
			continue
		}
		candles = append(candles, c)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].OpenTime.Before(candles[j].OpenTime) })

	closes := make([]float64, 0, len(candles))
	for _, c := range candles {
		closes = append(closes, c.Close)
	}
	return closes, nil
}
