package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"market-fusion/internal/correlation"
	"market-fusion/internal/domain"
	"market-fusion/internal/fusion"
	"market-fusion/internal/metrics"

	"go.opentelemetry.io/otel/trace"
)

// correlationLookback bounds the return series fed into the correlation
// engine.
const correlationLookback = 90 * 24 * time.Hour

// PriceReader is the slice of PriceService the fusion cycle needs.
type PriceReader interface {
	GetPrices(ctx context.Context, symbols []string) ([]*domain.PriceSnapshot, error)
	DailyReturns(ctx context.Context, symbol string, since time.Time) ([]float64, error)
}

// SentimentReader is the slice of IntelService the fusion cycle needs.
type SentimentReader interface {
	GetSentiment(ctx context.Context, symbol string) (*domain.SentimentFeed, error)
}

// CycleStats summarizes one fusion cycle.
type CycleStats struct {
	Symbols     int           `json:"symbols"`
	Predictions int           `json:"predictions"`
	Signals     int           `json:"signals"`
	Edges       int           `json:"edges"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}

// FusionService runs the end-to-end cycle: prices, sentiment, predictions,
// correlations, fused signals. It owns the correlation index and the latest
// signal set.
type FusionService struct {
	tracer trace.Tracer
	prices PriceReader
	intel  SentimentReader
	index  *correlation.Index
	store  *metrics.Store

	mu          sync.RWMutex
	signals     map[string]*domain.Signal
	predictions map[string][]*domain.Prediction
	lastCycle   *CycleStats
}

func NewFusionService(
	tracer trace.Tracer,
	prices PriceReader,
	intel SentimentReader,
	index *correlation.Index,
	store *metrics.Store,
) *FusionService {
	return &FusionService{
		tracer:      tracer,
		prices:      prices,
		intel:       intel,
		index:       index,
		store:       store,
		signals:     make(map[string]*domain.Signal),
		predictions: make(map[string][]*domain.Prediction),
	}
}

// RunCycle executes one full fusion pass over the symbol universe.
func (s *FusionService) RunCycle(ctx context.Context) (*CycleStats, error) {
	ctx, span := s.tracer.Start(ctx, "fusion-service.run-cycle")
	defer span.End()

	started := time.Now().UTC()
	symbols := domain.AllSymbols()

	snapshots, err := s.prices.GetPrices(ctx, symbols)
	if err != nil {
		return nil, fmt.Errorf("fusion cycle price fetch: %w", err)
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("fusion cycle: no price data")
	}

	var allPredictions []*domain.Prediction
	bySymbol := make(map[string][]*domain.Prediction)
	sentiments := make(map[string]domain.SentimentScore)

	for _, snap := range snapshots {
		feed, err := s.intel.GetSentiment(ctx, snap.Symbol)
		if err != nil {
			log.Printf("sentiment unavailable for %s: %v", snap.Symbol, err)
			feed = &domain.SentimentFeed{Symbol: snap.Symbol}
		}
		sentiments[snap.Symbol] = feed.Sentiment

		preds := fusion.PredictAll(snap, feed.Sentiment)
		allPredictions = append(allPredictions, preds...)
		bySymbol[snap.Symbol] = preds
	}

	signals := fusion.GenerateSignals(allPredictions)

	edges := s.refreshCorrelations(ctx, snapshots)
	correlation.FuseSignals(signals, s.index)

	stats := &CycleStats{
		Symbols:     len(snapshots),
		Predictions: len(allPredictions),
		Signals:     len(signals),
		Edges:       edges,
		StartedAt:   started,
		Duration:    time.Since(started),
	}

	s.mu.Lock()
	for _, sig := range signals {
		s.signals[sig.Symbol] = sig
	}
	s.predictions = bySymbol
	s.lastCycle = stats
	s.mu.Unlock()

	s.publish(ctx, snapshots, sentiments, signals)

	log.Printf("Fusion cycle done: %d symbols, %d predictions, %d signals, %d edges in %s",
		stats.Symbols, stats.Predictions, stats.Signals, stats.Edges, stats.Duration.Round(time.Millisecond))
	return stats, nil
}

// refreshCorrelations recomputes pairwise edges over the lookback window and
// stores them in the index. Series are aligned on their common tail before
// the coefficient is computed.
func (s *FusionService) refreshCorrelations(ctx context.Context, snapshots []*domain.PriceSnapshot) int {
	since := time.Now().UTC().Add(-correlationLookback)

	type series struct {
		symbol  string
		market  domain.Market
		returns []float64
	}
	var all []series
	for _, snap := range snapshots {
		market, ok := domain.MarketOf(snap.Symbol)
		if !ok {
			continue
		}
		returns, err := s.prices.DailyReturns(ctx, snap.Symbol, since)
		if err != nil {
			log.Printf("return series unavailable for %s: %v", snap.Symbol, err)
			continue
		}
		if len(returns) == 0 {
			continue
		}
		all = append(all, series{symbol: snap.Symbol, market: market, returns: returns})
	}

	edges := 0
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			a, b := all[i], all[j]
			ra, rb := alignTail(a.returns, b.returns)
			edge := correlation.Compute(a.symbol, a.market, b.symbol, b.market, ra, rb, "90d")
			if edge == nil {
				continue
			}
			s.index.Put(edge)
			edges++
		}
	}
	return edges
}

// alignTail trims both series to their common most-recent length.
func alignTail(a, b []float64) ([]float64, []float64) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	return a[len(a)-n:], b[len(b)-n:]
}

// Signals returns the current signal per requested symbol. An empty request
// returns every known signal.
func (s *FusionService) Signals(symbols []string) []*domain.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(symbols) == 0 {
		symbols = domain.AllSymbols()
	}
	out := make([]*domain.Signal, 0, len(symbols))
	for _, symbol := range symbols {
		if sig, ok := s.signals[symbol]; ok {
			out = append(out, sig)
		}
	}
	return out
}

// Correlations returns the ranked pivot list for a symbol.
func (s *FusionService) Correlations(symbol string, market domain.Market) []domain.PivotRef {
	return correlation.FindPivots(symbol, market, s.index.Snapshot())
}

// Predictions returns the latest predictions for a symbol, one per horizon.
func (s *FusionService) Predictions(symbol string) []*domain.Prediction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.predictions[symbol]
}

// LastCycle reports the stats of the most recent completed cycle, nil before
// the first one.
func (s *FusionService) LastCycle() *CycleStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastCycle
}

func (s *FusionService) publish(ctx context.Context, snapshots []*domain.PriceSnapshot, sentiments map[string]domain.SentimentScore, signals []*domain.Signal) {
	if s.store == nil {
		return
	}
	for _, snap := range snapshots {
		if err := s.store.Publish(ctx, domain.MetricKindPrice, snap.Symbol, snap); err != nil {
			log.Printf("metric publish failed for price/%s: %v", snap.Symbol, err)
		}
		if sent, ok := sentiments[snap.Symbol]; ok {
			_ = s.store.Publish(ctx, domain.MetricKindSentiment, snap.Symbol, sent)
		}
	}
	for _, sig := range signals {
		_ = s.store.Publish(ctx, domain.MetricKindSignal, sig.Symbol, sig)
	}
}
