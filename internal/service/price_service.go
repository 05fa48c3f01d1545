package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"market-fusion/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	priceCacheTTL = 90 * time.Second
	candleDays    = 30
)

// PriceFetcher is the resilient multi-source fetcher.
type PriceFetcher interface {
	FetchPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error)
	FetchMany(ctx context.Context, symbols []string) map[string]*domain.PriceSnapshot
	FetchCandles(ctx context.Context, symbol, interval string, days int) []*domain.Candle
}

type CandleRepository interface {
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
	UpsertCandles(ctx context.Context, candles []*domain.Candle) error
	CloseSeries(ctx context.Context, symbol, interval string, since time.Time) ([]float64, error)
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// PriceService layers a short-lived Redis cache over the fetcher and serves
// candle history from Postgres.
type PriceService struct {
	tracer  trace.Tracer
	fetcher PriceFetcher
	repo    CandleRepository
	redis   RedisClient
}

func NewPriceService(
	tracer trace.Tracer,
	priceFetcher PriceFetcher,
	repo CandleRepository,
	redisClient RedisClient,
) *PriceService {
	return &PriceService{
		tracer:  tracer,
		fetcher: priceFetcher,
		repo:    repo,
		redis:   redisClient,
	}
}

// GetPrice returns the latest price for a symbol, cache first.
func (s *PriceService) GetPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	_, span := s.tracer.Start(ctx, "price-service.get-price")
	defer span.End()

	if _, ok := domain.MarketOf(symbol); !ok {
		return nil, fmt.Errorf("unsupported symbol: %s", symbol)
	}

	if s.redis != nil {
		cached, err := s.getPriceCache(ctx, symbol)
		if err != nil {
			log.Printf("redis cache read error: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	snap, err := s.fetcher.FetchPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if s.redis != nil {
		_ = s.setPriceCache(ctx, snap)
	}
	return snap, nil
}

// GetPrices returns snapshots for the requested symbols, serving from cache
// where possible and fetching the rest in one concurrent batch. Symbols that
// cannot be resolved at all are absent from the result.
func (s *PriceService) GetPrices(ctx context.Context, symbols []string) ([]*domain.PriceSnapshot, error) {
	_, span := s.tracer.Start(ctx, "price-service.get-prices")
	defer span.End()

	var snapshots []*domain.PriceSnapshot
	var missing []string

	for _, symbol := range symbols {
		if _, ok := domain.MarketOf(symbol); !ok {
			return nil, fmt.Errorf("unsupported symbol: %s", symbol)
		}
		if s.redis != nil {
			cached, _ := s.getPriceCache(ctx, symbol)
			if cached != nil {
				snapshots = append(snapshots, cached)
				continue
			}
		}
		missing = append(missing, symbol)
	}

	if len(missing) > 0 {
		fetched := s.fetcher.FetchMany(ctx, missing)
		for _, symbol := range missing {
			snap, ok := fetched[symbol]
			if !ok {
				continue
			}
			if s.redis != nil {
				_ = s.setPriceCache(ctx, snap)
			}
			snapshots = append(snapshots, snap)
		}
	}

	return snapshots, nil
}

// GetCandles returns historical candles for a symbol and interval from Postgres.
func (s *PriceService) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	if !domain.IsSupportedInterval(interval) {
		return nil, fmt.Errorf("unsupported interval: %s", interval)
	}
	return s.repo.GetCandles(ctx, symbol, interval, limit)
}

// RefreshPrices warms the cache for the whole symbol universe.
func (s *PriceService) RefreshPrices(ctx context.Context) error {
	_, span := s.tracer.Start(ctx, "price-service.refresh-prices")
	defer span.End()

	prices := s.fetcher.FetchMany(ctx, domain.AllSymbols())
	if len(prices) == 0 {
		return fmt.Errorf("no prices available from any source")
	}

	for _, snap := range prices {
		if s.redis != nil {
			if err := s.setPriceCache(ctx, snap); err != nil {
				log.Printf("redis cache write error for %s: %v", snap.Symbol, err)
			}
		}
	}

	log.Printf("Refreshed prices for %d of %d symbols", len(prices), len(domain.AllSymbols()))
	return nil
}

// RefreshCandles fetches daily history for a symbol and upserts it.
func (s *PriceService) RefreshCandles(ctx context.Context, symbol string) error {
	_, span := s.tracer.Start(ctx, "price-service.refresh-candles")
	defer span.End()

	candles := s.fetcher.FetchCandles(ctx, symbol, "1d", candleDays)
	if len(candles) == 0 {
		log.Printf("no candle history available for %s", symbol)
		return nil
	}

	if err := s.repo.UpsertCandles(ctx, candles); err != nil {
		return fmt.Errorf("upsert candles for %s: %w", symbol, err)
	}
	return nil
}

// DailyReturns converts the stored closing series into day-over-day
// percentage returns, the correlation engine's input.
func (s *PriceService) DailyReturns(ctx context.Context, symbol string, since time.Time) ([]float64, error) {
	closes, err := s.repo.CloseSeries(ctx, symbol, "1d", since)
	if err != nil {
		return nil, err
	}
	if len(closes) < 2 {
		return nil, nil
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1]*100)
	}
	return returns, nil
}

func (s *PriceService) setPriceCache(ctx context.Context, snapshot *domain.PriceSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, "price:"+snapshot.Symbol, data, priceCacheTTL).Err()
}

func (s *PriceService) getPriceCache(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	data, err := s.redis.Get(ctx, "price:"+symbol).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snapshot domain.PriceSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
