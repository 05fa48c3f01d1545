package service

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"market-fusion/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func TestPriceService_GetPriceCacheHit(t *testing.T) {
	t.Parallel()

	fake := newFakeRedis()
	snap := &domain.PriceSnapshot{Symbol: "BTC", Price: 97000}
	data, _ := json.Marshal(snap)
	_ = fake.Set(context.Background(), "price:BTC", data, 0)

	svc := NewPriceService(testTracer, &mockFetcher{}, &mockCandleRepo{}, fake)

	got, err := svc.GetPrice(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Price != snap.Price {
		t.Fatalf("expected %.2f, got %.2f", snap.Price, got.Price)
	}
}

func TestPriceService_GetPriceFetchesOnMiss(t *testing.T) {
	t.Parallel()

	fetch := &mockFetcher{
		prices: map[string]*domain.PriceSnapshot{
			"BTC": {Symbol: "BTC", Price: 42, Source: "coingecko"},
		},
	}
	fake := newFakeRedis()
	svc := NewPriceService(testTracer, fetch, &mockCandleRepo{}, fake)

	got, err := svc.GetPrice(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Symbol != "BTC" || got.Price != 42 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
	if fetch.fetchPriceCalls != 1 {
		t.Fatalf("expected one fetch, got %d", fetch.fetchPriceCalls)
	}
	if _, ok := fake.data["price:BTC"]; !ok {
		t.Fatal("price not cached")
	}
}

func TestPriceService_GetPriceUnsupported(t *testing.T) {
	t.Parallel()

	svc := NewPriceService(testTracer, &mockFetcher{}, &mockCandleRepo{}, nil)
	if _, err := svc.GetPrice(context.Background(), "FAKE"); err == nil {
		t.Fatal("expected error for unsupported symbol")
	}
}

func TestPriceService_GetPricesMixesCacheAndFetch(t *testing.T) {
	t.Parallel()

	fake := newFakeRedis()
	cached := &domain.PriceSnapshot{Symbol: "BTC", Price: 1}
	data, _ := json.Marshal(cached)
	_ = fake.Set(context.Background(), "price:BTC", data, 0)

	fetch := &mockFetcher{prices: map[string]*domain.PriceSnapshot{
		"AAPL": {Symbol: "AAPL", Price: 190},
	}}
	svc := NewPriceService(testTracer, fetch, &mockCandleRepo{}, fake)

	snapshots, err := svc.GetPrices(context.Background(), []string{"BTC", "AAPL"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
	if fetch.lastManySymbols == nil || fetch.lastManySymbols[0] != "AAPL" {
		t.Fatalf("only the miss should be fetched, got %v", fetch.lastManySymbols)
	}
}

func TestPriceService_RefreshPricesCachesAll(t *testing.T) {
	t.Parallel()

	fetch := &mockFetcher{prices: map[string]*domain.PriceSnapshot{
		"BTC": {Symbol: "BTC", Price: 10},
		"ETH": {Symbol: "ETH", Price: 20},
	}}
	fake := newFakeRedis()
	svc := NewPriceService(testTracer, fetch, &mockCandleRepo{}, fake)

	if err := svc.RefreshPrices(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.data) != 2 {
		t.Fatalf("expected cached entries, got %d", len(fake.data))
	}
}

func TestPriceService_RefreshPricesFailsWhenEmpty(t *testing.T) {
	t.Parallel()

	svc := NewPriceService(testTracer, &mockFetcher{}, &mockCandleRepo{}, nil)
	if err := svc.RefreshPrices(context.Background()); err == nil {
		t.Fatal("expected error when no source yields prices")
	}
}

func TestPriceService_RefreshCandlesUpserts(t *testing.T) {
	t.Parallel()

	fetch := &mockFetcher{candles: []*domain.Candle{{Symbol: "BTC", Interval: "1d"}}}
	repo := &mockCandleRepo{}
	svc := NewPriceService(testTracer, fetch, repo, nil)

	if err := svc.RefreshCandles(context.Background(), "BTC"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.upsertCalls != 1 || len(repo.upsertArg) != 1 {
		t.Fatalf("expected one upsert, got %d", repo.upsertCalls)
	}
}

func TestPriceService_GetCandlesRejectsUnknownInterval(t *testing.T) {
	t.Parallel()

	svc := NewPriceService(testTracer, &mockFetcher{}, &mockCandleRepo{}, nil)
	if _, err := svc.GetCandles(context.Background(), "BTC", "2h", 5); err == nil {
		t.Fatal("expected error for unsupported interval")
	}
}

func TestPriceService_DailyReturns(t *testing.T) {
	t.Parallel()

	repo := &mockCandleRepo{closes: []float64{100, 110, 99}}
	svc := NewPriceService(testTracer, &mockFetcher{}, repo, nil)

	returns, err := svc.DailyReturns(context.Background(), "AAPL", time.Now().Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(returns) != 2 {
		t.Fatalf("expected 2 returns, got %v", returns)
	}
	if math.Abs(returns[0]-10) > 1e-9 || math.Abs(returns[1]+10) > 1e-9 {
		t.Fatalf("unexpected returns: %v", returns)
	}
}

func TestPriceService_DailyReturnsTooShort(t *testing.T) {
	t.Parallel()

	repo := &mockCandleRepo{closes: []float64{100}}
	svc := NewPriceService(testTracer, &mockFetcher{}, repo, nil)

	returns, err := svc.DailyReturns(context.Background(), "AAPL", time.Now())
	if err != nil || returns != nil {
		t.Fatalf("expected nil series, got %v err %v", returns, err)
	}
}

type mockFetcher struct {
	prices  map[string]*domain.PriceSnapshot
	candles []*domain.Candle
	err     error

	fetchPriceCalls int
	lastManySymbols []string
}

func (m *mockFetcher) FetchPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	m.fetchPriceCalls++
	if m.err != nil {
		return nil, m.err
	}
	snap, ok := m.prices[symbol]
	if !ok {
		return nil, errors.New("no data")
	}
	return snap, nil
}

func (m *mockFetcher) FetchMany(ctx context.Context, symbols []string) map[string]*domain.PriceSnapshot {
	m.lastManySymbols = append([]string(nil), symbols...)
	out := make(map[string]*domain.PriceSnapshot)
	for _, s := range symbols {
		if snap, ok := m.prices[s]; ok {
			out[s] = snap
		}
	}
	return out
}

func (m *mockFetcher) FetchCandles(ctx context.Context, symbol, interval string, days int) []*domain.Candle {
	return m.candles
}

type mockCandleRepo struct {
	getResp []*domain.Candle
	closes  []float64
	getErr  error

	upsertArg   []*domain.Candle
	upsertCalls int
}

func (m *mockCandleRepo) GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.getResp, nil
}

func (m *mockCandleRepo) UpsertCandles(ctx context.Context, candles []*domain.Candle) error {
	m.upsertCalls++
	m.upsertArg = candles
	return nil
}

func (m *mockCandleRepo) CloseSeries(ctx context.Context, symbol, interval string, since time.Time) ([]float64, error) {
	return m.closes, nil
}

type fakeRedis struct {
	data   map[string][]byte
	setErr error
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: make(map[string][]byte)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = append([]byte(nil), v...)
	case string:
		f.data[key] = []byte(v)
	default:
		bytes, _ := json.Marshal(v)
		f.data[key] = bytes
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	if v, ok := f.data[key]; ok {
		return redis.NewStringResult(string(v), nil)
	}
	return redis.NewStringResult("", redis.Nil)
}
