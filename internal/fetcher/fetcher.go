package fetcher

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"market-fusion/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// ErrNoData is returned when every configured source failed and placeholder
// synthesis is disabled.
var ErrNoData = errors.New("no price data available")

// PriceSource is one upstream price provider. Implementations live in
// internal/provider.
type PriceSource interface {
	Quote(ctx context.Context, symbol string) (*domain.PriceSnapshot, error)
	Candles(ctx context.Context, symbol, interval string, days int) ([]*domain.Candle, error)
	Name() string
}

// Options configure a Fetcher. They are supplied once at construction;
// nothing in the fetch path reads configuration ad hoc.
type Options struct {
	// AllowPlaceholder enables deterministic synthetic snapshots when every
	// real source fails.
	AllowPlaceholder bool
	// ProviderTimeout bounds each individual source call.
	ProviderTimeout time.Duration
	// MaxConcurrent caps parallel symbol fetches in FetchMany.
	MaxConcurrent int
	// RequestDelay is the enforced gap between request launches in
	// FetchMany, to stay under upstream rate limits.
	RequestDelay time.Duration
}

func (o *Options) applyDefaults() {
	if o.ProviderTimeout <= 0 {
		o.ProviderTimeout = 10 * time.Second
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 4
	}
	if o.RequestDelay < 0 {
		o.RequestDelay = 0
	}
}

// Fetcher tries an ordered list of price sources and returns the first
// success. Source errors are logged and swallowed so a failing
// higher-priority source falls through silently.
type Fetcher struct {
	sources []PriceSource
	opts    Options
	tracer  trace.Tracer
}

func New(sources []PriceSource, opts Options, tracer trace.Tracer) *Fetcher {
	opts.applyDefaults()
	return &Fetcher{sources: sources, opts: opts, tracer: tracer}
}

// FetchPrice returns the first snapshot a source produces, in priority
// order. A technically valid but empty result (zero price) counts as a
// failure and falls through. When everything fails, a placeholder is
// synthesized if allowed, otherwise ErrNoData.
func (f *Fetcher) FetchPrice(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	ctx, span := f.tracer.Start(ctx, "fetcher.fetch-price")
	defer span.End()

	for _, src := range f.sources {
		snap, err := f.quoteWithTimeout(ctx, src, symbol)
		if err != nil {
			log.Printf("price source %s failed for %s: %v", src.Name(), symbol, err)
			continue
		}
		if snap == nil || snap.Price <= 0 {
			log.Printf("price source %s returned empty snapshot for %s, falling through", src.Name(), symbol)
			continue
		}
		return snap, nil
	}

	if f.opts.AllowPlaceholder {
		return placeholderSnapshot(symbol, time.Now().UTC()), nil
	}
	return nil, ErrNoData
}

func (f *Fetcher) quoteWithTimeout(ctx context.Context, src PriceSource, symbol string) (*domain.PriceSnapshot, error) {
	callCtx, cancel := context.WithTimeout(ctx, f.opts.ProviderTimeout)
	defer cancel()
	return src.Quote(callCtx, symbol)
}

// FetchMany fetches a batch of symbols with bounded concurrency and a small
// delay between request launches. Partial success is expected: symbols that
// fail are absent from the result map, never reported as a bulk error.
func (f *Fetcher) FetchMany(ctx context.Context, symbols []string) map[string]*domain.PriceSnapshot {
	ctx, span := f.tracer.Start(ctx, "fetcher.fetch-many")
	defer span.End()

	results := make(map[string]*domain.PriceSnapshot, len(symbols))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, f.opts.MaxConcurrent)

	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			wg.Wait()
			return results
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			snap, err := f.FetchPrice(ctx, symbol)
			if err != nil {
				log.Printf("fetch skipped for %s: %v", symbol, err)
				return
			}
			mu.Lock()
			results[symbol] = snap
			mu.Unlock()
		}(symbol)

		if f.opts.RequestDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(f.opts.RequestDelay):
			}
		}
	}

	wg.Wait()
	return results
}

// FetchCandles returns ordered history for a symbol, trying sources in
// priority order. Unavailable history yields an empty slice, never an error.
func (f *Fetcher) FetchCandles(ctx context.Context, symbol, interval string, days int) []*domain.Candle {
	ctx, span := f.tracer.Start(ctx, "fetcher.fetch-candles")
	defer span.End()

	for _, src := range f.sources {
		callCtx, cancel := context.WithTimeout(ctx, f.opts.ProviderTimeout)
		candles, err := src.Candles(callCtx, symbol, interval, days)
		cancel()
		if err != nil {
			log.Printf("candle source %s failed for %s/%s: %v", src.Name(), symbol, interval, err)
			continue
		}
		if len(candles) == 0 {
			continue
		}
		return candles
	}
	return nil
}
