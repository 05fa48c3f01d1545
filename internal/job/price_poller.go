package job

import (
	"context"
	"log"
	"time"

	"market-fusion/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// PriceDataRefresher is the slice of PriceService the poller drives.
type PriceDataRefresher interface {
	RefreshPrices(ctx context.Context) error
	RefreshCandles(ctx context.Context, symbol string) error
}

// PricePoller keeps the price cache warm and the candle tables current.
type PricePoller struct {
	tracer       trace.Tracer
	priceService PriceDataRefresher
	pollInterval time.Duration
}

func NewPricePoller(tracer trace.Tracer, priceService PriceDataRefresher, pollIntervalSecs int) *PricePoller {
	return &PricePoller{
		tracer:       tracer,
		priceService: priceService,
		pollInterval: time.Duration(pollIntervalSecs) * time.Second,
	}
}

// Start launches the polling goroutines. Blocks until ctx is cancelled.
func (p *PricePoller) Start(ctx context.Context) {
	log.Println("Price poller starting...")

	go p.pollLoop(ctx, "prices", p.pollInterval, func(ctx context.Context) error {
		return p.priceService.RefreshPrices(ctx)
	})

	// Candles refresh round-robin, a few symbols per tick, staggered so the
	// startup burst does not hit every provider at once.
	go p.pollCandles(ctx)

	<-ctx.Done()
	log.Println("Price poller stopped")
}

func (p *PricePoller) pollLoop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	// Run immediately on start
	if err := fn(ctx); err != nil {
		log.Printf("poller %s initial run error: %v", name, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Printf("poller %s error: %v", name, err)
			}
		}
	}
}

func (p *PricePoller) pollCandles(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(15 * time.Second):
	}

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	symbolIndex := 0
	symbolsPerTick := 2

	p.refreshCandleBatch(ctx, &symbolIndex, symbolsPerTick)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refreshCandleBatch(ctx, &symbolIndex, symbolsPerTick)
		}
	}
}

func (p *PricePoller) refreshCandleBatch(ctx context.Context, symbolIndex *int, count int) {
	symbols := domain.AllSymbols()
	for i := 0; i < count; i++ {
		symbol := symbols[*symbolIndex%len(symbols)]
		*symbolIndex++

		if err := p.priceService.RefreshCandles(ctx, symbol); err != nil {
			log.Printf("candle refresh error for %s: %v", symbol, err)
		}
	}
}
