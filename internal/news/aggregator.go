package news

import (
	"context"
	"hash/fnv"
	"log"
	"math/rand"
	"sort"
	"time"

	"market-fusion/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// Source is one upstream news feed. Implementations live in
// internal/provider.
type Source interface {
	FetchNews(ctx context.Context, symbol string, limit int) ([]domain.NewsItem, error)
	Name() string
}

// Aggregator fans out to every configured source concurrently, merges the
// results, and sorts newest first. A source failure is isolated to its own
// branch and never aborts the batch.
type Aggregator struct {
	sources []Source
	tracer  trace.Tracer
}

func NewAggregator(sources []Source, tracer trace.Tracer) *Aggregator {
	return &Aggregator{sources: sources, tracer: tracer}
}

// sourceResult captures one branch's outcome so no error state is shared
// between goroutines.
type sourceResult struct {
	name  string
	items []domain.NewsItem
	err   error
}

// Aggregate queries every source for the given symbol (empty symbol means
// market-wide), merges, sorts descending by publish time, and truncates to
// limit. If every source comes back empty, a deterministic synthetic feed
// fills in so downstream sentiment always has input.
func (a *Aggregator) Aggregate(ctx context.Context, symbol string, limit int) []domain.NewsItem {
	ctx, span := a.tracer.Start(ctx, "news.aggregate")
	defer span.End()

	if limit <= 0 {
		limit = 20
	}

	results := make(chan sourceResult, len(a.sources))
	for _, src := range a.sources {
		go func(src Source) {
			items, err := src.FetchNews(ctx, symbol, limit)
			results <- sourceResult{name: src.Name(), items: items, err: err}
		}(src)
	}

	var merged []domain.NewsItem
	for range a.sources {
		res := <-results
		if res.err != nil {
			log.Printf("news source %s failed: %v", res.name, res.err)
			continue
		}
		merged = append(merged, res.items...)
	}

	if len(merged) == 0 {
		merged = syntheticFeed(symbol, time.Now().UTC(), limit)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PublishedAt.After(merged[j].PublishedAt)
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// syntheticFeed produces a deterministic offline feed seeded by symbol and
// UTC day, mirroring the placeholder policy of the price fetcher.
func syntheticFeed(symbol string, now time.Time, limit int) []domain.NewsItem {
	h := fnv.New64a()
	h.Write([]byte("news|" + symbol + "|" + now.Format("2006-01-02")))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	subject := symbol
	if subject == "" {
		subject = "the market"
	}
	templates := []string{
		"Analysts see steady outlook for " + subject,
		"Trading volume in " + subject + " holds near recent averages",
		"Investors weigh growth prospects for " + subject,
		"Mixed session leaves " + subject + " little changed",
		"Options activity in " + subject + " stays quiet",
	}

	n := 3
	if limit < n {
		n = limit
	}
	items := make([]domain.NewsItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, domain.NewsItem{
			Title:       templates[rng.Intn(len(templates))],
			Source:      "synthetic",
			PublishedAt: now.Add(-time.Duration(i+1) * time.Hour),
			Symbol:      symbol,
		})
	}
	return items
}
