package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"market-fusion/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	sentimentCacheTTL     = 10 * time.Minute
	defaultNewsBatchLimit = 20
)

// NewsAggregator fans out to the configured news sources.
type NewsAggregator interface {
	Aggregate(ctx context.Context, symbol string, limit int) []domain.NewsItem
}

// SentimentScorer turns a news batch into a distribution.
type SentimentScorer interface {
	Score(ctx context.Context, items []domain.NewsItem) domain.SentimentScore
}

// IntelService serves news plus sentiment per symbol with a Redis cache in
// front, so a fusion cycle over twenty symbols does not hammer the feeds.
type IntelService struct {
	tracer     trace.Tracer
	aggregator NewsAggregator
	scorer     SentimentScorer
	redis      RedisClient
	itemLimit  int
}

func NewIntelService(
	tracer trace.Tracer,
	aggregator NewsAggregator,
	scorer SentimentScorer,
	redisClient RedisClient,
	itemLimit int,
) *IntelService {
	if itemLimit <= 0 {
		itemLimit = defaultNewsBatchLimit
	}
	return &IntelService{
		tracer:     tracer,
		aggregator: aggregator,
		scorer:     scorer,
		redis:      redisClient,
		itemLimit:  itemLimit,
	}
}

// GetSentiment returns the news batch and aggregate sentiment for a symbol.
func (s *IntelService) GetSentiment(ctx context.Context, symbol string) (*domain.SentimentFeed, error) {
	ctx, span := s.tracer.Start(ctx, "intel-service.get-sentiment")
	defer span.End()

	if s.redis != nil {
		cached, err := s.getFeedCache(ctx, symbol)
		if err != nil {
			log.Printf("redis sentiment read error: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	items := s.aggregator.Aggregate(ctx, symbol, s.itemLimit)
	feed := &domain.SentimentFeed{
		Symbol:    symbol,
		Items:     items,
		Sentiment: s.scorer.Score(ctx, items),
	}

	if s.redis != nil {
		if err := s.setFeedCache(ctx, symbol, feed); err != nil {
			log.Printf("redis sentiment write error for %s: %v", symbol, err)
		}
	}
	return feed, nil
}

func (s *IntelService) setFeedCache(ctx context.Context, symbol string, feed *domain.SentimentFeed) error {
	data, err := json.Marshal(feed)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, "sentiment:"+symbol, data, sentimentCacheTTL).Err()
}

func (s *IntelService) getFeedCache(ctx context.Context, symbol string) (*domain.SentimentFeed, error) {
	data, err := s.redis.Get(ctx, "sentiment:"+symbol).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var feed domain.SentimentFeed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}
