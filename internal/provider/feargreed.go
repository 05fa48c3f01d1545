package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"market-fusion/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const fearGreedBaseURL = "https://api.alternative.me"

// FearGreedSource surfaces the crypto Fear & Greed index as a single news
// item so the sentiment scorer always has a market-mood datapoint.
type FearGreedSource struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
}

func NewFearGreedSource(tracer trace.Tracer) *FearGreedSource {
	return &FearGreedSource{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: fearGreedBaseURL,
		tracer:  tracer,
	}
}

func (s *FearGreedSource) Name() string { return "fear_greed" }

func (s *FearGreedSource) FetchNews(ctx context.Context, symbol string, limit int) ([]domain.NewsItem, error) {
	_, span := s.tracer.Start(ctx, "feargreed.fetch-news")
	defer span.End()

	// Only meaningful for crypto symbols (or an unscoped query).
	if symbol != "" {
		if market, ok := domain.MarketOf(symbol); !ok || market != domain.MarketCrypto {
			return nil, nil
		}
	}

	url := strings.TrimRight(s.baseURL, "/") + "/fng/?limit=1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fear & greed API error %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
			Timestamp      string `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode fear & greed response: %w", err)
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("fear & greed response has no rows")
	}

	row := payload.Data[0]
	value, err := strconv.Atoi(strings.TrimSpace(row.Value))
	if err != nil {
		return nil, fmt.Errorf("parse fear & greed value: %w", err)
	}
	ts, err := strconv.ParseInt(strings.TrimSpace(row.Timestamp), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse fear & greed timestamp: %w", err)
	}
	if ts > 1_000_000_000_000 {
		ts = ts / 1000
	}

	// The index classification doubles as scoreable text ("Extreme Fear",
	// "Greed", ...), which the keyword scorer picks up.
	item := domain.NewsItem{
		Title:       fmt.Sprintf("Crypto Fear & Greed index at %d (%s)", value, row.Classification),
		Body:        row.Classification,
		Source:      "fear_greed",
		PublishedAt: time.Unix(ts, 0).UTC(),
		URL:         "https://alternative.me/crypto/fear-and-greed-index/",
		Symbol:      symbol,
	}
	return []domain.NewsItem{item}, nil
}
