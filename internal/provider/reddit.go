package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"market-fusion/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const (
	redditBaseURL   = "https://www.reddit.com"
	defaultRedditUA = "market-fusion/1.0"
)

// RedditSource pulls hot posts from the configured subreddits and maps them
// to NewsItem records.
type RedditSource struct {
	client    *http.Client
	baseURL   string
	userAgent string
	subs      []string
	tracer    trace.Tracer
}

func NewRedditSource(subs []string, tracer trace.Tracer) *RedditSource {
	return &RedditSource{
		client:    &http.Client{Timeout: 20 * time.Second},
		baseURL:   redditBaseURL,
		userAgent: defaultRedditUA,
		subs:      subs,
		tracer:    tracer,
	}
}

func (s *RedditSource) Name() string { return "reddit" }

func (s *RedditSource) FetchNews(ctx context.Context, symbol string, limit int) ([]domain.NewsItem, error) {
	_, span := s.tracer.Start(ctx, "reddit.fetch-news")
	defer span.End()

	if limit <= 0 {
		limit = 40
	}

	var items []domain.NewsItem
	var lastErr error
	for _, sub := range s.subs {
		posts, err := s.fetchHot(ctx, sub, limit)
		if err != nil {
			lastErr = err
			continue
		}
		items = append(items, posts...)
	}
	if len(items) == 0 && lastErr != nil {
		return nil, lastErr
	}

	if symbol != "" {
		items = filterBySymbol(items, symbol)
	}
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *RedditSource) fetchHot(ctx context.Context, subreddit string, limit int) ([]domain.NewsItem, error) {
	subreddit = strings.TrimSpace(subreddit)
	if subreddit == "" {
		return nil, fmt.Errorf("subreddit is required")
	}
	if limit > 100 {
		limit = 100
	}

	base := strings.TrimRight(s.baseURL, "/")
	u := fmt.Sprintf("%s/r/%s/hot.json?limit=%d", base, url.PathEscape(subreddit), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("reddit API error %d: %s", resp.StatusCode, string(body))
	}

	var payload struct {
		Data struct {
			Children []struct {
				Data struct {
					ID         string  `json:"id"`
					Title      string  `json:"title"`
					SelfText   string  `json:"selftext"`
					CreatedUTC float64 `json:"created_utc"`
					Permalink  string  `json:"permalink"`
					URL        string  `json:"url"`
				} `json:"data"`
			} `json:"children"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode reddit response: %w", err)
	}

	items := make([]domain.NewsItem, 0, len(payload.Data.Children))
	for _, row := range payload.Data.Children {
		data := row.Data
		title := sanitizeText(data.Title, 300)
		if strings.TrimSpace(data.ID) == "" || title == "" {
			continue
		}
		itemURL := strings.TrimSpace(data.URL)
		if permalink := strings.TrimSpace(data.Permalink); permalink != "" {
			itemURL = base + permalink
		}
		items = append(items, domain.NewsItem{
			Title:       title,
			Body:        sanitizeText(data.SelfText, 420),
			Source:      "reddit",
			PublishedAt: time.Unix(int64(data.CreatedUTC), 0).UTC(),
			URL:         itemURL,
		})
	}
	return items, nil
}
