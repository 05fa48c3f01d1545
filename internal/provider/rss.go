package provider

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"market-fusion/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// RSSSource pulls headlines from one or more RSS feeds and maps them to
// NewsItem records. A symbol filter, when supplied, keeps only items whose
// title or body mentions the symbol.
type RSSSource struct {
	client *http.Client
	feeds  []string
	tracer trace.Tracer
}

func NewRSSSource(feeds []string, tracer trace.Tracer) *RSSSource {
	return &RSSSource{
		client: &http.Client{Timeout: 20 * time.Second},
		feeds:  feeds,
		tracer: tracer,
	}
}

func (s *RSSSource) Name() string { return "rss" }

func (s *RSSSource) FetchNews(ctx context.Context, symbol string, limit int) ([]domain.NewsItem, error) {
	_, span := s.tracer.Start(ctx, "rss.fetch-news")
	defer span.End()

	if limit <= 0 {
		limit = 40
	}

	var items []domain.NewsItem
	var lastErr error
	for _, feed := range s.feeds {
		feedItems, err := s.fetchFeed(ctx, feed, limit)
		if err != nil {
			lastErr = err
			continue
		}
		items = append(items, feedItems...)
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

func (s *RSSSource) fetchFeed(ctx context.Context, feedURL string, maxItems int) ([]domain.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rss fetch error %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var rss struct {
		Channel struct {
			Title string `xml:"title"`
			Items []struct {
				Title       string `xml:"title"`
				Link        string `xml:"link"`
				Description string `xml:"description"`
				GUID        string `xml:"guid"`
				PubDate     string `xml:"pubDate"`
			} `xml:"item"`
		} `xml:"channel"`
	}
	if err := xml.Unmarshal(body, &rss); err != nil {
		return nil, fmt.Errorf("decode rss payload: %w", err)
	}

	items := make([]domain.NewsItem, 0, len(rss.Channel.Items))
	for i, row := range rss.Channel.Items {
		if i >= maxItems {
			break
		}
		title := sanitizeText(row.Title, 300)
		if title == "" {
			continue
		}
		publishedAt := parseRSSDate(row.PubDate)
		if publishedAt.IsZero() {
			publishedAt = time.Now().UTC()
		}
		items = append(items, domain.NewsItem{
			Title:       title,
			Body:        sanitizeText(htmlStrip(row.Description), 420),
			Source:      "rss",
			PublishedAt: publishedAt,
			URL:         sanitizeText(row.Link, 500),
		})
	}
	return items, nil
}

func filterBySymbol(items []domain.NewsItem, symbol string) []domain.NewsItem {
	needle := strings.ToLower(symbol)
	out := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		text := strings.ToLower(item.Title + " " + item.Body)
		if strings.Contains(text, needle) {
			item.Symbol = symbol
			out = append(out, item)
		}
	}
	return out
}

func parseRSSDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC3339}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func htmlStrip(in string) string {
	if strings.TrimSpace(in) == "" {
		return ""
	}
	var b strings.Builder
	inside := false
	for _, r := range in {
		switch r {
		case '<':
			inside = true
			continue
		case '>':
			inside = false
			continue
		}
		if !inside {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func sanitizeText(in string, maxLen int) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return ""
	}
	in = strings.ReplaceAll(in, "\n", " ")
	in = strings.ReplaceAll(in, "\r", " ")
	in = strings.Join(strings.Fields(in), " ")
	if maxLen > 0 && len(in) > maxLen {
		in = in[:maxLen]
	}
	return in
}
