package domain

import "time"

// NewsItem is a single headline pulled from one of the configured sources.
// Produced by the aggregator, consumed read-only by the sentiment scorer.
type NewsItem struct {
	Title       string    `json:"title"`
	Body        string    `json:"body,omitempty"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url,omitempty"`
	Symbol      string    `json:"symbol,omitempty"`
}

// SentimentScore is a normalized positive/negative/neutral distribution over
// a batch of news. Positive+Negative+Neutral always sums to 1 within 1e-6.
type SentimentScore struct {
	Positive   float64   `json:"positive"`
	Negative   float64   `json:"negative"`
	Neutral    float64   `json:"neutral"`
	Confidence float64   `json:"confidence"`
	Model      string    `json:"model"`
	Timestamp  time.Time `json:"timestamp"`
}

// Leaning collapses the distribution into a coarse label.
func (s SentimentScore) Leaning() string {
	switch {
	case s.Positive > s.Negative && s.Positive > s.Neutral:
		return "bullish"
	case s.Negative > s.Positive && s.Negative > s.Neutral:
		return "bearish"
	default:
		return "neutral"
	}
}

// SentimentFeed pairs a batch of news with its aggregate score, the shape
// served by GET /api/sentiment.
type SentimentFeed struct {
	Symbol    string         `json:"symbol,omitempty"`
	Items     []NewsItem     `json:"items"`
	Sentiment SentimentScore `json:"sentiment"`
}
