package news

import (
	"math"
	"testing"
	"time"

	"market-fusion/internal/domain"
)

func assertDistribution(t *testing.T, s domain.SentimentScore) {
	t.Helper()
	sum := s.Positive + s.Negative + s.Neutral
	if math.Abs(sum-1.0) > 1e-6 {
		t.Fatalf("distribution must sum to 1, got %f (%+v)", sum, s)
	}
	for _, v := range []float64{s.Positive, s.Negative, s.Neutral, s.Confidence} {
		if v < 0 || v > 1 {
			t.Fatalf("fraction out of range: %+v", s)
		}
	}
}

func TestAnalyzeSentimentEmptyInput(t *testing.T) {
	t.Parallel()

	s := AnalyzeSentiment(nil)
	assertDistribution(t, s)
	if s.Neutral != 0.50 || s.Positive != 0.25 || s.Negative != 0.25 {
		t.Fatalf("expected neutral-leaning default, got %+v", s)
	}
	if s.Confidence != 0.5 {
		t.Fatalf("expected base confidence 0.5, got %f", s.Confidence)
	}
	if s.Model != keywordModel {
		t.Fatalf("expected model %q, got %q", keywordModel, s.Model)
	}
}

func TestAnalyzeSentimentBullishHeadlines(t *testing.T) {
	t.Parallel()

	items := []domain.NewsItem{
		{Title: "Shares surge after earnings beat"},
		{Title: "Analysts upgrade on record growth"},
		{Title: "Stock rally continues"},
	}

	s := AnalyzeSentiment(items)
	assertDistribution(t, s)
	if s.Positive <= s.Negative {
		t.Fatalf("expected bullish skew, got %+v", s)
	}
	if s.Leaning() != "bullish" {
		t.Fatalf("expected bullish leaning, got %s", s.Leaning())
	}
}

func TestAnalyzeSentimentBearishHeadlines(t *testing.T) {
	t.Parallel()

	items := []domain.NewsItem{
		{Title: "Token plunges after exchange hack"},
		{Title: "Regulators weigh trading ban"},
	}

	s := AnalyzeSentiment(items)
	assertDistribution(t, s)
	if s.Negative <= s.Positive {
		t.Fatalf("expected bearish skew, got %+v", s)
	}
}

func TestAnalyzeSentimentMixedUsesBody(t *testing.T) {
	t.Parallel()

	items := []domain.NewsItem{
		{Title: "Quarterly update", Body: "profit growth beat expectations"},
		{Title: "Quarterly update", Body: "lawsuit loss triggers downgrade"},
		{Title: "Calendar notice"},
	}

	s := AnalyzeSentiment(items)
	assertDistribution(t, s)
	if math.Abs(s.Positive-s.Negative) > 1e-9 {
		t.Fatalf("expected balanced distribution, got %+v", s)
	}
	if s.Neutral <= 0 {
		t.Fatalf("neutral item should register, got %+v", s)
	}
}

func TestConfidenceSaturates(t *testing.T) {
	t.Parallel()

	items := make([]domain.NewsItem, 40)
	for i := range items {
		items[i] = domain.NewsItem{Title: "headline", PublishedAt: time.Now()}
	}

	s := AnalyzeSentiment(items)
	assertDistribution(t, s)
	if s.Confidence != 0.89 {
		t.Fatalf("expected confidence cap 0.89, got %f", s.Confidence)
	}
	if AnalyzeSentiment(items[:2]).Confidence != 0.56 {
		t.Fatalf("expected 0.56 for two items")
	}
}

func TestNormalizeDegenerateInput(t *testing.T) {
	t.Parallel()

	s := normalize(domain.SentimentScore{Positive: 0, Negative: 0, Neutral: 0})
	if s.Neutral != 0.50 {
		t.Fatalf("expected neutral fallback, got %+v", s)
	}
	assertDistribution(t, domain.SentimentScore{
		Positive: s.Positive, Negative: s.Negative, Neutral: s.Neutral, Confidence: 0.5,
	})
}
