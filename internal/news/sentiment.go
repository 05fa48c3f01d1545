package news

import (
	"math"
	"strings"
	"time"

	"market-fusion/internal/domain"
)

const keywordModel = "keyword:v1"

var bullishWords = []string{
	"surge", "rally", "beat", "gain", "growth", "upgrade", "record",
	"breakout", "bull", "soar", "outperform", "profit", "buy", "adoption",
	"recover", "greed",
}

var bearishWords = []string{
	"crash", "drop", "miss", "loss", "downgrade", "lawsuit", "bear",
	"plunge", "sell", "underperform", "hack", "ban", "decline",
	"liquidation", "fear", "recall",
}

// AnalyzeSentiment classifies each item with a keyword-overlap heuristic (a
// stand-in for a real NLP model) and returns the normalized distribution.
// The three fractions always sum to 1 within 1e-6. Confidence grows with the
// amount of evidence and stays capped below 1. Zero input yields a
// neutral-leaning default rather than an error, so sentiment is available
// even in cold-start.
func AnalyzeSentiment(items []domain.NewsItem) domain.SentimentScore {
	now := time.Now().UTC()
	if len(items) == 0 {
		return domain.SentimentScore{
			Positive:   0.25,
			Negative:   0.25,
			Neutral:    0.50,
			Confidence: 0.5,
			Model:      keywordModel,
			Timestamp:  now,
		}
	}

	var pos, neg, neu int
	for _, item := range items {
		switch classify(item.Title + " " + item.Body) {
		case 1:
			pos++
		case -1:
			neg++
		default:
			neu++
		}
	}

	total := float64(pos + neg + neu)
	score := domain.SentimentScore{
		Positive:   float64(pos) / total,
		Negative:   float64(neg) / total,
		Neutral:    float64(neu) / total,
		Confidence: confidenceFor(len(items)),
		Model:      keywordModel,
		Timestamp:  now,
	}
	return normalize(score)
}

// classify returns 1 for bullish, -1 for bearish, 0 for neutral.
func classify(text string) int {
	text = strings.ToLower(text)
	bull := countMatches(text, bullishWords)
	bear := countMatches(text, bearishWords)
	switch {
	case bull > bear:
		return 1
	case bear > bull:
		return -1
	default:
		return 0
	}
}

func countMatches(text string, words []string) int {
	count := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			count++
		}
	}
	return count
}

// confidenceFor grows modestly with sample size: 0.5 base plus 0.03 per
// item, saturating at 0.89.
func confidenceFor(n int) float64 {
	if n > 13 {
		n = 13
	}
	return 0.5 + 0.03*float64(n)
}

// normalize rescales the three fractions so they sum to exactly 1, guarding
// against float drift and degenerate inputs.
func normalize(s domain.SentimentScore) domain.SentimentScore {
	sum := s.Positive + s.Negative + s.Neutral
	if sum <= 0 || math.IsNaN(sum) {
		s.Positive, s.Negative, s.Neutral = 0.25, 0.25, 0.50
		return s
	}
	s.Positive /= sum
	s.Negative /= sum
	s.Neutral /= sum
	return s
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
