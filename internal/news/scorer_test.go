package news

import (
	"context"
	"errors"
	"math"
	"testing"

	"market-fusion/internal/domain"

	"github.com/openai/openai-go"
)

type stubBatchScorer struct {
	score *domain.SentimentScore
	err   error
}

func (s *stubBatchScorer) ScoreBatch(ctx context.Context, items []domain.NewsItem) (*domain.SentimentScore, error) {
	return s.score, s.err
}

type stubChatClient struct {
	response *openai.ChatCompletion
	err      error
}

func (c *stubChatClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.response, c.err
}

var sampleNews = []domain.NewsItem{{Title: "Shares surge after earnings beat"}}

func TestScorerWithoutRefinerUsesHeuristic(t *testing.T) {
	t.Parallel()

	s := NewScorer(nil)
	got := s.Score(context.Background(), sampleNews)
	if got.Model != keywordModel {
		t.Fatalf("expected heuristic model, got %q", got.Model)
	}
	assertDistribution(t, got)
}

func TestScorerFallsBackOnRefinerError(t *testing.T) {
	t.Parallel()

	s := NewScorer(&stubBatchScorer{err: errors.New("rate limited")})
	got := s.Score(context.Background(), sampleNews)
	if got.Model != keywordModel {
		t.Fatalf("refiner error should fall back to heuristic, got %q", got.Model)
	}
}

func TestScorerNormalizesRefinedDistribution(t *testing.T) {
	t.Parallel()

	s := NewScorer(&stubBatchScorer{score: &domain.SentimentScore{
		Positive: 0.8, Negative: 0.4, Neutral: 0.4, Confidence: 0.9, Model: "llm:test",
	}})

	got := s.Score(context.Background(), sampleNews)
	assertDistribution(t, got)
	if got.Model != "llm:test" {
		t.Fatalf("expected refined model tag, got %q", got.Model)
	}
	if math.Abs(got.Positive-0.5) > 1e-9 {
		t.Fatalf("expected rescaled positive 0.5, got %f", got.Positive)
	}
}

func TestOpenAIScorerParsesCompletion(t *testing.T) {
	t.Parallel()

	scorer := &OpenAIScorer{
		model: "gpt-4o-mini",
		client: &stubChatClient{response: &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{
					Content: "```json\n{\"positive\":0.6,\"negative\":0.1,\"neutral\":0.3,\"confidence\":0.8}\n```",
				}},
			},
		}},
	}

	got, err := scorer.ScoreBatch(context.Background(), sampleNews)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Positive != 0.6 || got.Confidence != 0.8 {
		t.Fatalf("unexpected parse result: %+v", got)
	}
	if got.Model != "llm:gpt-4o-mini" {
		t.Fatalf("expected model tag, got %q", got.Model)
	}
}

func TestOpenAIScorerRejectsMalformedJSON(t *testing.T) {
	t.Parallel()

	scorer := &OpenAIScorer{
		model: "gpt-4o-mini",
		client: &stubChatClient{response: &openai.ChatCompletion{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Content: "not json"}},
			},
		}},
	}

	if _, err := scorer.ScoreBatch(context.Background(), sampleNews); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewOpenAIScorerRequiresKey(t *testing.T) {
	t.Parallel()

	if NewOpenAIScorer("", "gpt-4o-mini") != nil {
		t.Fatalf("expected nil scorer without api key")
	}
}
