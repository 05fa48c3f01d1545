package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"market-fusion/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// BatchScorer refines a heuristic sentiment distribution, typically with an
// LLM. Returning an error leaves the heuristic result untouched.
type BatchScorer interface {
	ScoreBatch(ctx context.Context, items []domain.NewsItem) (*domain.SentimentScore, error)
}

// Scorer wraps the keyword heuristic with an optional refinement pass. The
// heuristic is always computed first so the output is deterministic when no
// refiner is configured and degrades gracefully when the refiner fails.
type Scorer struct {
	llm BatchScorer
}

func NewScorer(llm BatchScorer) *Scorer {
	return &Scorer{llm: llm}
}

func (s *Scorer) Score(ctx context.Context, items []domain.NewsItem) domain.SentimentScore {
	base := AnalyzeSentiment(items)
	if s == nil || s.llm == nil || len(items) == 0 {
		return base
	}

	refined, err := s.llm.ScoreBatch(ctx, items)
	if err != nil || refined == nil {
		if err != nil {
			log.Printf("sentiment refinement failed, keeping heuristic: %v", err)
		}
		return base
	}

	out := normalize(domain.SentimentScore{
		Positive:   clamp(refined.Positive, 0, 1),
		Negative:   clamp(refined.Negative, 0, 1),
		Neutral:    clamp(refined.Neutral, 0, 1),
		Confidence: clamp(refined.Confidence, 0, 1),
		Model:      refined.Model,
		Timestamp:  base.Timestamp,
	})
	if out.Model == "" {
		out.Model = base.Model
	}
	return out
}

type openAIChatClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// OpenAIScorer asks a chat model for a positive/negative/neutral
// distribution over a news batch.
type OpenAIScorer struct {
	client openAIChatClient
	model  string
}

// NewOpenAIScorer returns nil when no API key is configured.
func NewOpenAIScorer(apiKey, model string) *OpenAIScorer {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil
	}
	if strings.TrimSpace(model) == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIScorer{client: &openAIClient{client: client}, model: model}
}

func (s *OpenAIScorer) ScoreBatch(ctx context.Context, items []domain.NewsItem) (*domain.SentimentScore, error) {
	if s == nil || s.client == nil || len(items) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, strings.TrimSpace(item.Title)))
	}

	systemPrompt := "You score financial news sentiment. Return ONLY a JSON object with keys: positive, negative, neutral (fractions summing to 1) and confidence (0..1). No markdown."
	userPrompt := "Headlines:\n" + sb.String()

	completion, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("empty scorer completion")
	}

	raw := trimCodeFence(completion.Choices[0].Message.Content)

	var parsed struct {
		Positive   float64 `json:"positive"`
		Negative   float64 `json:"negative"`
		Neutral    float64 `json:"neutral"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("parse scorer json: %w", err)
	}

	return &domain.SentimentScore{
		Positive:   parsed.Positive,
		Negative:   parsed.Negative,
		Neutral:    parsed.Neutral,
		Confidence: parsed.Confidence,
		Model:      "llm:" + s.model,
	}, nil
}

func trimCodeFence(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "```") {
		v = strings.TrimPrefix(v, "```")
		v = strings.TrimSpace(v)
		if strings.HasPrefix(strings.ToLower(v), "json") {
			v = strings.TrimSpace(v[4:])
		}
		v = strings.TrimSuffix(v, "```")
		v = strings.TrimSpace(v)
	}
	return v
}

type openAIClient struct {
	client openai.Client
}

func (c *openAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
