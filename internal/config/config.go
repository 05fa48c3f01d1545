package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port   string
	APIKey string

	DatabaseURL string
	RedisURL    string

	AlphaVantageAPIKey string
	FinnhubAPIKey      string

	AllowPlaceholderData bool
	ProviderTimeoutSecs  int
	FetchMaxConcurrent   int
	FetchRequestDelayMS  int

	PricePollSecs  int
	FusionPollSecs int

	NewsFeeds     []string
	RedditSubs    []string
	NewsItemLimit int

	OpenAIAPIKey string
	OpenAIModel  string

	TelegramBotToken string
}

func Load() *Config {
	cfg := &Config{
		APIKey:             os.Getenv("API_KEY"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		AlphaVantageAPIKey: os.Getenv("ALPHAVANTAGE_API_KEY"),
		FinnhubAPIKey:      os.Getenv("FINNHUB_API_KEY"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	cfg.Port = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.AlphaVantageAPIKey == "" {
		log.Println("Warning: ALPHAVANTAGE_API_KEY not set, Alpha Vantage source disabled")
	}
	if cfg.FinnhubAPIKey == "" {
		log.Println("Warning: FINNHUB_API_KEY not set, Finnhub source disabled")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, sentiment refinement disabled")
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set")
	}

	cfg.AllowPlaceholderData = strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_PLACEHOLDER_DATA")), "true")

	cfg.ProviderTimeoutSecs = 10
	if v := strings.TrimSpace(os.Getenv("PROVIDER_TIMEOUT_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ProviderTimeoutSecs = n
		}
	}

	cfg.FetchMaxConcurrent = 4
	if v := strings.TrimSpace(os.Getenv("FETCH_MAX_CONCURRENT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FetchMaxConcurrent = n
		}
	}

	cfg.FetchRequestDelayMS = 0
	if v := strings.TrimSpace(os.Getenv("FETCH_REQUEST_DELAY_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.FetchRequestDelayMS = n
		}
	}

	cfg.PricePollSecs = 60
	if v := strings.TrimSpace(os.Getenv("PRICE_POLL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PricePollSecs = n
		}
	}

	cfg.FusionPollSecs = 300
	if v := strings.TrimSpace(os.Getenv("FUSION_POLL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FusionPollSecs = n
		}
	}

	cfg.NewsFeeds = splitList(os.Getenv("NEWS_FEEDS"))
	if len(cfg.NewsFeeds) == 0 {
		cfg.NewsFeeds = []string{
			"https://finance.yahoo.com/news/rssindex",
			"https://www.coindesk.com/arc/outboundfeeds/rss/",
		}
	}
	cfg.RedditSubs = splitList(os.Getenv("REDDIT_SUBS"))
	if len(cfg.RedditSubs) == 0 {
		cfg.RedditSubs = []string{"stocks", "cryptocurrency"}
	}

	cfg.NewsItemLimit = 20
	if v := strings.TrimSpace(os.Getenv("NEWS_ITEM_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.NewsItemLimit = n
		}
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
