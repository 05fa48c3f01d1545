package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"market-fusion/internal/analytics"
	"market-fusion/internal/bot"
	"market-fusion/internal/cache"
	"market-fusion/internal/config"
	"market-fusion/internal/correlation"
	"market-fusion/internal/db"
	"market-fusion/internal/fetcher"
	"market-fusion/internal/handler"
	"market-fusion/internal/job"
	"market-fusion/internal/metrics"
	"market-fusion/internal/news"
	"market-fusion/internal/provider"
	"market-fusion/internal/repository"
	"market-fusion/internal/service"
	"market-fusion/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "market-fusion/docs"
)

var (
	loadEnvFunc            = godotenv.Load
	loadConfigFunc         = config.Load
	initPostgresFunc       = db.InitPostgres
	initRedisFunc          = cache.InitRedis
	initTracerFunc         = tracing.InitTracer
	newCandleRepoFunc      = repository.NewCandleRepository
	newTradeRepoFunc       = repository.NewTradeRepository
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	startPricePollerFunc   = func(p *job.PricePoller, ctx context.Context) { p.Start(ctx) }
	startFusionPollerFunc  = func(p *job.FusionPoller, ctx context.Context) { p.Start(ctx) }
	startTelegramBotFunc   = bot.StartTelegramBot
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

func buildPriceSources(cfg *config.Config, tracer trace.Tracer) []fetcher.PriceSource {
	var sources []fetcher.PriceSource
	if cfg.AlphaVantageAPIKey != "" {
		sources = append(sources, provider.NewAlphaVantageProvider(cfg.AlphaVantageAPIKey, tracer))
	}
	if cfg.FinnhubAPIKey != "" {
		sources = append(sources, provider.NewFinnhubProvider(cfg.FinnhubAPIKey, tracer))
	}
	sources = append(sources, provider.NewCoinGeckoProvider(tracer))
	return sources
}

func buildNewsSources(cfg *config.Config, tracer trace.Tracer) []news.Source {
	return []news.Source{
		provider.NewRSSSource(cfg.NewsFeeds, tracer),
		provider.NewRedditSource(cfg.RedditSubs, tracer),
		provider.NewFearGreedSource(tracer),
	}
}

// @title           Market Fusion API
// @version         1.0
// @description     Market data fusion and signal generation service.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis; both are optional layers.
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	// Repositories and migrations
	var candleRepo service.CandleRepository
	var tradeStore analytics.TradeStore
	if db.Pool != nil {
		cr := newCandleRepoFunc(db.Pool, tracer)
		if err := cr.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run candle migrations: %v", err)
		}
		tr := newTradeRepoFunc(db.Pool, tracer)
		if err := tr.RunMigrations(ctx); err != nil {
			log.Fatalf("failed to run trade migrations: %v", err)
		}
		candleRepo = cr
		tradeStore = tr
	} else {
		candleRepo = repository.NewMemoryCandleRepository()
	}

	var redisClient service.RedisClient
	var metricsRedis metrics.RedisClient
	if cache.Client != nil {
		redisClient = cache.Client
		metricsRedis = cache.Client
	}

	// Resilient price fetcher over the ordered source chain
	priceFetcher := fetcher.New(buildPriceSources(cfg, tracer), fetcher.Options{
		AllowPlaceholder: cfg.AllowPlaceholderData,
		ProviderTimeout:  time.Duration(cfg.ProviderTimeoutSecs) * time.Second,
		MaxConcurrent:    cfg.FetchMaxConcurrent,
		RequestDelay:     time.Duration(cfg.FetchRequestDelayMS) * time.Millisecond,
	}, tracer)

	priceService := service.NewPriceService(tracer, priceFetcher, candleRepo, redisClient)

	// News aggregation and sentiment
	aggregator := news.NewAggregator(buildNewsSources(cfg, tracer), tracer)
	var refiner news.BatchScorer
	if llm := news.NewOpenAIScorer(cfg.OpenAIAPIKey, cfg.OpenAIModel); llm != nil {
		refiner = llm
	}
	scorer := news.NewScorer(refiner)
	intelService := service.NewIntelService(tracer, aggregator, scorer, redisClient, cfg.NewsItemLimit)

	// Fusion pipeline
	metricsStore := metrics.NewStore(metricsRedis)
	fusionService := service.NewFusionService(tracer, priceService, intelService, correlation.NewIndex(), metricsStore)

	// Performance tracking
	tracker := analytics.NewTracker(tradeStore, tracer)
	tracker.Restore(ctx)

	// Background pollers
	go startPricePollerFunc(job.NewPricePoller(tracer, priceService, cfg.PricePollSecs), ctx)
	go startFusionPollerFunc(job.NewFusionPoller(tracer, fusionService, cfg.FusionPollSecs), ctx)

	// Telegram bot
	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(priceService, fusionService, tracker)

	// HTTP surface
	h := newHandlerFunc(tracer, priceService, intelService, fusionService, tracker)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("market-fusion"))

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
