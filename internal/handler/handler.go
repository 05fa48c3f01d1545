package handler

import (
	"context"
	"time"

	"market-fusion/internal/domain"
	"market-fusion/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// PriceAPI is the slice of the price service the handlers use.
type PriceAPI interface {
	GetPrices(ctx context.Context, symbols []string) ([]*domain.PriceSnapshot, error)
	GetCandles(ctx context.Context, symbol, interval string, limit int) ([]*domain.Candle, error)
}

// IntelAPI serves news plus sentiment.
type IntelAPI interface {
	GetSentiment(ctx context.Context, symbol string) (*domain.SentimentFeed, error)
}

// FusionAPI exposes the fusion cycle and its read models.
type FusionAPI interface {
	RunCycle(ctx context.Context) (*service.CycleStats, error)
	Signals(symbols []string) []*domain.Signal
	Correlations(symbol string, market domain.Market) []domain.PivotRef
}

// TrackerAPI records trades and derives performance metrics.
type TrackerAPI interface {
	RecordEntry(ctx context.Context, symbol string, signal domain.SignalAction, entryPrice, confidence float64, entryTime time.Time) (string, error)
	RecordExit(ctx context.Context, id string, exitPrice float64, exitTime time.Time) (*domain.TradeRecord, error)
	CalculateMetrics(period string) *domain.PerformanceMetrics
}

type Handler struct {
	tracer  trace.Tracer
	prices  PriceAPI
	intel   IntelAPI
	fusion  FusionAPI
	tracker TrackerAPI
}

func New(tracer trace.Tracer, prices PriceAPI, intel IntelAPI, fusion FusionAPI, tracker TrackerAPI) *Handler {
	return &Handler{
		tracer:  tracer,
		prices:  prices,
		intel:   intel,
		fusion:  fusion,
		tracker: tracker,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/prices", h.GetPrices)
	api.GET("/candles/:symbol", h.GetCandles)
	api.GET("/sentiment", h.GetSentiment)
	api.GET("/correlations", h.GetCorrelations)
	api.GET("/signals", h.GetSignals)
	api.POST("/trades", h.RecordTrade)
	api.GET("/performance", h.GetPerformance)
	api.POST("/fusion/run", h.RunFusionCycle)
}
