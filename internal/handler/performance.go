package handler

import (
	"net/http"
	"strings"
	"time"

	"market-fusion/internal/analytics"
	"market-fusion/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

type tradeRequest struct {
	// Close fields: id plus exit price.
	ID        string  `json:"id"`
	ExitPrice float64 `json:"exit_price"`
	ExitTime  string  `json:"exit_time"`

	// Open fields.
	Symbol     string  `json:"symbol"`
	Signal     string  `json:"signal"`
	EntryPrice float64 `json:"entry_price"`
	Confidence float64 `json:"confidence"`
	EntryTime  string  `json:"entry_time"`
}

func parseRFC3339(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// RecordTrade godoc
// @Summary      Record a trade entry or exit
// @Description  Opens a trade when no id is given, closes the referenced trade otherwise
// @Tags         performance
// @Accept       json
// @Produce      json
// @Param        trade  body  tradeRequest  true  "Trade entry or exit"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/trades [post]
func (h *Handler) RecordTrade(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.record-trade")
	defer span.End()

	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if req.ID != "" {
		record, err := h.tracker.RecordExit(ctx, req.ID, req.ExitPrice, parseRFC3339(req.ExitTime))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "closed", "trade": record})
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	span.SetAttributes(attribute.String("symbol", symbol))
	if _, ok := domain.MarketOf(symbol); !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + symbol,
			"supported_symbols": domain.AllSymbols(),
		})
		return
	}

	id, err := h.tracker.RecordEntry(ctx, symbol,
		domain.SignalAction(strings.ToUpper(req.Signal)), req.EntryPrice, req.Confidence,
		parseRFC3339(req.EntryTime))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "opened", "id": id})
}

// GetPerformance godoc
// @Summary      Get performance metrics
// @Description  Returns win rate, drawdown, profit factor and derived insights over a period
// @Tags         performance
// @Produce      json
// @Param        period  query  string  false  "Window: 7d, 30d, 90d or all"  default(all)
// @Success      200  {object}  map[string]interface{}
// @Router       /api/performance [get]
func (h *Handler) GetPerformance(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-performance")
	defer span.End()

	period := c.DefaultQuery("period", analytics.PeriodAll)
	span.SetAttributes(attribute.String("period", period))

	metrics := h.tracker.CalculateMetrics(period)

	c.JSON(http.StatusOK, gin.H{
		"metrics":  metrics,
		"insights": analytics.Insights(metrics),
	})
}
