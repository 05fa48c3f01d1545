package handler

import (
	"net/http"
	"strings"

	"market-fusion/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetSentiment godoc
// @Summary      Get news and sentiment for a symbol
// @Description  Returns the aggregated news batch and its sentiment distribution
// @Tags         sentiment
// @Produce      json
// @Param        symbol  query  string  true  "Symbol (e.g., AAPL, BTC)"
// @Success      200  {object}  domain.SentimentFeed
// @Failure      400  {object}  map[string]string
// @Router       /api/sentiment [get]
func (h *Handler) GetSentiment(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-sentiment")
	defer span.End()

	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))
	span.SetAttributes(attribute.String("symbol", symbol))

	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol query parameter is required"})
		return
	}
	if _, ok := domain.MarketOf(symbol); !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + symbol,
			"supported_symbols": domain.AllSymbols(),
		})
		return
	}

	feed, err := h.intel.GetSentiment(ctx, symbol)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, feed)
}
