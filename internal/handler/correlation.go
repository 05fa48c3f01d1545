package handler

import (
	"net/http"
	"strings"

	"market-fusion/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetCorrelations godoc
// @Summary      Get correlated symbols
// @Description  Returns the ranked list of symbols most correlated with the given one
// @Tags         correlations
// @Produce      json
// @Param        symbol  query  string  true   "Symbol (e.g., AAPL, BTC)"
// @Param        market  query  string  false  "Market (stocks or crypto); inferred from the symbol when omitted"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/correlations [get]
func (h *Handler) GetCorrelations(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-correlations")
	defer span.End()

	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))
	span.SetAttributes(attribute.String("symbol", symbol))

	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol query parameter is required"})
		return
	}

	inferred, known := domain.MarketOf(symbol)
	market := inferred
	if raw := strings.ToLower(strings.TrimSpace(c.Query("market"))); raw != "" {
		market = domain.Market(raw)
		if !market.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported market: " + raw})
			return
		}
	} else if !known {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + symbol,
			"supported_symbols": domain.AllSymbols(),
		})
		return
	}

	pivots := h.fusion.Correlations(symbol, market)

	c.JSON(http.StatusOK, gin.H{
		"symbol": symbol,
		"market": market,
		"pivots": pivots,
	})
}
