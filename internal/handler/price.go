package handler

import (
	"net/http"
	"strconv"
	"strings"

	"market-fusion/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// parseSymbols splits a comma-separated symbols parameter, uppercased. Empty
// input means the whole tracked universe.
func parseSymbols(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return domain.AllSymbols()
	}
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GetPrices godoc
// @Summary      Get current prices
// @Description  Returns the latest price snapshots for the requested symbols, source-tagged
// @Tags         prices
// @Produce      json
// @Param        symbols  query  string  false  "Comma-separated symbols (e.g., AAPL,BTC); all tracked symbols when omitted"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/prices [get]
func (h *Handler) GetPrices(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-prices")
	defer span.End()

	symbols := parseSymbols(c.Query("symbols"))
	span.SetAttributes(attribute.Int("symbols", len(symbols)))

	for _, symbol := range symbols {
		if _, ok := domain.MarketOf(symbol); !ok {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":             "unsupported symbol: " + symbol,
				"supported_symbols": domain.AllSymbols(),
			})
			return
		}
	}

	snapshots, err := h.prices.GetPrices(ctx, symbols)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"prices": snapshots})
}

// GetCandles godoc
// @Summary      Get historical OHLCV candles
// @Description  Returns historical candle data for a given symbol and interval
// @Tags         prices
// @Produce      json
// @Param        symbol    path   string  true   "Symbol (e.g., AAPL, BTC)"
// @Param        interval  query  string  false  "Candle interval (5m, 15m, 1h, 4h, 1d)"  default(1d)
// @Param        limit     query  int     false  "Number of candles (default 100, max 500)"  default(100)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/candles/{symbol} [get]
func (h *Handler) GetCandles(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-candles")
	defer span.End()

	symbol := strings.ToUpper(c.Param("symbol"))
	span.SetAttributes(attribute.String("symbol", symbol))

	if _, ok := domain.MarketOf(symbol); !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":             "unsupported symbol: " + symbol,
			"supported_symbols": domain.AllSymbols(),
		})
		return
	}

	interval := c.DefaultQuery("interval", "1d")
	if !domain.IsSupportedInterval(interval) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":               "unsupported interval: " + interval,
			"supported_intervals": domain.SupportedIntervals,
		})
		return
	}

	limit := 100
	if l := c.Query("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	candles, err := h.prices.GetCandles(ctx, symbol, interval, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":   symbol,
		"interval": interval,
		"candles":  candles,
	})
}
