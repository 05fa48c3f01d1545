package handler

import (
	"net/http"

	"market-fusion/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetSignals godoc
// @Summary      Get current trading signals
// @Description  Returns the current signal per symbol with correlated pivots attached
// @Tags         signals
// @Produce      json
// @Param        symbols  query  string  false  "Comma-separated symbols; all tracked symbols when omitted"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Router       /api/signals [get]
func (h *Handler) GetSignals(c *gin.Context) {
	_, span := h.tracer.Start(c.Request.Context(), "handler.get-signals")
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

	c.JSON(http.StatusOK, gin.H{"signals": h.fusion.Signals(symbols)})
}

// RunFusionCycle godoc
// @Summary      Run a fusion cycle now
// @Description  Executes one full price/sentiment/correlation/signal pass and returns its counters
// @Tags         signals
// @Produce      json
// @Success      200  {object}  service.CycleStats
// @Failure      500  {object}  map[string]string
// @Router       /api/fusion/run [post]
func (h *Handler) RunFusionCycle(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.run-fusion-cycle")
	defer span.End()

	stats, err := h.fusion.RunCycle(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
