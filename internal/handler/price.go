package handler

import (
	"net/http"
	"strings"

	"ticker-sage/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetPrice godoc
// @Summary      Get a current spot price
// @Description  Returns the latest price for a stock or crypto symbol, cached for a short window.
// @Tags         prices
// @Produce      json
// @Param        symbol  query  string  true   "Symbol (e.g., AAPL, BTC)"
// @Param        asset   query  string  false  "Asset type (stock or crypto)"  default(stock)
// @Success      200  {object}  domain.Quote
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Security     BearerAuth
// @Router       /api/price [get]
func (h *Handler) GetPrice(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-price")
	defer span.End()

	symbol := strings.ToUpper(strings.TrimSpace(c.Query("symbol")))
	asset := domain.AssetType(c.DefaultQuery("asset", string(domain.AssetStock)))
	span.SetAttributes(
		attribute.String("symbol", symbol),
		attribute.String("asset", string(asset)),
	)

	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol query parameter is required"})
		return
	}
	if !asset.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asset must be stock or crypto"})
		return
	}

	quote, err := h.quotes.GetQuote(ctx, asset, symbol)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, quote)
}
