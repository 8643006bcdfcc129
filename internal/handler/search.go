package handler

import (
	"net/http"
	"strings"

	"ticker-sage/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// SearchStocks godoc
// @Summary      Search equity symbols
// @Description  Returns symbol suggestions for a partial ticker or company name. An empty query returns an empty list.
// @Tags         search
// @Produce      json
// @Param        q  query  string  false  "Partial symbol or name"
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Security     BearerAuth
// @Router       /api/search/stocks [get]
func (h *Handler) SearchStocks(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.search-stocks")
	defer span.End()

	query := strings.TrimSpace(c.Query("q"))
	span.SetAttributes(attribute.String("query", query))

	if query == "" {
		c.JSON(http.StatusOK, gin.H{"items": []domain.SymbolMatch{}})
		return
	}

	matches, err := h.stocks.SearchSymbols(ctx, query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if matches == nil {
		matches = []domain.SymbolMatch{}
	}

	c.JSON(http.StatusOK, gin.H{"items": matches})
}

// SearchCrypto godoc
// @Summary      Search crypto coins
// @Description  Returns coin suggestions for a partial symbol or name. An empty query returns an empty list.
// @Tags         search
// @Produce      json
// @Param        q  query  string  false  "Partial symbol or name"
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  map[string]string
// @Security     BearerAuth
// @Router       /api/search/crypto [get]
func (h *Handler) SearchCrypto(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.search-crypto")
	defer span.End()

	query := strings.TrimSpace(c.Query("q"))
	span.SetAttributes(attribute.String("query", query))

	if query == "" {
		c.JSON(http.StatusOK, gin.H{"items": []domain.CoinMatch{}})
		return
	}

	matches, err := h.crypto.SearchCoins(ctx, query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	if matches == nil {
		matches = []domain.CoinMatch{}
	}

	c.JSON(http.StatusOK, gin.H{"items": matches})
}
