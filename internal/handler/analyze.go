package handler

import (
	"errors"
	"net/http"

	"ticker-sage/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// Analyze godoc
// @Summary      Submit a ticker for AI investment analysis
// @Description  Persists the request, returns ids immediately, and runs the analysis pipeline in the background. Poll /api/report for the result.
// @Tags         analysis
// @Accept       json
// @Produce      json
// @Param        request  body  domain.AnalysisRequest  true  "Ticker, asset type, and investment horizon level (1-5)"
// @Success      200  {object}  domain.SubmitResult
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Security     BearerAuth
// @Router       /api/analyze [post]
func (h *Handler) Analyze(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.analyze")
	defer span.End()

	var req domain.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	span.SetAttributes(
		attribute.String("ticker", req.Ticker),
		attribute.String("asset_type", string(req.AssetType)),
	)

	result, err := h.analysis.Submit(ctx, currentUserID(c), req)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start analysis"})
		return
	}

	c.JSON(http.StatusOK, result)
}
