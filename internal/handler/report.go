package handler

import (
	"errors"
	"net/http"

	"ticker-sage/internal/domain"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// GetReport godoc
// @Summary      Poll an analysis report
// @Description  Returns the report row for the authenticated owner. Status is pending until the background pipeline finishes; report_data is null until then.
// @Tags         analysis
// @Produce      json
// @Param        id  query  string  true  "Report id returned by /api/analyze"
// @Success      200  {object}  domain.AnalysisJob
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Security     BearerAuth
// @Router       /api/report [get]
func (h *Handler) GetReport(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-report")
	defer span.End()

	reportID := c.Query("id")
	if reportID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id query parameter is required"})
		return
	}
	span.SetAttributes(attribute.String("report_id", reportID))

	job, err := h.analysis.Read(ctx, reportID, currentUserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}

	c.JSON(http.StatusOK, job)
}
