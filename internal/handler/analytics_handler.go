package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/angelicadichon/eSumbong/internal/models"
	"github.com/angelicadichon/eSumbong/pkg/response"
)

type analyticsQueries interface {
	Summary(ctx context.Context) (*models.AnalyticsSummary, error)
	ListResidents(ctx context.Context, sortBy models.ResidentSort) ([]models.ResidentSummary, error)
}

// AnalyticsHandler serves the admin dashboard aggregates and the
// resident roster.
type AnalyticsHandler struct {
	queries analyticsQueries
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(queries analyticsQueries) *AnalyticsHandler {
	return &AnalyticsHandler{queries: queries}
}

// Summary godoc
// @Summary Complaint analytics summary
// @Tags Analytics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /analytics/summary [get]
// @Security BearerAuth
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	summary, err := h.queries.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"summary": summary})
}

// Residents godoc
// @Summary Resident roster with report counts
// @Tags Analytics
// @Produce json
// @Param sort query string false "Sort order" Enums(name, most-recent, most-reports)
// @Success 200 {object} map[string]interface{}
// @Router /residents [get]
// @Security BearerAuth
func (h *AnalyticsHandler) Residents(c *gin.Context) {
	sortBy := models.ResidentSort(c.DefaultQuery("sort", string(models.ResidentSortName)))
	residents, err := h.queries.ListResidents(c.Request.Context(), sortBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"residents": residents})
}
