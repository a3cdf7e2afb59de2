package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pitchready/refexam-backend/internal/middleware"
	"github.com/pitchready/refexam-backend/internal/response"
	"github.com/pitchready/refexam-backend/internal/service"
)

// AnalyticsHandler serves the progress page.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// Overview godoc
// GET /api/v1/analytics
// Returns the full progress report: summary, trend, category and difficulty
// performance, and recent results.
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	claims := middleware.GetClaims(c)
	overview, err := h.analytics.Overview(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, overview)
}
