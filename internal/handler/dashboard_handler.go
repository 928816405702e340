package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/2005bahadursdr/student-attendance-api/internal/middleware"
	"github.com/2005bahadursdr/student-attendance-api/internal/models"
	"github.com/2005bahadursdr/student-attendance-api/pkg/response"
)

type dashboardService interface {
	Stats(ctx context.Context) (*models.DashboardStats, bool, error)
}

// DashboardHandler serves the cached aggregate counts.
type DashboardHandler struct {
	dashboard dashboardService
}

func NewDashboardHandler(dashboard dashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Stats godoc
// @Summary Aggregate student, class and attendance counts
// @Description Served from cache when fresh; the cache_hit meta flag tells which.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/stats [get]
func (h *DashboardHandler) Stats(c *gin.Context) {
	start := time.Now()

	stats, fromCache, err := h.dashboard.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, fromCache)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()

	response.JSON(c, http.StatusOK, stats, nil, meta)
}
