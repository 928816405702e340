package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalmiddleware "github.com/2005bahadursdr/student-attendance-api/internal/middleware"
	"github.com/2005bahadursdr/student-attendance-api/internal/models"
	appErrors "github.com/2005bahadursdr/student-attendance-api/pkg/errors"
)

type dashboardServiceMock struct {
	stats     *models.DashboardStats
	fromCache bool
	err       error
}

func (m *dashboardServiceMock) Stats(ctx context.Context) (*models.DashboardStats, bool, error) {
	return m.stats, m.fromCache, m.err
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func buildDashboardRouter(svc dashboardService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(internalmiddleware.WithResponseMeta())
	router.GET("/dashboard/stats", NewDashboardHandler(svc).Stats)
	return router
}

func TestDashboardHandlerStats(t *testing.T) {
	svc := &dashboardServiceMock{stats: &models.DashboardStats{TotalStudents: 12, TotalClasses: 3}, fromCache: true}
	router := buildDashboardRouter(svc)

	req, _ := http.NewRequest(http.MethodGet, "/dashboard/stats", nil)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total_students":12`)
	assert.Contains(t, resp.Body.String(), `"cache_hit":true`)
}

func TestDashboardHandlerStatsError(t *testing.T) {
	svc := &dashboardServiceMock{err: appErrors.ErrInternal}
	router := buildDashboardRouter(svc)

	req, _ := http.NewRequest(http.MethodGet, "/dashboard/stats", nil)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Contains(t, resp.Body.String(), `"error"`)
}
