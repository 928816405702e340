package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/2005bahadursdr/student-attendance-api/internal/service"
	"github.com/2005bahadursdr/student-attendance-api/pkg/response"
)

// ReportHandler exposes attendance summary and export endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Summary godoc
// @Summary Attendance summary counts per status
// @Description Counts are computed on demand; statuses with no records report zero.
// @Tags Reports
// @Produce json
// @Param classId query string false "Filter by class"
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	req := service.SummaryRequest{
		ClassID:   c.Query("classId"),
		StartDate: c.Query("startDate"),
		EndDate:   c.Query("endDate"),
	}
	summary, err := h.reports.Summary(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export a class day roster as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param classId query string true "Class ID"
// @Param date query string true "Calendar day (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /attendance/reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	result, err := h.reports.Export(c.Request.Context(), c.Query("classId"), c.Query("date"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.FileName))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
