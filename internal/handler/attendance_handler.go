package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/2005bahadursdr/student-attendance-api/internal/service"
	"github.com/2005bahadursdr/student-attendance-api/pkg/response"
)

// AttendanceHandler exposes attendance marking and querying endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// List godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param classId query string false "Filter by class"
// @Param studentId query string false "Filter by student"
// @Param status query string false "Filter by status (present, absent, late, excused)"
// @Param date query string false "Exact calendar day (YYYY-MM-DD)"
// @Param startDate query string false "Range start (YYYY-MM-DD)"
// @Param endDate query string false "Range end (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	req := service.AttendanceListRequest{
		ClassID:   c.Query("classId"),
		StudentID: c.Query("studentId"),
		Status:    c.Query("status"),
		Date:      c.Query("date"),
		DateFrom:  c.Query("startDate"),
		DateTo:    c.Query("endDate"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	q := parsePageQuery(c)
	req.Page = q.Page
	req.PageSize = q.PageSize
	records, pagination, err := h.attendance.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}

// Mark godoc
// @Summary Mark attendance for one student
// @Description Upserts the record keyed by (student, class, calendar day); re-marking the same day overwrites the earlier status.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.attendance.MarkOne(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// MarkBulk godoc
// @Summary Mark attendance for many students of a class in one call
// @Description Entries are applied independently; failures are reported per entry without rolling back the rest.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.BulkMarkAttendanceRequest true "Bulk attendance payload"
// @Success 200 {object} response.Envelope
// @Router /attendance/bulk [post]
func (h *AttendanceHandler) MarkBulk(c *gin.Context) {
	var req service.BulkMarkAttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.attendance.MarkBulk(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Roster godoc
// @Summary Class roster with attendance for a day
// @Description Every enrolled student appears; students with no record for the day carry a null attendance entry.
// @Tags Attendance
// @Produce json
// @Param classId path string true "Class ID"
// @Param date path string true "Calendar day (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance/class/{classId}/{date} [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	roster, err := h.attendance.Roster(c.Request.Context(), c.Param("classId"), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roster, nil)
}
