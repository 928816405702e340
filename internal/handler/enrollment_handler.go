package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/2005bahadursdr/student-attendance-api/internal/service"
	"github.com/2005bahadursdr/student-attendance-api/pkg/response"
)

// EnrollmentHandler exposes the class membership endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Enroll godoc
// @Summary Enroll a student into a class
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req service.EnrollmentRequest
	if !bindJSON(c, &req) {
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Unenroll godoc
// @Summary Remove a student from a class
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollmentRequest true "Enrollment payload"
// @Success 204
// @Router /enrollments [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	var req service.EnrollmentRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.enrollments.Unenroll(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClassStudents godoc
// @Summary List students enrolled in a class
// @Tags Enrollments
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/students [get]
func (h *EnrollmentHandler) ClassStudents(c *gin.Context) {
	students, err := h.enrollments.Roster(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// StudentClasses godoc
// @Summary List classes a student is enrolled in
// @Tags Enrollments
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/classes [get]
func (h *EnrollmentHandler) StudentClasses(c *gin.Context) {
	classes, err := h.enrollments.ClassesOf(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, nil)
}
