package service

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/2005bahadursdr/student-attendance-api/internal/models"
)

// registerStatusValidations wires the enum validations shared across request
// payloads. Registration is idempotent, so each service may call it.
func registerStatusValidations(v *validator.Validate) {
	v.RegisterValidation("student_status", func(fl validator.FieldLevel) bool {
		return models.StudentStatus(strings.ToLower(fl.Field().String())).Valid()
	})
	v.RegisterValidation("class_status", func(fl validator.FieldLevel) bool {
		return models.ClassStatus(strings.ToLower(fl.Field().String())).Valid()
	})
	v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToLower(fl.Field().String())).Valid()
	})
	v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return models.ValidWeekday(fl.Field().String())
	})
}
