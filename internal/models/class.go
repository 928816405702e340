package models

import (
	"time"

	"github.com/lib/pq"
)

// ClassStatus represents the lifecycle state of a class.
type ClassStatus string

const (
	ClassStatusActive    ClassStatus = "active"
	ClassStatusInactive  ClassStatus = "inactive"
	ClassStatusCompleted ClassStatus = "completed"
)

// Valid returns true when the status is a supported value.
func (s ClassStatus) Valid() bool {
	switch s {
	case ClassStatusActive, ClassStatusInactive, ClassStatusCompleted:
		return true
	default:
		return false
	}
}

// DefaultMaxStudents caps class enrollment when no explicit bound is supplied.
const DefaultMaxStudents = 30

// Weekdays enumerates the accepted schedule day values.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// ValidWeekday reports whether day is one of the seven schedule values.
func ValidWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// Class represents an academic class or section.
type Class struct {
	ID            string         `db:"id" json:"id"`
	ClassCode     string         `db:"class_code" json:"class_code"`
	ClassName     string         `db:"class_name" json:"class_name"`
	Subject       string         `db:"subject" json:"subject"`
	Instructor    string         `db:"instructor" json:"instructor"`
	ScheduleDays  pq.StringArray `db:"schedule_days" json:"schedule_days"`
	ScheduleStart string         `db:"schedule_start" json:"schedule_start"`
	ScheduleEnd   string         `db:"schedule_end" json:"schedule_end"`
	Semester      string         `db:"semester" json:"semester"`
	AcademicYear  string         `db:"academic_year" json:"academic_year"`
	MaxStudents   int            `db:"max_students" json:"max_students"`
	Status        ClassStatus    `db:"status" json:"status"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ClassRef is the class projection embedded in student details and attendance rows.
type ClassRef struct {
	ID        string `db:"id" json:"id"`
	ClassCode string `db:"class_code" json:"class_code"`
	ClassName string `db:"class_name" json:"class_name"`
	Subject   string `db:"subject" json:"subject"`
}

// ClassDetail extends Class with the current enrollment count.
type ClassDetail struct {
	Class
	EnrolledCount int `db:"enrolled_count" json:"enrolled_count"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Search    string
	Status    ClassStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
