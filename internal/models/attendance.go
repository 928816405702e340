package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusExcused AttendanceStatus = "excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate, AttendanceStatusExcused:
		return true
	default:
		return false
	}
}

// DefaultMarkedBy is recorded when no marker is supplied.
const DefaultMarkedBy = "system"

// NormalizeDay truncates a timestamp to its UTC calendar-day boundary. The
// normalized value is part of the attendance identity key, so two timestamps
// on the same day always address the same record.
func NormalizeDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Attendance records one (student, class, calendar-day) fact. Student and
// class are referenced by identity without foreign keys: records remain as
// historical facts after either entity is deleted.
type Attendance struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	ClassID    string           `db:"class_id" json:"class_id"`
	Date       time.Time        `db:"date" json:"date"`
	Status     AttendanceStatus `db:"status" json:"status"`
	Notes      *string          `db:"notes" json:"notes,omitempty"`
	MarkedBy   string           `db:"marked_by" json:"marked_by"`
	TimeMarked time.Time        `db:"time_marked" json:"time_marked"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceRecord extends the row with student and class metadata.
type AttendanceRecord struct {
	Attendance
	StudentName   string  `db:"student_name" json:"student_name"`
	StudentNumber string  `db:"student_number" json:"student_number"`
	ClassName     *string `db:"class_name" json:"class_name,omitempty"`
	ClassCode     *string `db:"class_code" json:"class_code,omitempty"`
}

// AttendanceFilter defines query filters for listing attendance.
type AttendanceFilter struct {
	ClassID   string
	StudentID string
	Status    *AttendanceStatus
	Date      *time.Time
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AttendanceSummary holds per-status counts for a filtered record set.
// Missing statuses stay at zero rather than being omitted.
type AttendanceSummary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Excused int `json:"excused"`
	Total   int `json:"total"`
}

// RosterEntry pairs an enrolled student with that day's attendance record.
// A nil Attendance means the student has not been marked; it is never
// defaulted to absent.
type RosterEntry struct {
	Student    StudentRef  `json:"student"`
	Attendance *Attendance `json:"attendance"`
}

// ClassRoster is the read-side join returned for a (class, date) query.
type ClassRoster struct {
	Class    ClassRef      `json:"class"`
	Date     time.Time     `json:"date"`
	Students []RosterEntry `json:"students"`
}

// BulkMarkFailure captures a per-entry bulk failure with the offending student.
type BulkMarkFailure struct {
	StudentID string `json:"student_id"`
	Reason    string `json:"reason"`
}

// DashboardStats aggregates headline numbers for the dashboard endpoint.
type DashboardStats struct {
	TotalStudents  int               `json:"total_students"`
	TotalClasses   int               `json:"total_classes"`
	Today          AttendanceSummary `json:"today"`
	AttendanceRate float64           `json:"attendance_rate"`
}
