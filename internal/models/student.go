package models

import "time"

// StudentStatus represents the lifecycle state of a student.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "active"
	StudentStatusInactive  StudentStatus = "inactive"
	StudentStatusGraduated StudentStatus = "graduated"
)

// Valid returns true when the status is a supported value.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusActive, StudentStatusInactive, StudentStatusGraduated:
		return true
	default:
		return false
	}
}

// Student represents a learner registered in the institution.
type Student struct {
	ID             string        `db:"id" json:"id"`
	StudentID      string        `db:"student_id" json:"student_id"`
	FirstName      string        `db:"first_name" json:"first_name"`
	LastName       string        `db:"last_name" json:"last_name"`
	Email          string        `db:"email" json:"email"`
	Phone          string        `db:"phone" json:"phone"`
	DateOfBirth    time.Time     `db:"date_of_birth" json:"date_of_birth"`
	EnrollmentDate time.Time     `db:"enrollment_date" json:"enrollment_date"`
	Status         StudentStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// FullName joins the student's given and family names.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// StudentRef is the student projection embedded in rosters and class details.
type StudentRef struct {
	ID        string        `db:"id" json:"id"`
	StudentID string        `db:"student_id" json:"student_id"`
	FirstName string        `db:"first_name" json:"first_name"`
	LastName  string        `db:"last_name" json:"last_name"`
	Email     string        `db:"email" json:"email"`
	Status    StudentStatus `db:"status" json:"status"`
}

// StudentDetail contains a student enriched with current class memberships.
type StudentDetail struct {
	Student
	Classes []ClassRef `json:"classes"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Status    StudentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
