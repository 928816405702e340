package models

import "time"

// Enrollment is the single source of truth for class membership. Both the
// "classes of a student" and "students of a class" views derive from it, so
// the two sides of the relation can never diverge.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	ClassID    string    `db:"class_id" json:"class_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// EnrollmentDetail enriches Enrollment with student and class info.
type EnrollmentDetail struct {
	Enrollment
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
	ClassName     string `db:"class_name" json:"class_name"`
	ClassCode     string `db:"class_code" json:"class_code"`
}
