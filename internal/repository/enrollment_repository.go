package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/2005bahadursdr/student-attendance-api/internal/models"
	appErrors "github.com/2005bahadursdr/student-attendance-api/pkg/errors"
)

// EnrollmentRepository handles persistence of the student-class relation.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Enroll inserts a membership row. The capacity bound is checked inside the
// insert itself rather than by a separate round trip; zero affected rows
// means the class was full when the statement ran. Under READ COMMITTED two
// simultaneous enrolls at one seat left can still both pass the count, so
// this narrows the race rather than closing it. A duplicate (student, class)
// pair trips the unique constraint and is reported as already enrolled.
func (r *EnrollmentRepository) Enroll(ctx context.Context, enrollment *models.Enrollment, maxStudents int) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, student_id, class_id, enrolled_at)
        SELECT $1, $2, $3, $4
        WHERE (SELECT COUNT(*) FROM enrollments WHERE class_id = $3) < $5`
	res, err := r.db.ExecContext(ctx, query, enrollment.ID, enrollment.StudentID, enrollment.ClassID, enrollment.EnrolledAt, maxStudents)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return appErrors.ErrAlreadyEnrolled
		}
		return fmt.Errorf("enroll student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("enroll student: %w", err)
	}
	if affected == 0 {
		return appErrors.ErrClassFull
	}
	return nil
}

// Unenroll removes a membership row, reporting whether one existed.
func (r *EnrollmentRepository) Unenroll(ctx context.Context, studentID, classID string) (bool, error) {
	const query = `DELETE FROM enrollments WHERE student_id = $1 AND class_id = $2`
	res, err := r.db.ExecContext(ctx, query, studentID, classID)
	if err != nil {
		return false, fmt.Errorf("unenroll student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unenroll student: %w", err)
	}
	return affected > 0, nil
}

// Exists reports whether the student is currently a member of the class.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, classID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, classID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// CountByClass returns the current member count for a class.
func (r *EnrollmentRepository) CountByClass(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE class_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, classID); err != nil {
		return 0, fmt.Errorf("count class enrollments: %w", err)
	}
	return total, nil
}

// Roster returns the students currently enrolled in a class, ordered by name.
func (r *EnrollmentRepository) Roster(ctx context.Context, classID string) ([]models.StudentRef, error) {
	const query = `SELECT s.id, s.student_id, s.first_name, s.last_name, s.email, s.status
        FROM enrollments e
        JOIN students s ON s.id = e.student_id
        WHERE e.class_id = $1
        ORDER BY s.first_name, s.last_name`
	var students []models.StudentRef
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("class roster: %w", err)
	}
	return students, nil
}

// ClassesOf returns the classes a student is currently a member of.
func (r *EnrollmentRepository) ClassesOf(ctx context.Context, studentID string) ([]models.ClassRef, error) {
	const query = `SELECT c.id, c.class_code, c.class_name, c.subject
        FROM enrollments e
        JOIN classes c ON c.id = e.class_id
        WHERE e.student_id = $1
        ORDER BY c.class_code`
	var classes []models.ClassRef
	if err := r.db.SelectContext(ctx, &classes, query, studentID); err != nil {
		return nil, fmt.Errorf("student classes: %w", err)
	}
	return classes, nil
}
