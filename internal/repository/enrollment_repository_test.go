package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2005bahadursdr/student-attendance-api/internal/models"
	appErrors "github.com/2005bahadursdr/student-attendance-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryEnroll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), "s1", "c1", sqlmock.AnyArg(), 30).
		WillReturnResult(sqlmock.NewResult(0, 1))

	enrollment := &models.Enrollment{StudentID: "s1", ClassID: "c1"}
	require.NoError(t, repo.Enroll(context.Background(), enrollment, 30))
	assert.NotEmpty(t, enrollment.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollFullClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), "s1", "c1", sqlmock.AnyArg(), 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Enroll(context.Background(), &models.Enrollment{StudentID: "s1", ClassID: "c1"}, 2)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrClassFull.Code, appErr.Code)
}

func TestEnrollmentRepositoryEnrollDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").
		WithArgs(sqlmock.AnyArg(), "s1", "c1", sqlmock.AnyArg(), 30).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "enrollments_student_id_class_id_key"})

	err := repo.Enroll(context.Background(), &models.Enrollment{StudentID: "s1", ClassID: "c1"}, 30)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErr.Code)
}

func TestEnrollmentRepositoryUnenroll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE student_id = $1 AND class_id = $2")).
		WithArgs("s1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := repo.Unenroll(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.True(t, removed)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM enrollments WHERE student_id = $1 AND class_id = $2")).
		WithArgs("s1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err = repo.Unenroll(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 LIMIT 1")).
		WithArgs("s1", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 LIMIT 1")).
		WithArgs("s2", "c1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err = repo.Exists(context.Background(), "s2", "c1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEnrollmentRepositoryRoster(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "first_name", "last_name", "email", "status"}).
		AddRow("s1", "STU001", "Ana", "Lopez", "ana@example.com", "active").
		AddRow("s2", "STU002", "Ben", "Okoye", "ben@example.com", "active")
	mock.ExpectQuery("SELECT s.id, s.student_id").
		WithArgs("c1").
		WillReturnRows(rows)

	students, err := repo.Roster(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "STU001", students[0].StudentID)
}

func TestEnrollmentRepositoryClassesOf(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "class_code", "class_name", "subject"}).
		AddRow("c1", "MATH101", "Algebra", "Math")
	mock.ExpectQuery("SELECT c.id, c.class_code").
		WithArgs("s1").
		WillReturnRows(rows)

	classes, err := repo.ClassesOf(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, classes, 1)
	assert.Equal(t, "MATH101", classes[0].ClassCode)
}

func TestEnrollmentRepositoryCountByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM enrollments WHERE class_id = $1")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	total, err := repo.CountByClass(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 12, total)
}
