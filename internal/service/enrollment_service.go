package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/2005bahadursdr/student-attendance-api/internal/models"
	appErrors "github.com/2005bahadursdr/student-attendance-api/pkg/errors"
)

type enrollmentRepository interface {
	Enroll(ctx context.Context, enrollment *models.Enrollment, maxStudents int) error
	Unenroll(ctx context.Context, studentID, classID string) (bool, error)
	Exists(ctx context.Context, studentID, classID string) (bool, error)
	Roster(ctx context.Context, classID string) ([]models.StudentRef, error)
	ClassesOf(ctx context.Context, studentID string) ([]models.ClassRef, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassDetail, error)
}

// EnrollmentRequest identifies the (student, class) pair being linked.
type EnrollmentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
	ClassID   string `json:"class_id" validate:"required"`
}

// EnrollmentService is the single mutation path for class membership. Every
// enroll and unenroll goes through it, which is what keeps the two derived
// membership views consistent.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentReader
	classes   classReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, classes classReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, classes: classes, validator: validate, logger: logger}
}

// Enroll registers a student to a class, honoring the class capacity bound.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, failure(err, "failed to load student")
	}
	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, failure(err, "failed to load class")
	}
	enrollment := &models.Enrollment{StudentID: req.StudentID, ClassID: req.ClassID}
	if err := s.repo.Enroll(ctx, enrollment, class.MaxStudents); err != nil {
		return nil, failure(err, "failed to enroll student")
	}
	s.logger.Info("student enrolled",
		zap.String("student_id", req.StudentID),
		zap.String("class_id", req.ClassID),
	)
	return enrollment, nil
}

// Unenroll removes a student from a class.
func (s *EnrollmentService) Unenroll(ctx context.Context, req EnrollmentRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	removed, err := s.repo.Unenroll(ctx, req.StudentID, req.ClassID)
	if err != nil {
		return failure(err, "failed to unenroll student")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	return nil
}

// Roster returns the students currently enrolled in a class.
func (s *EnrollmentService) Roster(ctx context.Context, classID string) ([]models.StudentRef, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, failure(err, "failed to load class")
	}
	roster, err := s.repo.Roster(ctx, classID)
	if err != nil {
		return nil, failure(err, "failed to load class roster")
	}
	if roster == nil {
		roster = []models.StudentRef{}
	}
	return roster, nil
}

// ClassesOf returns the classes a student is enrolled in.
func (s *EnrollmentService) ClassesOf(ctx context.Context, studentID string) ([]models.ClassRef, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, failure(err, "failed to load student")
	}
	classes, err := s.repo.ClassesOf(ctx, studentID)
	if err != nil {
		return nil, failure(err, "failed to load student classes")
	}
	if classes == nil {
		classes = []models.ClassRef{}
	}
	return classes, nil
}
