package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/2005bahadursdr/student-attendance-api/internal/models"
	appErrors "github.com/2005bahadursdr/student-attendance-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) (bool, error)
}

type membershipReader interface {
	ClassesOf(ctx context.Context, studentID string) ([]models.ClassRef, error)
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth" validate:"required"`
	Status      string `json:"status" validate:"omitempty,student_status"`
}

// UpdateStudentRequest holds payload for updating students.
type UpdateStudentRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	FirstName   string `json:"first_name" validate:"required"`
	LastName    string `json:"last_name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth" validate:"required"`
	Status      string `json:"status" validate:"required,student_status"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo        studentRepository
	memberships membershipReader
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, memberships membershipReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerStatusValidations(validate)
	return &StudentService{repo: repo, memberships: memberships, cache: cache, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid student status filter")
	}
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, failure(err, "failed to list students")
	}
	return students, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a student with current class memberships.
func (s *StudentService) Get(ctx context.Context, id string) (*models.StudentDetail, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, failure(err, "failed to load student")
	}
	classes, err := s.memberships.ClassesOf(ctx, id)
	if err != nil {
		return nil, failure(err, "failed to load student classes")
	}
	if classes == nil {
		classes = []models.ClassRef{}
	}
	return &models.StudentDetail{Student: *student, Classes: classes}, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date_of_birth, expected YYYY-MM-DD")
	}
	status := models.StudentStatus(req.Status)
	if status == "" {
		status = models.StudentStatusActive
	}
	student := &models.Student{
		StudentID:   req.StudentID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: dob,
		Status:      status,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, failure(err, "failed to create student")
	}
	s.invalidateStats(ctx)
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date_of_birth, expected YYYY-MM-DD")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, failure(err, "failed to load student")
	}
	student.StudentID = req.StudentID
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.Email = req.Email
	student.Phone = req.Phone
	student.DateOfBirth = dob
	student.Status = models.StudentStatus(req.Status)
	if err := s.repo.Update(ctx, student); err != nil {
		return nil, failure(err, "failed to update student")
	}
	return student, nil
}

// Delete removes a student. Membership rows cascade through the relation
// table, so the student disappears from every class roster in the same
// statement; attendance history stays behind as historical fact.
func (s *StudentService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return failure(err, "failed to delete student")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *StudentService) invalidateStats(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, statsCachePattern)
	}
}
