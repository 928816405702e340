package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/2005bahadursdr/student-attendance-api/internal/models"
	appErrors "github.com/2005bahadursdr/student-attendance-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.ClassDetail, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) (bool, error)
}

// ClassScheduleRequest carries the weekly schedule block of a class payload.
type ClassScheduleRequest struct {
	DaysOfWeek []string `json:"days_of_week" validate:"required,min=1,dive,weekday"`
	StartTime  string   `json:"start_time" validate:"required"`
	EndTime    string   `json:"end_time" validate:"required"`
}

// CreateClassRequest holds payload for creating classes.
type CreateClassRequest struct {
	ClassCode    string               `json:"class_code" validate:"required"`
	ClassName    string               `json:"class_name" validate:"required"`
	Subject      string               `json:"subject" validate:"required"`
	Instructor   string               `json:"instructor" validate:"required"`
	Schedule     ClassScheduleRequest `json:"schedule" validate:"required"`
	Semester     string               `json:"semester" validate:"required"`
	AcademicYear string               `json:"academic_year" validate:"required"`
	MaxStudents  int                  `json:"max_students" validate:"omitempty,min=1"`
	Status       string               `json:"status" validate:"omitempty,class_status"`
}

// UpdateClassRequest holds payload for updating classes.
type UpdateClassRequest struct {
	ClassCode    string               `json:"class_code" validate:"required"`
	ClassName    string               `json:"class_name" validate:"required"`
	Subject      string               `json:"subject" validate:"required"`
	Instructor   string               `json:"instructor" validate:"required"`
	Schedule     ClassScheduleRequest `json:"schedule" validate:"required"`
	Semester     string               `json:"semester" validate:"required"`
	AcademicYear string               `json:"academic_year" validate:"required"`
	MaxStudents  int                  `json:"max_students" validate:"required,min=1"`
	Status       string               `json:"status" validate:"required,class_status"`
}

// ClassService handles class use-cases.
type ClassService struct {
	repo      classRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the class service.
func NewClassService(repo classRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerStatusValidations(validate)
	return &ClassService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns classes and pagination metadata.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, *models.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid class status filter")
	}
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, failure(err, "failed to list classes")
	}
	return classes, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a class with its enrollment count.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, failure(err, "failed to load class")
	}
	return class, nil
}

// Create registers a new class.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	status := models.ClassStatus(req.Status)
	if status == "" {
		status = models.ClassStatusActive
	}
	class := &models.Class{
		ClassCode:     req.ClassCode,
		ClassName:     req.ClassName,
		Subject:       req.Subject,
		Instructor:    req.Instructor,
		ScheduleDays:  req.Schedule.DaysOfWeek,
		ScheduleStart: req.Schedule.StartTime,
		ScheduleEnd:   req.Schedule.EndTime,
		Semester:      req.Semester,
		AcademicYear:  req.AcademicYear,
		MaxStudents:   req.MaxStudents,
		Status:        status,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, failure(err, "failed to create class")
	}
	s.invalidateStats(ctx)
	return class, nil
}

// Update modifies an existing class.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, failure(err, "failed to load class")
	}
	class := detail.Class
	class.ClassCode = req.ClassCode
	class.ClassName = req.ClassName
	class.Subject = req.Subject
	class.Instructor = req.Instructor
	class.ScheduleDays = req.Schedule.DaysOfWeek
	class.ScheduleStart = req.Schedule.StartTime
	class.ScheduleEnd = req.Schedule.EndTime
	class.Semester = req.Semester
	class.AcademicYear = req.AcademicYear
	class.MaxStudents = req.MaxStudents
	class.Status = models.ClassStatus(req.Status)
	if err := s.repo.Update(ctx, &class); err != nil {
		return nil, failure(err, "failed to update class")
	}
	return &class, nil
}

// Delete removes a class. Membership rows cascade through the relation table,
// so the class disappears from every student's class list in the same
// statement; attendance history stays behind as historical fact.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return failure(err, "failed to delete class")
	}
	if !deleted {
		return appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	s.invalidateStats(ctx)
	return nil
}

func (s *ClassService) invalidateStats(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, statsCachePattern)
	}
}
