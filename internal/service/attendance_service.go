package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/2005bahadursdr/student-attendance-api/internal/models"
	appErrors "github.com/2005bahadursdr/student-attendance-api/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
	ListByClassAndDate(ctx context.Context, classID string, day time.Time) ([]models.Attendance, error)
}

type membershipChecker interface {
	Exists(ctx context.Context, studentID, classID string) (bool, error)
	Roster(ctx context.Context, classID string) ([]models.StudentRef, error)
}

// MarkAttendanceRequest describes payload for marking a single record.
type MarkAttendanceRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	ClassID   string  `json:"class_id" validate:"required"`
	Date      string  `json:"date" validate:"required"`
	Status    string  `json:"status" validate:"required,attendance_status"`
	Notes     *string `json:"notes"`
	MarkedBy  string  `json:"marked_by"`
}

// BulkMarkItem holds one entry of a bulk marking request. Entries are checked
// one by one inside MarkBulk, not at the batch level, so a bad entry turns
// into a failure record instead of rejecting its siblings.
type BulkMarkItem struct {
	StudentID string  `json:"student_id"`
	Status    string  `json:"status"`
	Notes     *string `json:"notes"`
}

// BulkMarkAttendanceRequest describes the bulk mark payload for one class and day.
type BulkMarkAttendanceRequest struct {
	ClassID  string         `json:"class_id" validate:"required"`
	Date     string         `json:"date" validate:"required"`
	MarkedBy string         `json:"marked_by"`
	Items    []BulkMarkItem `json:"items" validate:"required,min=1"`
}

// BulkMarkResult carries the applied records and the per-entry failures.
// Entries are independent: one failure never rolls back the others.
type BulkMarkResult struct {
	Marked   []models.Attendance      `json:"marked"`
	Failures []models.BulkMarkFailure `json:"failures"`
}

// AttendanceListRequest is used for listing attendance records.
type AttendanceListRequest struct {
	ClassID   string
	StudentID string
	Status    string
	Date      string
	DateFrom  string
	DateTo    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AttendanceService reconciles attendance marking requests against the
// (student, class, calendar-day) identity key.
type AttendanceService struct {
	repo        attendanceRepository
	memberships membershipChecker
	students    studentReader
	classes     classReader
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, memberships membershipChecker, students studentReader, classes classReader, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	registerStatusValidations(validate)
	return &AttendanceService{repo: repo, memberships: memberships, students: students, classes: classes, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// parseDay accepts a date-only or RFC 3339 value; any time-of-day component
// is discarded during normalization.
func parseDay(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return models.NormalizeDay(t), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return models.NormalizeDay(t), nil
}

// MarkOne upserts the record for (student, class, day). Calling it repeatedly
// for the same key always leaves exactly one record holding the last status.
func (s *AttendanceService) MarkOne(ctx context.Context, req MarkAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	day, err := parseDay(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD or RFC 3339")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, failure(err, "failed to load class")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, failure(err, "failed to load student")
	}
	enrolled, err := s.memberships.Exists(ctx, req.StudentID, req.ClassID)
	if err != nil {
		return nil, failure(err, "failed to verify enrollment")
	}
	if !enrolled {
		return nil, appErrors.ErrNotEnrolled
	}
	record := &models.Attendance{
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		Date:      day,
		Status:    models.AttendanceStatus(strings.ToLower(req.Status)),
		Notes:     req.Notes,
		MarkedBy:  req.MarkedBy,
	}
	stored, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return nil, failure(err, "failed to mark attendance")
	}
	s.metrics.RecordAttendanceMark(string(stored.Status))
	s.invalidateStats(ctx)
	return stored, nil
}

// MarkBulk applies MarkOne semantics per entry for one class and day. Each
// entry is attempted independently; failures are collected, not fatal.
// Students omitted from the list are left untouched.
func (s *AttendanceService) MarkBulk(ctx context.Context, req BulkMarkAttendanceRequest) (*BulkMarkResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk attendance payload")
	}
	day, err := parseDay(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD or RFC 3339")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, failure(err, "failed to load class")
	}

	result := &BulkMarkResult{Marked: []models.Attendance{}, Failures: []models.BulkMarkFailure{}}
	for _, item := range req.Items {
		stored, err := s.markBulkItem(ctx, req.ClassID, day, item, req.MarkedBy)
		if err != nil {
			result.Failures = append(result.Failures, models.BulkMarkFailure{
				StudentID: item.StudentID,
				Reason:    appErrors.FromError(err).Message,
			})
			continue
		}
		result.Marked = append(result.Marked, *stored)
	}
	if len(result.Marked) > 0 {
		s.invalidateStats(ctx)
	}
	s.logger.Info("bulk attendance processed",
		zap.String("class_id", req.ClassID),
		zap.Time("date", day),
		zap.Int("marked", len(result.Marked)),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

func (s *AttendanceService) markBulkItem(ctx context.Context, classID string, day time.Time, item BulkMarkItem, markedBy string) (*models.Attendance, error) {
	if item.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	status := models.AttendanceStatus(strings.ToLower(item.Status))
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid attendance status %q", item.Status))
	}
	if _, err := s.students.FindByID(ctx, item.StudentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, failure(err, "failed to load student")
	}
	enrolled, err := s.memberships.Exists(ctx, item.StudentID, classID)
	if err != nil {
		return nil, failure(err, "failed to verify enrollment")
	}
	if !enrolled {
		return nil, appErrors.ErrNotEnrolled
	}
	record := &models.Attendance{
		StudentID: item.StudentID,
		ClassID:   classID,
		Date:      day,
		Status:    status,
		Notes:     item.Notes,
		MarkedBy:  markedBy,
	}
	stored, err := s.repo.Upsert(ctx, record)
	if err != nil {
		return nil, failure(err, "failed to mark attendance")
	}
	s.metrics.RecordAttendanceMark(string(stored.Status))
	return stored, nil
}

// Roster left-joins the current class roster with the day's records. Students
// without a record carry a nil attendance entry; no absent status is implied.
func (s *AttendanceService) Roster(ctx context.Context, classID, date string) (*models.ClassRoster, error) {
	day, err := parseDay(date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date, expected YYYY-MM-DD or RFC 3339")
	}
	class, err := s.classes.FindByID(ctx, classID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, failure(err, "failed to load class")
	}
	roster, err := s.memberships.Roster(ctx, classID)
	if err != nil {
		return nil, failure(err, "failed to load class roster")
	}
	records, err := s.repo.ListByClassAndDate(ctx, classID, day)
	if err != nil {
		return nil, failure(err, "failed to load attendance records")
	}

	byStudent := make(map[string]models.Attendance, len(records))
	for _, record := range records {
		byStudent[record.StudentID] = record
	}
	entries := make([]models.RosterEntry, 0, len(roster))
	for _, student := range roster {
		entry := models.RosterEntry{Student: student}
		if record, ok := byStudent[student.ID]; ok {
			r := record
			entry.Attendance = &r
		}
		entries = append(entries, entry)
	}
	return &models.ClassRoster{
		Class: models.ClassRef{
			ID:        class.ID,
			ClassCode: class.ClassCode,
			ClassName: class.ClassName,
			Subject:   class.Subject,
		},
		Date:     day,
		Students: entries,
	}, nil
}

// List returns paginated attendance records.
func (s *AttendanceService) List(ctx context.Context, req AttendanceListRequest) ([]models.AttendanceRecord, *models.Pagination, error) {
	filter := models.AttendanceFilter{
		ClassID:   req.ClassID,
		StudentID: req.StudentID,
		Page:      req.Page,
		PageSize:  req.PageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if req.Status != "" {
		status := models.AttendanceStatus(strings.ToLower(req.Status))
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid attendance status filter")
		}
		filter.Status = &status
	}
	if req.Date != "" {
		day, err := parseDay(req.Date)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid date filter, expected YYYY-MM-DD")
		}
		filter.Date = &day
	}
	if req.DateFrom != "" {
		day, err := parseDay(req.DateFrom)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid dateFrom filter, expected YYYY-MM-DD")
		}
		filter.DateFrom = &day
	}
	if req.DateTo != "" {
		day, err := parseDay(req.DateTo)
		if err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "invalid dateTo filter, expected YYYY-MM-DD")
		}
		filter.DateTo = &day
	}
	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, failure(err, "failed to list attendance")
	}
	return rows, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *AttendanceService) invalidateStats(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, statsCachePattern)
	}
}
