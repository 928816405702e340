package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/2005bahadursdr/student-attendance-api/internal/models"
	appErrors "github.com/2005bahadursdr/student-attendance-api/pkg/errors"
)

// ClassRepository manages persistence for class records.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns classes matching the provided filters.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	base := "FROM classes c"
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(c.class_name) LIKE $%d OR LOWER(c.class_code) LIKE $%d OR LOWER(c.subject) LIKE $%d OR LOWER(c.instructor) LIKE $%d)",
			idx, idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"class_name": "c.class_name",
		"class_code": "c.class_code",
		"subject":    "c.subject",
		"created_at": "c.created_at",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	column, ok := allowedSorts[sortBy]
	if !ok {
		column = "c.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT c.id, c.class_code, c.class_name, c.subject, c.instructor, c.schedule_days, c.schedule_start, c.schedule_end,
        c.semester, c.academic_year, c.max_students, c.status, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM enrollments e WHERE e.class_id = c.id) AS enrolled_count
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base, column, order, size, offset)

	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID fetches a class with its current enrollment count.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	const query = `SELECT c.id, c.class_code, c.class_name, c.subject, c.instructor, c.schedule_days, c.schedule_start, c.schedule_end,
        c.semester, c.academic_year, c.max_students, c.status, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM enrollments e WHERE e.class_id = c.id) AS enrolled_count
        FROM classes c WHERE c.id = $1`
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new class record. The class code is stored upper-cased.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	class.ClassCode = strings.ToUpper(strings.TrimSpace(class.ClassCode))
	if class.MaxStudents <= 0 {
		class.MaxStudents = models.DefaultMaxStudents
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, class_code, class_name, subject, instructor, schedule_days, schedule_start, schedule_end, semester, academic_year, max_students, status, created_at, updated_at)
        VALUES (:id, :class_code, :class_name, :subject, :instructor, :schedule_days, :schedule_start, :schedule_end, :semester, :academic_year, :max_students, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		if _, ok := uniqueViolation(err); ok {
			return appErrors.Clone(appErrors.ErrConflict, "class code already exists")
		}
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies an existing class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.ClassCode = strings.ToUpper(strings.TrimSpace(class.ClassCode))
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET class_code = :class_code, class_name = :class_name, subject = :subject, instructor = :instructor,
        schedule_days = :schedule_days, schedule_start = :schedule_start, schedule_end = :schedule_end, semester = :semester,
        academic_year = :academic_year, max_students = :max_students, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		if _, ok := uniqueViolation(err); ok {
			return appErrors.Clone(appErrors.ErrConflict, "class code already exists")
		}
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Delete removes a class. Enrollment rows cascade at the store; attendance
// history is intentionally kept.
func (r *ClassRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM classes WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete class: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete class: %w", err)
	}
	return affected > 0, nil
}

// Count returns the total number of classes.
func (r *ClassRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM classes"); err != nil {
		return 0, fmt.Errorf("count classes: %w", err)
	}
	return total, nil
}
