package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/2005bahadursdr/student-attendance-api/internal/models"
)

// AttendanceRepository handles persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert inserts or updates the record addressed by (student, class, day).
// The unique index on that key makes the operation race-free: a concurrent
// insert for the same key turns into an update instead of a duplicate row.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if record.MarkedBy == "" {
		record.MarkedBy = models.DefaultMarkedBy
	}
	record.TimeMarked = now
	record.UpdatedAt = now
	const query = `INSERT INTO attendance (id, student_id, class_id, date, status, notes, marked_by, time_marked, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (student_id, class_id, date)
DO UPDATE SET status = EXCLUDED.status, notes = EXCLUDED.notes, marked_by = EXCLUDED.marked_by, time_marked = EXCLUDED.time_marked, updated_at = EXCLUDED.updated_at
RETURNING id, student_id, class_id, date, status, notes, marked_by, time_marked, created_at, updated_at`
	var stored models.Attendance
	if err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.StudentID, record.ClassID, record.Date, record.Status,
		record.Notes, record.MarkedBy, record.TimeMarked, record.CreatedAt, record.UpdatedAt); err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// List returns attendance rows with student and class metadata. Deleted
// students or classes leave the metadata blank rather than hiding the row.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	base := `FROM attendance a
LEFT JOIN students s ON s.id = a.student_id
LEFT JOIN classes c ON c.id = a.class_id`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.ClassID != "" {
		where = append(where, fmt.Sprintf("a.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.StudentID != "" {
		where = append(where, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Date != nil {
		day := models.NormalizeDay(*filter.Date)
		where = append(where, fmt.Sprintf("a.date = $%d", len(args)+1))
		args = append(args, day)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("a.date >= $%d", len(args)+1))
		args = append(args, models.NormalizeDay(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("a.date <= $%d", len(args)+1))
		args = append(args, models.NormalizeDay(*filter.DateTo))
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"date":        "a.date",
		"status":      "a.status",
		"time_marked": "a.time_marked",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "date"
	}
	sortColumn, ok := allowedSort[sortBy]
	if !ok {
		sortColumn = "a.date"
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
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.student_id, a.class_id, a.date, a.status, a.notes, a.marked_by, a.time_marked, a.created_at, a.updated_at,
        COALESCE(s.first_name || ' ' || s.last_name, '') AS student_name, COALESCE(s.student_id, '') AS student_number,
        c.class_name, c.class_code
        %s WHERE %s
        ORDER BY %s %s, a.time_marked DESC
        LIMIT %d OFFSET %d`, base, whereClause, sortColumn, order, size, offset)

	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance: %w", err)
	}
	return rows, total, nil
}

// ListByClassAndDate returns the raw records for one class and one day.
func (r *AttendanceRepository) ListByClassAndDate(ctx context.Context, classID string, day time.Time) ([]models.Attendance, error) {
	const query = `SELECT id, student_id, class_id, date, status, notes, marked_by, time_marked, created_at, updated_at
        FROM attendance WHERE class_id = $1 AND date = $2`
	var rows []models.Attendance
	if err := r.db.SelectContext(ctx, &rows, query, classID, models.NormalizeDay(day)); err != nil {
		return nil, fmt.Errorf("attendance by class and date: %w", err)
	}
	return rows, nil
}

// Summary aggregates per-status counts for an optional class and date range.
func (r *AttendanceRepository) Summary(ctx context.Context, classID string, from, to *time.Time) (*models.AttendanceSummary, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if classID != "" {
		where = append(where, fmt.Sprintf("class_id = $%d", len(args)+1))
		args = append(args, classID)
	}
	if from != nil {
		where = append(where, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, models.NormalizeDay(*from))
	}
	if to != nil {
		where = append(where, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, models.NormalizeDay(*to))
	}
	query := fmt.Sprintf(`SELECT status, COUNT(*) AS cnt FROM attendance WHERE %s GROUP BY status`, strings.Join(where, " AND "))

	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"cnt"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("attendance summary: %w", err)
	}
	summary := &models.AttendanceSummary{}
	for _, row := range rows {
		switch models.AttendanceStatus(row.Status) {
		case models.AttendanceStatusPresent:
			summary.Present += row.Count
		case models.AttendanceStatusAbsent:
			summary.Absent += row.Count
		case models.AttendanceStatusLate:
			summary.Late += row.Count
		case models.AttendanceStatusExcused:
			summary.Excused += row.Count
		}
		summary.Total += row.Count
	}
	return summary, nil
}
