package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/2005bahadursdr/student-attendance-api/internal/models"
	appErrors "github.com/2005bahadursdr/student-attendance-api/pkg/errors"
	"github.com/2005bahadursdr/student-attendance-api/pkg/export"
)

type attendanceSummarizer interface {
	Summary(ctx context.Context, classID string, from, to *time.Time) (*models.AttendanceSummary, error)
}

type rosterProvider interface {
	Roster(ctx context.Context, classID, date string) (*models.ClassRoster, error)
}

// ExportFormat selects the report rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered report bytes with HTTP metadata.
type ExportResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

// SummaryRequest filters the aggregate by optional class and date range.
type SummaryRequest struct {
	ClassID   string
	StartDate string
	EndDate   string
}

// ReportService folds attendance records into summaries and renders exports.
type ReportService struct {
	repo    attendanceSummarizer
	rosters rosterProvider
	classes classReader
	csv     *export.CSVExporter
	pdf     *export.PDFExporter
	logger  *zap.Logger
}

// NewReportService constructs the report service.
func NewReportService(repo attendanceSummarizer, rosters rosterProvider, classes classReader, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		repo:    repo,
		rosters: rosters,
		classes: classes,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
	}
}

// Summary computes per-status counts for the filtered record set. Every
// status appears in the result, zero-filled when absent. The result is a
// deterministic function of the stored records and is never cached.
func (s *ReportService) Summary(ctx context.Context, req SummaryRequest) (*models.AttendanceSummary, error) {
	var from, to *time.Time
	if req.StartDate != "" {
		day, err := parseDay(req.StartDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid startDate, expected YYYY-MM-DD")
		}
		from = &day
	}
	if req.EndDate != "" {
		day, err := parseDay(req.EndDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid endDate, expected YYYY-MM-DD")
		}
		to = &day
	}
	if req.ClassID != "" {
		if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
			}
			return nil, failure(err, "failed to load class")
		}
	}
	summary, err := s.repo.Summary(ctx, req.ClassID, from, to)
	if err != nil {
		return nil, failure(err, "failed to summarize attendance")
	}
	return summary, nil
}

// Export renders the class roster report for one day as CSV or PDF.
func (s *ReportService) Export(ctx context.Context, classID, date string, format ExportFormat) (*ExportResult, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "classId is required")
	}
	roster, err := s.rosters.Roster(ctx, classID, date)
	if err != nil {
		return nil, err
	}

	day := roster.Date.Format("2006-01-02")
	table := export.Table{
		Title:   fmt.Sprintf("Attendance %s %s", roster.Class.ClassCode, day),
		Columns: []string{"Student ID", "Name", "Status", "Notes", "Marked By"},
	}
	for _, entry := range roster.Students {
		status, notes, markedBy := "unmarked", "", ""
		if entry.Attendance != nil {
			status = string(entry.Attendance.Status)
			if entry.Attendance.Notes != nil {
				notes = *entry.Attendance.Notes
			}
			markedBy = entry.Attendance.MarkedBy
		}
		table.Rows = append(table.Rows, []string{
			entry.Student.StudentID,
			entry.Student.FirstName + " " + entry.Student.LastName,
			status,
			notes,
			markedBy,
		})
	}

	base := fmt.Sprintf("attendance-%s-%s", strings.ToLower(roster.Class.ClassCode), day)

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(table)
		if err != nil {
			return nil, failure(err, "failed to render csv report")
		}
		return &ExportResult{FileName: base + ".csv", ContentType: "text/csv", Content: content}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(table)
		if err != nil {
			return nil, failure(err, "failed to render pdf report")
		}
		return &ExportResult{FileName: base + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrExportFormat, fmt.Sprintf("unsupported export format %q", format))
	}
}
