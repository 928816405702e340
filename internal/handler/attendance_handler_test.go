package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/2005bahadursdr/student-attendance-api/internal/models"
	"github.com/2005bahadursdr/student-attendance-api/internal/service"
)

type attendanceRepoStub struct {
	records map[string]models.Attendance
}

func (s *attendanceRepoStub) Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	if s.records == nil {
		s.records = make(map[string]models.Attendance)
	}
	key := record.StudentID + "|" + record.ClassID + "|" + record.Date.Format("2006-01-02")
	stored := *record
	if existing, ok := s.records[key]; ok {
		stored.ID = existing.ID
	} else {
		stored.ID = "att-1"
	}
	stored.TimeMarked = time.Now().UTC()
	s.records[key] = stored
	return &stored, nil
}

func (s *attendanceRepoStub) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	return nil, 0, nil
}

func (s *attendanceRepoStub) ListByClassAndDate(ctx context.Context, classID string, day time.Time) ([]models.Attendance, error) {
	var out []models.Attendance
	for _, record := range s.records {
		if record.ClassID == classID && record.Date.Equal(day) {
			out = append(out, record)
		}
	}
	return out, nil
}

type membershipStub struct {
	enrolled map[string]bool
	roster   []models.StudentRef
}

func (s *membershipStub) Exists(ctx context.Context, studentID, classID string) (bool, error) {
	return s.enrolled[studentID+"|"+classID], nil
}

func (s *membershipStub) Roster(ctx context.Context, classID string) ([]models.StudentRef, error) {
	return s.roster, nil
}

type studentReaderStub struct {
	students map[string]models.Student
}

func (s *studentReaderStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if st, ok := s.students[id]; ok {
		return &st, nil
	}
	return nil, sql.ErrNoRows
}

type classReaderStub struct {
	classes map[string]models.ClassDetail
}

func (s *classReaderStub) FindByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	if c, ok := s.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func buildAttendanceRouter() (*gin.Engine, *attendanceRepoStub) {
	gin.SetMode(gin.TestMode)
	repo := &attendanceRepoStub{}
	memberships := &membershipStub{
		enrolled: map[string]bool{"s1|c1": true, "s2|c1": true},
		roster: []models.StudentRef{
			{ID: "s1", StudentID: "STU001", FirstName: "Ana", LastName: "Lopez"},
			{ID: "s2", StudentID: "STU002", FirstName: "Ben", LastName: "Okoye"},
		},
	}
	students := &studentReaderStub{students: map[string]models.Student{
		"s1": {ID: "s1", StudentID: "STU001"},
		"s2": {ID: "s2", StudentID: "STU002"},
		"s3": {ID: "s3", StudentID: "STU003"},
	}}
	classes := &classReaderStub{classes: map[string]models.ClassDetail{
		"c1": {Class: models.Class{ID: "c1", ClassCode: "MATH101", ClassName: "Algebra", Subject: "Math"}},
	}}
	svc := service.NewAttendanceService(repo, memberships, students, classes, nil, nil, nil, zap.NewNop())
	h := NewAttendanceHandler(svc)

	router := gin.New()
	router.GET("/attendance", h.List)
	router.POST("/attendance", h.Mark)
	router.POST("/attendance/bulk", h.MarkBulk)
	router.GET("/attendance/class/:classId/:date", h.Roster)
	return router, repo
}

func jsonRequest(method, path, body string) *http.Request {
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAttendanceHandlerMark(t *testing.T) {
	router, repo := buildAttendanceRouter()

	resp := performRequest(router, jsonRequest(http.MethodPost, "/attendance",
		`{"student_id":"s1","class_id":"c1","date":"2024-03-05","status":"present"}`))
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"present"`)
	assert.Len(t, repo.records, 1)
}

func TestAttendanceHandlerMarkOverwritesSameDay(t *testing.T) {
	router, repo := buildAttendanceRouter()

	performRequest(router, jsonRequest(http.MethodPost, "/attendance",
		`{"student_id":"s1","class_id":"c1","date":"2024-03-05","status":"present"}`))
	resp := performRequest(router, jsonRequest(http.MethodPost, "/attendance",
		`{"student_id":"s1","class_id":"c1","date":"2024-03-05T15:00:00Z","status":"late"}`))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Len(t, repo.records, 1)
	assert.Contains(t, resp.Body.String(), `"status":"late"`)
}

func TestAttendanceHandlerMarkNotEnrolled(t *testing.T) {
	router, _ := buildAttendanceRouter()

	resp := performRequest(router, jsonRequest(http.MethodPost, "/attendance",
		`{"student_id":"s3","class_id":"c1","date":"2024-03-05","status":"present"}`))
	require.Equal(t, http.StatusPreconditionFailed, resp.Code)
	assert.Contains(t, resp.Body.String(), "NOT_ENROLLED")
}

func TestAttendanceHandlerMarkBadPayload(t *testing.T) {
	router, _ := buildAttendanceRouter()

	resp := performRequest(router, jsonRequest(http.MethodPost, "/attendance", `{not json`))
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAttendanceHandlerBulkPartialFailure(t *testing.T) {
	router, repo := buildAttendanceRouter()

	resp := performRequest(router, jsonRequest(http.MethodPost, "/attendance/bulk",
		`{"class_id":"c1","date":"2024-03-05","items":[
			{"student_id":"s1","status":"present"},
			{"student_id":"s3","status":"present"},
			{"student_id":"s2","status":"absent"}
		]}`))

	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, `"failures"`)
	assert.Contains(t, body, `"s3"`)
	assert.Len(t, repo.records, 2)
}

func TestAttendanceHandlerRoster(t *testing.T) {
	router, _ := buildAttendanceRouter()

	performRequest(router, jsonRequest(http.MethodPost, "/attendance",
		`{"student_id":"s1","class_id":"c1","date":"2024-03-05","status":"present"}`))

	req, _ := http.NewRequest(http.MethodGet, "/attendance/class/c1/2024-03-05", nil)
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	assert.Contains(t, body, `"STU001"`)
	assert.Contains(t, body, `"attendance":null`)
}
