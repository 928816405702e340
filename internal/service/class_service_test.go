package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/2005bahadursdr/student-attendance-api/internal/models"
	appErrors "github.com/2005bahadursdr/student-attendance-api/pkg/errors"
)

type mockClassRepo struct {
	classes map[string]models.ClassDetail
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.ClassDetail, int, error) {
	out := make([]models.ClassDetail, 0, len(m.classes))
	for _, c := range m.classes {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	if c, ok := m.classes[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if m.classes == nil {
		m.classes = make(map[string]models.ClassDetail)
	}
	if class.ID == "" {
		class.ID = "generated"
	}
	if class.MaxStudents <= 0 {
		class.MaxStudents = models.DefaultMaxStudents
	}
	m.classes[class.ID] = models.ClassDetail{Class: *class}
	return nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) error {
	m.classes[class.ID] = models.ClassDetail{Class: *class}
	return nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.classes[id]; !ok {
		return false, nil
	}
	delete(m.classes, id)
	return true, nil
}

func validClassRequest() CreateClassRequest {
	return CreateClassRequest{
		ClassCode:  "math101",
		ClassName:  "Algebra",
		Subject:    "Math",
		Instructor: "Dr. Reyes",
		Schedule: ClassScheduleRequest{
			DaysOfWeek: []string{"Monday", "Wednesday"},
			StartTime:  "09:00",
			EndTime:    "10:30",
		},
		Semester:     "Fall",
		AcademicYear: "2024-2025",
	}
}

func TestClassServiceCreateDefaults(t *testing.T) {
	repo := &mockClassRepo{}
	svc := NewClassService(repo, nil, nil, zap.NewNop())

	class, err := svc.Create(context.Background(), validClassRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ClassStatusActive, class.Status)
	assert.Equal(t, models.DefaultMaxStudents, class.MaxStudents)
}

func TestClassServiceCreateRejectsBadWeekday(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, nil, zap.NewNop())

	req := validClassRequest()
	req.Schedule.DaysOfWeek = []string{"Funday"}
	_, err := svc.Create(context.Background(), req)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestClassServiceCreateRequiresSchedule(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, nil, zap.NewNop())

	req := validClassRequest()
	req.Schedule.DaysOfWeek = nil
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
}

func TestClassServiceUpdateMissing(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, nil, zap.NewNop())

	_, err := svc.Update(context.Background(), "missing", UpdateClassRequest{
		ClassCode:  "MATH101",
		ClassName:  "Algebra",
		Subject:    "Math",
		Instructor: "Dr. Reyes",
		Schedule: ClassScheduleRequest{
			DaysOfWeek: []string{"Monday"},
			StartTime:  "09:00",
			EndTime:    "10:30",
		},
		Semester:     "Fall",
		AcademicYear: "2024-2025",
		MaxStudents:  25,
		Status:       "active",
	})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestClassServiceDeleteMissing(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "missing")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestClassServiceListRejectsBadStatus(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, nil, zap.NewNop())

	_, _, err := svc.List(context.Background(), models.ClassFilter{Status: "paused"})
	require.Error(t, err)
}
