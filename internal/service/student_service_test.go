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

type mockStudentRepo struct {
	students   map[string]models.Student
	lastFilter models.StudentFilter
	listTotal  int
	createErr  error
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	out := make([]models.Student, 0, len(m.students))
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "generated"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.students[id]; !ok {
		return false, nil
	}
	delete(m.students, id)
	return true, nil
}

type mockMembershipReader struct {
	classes map[string][]models.ClassRef
}

func (m *mockMembershipReader) ClassesOf(ctx context.Context, studentID string) ([]models.ClassRef, error) {
	return m.classes[studentID], nil
}

func TestStudentServiceCreateDefaultsActive(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, &mockMembershipReader{}, nil, nil, zap.NewNop())

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentID:   "STU001",
		FirstName:   "Ana",
		LastName:    "Lopez",
		Email:       "ana@example.com",
		DateOfBirth: "2006-04-12",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, models.StudentStatusActive, student.Status)
	assert.Equal(t, 2006, student.DateOfBirth.Year())
}

func TestStudentServiceCreateRejectsBadDate(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, &mockMembershipReader{}, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentID:   "STU001",
		FirstName:   "Ana",
		LastName:    "Lopez",
		Email:       "ana@example.com",
		DateOfBirth: "12-04-2006",
	})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentServiceCreateDuplicate(t *testing.T) {
	repo := &mockStudentRepo{createErr: appErrors.Clone(appErrors.ErrConflict, "student number already exists")}
	svc := NewStudentService(repo, &mockMembershipReader{}, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		StudentID:   "STU001",
		FirstName:   "Ana",
		LastName:    "Lopez",
		Email:       "ana@example.com",
		DateOfBirth: "2006-04-12",
	})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestStudentServiceGetIncludesClasses(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", StudentID: "STU001", FirstName: "Ana", LastName: "Lopez"},
	}}
	memberships := &mockMembershipReader{classes: map[string][]models.ClassRef{
		"s1": {{ID: "c1", ClassCode: "MATH101"}},
	}}
	svc := NewStudentService(repo, memberships, nil, nil, zap.NewNop())

	detail, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, detail.Classes, 1)
	assert.Equal(t, "MATH101", detail.Classes[0].ClassCode)
}

func TestStudentServiceGetWithoutClasses(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1", StudentID: "STU001"},
	}}
	svc := NewStudentService(repo, &mockMembershipReader{}, nil, nil, zap.NewNop())

	detail, err := svc.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.NotNil(t, detail.Classes)
	assert.Empty(t, detail.Classes)
}

func TestStudentServiceDeleteMissing(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, &mockMembershipReader{}, nil, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "missing")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStudentServiceListRejectsBadStatus(t *testing.T) {
	svc := NewStudentService(&mockStudentRepo{}, &mockMembershipReader{}, nil, nil, zap.NewNop())

	_, _, err := svc.List(context.Background(), models.StudentFilter{Status: "frozen"})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestStudentServiceListPagination(t *testing.T) {
	repo := &mockStudentRepo{students: map[string]models.Student{
		"s1": {ID: "s1"},
	}, listTotal: 45}
	svc := NewStudentService(repo, &mockMembershipReader{}, nil, nil, zap.NewNop())

	_, pagination, err := svc.List(context.Background(), models.StudentFilter{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 45, pagination.TotalCount)
	assert.Equal(t, 3, pagination.TotalPages)
}
