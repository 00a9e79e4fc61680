package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/internal/repository"
	appErrors "github.com/noah-isme/studentms/pkg/errors"
)

func newTestStudentService(repo *fakeStudentRepo, cache *CacheService) *StudentService {
	svc := NewStudentService(repo, cache, nil, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) }
	return svc
}

func TestStudentServiceCreateAssignsCodeAndDefaults(t *testing.T) {
	repo := newFakeStudentRepo()
	repo.nextCode = "ST004"
	svc := newTestStudentService(repo, nil)

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName: "  Alice Tan ",
		Email:    "alice@example.com",
		Gender:   "Female",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), student.ID)
	assert.Equal(t, "ST004", student.Code)
	assert.Equal(t, "Alice Tan", student.FullName)
	assert.Equal(t, "2024-03-05", student.EnrollmentDate)
	assert.Equal(t, models.StudentStatusActive, student.Status)
	assert.Nil(t, student.Phone)
	require.NotNil(t, student.Gender)
	assert.Equal(t, "Female", *student.Gender)
}

func TestStudentServiceCreateRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeStudentRepo(models.Student{ID: 1, Code: "ST001", FullName: "Alice", Email: "alice@example.com"})
	svc := newTestStudentService(repo, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{FullName: "Alice Again", Email: "alice@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Len(t, repo.students, 1)
}

func TestStudentServiceCreateValidatesPayload(t *testing.T) {
	svc := newTestStudentService(newFakeStudentRepo(), nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{FullName: "Bob", Email: "not-an-email"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), CreateStudentRequest{FullName: "Bob", Email: "bob@example.com", DateOfBirth: "05/03/2001"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), CreateStudentRequest{FullName: "Bob", Email: "bob@example.com", Gender: "Unknown"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestStudentServiceNextCodeMalformed(t *testing.T) {
	repo := newFakeStudentRepo()
	repo.codeErr = fmt.Errorf("next student code: %w", repository.ErrMalformedStudentCode)
	svc := newTestStudentService(repo, nil)

	_, err := svc.NextCode(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrFormat)

	_, err = svc.Create(context.Background(), CreateStudentRequest{FullName: "Carol", Email: "carol@example.com"})
	assert.ErrorIs(t, err, appErrors.ErrFormat)
}

func TestStudentServiceUpdateKeepsCodeAndInvalidatesTranscript(t *testing.T) {
	repo := newFakeStudentRepo(models.Student{ID: 7, Code: "ST007", FullName: "Dan", Email: "dan@example.com", Status: models.StudentStatusActive})
	backend := newMemoryCache()
	backend.entries[TranscriptCacheKey(7)] = &StudentTranscript{}
	cache := NewCacheService(backend, nil, time.Minute, zap.NewNop(), true)
	svc := newTestStudentService(repo, cache)

	updated, err := svc.Update(context.Background(), 7, UpdateStudentRequest{
		FullName:       "Daniel",
		Email:          "daniel@example.com",
		EnrollmentDate: "2023-09-01",
		Status:         models.StudentStatusInactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "ST007", updated.Code)
	assert.Equal(t, "Daniel", repo.students[7].FullName)
	assert.Equal(t, models.StudentStatusInactive, repo.students[7].Status)
	assert.NotContains(t, backend.entries, TranscriptCacheKey(7))
}

func TestStudentServiceUpdateRejectsEmailOfAnotherStudent(t *testing.T) {
	repo := newFakeStudentRepo(
		models.Student{ID: 1, Code: "ST001", FullName: "A", Email: "a@example.com"},
		models.Student{ID: 2, Code: "ST002", FullName: "B", Email: "b@example.com"},
	)
	svc := newTestStudentService(repo, nil)

	_, err := svc.Update(context.Background(), 2, UpdateStudentRequest{
		FullName: "B", Email: "a@example.com", EnrollmentDate: "2024-01-01", Status: models.StudentStatusActive,
	})
	assert.ErrorIs(t, err, appErrors.ErrConflict)

	_, err = svc.Update(context.Background(), 2, UpdateStudentRequest{
		FullName: "B", Email: "b@example.com", EnrollmentDate: "2024-01-01", Status: models.StudentStatusActive,
	})
	assert.NoError(t, err)
}

func TestStudentServiceDeleteMissing(t *testing.T) {
	svc := newTestStudentService(newFakeStudentRepo(), nil)
	err := svc.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudentServiceGetByCodeNormalises(t *testing.T) {
	svc := newTestStudentService(newFakeStudentRepo(models.Student{ID: 4, Code: "ST004", FullName: "Dina"}), nil)

	student, err := svc.GetByCode(context.Background(), " st004 ")
	require.NoError(t, err)
	assert.Equal(t, int64(4), student.ID)

	_, err = svc.GetByCode(context.Background(), "ST404")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestStudentServiceStatistics(t *testing.T) {
	repo := newFakeStudentRepo(
		models.Student{ID: 1, FullName: "A", Gender: models.StringPtr("Male"), Status: models.StudentStatusActive},
		models.Student{ID: 2, FullName: "B", Gender: models.StringPtr("Female"), Status: models.StudentStatusInactive},
		models.Student{ID: 3, FullName: "C", Status: models.StudentStatusActive},
		models.Student{ID: 4, FullName: "D", Gender: models.StringPtr("male"), Status: models.StudentStatusActive},
	)
	svc := newTestStudentService(repo, nil)

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Gender.Total)
	assert.Equal(t, 2, stats.Gender.Counts[0].Count)
	assert.InDelta(t, 50.0, stats.Gender.Counts[0].Percent, 0.001)
	assert.Equal(t, 1, stats.Gender.Counts[2].Count)
	assert.Equal(t, 3, stats.Status.Counts[0].Count)
	assert.Contains(t, stats.Text, "Active: 3 (75.0%)")
	assert.Contains(t, stats.Text, "Inactive: 1 (25.0%)")
}

func TestStudentServiceListPagination(t *testing.T) {
	repo := newFakeStudentRepo(models.Student{ID: 1, FullName: "A"})
	svc := newTestStudentService(repo, nil)

	students, pagination, err := svc.List(context.Background(), models.StudentFilter{PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, students, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}
