package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/pkg/database"
)

func TestEnrollmentRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"enrollment_id", "student_id", "subject_id", "semester", "enrollment_year", "grade", "subject_code", "subject_name", "subject_section", "credits"}).
		AddRow(2, 1, 11, "Semester 1", 2024, "A", "CS201", "Data Structures", "A", 3).
		AddRow(1, 1, 10, "Semester 2", 2023, nil, "CS101", "Programming", "A", 4)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY e.enrollment_year DESC, e.semester")).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	list, err := repo.ListByStudent(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].Grade)
	assert.Equal(t, models.GradeA, *list[0].Grade)
	assert.Nil(t, list[1].Grade)
	assert.Equal(t, "Data Structures", list[0].SubjectName)
	assert.Equal(t, 4, list[1].Credits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryIsEnrolled(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	query := regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE student_id = ? AND subject_id = ? AND semester = ? AND enrollment_year = ? LIMIT 1")
	mock.ExpectQuery(query).WithArgs(int64(1), int64(2), "Semester 1", 2024).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))
	mock.ExpectQuery(query).WithArgs(int64(1), int64(2), "Semester 2", 2024).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	enrolled, err := repo.IsEnrolled(context.Background(), 1, 2, "Semester 1", 2024)
	require.NoError(t, err)
	assert.True(t, enrolled)

	enrolled, err = repo.IsEnrolled(context.Background(), 1, 2, "Semester 2", 2024)
	require.NoError(t, err)
	assert.False(t, enrolled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectQuery("INSERT INTO enrollments").
		WithArgs(int64(1), int64(2), "Semester 1", 2024, nil).
		WillReturnRows(sqlmock.NewRows([]string{"enrollment_id"}).AddRow(5))
	mock.ExpectQuery("INSERT INTO enrollments").
		WillReturnError(errors.New("FOREIGN KEY constraint failed"))

	enrollment := &models.Enrollment{StudentID: 1, SubjectID: 2, Semester: "Semester 1", Year: 2024}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	assert.Equal(t, int64(5), enrollment.ID)

	err := repo.Create(context.Background(), &models.Enrollment{StudentID: 99, SubjectID: 2, Semester: "Semester 1", Year: 2024})
	assert.ErrorIs(t, err, database.ErrForeignKeyViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUpdateGrade(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	grade := models.GradeBPlus
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET grade = ? WHERE enrollment_id = ?")).
		WithArgs("B+", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET grade = ? WHERE enrollment_id = ?")).
		WithArgs(nil, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET grade = ? WHERE enrollment_id = ?")).
		WithArgs(nil, int64(6)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateGrade(context.Background(), 5, &grade))
	require.NoError(t, repo.UpdateGrade(context.Background(), 5, nil))
	assert.ErrorIs(t, repo.UpdateGrade(context.Background(), 6, nil), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("DELETE FROM enrollments").WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}
