package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/pkg/database"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var studentRowColumns = []string{"student_id", "student_code", "full_name", "email", "phone", "date_of_birth", "gender", "address", "enrollment_date", "status", "course_id"}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows(studentRowColumns).
		AddRow(1, "ST001", "Ada Lovelace", "ada@example.com", "555", "1990-01-01", "Female", "London", "2024-01-10", "Active", nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE 1=1 AND (LOWER(full_name) LIKE ? OR LOWER(student_code) LIKE ? OR LOWER(email) LIKE ?) AND status = ? ORDER BY full_name ASC LIMIT 20 OFFSET 0")).
		WithArgs("%ada%", "%ada%", "%ada%", models.StudentStatusActive).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE 1=1")).
		WithArgs("%ada%", "%ada%", "%ada%", models.StudentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Search: "Ada", Status: models.StudentStatusActive})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "ST001", students[0].Code)
	assert.Equal(t, models.StudentStatusActive, students[0].Status)
	assert.Equal(t, "555", models.Deref(students[0].Phone))
	assert.Nil(t, students[0].CourseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListSortAndPaging(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY student_code DESC LIMIT 10 OFFSET 10")).
		WillReturnRows(sqlmock.NewRows(studentRowColumns))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	_, total, err := repo.List(context.Background(), models.StudentFilter{SortBy: "student_code", SortOrder: "desc", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("INSERT INTO students").
		WithArgs("ST001", "Ada", "ada@example.com", nil, nil, nil, nil, "2024-01-10", models.StudentStatusActive, nil).
		WillReturnRows(sqlmock.NewRows([]string{"student_id"}).AddRow(7))

	student := &models.Student{Code: "ST001", FullName: "Ada", Email: "ada@example.com", EnrollmentDate: "2024-01-10"}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.Equal(t, int64(7), student.ID)
	assert.Equal(t, models.StudentStatusActive, student.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("INSERT INTO students").
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: students.email (2067)"))

	err := repo.Create(context.Background(), &models.Student{Code: "ST002", Email: "ada@example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrUniqueViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryNextStudentCode(t *testing.T) {
	cases := []struct {
		name    string
		rows    *sqlmock.Rows
		want    string
		wantErr error
	}{
		{name: "empty table", rows: sqlmock.NewRows([]string{"student_code"}), want: "ST001"},
		{name: "increments", rows: sqlmock.NewRows([]string{"student_code"}).AddRow("ST007"), want: "ST008"},
		{name: "carries", rows: sqlmock.NewRows([]string{"student_code"}).AddRow("ST099"), want: "ST100"},
		{name: "widens past 999", rows: sqlmock.NewRows([]string{"student_code"}).AddRow("ST999"), want: "ST1000"},
		{name: "malformed", rows: sqlmock.NewRows([]string{"student_code"}).AddRow("STX12"), wantErr: ErrMalformedStudentCode},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, cleanup := newMockDB(t)
			defer cleanup()
			repo := NewStudentRepository(db)

			mock.ExpectQuery(regexp.QuoteMeta("ORDER BY LENGTH(student_code) DESC, student_code DESC LIMIT 1")).
				WillReturnRows(tc.rows)

			code, err := repo.NextStudentCode(context.Background())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStudentRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students SET").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Student{ID: 42, FullName: "Nobody"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE student_id = ?")).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), 3))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryAuthenticate(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = ? AND student_code = ?")).
		WithArgs("ada@example.com", "ST001").
		WillReturnRows(sqlmock.NewRows(studentRowColumns).
			AddRow(1, "ST001", "Ada", "ada@example.com", nil, nil, nil, nil, "2024-01-10", "Active", 2))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = ? AND student_code = ?")).
		WithArgs("ada@example.com", "ST002").
		WillReturnRows(sqlmock.NewRows(studentRowColumns))

	student, err := repo.Authenticate(context.Background(), "ada@example.com", "ST001")
	require.NoError(t, err)
	require.NotNil(t, student.CourseID)
	assert.Equal(t, int64(2), *student.CourseID)

	_, err = repo.Authenticate(context.Background(), "ada@example.com", "ST002")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByCode(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE student_code = ?")).
		WithArgs("ST007").
		WillReturnRows(sqlmock.NewRows(studentRowColumns).
			AddRow(7, "ST007", "Grace", "grace@example.com", nil, nil, nil, nil, "2024-01-10", "Active", nil))

	student, err := repo.FindByCode(context.Background(), "ST007")
	require.NoError(t, err)
	assert.Equal(t, int64(7), student.ID)
	assert.Nil(t, student.CourseID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByEmail(t *testing.T) {
	db, mock, cleanup := newMockDB(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE email = ? AND student_id <> ? LIMIT 1")).
		WithArgs("ada@example.com", int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err := repo.ExistsByEmail(context.Background(), "ada@example.com", 5)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
