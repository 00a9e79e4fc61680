package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/pkg/database"
)

// ErrMalformedStudentCode is returned when the highest stored code has no numeric suffix.
var ErrMalformedStudentCode = errors.New("malformed student code")

const studentColumns = `student_id, student_code, full_name, email, phone, date_of_birth, gender, address, enrollment_date, status, course_id`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, "(LOWER(full_name) LIKE ? OR LOWER(student_code) LIKE ? OR LOWER(email) LIKE ?)")
		like := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, like, like, like)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.CourseID != nil {
		conditions = append(conditions, "course_id = ?")
		args = append(args, *filter.CourseID)
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"full_name":       "full_name",
		"student_code":    "student_code",
		"enrollment_date": "enrollment_date",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "full_name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s FROM students %s ORDER BY %s %s LIMIT %d OFFSET %d", studentColumns, where, column, order, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) FROM students "+where), args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListAll returns every student ordered by name, as used by reports and exports.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	query := "SELECT " + studentColumns + " FROM students ORDER BY full_name"
	if err := r.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student by primary key.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	var student models.Student
	query := r.db.Rebind("SELECT " + studentColumns + " FROM students WHERE student_id = ?")
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByEmail fetches a student by email address.
func (r *StudentRepository) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	var student models.Student
	query := r.db.Rebind("SELECT " + studentColumns + " FROM students WHERE email = ?")
	if err := r.db.GetContext(ctx, &student, query, email); err != nil {
		return nil, err
	}
	return &student, nil
}

// FindByCode fetches a student by student code.
func (r *StudentRepository) FindByCode(ctx context.Context, code string) (*models.Student, error) {
	var student models.Student
	query := r.db.Rebind("SELECT " + studentColumns + " FROM students WHERE student_code = ?")
	if err := r.db.GetContext(ctx, &student, query, code); err != nil {
		return nil, err
	}
	return &student, nil
}

// Authenticate returns the student whose email and code both match.
func (r *StudentRepository) Authenticate(ctx context.Context, email, code string) (*models.Student, error) {
	var student models.Student
	query := r.db.Rebind("SELECT " + studentColumns + " FROM students WHERE email = ? AND student_code = ?")
	if err := r.db.GetContext(ctx, &student, query, email, code); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByEmail checks if a student with given email exists, optionally excluding an ID.
func (r *StudentRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM students WHERE email = ?"
	args := []interface{}{email}
	if excludeID != 0 {
		query += " AND student_id <> ?"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, r.db.Rebind(query+" LIMIT 1"), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check email: %w", err)
	}
	return true, nil
}

// NextStudentCode derives the next sequential code from the highest stored one.
// Longer codes sort first so ST1000 outranks ST999.
func (r *StudentRepository) NextStudentCode(ctx context.Context) (string, error) {
	const query = `SELECT student_code FROM students WHERE student_code LIKE 'ST%' ORDER BY LENGTH(student_code) DESC, student_code DESC LIMIT 1`
	var last string
	if err := r.db.GetContext(ctx, &last, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FirstStudentCode, nil
		}
		return "", fmt.Errorf("next student code: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimPrefix(last, models.StudentCodePrefix))
	if err != nil || n < 0 {
		return "", fmt.Errorf("next student code from %q: %w", last, ErrMalformedStudentCode)
	}
	return fmt.Sprintf("%s%0*d", models.StudentCodePrefix, models.StudentCodeWidth, n+1), nil
}

// Create inserts a new student record and assigns its ID.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.Status == "" {
		student.Status = models.StudentStatusActive
	}
	query := r.db.Rebind(`INSERT INTO students (student_code, full_name, email, phone, date_of_birth, gender, address, enrollment_date, status, course_id)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING student_id`)
	row := r.db.QueryRowxContext(ctx, query,
		student.Code, student.FullName, student.Email, student.Phone, student.DateOfBirth,
		student.Gender, student.Address, student.EnrollmentDate, string(student.Status), student.CourseID)
	if err := row.Scan(&student.ID); err != nil {
		return fmt.Errorf("create student: %w", database.Classify(err))
	}
	return nil
}

// Update modifies an existing student. The student code is never rewritten.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	query := r.db.Rebind(`UPDATE students SET full_name = ?, email = ?, phone = ?, date_of_birth = ?, gender = ?, address = ?, enrollment_date = ?, status = ?, course_id = ?
        WHERE student_id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		student.FullName, student.Email, student.Phone, student.DateOfBirth, student.Gender,
		student.Address, student.EnrollmentDate, string(student.Status), student.CourseID, student.ID)
	if err != nil {
		return fmt.Errorf("update student: %w", database.Classify(err))
	}
	return requireAffected(res, "update student")
}

// Delete removes a student; enrollments cascade.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM students WHERE student_id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete student: %w", database.Classify(err))
	}
	return requireAffected(res, "delete student")
}

// requireAffected reports sql.ErrNoRows when a write touched nothing.
func requireAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, sql.ErrNoRows)
	}
	return nil
}
