package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/pkg/database"
)

// EnrollmentRepository persists student registrations into subjects.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new repository instance.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// ListByStudent returns a student's enrollments joined with their subjects,
// newest year first.
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error) {
	query := r.db.Rebind(`SELECT e.enrollment_id, e.student_id, e.subject_id, e.semester, e.enrollment_year, e.grade,
        s.subject_code, s.subject_name, s.subject_section, s.credits
        FROM enrollments e
        JOIN subjects s ON s.subject_id = e.subject_id
        WHERE e.student_id = ?
        ORDER BY e.enrollment_year DESC, e.semester`)
	var rows []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return rows, nil
}

// FindByID retrieves an enrollment by ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	query := r.db.Rebind(`SELECT enrollment_id, student_id, subject_id, semester, enrollment_year, grade FROM enrollments WHERE enrollment_id = ?`)
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// IsEnrolled reports whether the student already holds this subject in the given term.
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, studentID, subjectID int64, semester string, year int) (bool, error) {
	query := r.db.Rebind(`SELECT 1 FROM enrollments WHERE student_id = ? AND subject_id = ? AND semester = ? AND enrollment_year = ? LIMIT 1`)
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, subjectID, semester, year); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// Create enrolls a student into a subject and assigns the enrollment ID.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	query := r.db.Rebind(`INSERT INTO enrollments (student_id, subject_id, semester, enrollment_year, grade)
        VALUES (?, ?, ?, ?, ?) RETURNING enrollment_id`)
	row := r.db.QueryRowxContext(ctx, query, enrollment.StudentID, enrollment.SubjectID, enrollment.Semester, enrollment.Year, gradeArg(enrollment.Grade))
	if err := row.Scan(&enrollment.ID); err != nil {
		return fmt.Errorf("create enrollment: %w", database.Classify(err))
	}
	return nil
}

// UpdateGrade sets or clears (nil) the grade of an enrollment.
func (r *EnrollmentRepository) UpdateGrade(ctx context.Context, id int64, grade *models.Grade) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("UPDATE enrollments SET grade = ? WHERE enrollment_id = ?"), gradeArg(grade), id)
	if err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return requireAffected(res, "update grade")
}

// Delete removes an enrollment.
func (r *EnrollmentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM enrollments WHERE enrollment_id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return requireAffected(res, "delete enrollment")
}

// gradeArg binds a grade as plain text, or NULL when ungraded.
func gradeArg(g *models.Grade) interface{} {
	if g == nil || *g == models.GradeUngraded {
		return nil
	}
	return string(*g)
}
