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

const courseColumns = `course_id, course_code, course_name, credits, description`

// CourseRepository manages persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns all courses ordered by code.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, "SELECT "+courseColumns+" FROM courses ORDER BY course_code"); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindByID fetches a course by primary key.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.Course, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, r.db.Rebind("SELECT "+courseColumns+" FROM courses WHERE course_id = ?"), id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ExistsByCode checks whether a course code is taken, optionally excluding an ID.
func (r *CourseRepository) ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM courses WHERE course_code = ?"
	args := []interface{}{code}
	if excludeID != 0 {
		query += " AND course_id <> ?"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, r.db.Rebind(query+" LIMIT 1"), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check course code: %w", err)
	}
	return true, nil
}

// Create inserts a course and assigns its ID.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	query := r.db.Rebind(`INSERT INTO courses (course_code, course_name, credits, description) VALUES (?, ?, ?, ?) RETURNING course_id`)
	if err := r.db.QueryRowxContext(ctx, query, course.Code, course.Name, course.Credits, course.Description).Scan(&course.ID); err != nil {
		return fmt.Errorf("create course: %w", database.Classify(err))
	}
	return nil
}

// Update modifies an existing course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	query := r.db.Rebind(`UPDATE courses SET course_name = ?, credits = ?, description = ? WHERE course_id = ?`)
	res, err := r.db.ExecContext(ctx, query, course.Name, course.Credits, course.Description, course.ID)
	if err != nil {
		return fmt.Errorf("update course: %w", database.Classify(err))
	}
	return requireAffected(res, "update course")
}

// Delete removes a course. Students and subjects keep a NULL course reference.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM courses WHERE course_id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete course: %w", database.Classify(err))
	}
	return requireAffected(res, "delete course")
}
