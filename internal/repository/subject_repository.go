package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/pkg/database"
)

const subjectColumns = `subject_id, subject_code, subject_name, subject_section, credits, description, course_id`

// SubjectRepository handles persistence of the subject catalog.
type SubjectRepository struct {
	db *sqlx.DB
}

// NewSubjectRepository instantiates a SubjectRepository.
func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

// List returns subjects ordered by code and section.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	conditions := []string{"1=1"}
	var args []interface{}
	if filter.CourseID != nil {
		conditions = append(conditions, "course_id = ?")
		args = append(args, *filter.CourseID)
	}
	if filter.Search != "" {
		conditions = append(conditions, "(LOWER(subject_code) LIKE ? OR LOWER(subject_name) LIKE ?)")
		like := "%" + strings.ToLower(filter.Search) + "%"
		args = append(args, like, like)
	}
	query := fmt.Sprintf("SELECT %s FROM subjects WHERE %s ORDER BY subject_code, subject_section", subjectColumns, strings.Join(conditions, " AND "))

	var subjects []models.Subject
	if err := r.db.SelectContext(ctx, &subjects, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	return subjects, nil
}

// FindByID returns a subject by ID.
func (r *SubjectRepository) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	var subject models.Subject
	if err := r.db.GetContext(ctx, &subject, r.db.Rebind("SELECT "+subjectColumns+" FROM subjects WHERE subject_id = ?"), id); err != nil {
		return nil, err
	}
	return &subject, nil
}

// ExistsByCodeSection checks whether the (code, section) pair is taken, optionally excluding an ID.
func (r *SubjectRepository) ExistsByCodeSection(ctx context.Context, code, section string, excludeID int64) (bool, error) {
	query := "SELECT 1 FROM subjects WHERE subject_code = ? AND subject_section = ?"
	args := []interface{}{code, section}
	if excludeID != 0 {
		query += " AND subject_id <> ?"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, r.db.Rebind(query+" LIMIT 1"), args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check subject code: %w", err)
	}
	return true, nil
}

// Create inserts a subject and assigns its ID.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	query := r.db.Rebind(`INSERT INTO subjects (subject_code, subject_name, subject_section, credits, description, course_id)
        VALUES (?, ?, ?, ?, ?, ?) RETURNING subject_id`)
	row := r.db.QueryRowxContext(ctx, query, subject.Code, subject.Name, subject.Section, subject.Credits, subject.Description, subject.CourseID)
	if err := row.Scan(&subject.ID); err != nil {
		return fmt.Errorf("create subject: %w", database.Classify(err))
	}
	return nil
}

// Update modifies subject details. Code and section stay as assigned.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	query := r.db.Rebind(`UPDATE subjects SET subject_name = ?, credits = ?, description = ?, course_id = ? WHERE subject_id = ?`)
	res, err := r.db.ExecContext(ctx, query, subject.Name, subject.Credits, subject.Description, subject.CourseID, subject.ID)
	if err != nil {
		return fmt.Errorf("update subject: %w", database.Classify(err))
	}
	return requireAffected(res, "update subject")
}

// Delete removes a subject; its enrollments cascade.
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM subjects WHERE subject_id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", database.Classify(err))
	}
	return requireAffected(res, "delete subject")
}
