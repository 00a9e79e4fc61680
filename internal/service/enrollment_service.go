package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studentms/internal/gpa"
	"github.com/noah-isme/studentms/internal/models"
	appErrors "github.com/noah-isme/studentms/pkg/errors"
)

type enrollmentRepository interface {
	ListByStudent(ctx context.Context, studentID int64) ([]models.EnrollmentDetail, error)
	FindByID(ctx context.Context, id int64) (*models.Enrollment, error)
	IsEnrolled(ctx context.Context, studentID, subjectID int64, semester string, year int) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateGrade(ctx context.Context, id int64, grade *models.Grade) error
	Delete(ctx context.Context, id int64) error
}

type studentReader interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
}

// EnrollRequest registers a student into a subject for a semester.
type EnrollRequest struct {
	StudentID int64  `json:"student_id" validate:"required,gt=0"`
	SubjectID int64  `json:"subject_id" validate:"required,gt=0"`
	Semester  string `json:"semester" validate:"required,oneof='Semester 1' 'Semester 2' Summer"`
	Year      int    `json:"enrollment_year" validate:"required,min=1900,max=2100"`
	Grade     string `json:"grade"`
}

// UpdateGradeRequest sets a grade; empty or "N/A" clears it.
type UpdateGradeRequest struct {
	Grade string `json:"grade"`
}

// StudentEnrollments is the enrollment list of one student with the GPA over it.
type StudentEnrollments struct {
	Student     *models.Student           `json:"student"`
	Enrollments []models.EnrollmentDetail `json:"enrollments"`
	GPA         float64                   `json:"gpa"`
	GPADisplay  string                    `json:"gpa_display"`
}

// EnrollmentService manages enrollments and grades.
type EnrollmentService struct {
	repo      enrollmentRepository
	students  studentReader
	subjects  subjectReader
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs the enrollment service. cache may be nil.
func NewEnrollmentService(repo enrollmentRepository, students studentReader, subjects subjectReader, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, subjects: subjects, cache: cache, validator: validate, logger: logger}
}

// Enroll registers a student into a subject, optionally graded.
func (s *EnrollmentService) Enroll(ctx context.Context, req EnrollRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid enrollment payload")
	}
	grade, ok := models.NormalizeGrade(req.Grade)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade must be one of "+strings.Join(gradeLabels(), ", "))
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return nil, storageError(err, "student", "load student")
	}
	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		return nil, storageError(err, "subject", "load subject")
	}

	enrolled, err := s.repo.IsEnrolled(ctx, req.StudentID, req.SubjectID, req.Semester, req.Year)
	if err != nil {
		return nil, storageError(err, "enrollment", "check enrollment")
	}
	if enrolled {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already enrolled in this subject for the semester")
	}

	enrollment := &models.Enrollment{
		StudentID: req.StudentID,
		SubjectID: req.SubjectID,
		Semester:  req.Semester,
		Year:      req.Year,
		Grade:     grade,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, storageError(err, "enrollment", "create enrollment")
	}
	s.cache.InvalidateTranscript(ctx, req.StudentID)
	s.logger.Info("student enrolled",
		zap.Int64("student_id", req.StudentID),
		zap.Int64("subject_id", req.SubjectID),
		zap.String("semester", req.Semester),
		zap.Int("year", req.Year),
	)
	return enrollment, nil
}

// UpdateGrade sets or clears the grade of an enrollment.
func (s *EnrollmentService) UpdateGrade(ctx context.Context, id int64, req UpdateGradeRequest) (*models.Enrollment, error) {
	grade, ok := models.NormalizeGrade(req.Grade)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "grade must be one of "+strings.Join(gradeLabels(), ", "))
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "enrollment", "load enrollment")
	}
	if err := s.repo.UpdateGrade(ctx, id, grade); err != nil {
		return nil, storageError(err, "enrollment", "update grade")
	}
	enrollment.Grade = grade
	s.cache.InvalidateTranscript(ctx, enrollment.StudentID)
	return enrollment, nil
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, id int64) error {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storageError(err, "enrollment", "load enrollment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "enrollment", "delete enrollment")
	}
	s.cache.InvalidateTranscript(ctx, enrollment.StudentID)
	return nil
}

// ListByStudent returns a student's enrollments, newest year first, with the overall GPA.
func (s *EnrollmentService) ListByStudent(ctx context.Context, studentID int64) (*StudentEnrollments, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, storageError(err, "student", "load student")
	}
	rows, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, storageError(err, "enrollment", "list enrollments")
	}
	if rows == nil {
		rows = []models.EnrollmentDetail{}
	}
	transcript := gpa.Summarize(gpa.FromEnrollments(rows))
	return &StudentEnrollments{
		Student:     student,
		Enrollments: rows,
		GPA:         transcript.CGPA,
		GPADisplay:  gpa.Display(transcript.CGPA, transcript.GradedCredits),
	}, nil
}

func gradeLabels() []string {
	labels := make([]string, 0, len(models.GradeScale)+1)
	for _, g := range models.GradeScale {
		labels = append(labels, string(g))
	}
	return append(labels, string(models.GradeUngraded))
}
