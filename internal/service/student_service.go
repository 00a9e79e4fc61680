package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/internal/report"
	appErrors "github.com/noah-isme/studentms/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	ListAll(ctx context.Context) ([]models.Student, error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	FindByCode(ctx context.Context, code string) (*models.Student, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	NextStudentCode(ctx context.Context) (string, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

// CreateStudentRequest holds payload for registering students. The code is generated.
type CreateStudentRequest struct {
	FullName       string               `json:"full_name" validate:"required,max=100"`
	Email          string               `json:"email" validate:"required,email"`
	Phone          string               `json:"phone" validate:"omitempty,max=20"`
	DateOfBirth    string               `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender         string               `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Address        string               `json:"address" validate:"omitempty,max=255"`
	EnrollmentDate string               `json:"enrollment_date" validate:"omitempty,datetime=2006-01-02"`
	Status         models.StudentStatus `json:"status" validate:"omitempty,oneof=Active Inactive"`
	CourseID       *int64               `json:"course_id" validate:"omitempty,gt=0"`
}

// UpdateStudentRequest holds payload for updating students. Codes cannot change.
type UpdateStudentRequest struct {
	FullName       string               `json:"full_name" validate:"required,max=100"`
	Email          string               `json:"email" validate:"required,email"`
	Phone          string               `json:"phone" validate:"omitempty,max=20"`
	DateOfBirth    string               `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender         string               `json:"gender" validate:"omitempty,oneof=Male Female Other"`
	Address        string               `json:"address" validate:"omitempty,max=255"`
	EnrollmentDate string               `json:"enrollment_date" validate:"required,datetime=2006-01-02"`
	Status         models.StudentStatus `json:"status" validate:"required,oneof=Active Inactive"`
	CourseID       *int64               `json:"course_id" validate:"omitempty,gt=0"`
}

// StudentStatistics bundles the roster distributions.
type StudentStatistics struct {
	Gender report.Statistics `json:"gender"`
	Status report.Statistics `json:"status"`
	Text   string            `json:"text"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudentService constructs the student service. cache may be nil.
func NewStudentService(repo studentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, cache: cache, validator: validate, logger: logger, now: time.Now}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, storageError(err, "student", "list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// All returns every student ordered by name.
func (s *StudentService) All(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, storageError(err, "student", "load students")
	}
	return students, nil
}

// Get returns a single student.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "student", "load student")
	}
	return student, nil
}

// GetByCode resolves a student from a code such as "st001".
func (s *StudentService) GetByCode(ctx context.Context, code string) (*models.Student, error) {
	student, err := s.repo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, storageError(err, "student", "load student")
	}
	return student, nil
}

// NextCode previews the code the next registration will receive.
func (s *StudentService) NextCode(ctx context.Context) (string, error) {
	code, err := s.repo.NextStudentCode(ctx)
	if err != nil {
		s.logger.Error("failed to generate student code", zap.Error(err))
		return "", storageError(err, "student", "generate student code")
	}
	return code, nil
}

// Create registers a new student with the next sequential code.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	email := strings.TrimSpace(req.Email)
	exists, err := s.repo.ExistsByEmail(ctx, email, 0)
	if err != nil {
		return nil, storageError(err, "student", "validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}

	code, err := s.NextCode(ctx)
	if err != nil {
		return nil, err
	}

	enrolled := req.EnrollmentDate
	if enrolled == "" {
		enrolled = s.now().Format("2006-01-02")
	}
	status := req.Status
	if status == "" {
		status = models.StudentStatusActive
	}
	student := &models.Student{
		Code:           code,
		FullName:       strings.TrimSpace(req.FullName),
		Email:          email,
		Phone:          models.StringPtr(strings.TrimSpace(req.Phone)),
		DateOfBirth:    models.StringPtr(req.DateOfBirth),
		Gender:         models.StringPtr(req.Gender),
		Address:        models.StringPtr(strings.TrimSpace(req.Address)),
		EnrollmentDate: enrolled,
		Status:         status,
		CourseID:       req.CourseID,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		s.logger.Warn("failed to create student", zap.String("code", code), zap.Error(err))
		return nil, storageError(err, "student code or email", "create student")
	}
	s.logger.Info("student registered", zap.Int64("student_id", student.ID), zap.String("code", student.Code))
	return student, nil
}

// Update modifies an existing student record.
func (s *StudentService) Update(ctx context.Context, id int64, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "student", "load student")
	}
	email := strings.TrimSpace(req.Email)
	exists, err := s.repo.ExistsByEmail(ctx, email, id)
	if err != nil {
		return nil, storageError(err, "student", "validate email")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already used")
	}

	student.FullName = strings.TrimSpace(req.FullName)
	student.Email = email
	student.Phone = models.StringPtr(strings.TrimSpace(req.Phone))
	student.DateOfBirth = models.StringPtr(req.DateOfBirth)
	student.Gender = models.StringPtr(req.Gender)
	student.Address = models.StringPtr(strings.TrimSpace(req.Address))
	student.EnrollmentDate = req.EnrollmentDate
	student.Status = req.Status
	student.CourseID = req.CourseID

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, storageError(err, "student", "update student")
	}
	s.cache.InvalidateTranscript(ctx, id)
	return student, nil
}

// Delete removes a student together with their enrollments.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "student", "delete student")
	}
	s.cache.InvalidateTranscript(ctx, id)
	s.logger.Info("student deleted", zap.Int64("student_id", id))
	return nil
}

// Statistics summarises the roster by gender and status.
func (s *StudentService) Statistics(ctx context.Context) (*StudentStatistics, error) {
	students, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return &StudentStatistics{
		Gender: report.GenderBreakdown(students),
		Status: report.StatusBreakdown(students),
		Text:   report.GenderStatistics(students) + "\n\n" + report.StatusStatistics(students),
	}, nil
}
