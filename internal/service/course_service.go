package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studentms/internal/models"
	appErrors "github.com/noah-isme/studentms/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context) ([]models.Course, error)
	FindByID(ctx context.Context, id int64) (*models.Course, error)
	ExistsByCode(ctx context.Context, code string, excludeID int64) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id int64) error
}

// CreateCourseRequest is the payload for adding a course.
type CreateCourseRequest struct {
	Code        string `json:"course_code" validate:"required,max=20"`
	Name        string `json:"course_name" validate:"required,max=100"`
	Credits     *int   `json:"credits" validate:"omitempty,min=0,max=300"`
	Description string `json:"description"`
}

// UpdateCourseRequest is the payload for editing a course. The code is fixed.
type UpdateCourseRequest struct {
	Name        string `json:"course_name" validate:"required,max=100"`
	Credits     *int   `json:"credits" validate:"omitempty,min=0,max=300"`
	Description string `json:"description"`
}

// CourseService manages programmes.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service. cache may be nil.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns all courses.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, storageError(err, "course", "list courses")
	}
	return courses, nil
}

// Get returns one course.
func (s *CourseService) Get(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "course", "load course")
	}
	return course, nil
}

// Create adds a course with a unique code.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	exists, err := s.repo.ExistsByCode(ctx, code, 0)
	if err != nil {
		return nil, storageError(err, "course", "validate course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already used")
	}
	course := &models.Course{
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Credits:     req.Credits,
		Description: models.StringPtr(strings.TrimSpace(req.Description)),
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, storageError(err, "course", "create course")
	}
	return course, nil
}

// Update edits a course.
func (s *CourseService) Update(ctx context.Context, id int64, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid course payload")
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "course", "load course")
	}
	course.Name = strings.TrimSpace(req.Name)
	course.Credits = req.Credits
	course.Description = models.StringPtr(strings.TrimSpace(req.Description))
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, storageError(err, "course", "update course")
	}
	s.cache.InvalidateAll(ctx)
	return course, nil
}

// Delete removes a course; affiliated students and subjects are detached.
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "course", "delete course")
	}
	s.cache.InvalidateAll(ctx)
	s.logger.Info("course deleted", zap.Int64("course_id", id))
	return nil
}
