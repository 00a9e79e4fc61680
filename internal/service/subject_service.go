package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studentms/internal/models"
	appErrors "github.com/noah-isme/studentms/pkg/errors"
)

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error)
	FindByID(ctx context.Context, id int64) (*models.Subject, error)
	ExistsByCodeSection(ctx context.Context, code, section string, excludeID int64) (bool, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id int64) error
}

// CreateSubjectRequest is the payload for adding a subject section.
type CreateSubjectRequest struct {
	Code        string `json:"subject_code" validate:"required,max=20"`
	Name        string `json:"subject_name" validate:"required,max=100"`
	Section     string `json:"subject_section" validate:"omitempty,max=10"`
	Credits     int    `json:"credits" validate:"required,min=1,max=6"`
	Description string `json:"description"`
	CourseID    *int64 `json:"course_id" validate:"omitempty,gt=0"`
}

// UpdateSubjectRequest edits a subject. Code and section are fixed.
type UpdateSubjectRequest struct {
	Name        string `json:"subject_name" validate:"required,max=100"`
	Credits     int    `json:"credits" validate:"required,min=1,max=6"`
	Description string `json:"description"`
	CourseID    *int64 `json:"course_id" validate:"omitempty,gt=0"`
}

// SubjectService manages the subject catalog.
type SubjectService struct {
	repo      subjectRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs the subject service. cache may be nil.
func NewSubjectService(repo subjectRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns subjects, optionally filtered.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	subjects, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storageError(err, "subject", "list subjects")
	}
	return subjects, nil
}

// Get returns one subject.
func (s *SubjectService) Get(ctx context.Context, id int64) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "subject", "load subject")
	}
	return subject, nil
}

// Create adds a subject section; (code, section) must be unique.
func (s *SubjectService) Create(ctx context.Context, req CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	section := strings.ToUpper(strings.TrimSpace(req.Section))
	exists, err := s.repo.ExistsByCodeSection(ctx, code, section, 0)
	if err != nil {
		return nil, storageError(err, "subject", "validate subject code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "subject code and section already used")
	}
	subject := &models.Subject{
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Section:     section,
		Credits:     req.Credits,
		Description: models.StringPtr(strings.TrimSpace(req.Description)),
		CourseID:    req.CourseID,
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, storageError(err, "subject", "create subject")
	}
	return subject, nil
}

// Update edits a subject. Credit changes alter every transcript that includes it.
func (s *SubjectService) Update(ctx context.Context, id int64, req UpdateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid subject payload")
	}
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "subject", "load subject")
	}
	subject.Name = strings.TrimSpace(req.Name)
	subject.Credits = req.Credits
	subject.Description = models.StringPtr(strings.TrimSpace(req.Description))
	subject.CourseID = req.CourseID
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, storageError(err, "subject", "update subject")
	}
	s.cache.InvalidateAll(ctx)
	return subject, nil
}

// Delete removes a subject and its enrollments.
func (s *SubjectService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "subject", "delete subject")
	}
	s.cache.InvalidateAll(ctx)
	s.logger.Info("subject deleted", zap.Int64("subject_id", id))
	return nil
}
