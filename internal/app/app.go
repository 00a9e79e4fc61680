// Package app assembles the storage, services and HTTP router from configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/studentms/internal/handler"
	"github.com/noah-isme/studentms/internal/repository"
	"github.com/noah-isme/studentms/internal/service"
	"github.com/noah-isme/studentms/pkg/cache"
	"github.com/noah-isme/studentms/pkg/config"
	"github.com/noah-isme/studentms/pkg/database"
	"github.com/noah-isme/studentms/pkg/storage"
)

// App holds the wired services of one process.
type App struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *sqlx.DB
	Redis  *redis.Client

	Metrics     *service.MetricsService
	Auth        *service.AuthService
	Students    *service.StudentService
	Courses     *service.CourseService
	Subjects    *service.SubjectService
	Enrollments *service.EnrollmentService
	Transcripts *service.TranscriptService
	Reports     *service.ReportService
}

// New opens the database, applies the schema and builds every service.
// The Redis cache is optional: when it cannot be reached the app runs uncached.
func New(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*App, error) {
	if logr == nil {
		logr = zap.NewNop()
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	a := &App{Config: cfg, Logger: logr, DB: db, Metrics: service.NewMetricsService()}

	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("transcript cache disabled", zap.Error(err))
		} else {
			a.Redis = client
		}
	}
	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(a.Redis, "studentms", logr),
		a.Metrics,
		cfg.Cache.TTL,
		logr,
		a.Redis != nil,
	)

	store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("prepare report storage: %w", err)
	}

	credentials, err := service.NewMemoryCredentialStore(cfg.Auth)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("load credentials: %w", err)
	}

	validate := validator.New()
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	a.Auth = service.NewAuthService(credentials, studentRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	a.Students = service.NewStudentService(studentRepo, cacheSvc, validate, logr)
	a.Courses = service.NewCourseService(repository.NewCourseRepository(db), cacheSvc, validate, logr)
	a.Subjects = service.NewSubjectService(subjectRepo, cacheSvc, validate, logr)
	a.Enrollments = service.NewEnrollmentService(enrollmentRepo, studentRepo, subjectRepo, cacheSvc, validate, logr)
	a.Transcripts = service.NewTranscriptService(studentRepo, enrollmentRepo, cacheSvc, a.Metrics, logr)
	a.Reports = service.NewReportService(
		a.Students,
		a.Transcripts,
		store,
		storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL),
		a.Metrics,
		logr,
		service.ReportServiceConfig{APIPrefix: cfg.APIPrefix},
	)
	return a, nil
}

// Router builds the HTTP API over the app's services.
func (a *App) Router() *gin.Engine {
	handlers := handler.Handlers{
		Auth:        handler.NewAuthHandler(a.Auth),
		Students:    handler.NewStudentHandler(a.Students),
		Courses:     handler.NewCourseHandler(a.Courses),
		Subjects:    handler.NewSubjectHandler(a.Subjects),
		Enrollments: handler.NewEnrollmentHandler(a.Enrollments),
		Transcripts: handler.NewTranscriptHandler(a.Transcripts),
		Reports:     handler.NewReportHandler(a.Reports, a.Logger),
		Ops:         handler.NewOpsHandler(a.Metrics, a.DB),
	}
	return handler.NewRouter(handler.RouterConfig{
		APIPrefix:      a.Config.APIPrefix,
		AllowedOrigins: a.Config.CORS.AllowedOrigins,
		EnableDocs:     a.Config.Env != config.EnvProduction,
	}, handlers, a.Auth, a.Metrics, a.Logger)
}

// Close releases the database and cache connections.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
