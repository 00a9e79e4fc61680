package handler

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/studentms/internal/middleware"
	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/internal/service"
	"github.com/noah-isme/studentms/pkg/logger"
	corsmiddleware "github.com/noah-isme/studentms/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/studentms/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by NewRouter.
type Handlers struct {
	Auth        *AuthHandler
	Students    *StudentHandler
	Courses     *CourseHandler
	Subjects    *SubjectHandler
	Enrollments *EnrollmentHandler
	Transcripts *TranscriptHandler
	Reports     *ReportHandler
	Ops         *OpsHandler
}

// RouterConfig controls router-wide behaviour.
type RouterConfig struct {
	APIPrefix      string
	AllowedOrigins []string
	EnableDocs     bool
}

// NewRouter wires middleware and routes.
func NewRouter(cfg RouterConfig, h Handlers, tokens middleware.TokenValidator, metrics *service.MetricsService, logr *zap.Logger) *gin.Engine {
	if logr == nil {
		logr = zap.NewNop()
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", h.Ops.Health)
	r.GET("/metrics", h.Ops.Prometheus)
	if cfg.EnableDocs {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleLecturer)
	staffOrSelf := middleware.RBAC(string(models.RoleAdmin), string(models.RoleLecturer), middleware.Self)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/student-login", h.Auth.StudentLogin)
	api.GET("/reports/download/:token", h.Reports.Download)

	secured := api.Group("", middleware.JWT(tokens))
	secured.GET("/auth/me", h.Auth.Me)

	students := secured.Group("/students")
	students.GET("", admin, h.Students.List)
	students.POST("", admin, middleware.Audit(logr, "student"), h.Students.Create)
	students.GET("/next-code", admin, h.Students.NextCode)
	students.GET("/statistics", admin, h.Students.Statistics)
	students.GET("/:id", staffOrSelf, h.Students.Get)
	students.PUT("/:id", admin, middleware.Audit(logr, "student"), h.Students.Update)
	students.DELETE("/:id", admin, middleware.Audit(logr, "student"), h.Students.Delete)
	students.GET("/:id/enrollments", staffOrSelf, h.Enrollments.ListByStudent)
	students.GET("/:id/transcript", staffOrSelf, h.Transcripts.Get)
	students.POST("/:id/grade-report", staffOrSelf, h.Reports.GradeReport)

	courses := secured.Group("/courses")
	courses.GET("", staff, h.Courses.List)
	courses.GET("/:id", staff, h.Courses.Get)
	courseAudit := middleware.Audit(logr, "course")
	courses.POST("", admin, courseAudit, h.Courses.Create)
	courses.PUT("/:id", admin, courseAudit, h.Courses.Update)
	courses.DELETE("/:id", admin, courseAudit, h.Courses.Delete)

	subjects := secured.Group("/subjects")
	subjects.GET("", staff, h.Subjects.List)
	subjects.GET("/:id", staff, h.Subjects.Get)
	subjectAudit := middleware.Audit(logr, "subject")
	subjects.POST("", admin, subjectAudit, h.Subjects.Create)
	subjects.PUT("/:id", admin, subjectAudit, h.Subjects.Update)
	subjects.DELETE("/:id", admin, subjectAudit, h.Subjects.Delete)

	enrollments := secured.Group("/enrollments", staff, middleware.Audit(logr, "enrollment"))
	enrollments.POST("", h.Enrollments.Enroll)
	enrollments.PUT("/:id/grade", h.Enrollments.UpdateGrade)
	enrollments.DELETE("/:id", h.Enrollments.Delete)

	reports := secured.Group("/reports", admin)
	reports.POST("/roster", h.Reports.Roster)
	reports.POST("/students.csv", h.Reports.StudentsCSV)

	secured.GET("/metrics/summary", admin, h.Ops.Snapshot)

	return r
}
