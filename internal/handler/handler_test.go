package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/internal/repository"
	"github.com/noah-isme/studentms/internal/service"
	"github.com/noah-isme/studentms/pkg/config"
	"github.com/noah-isme/studentms/pkg/database"
	appErrors "github.com/noah-isme/studentms/pkg/errors"
	"github.com/noah-isme/studentms/pkg/storage"
)

const apiPrefix = "/api/v1"

// roleTokens resolves fixed bearer tokens to claims and defers everything
// else to the real auth service, so issued JWTs still work.
type roleTokens struct {
	claims map[string]*models.JWTClaims
	auth   *service.AuthService
}

func (r roleTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := r.claims[token]; ok {
		return claims, nil
	}
	if r.auth != nil {
		return r.auth.ValidateToken(token)
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func studentToken(id int64) string {
	return fmt.Sprintf("student-%d", id)
}

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	logr := zap.NewNop()

	db, err := database.Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db))

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	credentials, err := service.NewMemoryCredentialStore(config.AuthConfig{
		Admin:    config.RoleCredential{Username: "admin", Password: "admin123"},
		Lecturer: config.RoleCredential{Username: "lecturer", Password: "lecturer123"},
	})
	require.NoError(t, err)

	validate := validator.New()
	metrics := service.NewMetricsService()
	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	auth := service.NewAuthService(credentials, studentRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: "handler-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "studentms",
	})
	students := service.NewStudentService(studentRepo, nil, validate, logr)
	transcripts := service.NewTranscriptService(studentRepo, enrollmentRepo, nil, metrics, logr)
	reports := service.NewReportService(students, transcripts, store,
		storage.NewSignedURLSigner("report-secret", time.Hour), metrics, logr,
		service.ReportServiceConfig{APIPrefix: apiPrefix})

	handlers := Handlers{
		Auth:        NewAuthHandler(auth),
		Students:    NewStudentHandler(students),
		Courses:     NewCourseHandler(service.NewCourseService(repository.NewCourseRepository(db), nil, validate, logr)),
		Subjects:    NewSubjectHandler(service.NewSubjectService(subjectRepo, nil, validate, logr)),
		Enrollments: NewEnrollmentHandler(service.NewEnrollmentService(enrollmentRepo, studentRepo, subjectRepo, nil, validate, logr)),
		Transcripts: NewTranscriptHandler(transcripts),
		Reports:     NewReportHandler(reports, logr),
		Ops:         NewOpsHandler(metrics, db),
	}
	tokens := roleTokens{auth: auth, claims: map[string]*models.JWTClaims{
		"admin":    {Username: "admin", Role: models.RoleAdmin},
		"lecturer": {Username: "lecturer", Role: models.RoleLecturer},
	}}
	for id := int64(1); id <= 3; id++ {
		studentID := id
		tokens.claims[studentToken(id)] = &models.JWTClaims{Username: fmt.Sprintf("ST%03d", id), Role: models.RoleStudent, StudentID: &studentID}
	}
	return NewRouter(RouterConfig{APIPrefix: apiPrefix}, handlers, tokens, metrics, logr)
}

// performRequest sends body verbatim; an empty token sends no Authorization header.
func performRequest(t *testing.T, router http.Handler, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, apiPrefix+path, bytes.NewBufferString(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, dest))
}

func requireError(t *testing.T, rec *httptest.ResponseRecorder, env envelope, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	require.NotNil(t, env.Error, rec.Body.String())
	require.Equal(t, code, env.Error.Code)
	require.Nil(t, env.Data)
}

func createStudent(t *testing.T, router http.Handler, name, email string) models.Student {
	t.Helper()
	body := fmt.Sprintf(`{"full_name":%q,"email":%q,"gender":"Female","enrollment_date":"2024-01-10"}`, name, email)
	rec, env := performRequest(t, router, http.MethodPost, "/students", "admin", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var student models.Student
	decodeData(t, env, &student)
	return student
}

func createSubject(t *testing.T, router http.Handler, code string, credits int) models.Subject {
	t.Helper()
	body := fmt.Sprintf(`{"subject_code":%q,"subject_name":"Subject %s","subject_section":"A","credits":%d}`, code, code, credits)
	rec, env := performRequest(t, router, http.MethodPost, "/subjects", "admin", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var subject models.Subject
	decodeData(t, env, &subject)
	return subject
}

func enroll(t *testing.T, router http.Handler, studentID, subjectID int64, semester string, year int, grade string) models.Enrollment {
	t.Helper()
	body := fmt.Sprintf(`{"student_id":%d,"subject_id":%d,"semester":%q,"enrollment_year":%d,"grade":%q}`, studentID, subjectID, semester, year, grade)
	rec, env := performRequest(t, router, http.MethodPost, "/enrollments", "lecturer", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var enrollment models.Enrollment
	decodeData(t, env, &enrollment)
	return enrollment
}

func mustField(t *testing.T, raw json.RawMessage, name string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	value, ok := fields[name]
	require.True(t, ok, "missing field %q in %s", name, raw)
	return value
}
