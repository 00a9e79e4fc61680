package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/studentms/internal/models"
	"github.com/noah-isme/studentms/internal/service"
	appErrors "github.com/noah-isme/studentms/pkg/errors"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newProtectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	studentID := int64(7)
	validator := stubValidator{
		"admin":   {Username: "admin", Role: models.RoleAdmin},
		"student": {Username: "ST007", Role: models.RoleStudent, StudentID: &studentID},
		"shared":  {Username: "student", Role: models.RoleStudent},
	}
	r := gin.New()
	r.GET("/students/:id/transcript", JWT(validator), RBAC(string(models.RoleAdmin), string(models.RoleLecturer), Self), func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).Username)
	})
	r.GET("/students", JWT(validator), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func doRequest(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTRequiresBearerToken(t *testing.T) {
	r := newProtectedRouter()

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/students", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/students", "bogus").Code)

	req := httptest.NewRequest(http.MethodGet, "/students", nil)
	req.Header.Set("Authorization", "Basic abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRBACRolesAndSelf(t *testing.T) {
	r := newProtectedRouter()

	assert.Equal(t, http.StatusOK, doRequest(r, "/students", "admin").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/students", "student").Code)

	assert.Equal(t, http.StatusOK, doRequest(r, "/students/3/transcript", "admin").Code)
	rec := doRequest(r, "/students/7/transcript", "student")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ST007", rec.Body.String())
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/students/8/transcript", "student").Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/students/7/transcript", "shared").Code)
}

func TestMetricsMiddlewareRecordsRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/students/:id", func(c *gin.Context) {
		time.Sleep(time.Millisecond)
		c.Status(http.StatusNoContent)
	})

	doRequest(r, "/students/1", "")
	doRequest(r, "/students/2", "")
	doRequest(r, "/nowhere/42", "")
	assert.Equal(t, uint64(3), metrics.Snapshot().RequestsTotal)

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	paths := map[string]bool{}
	for _, family := range families {
		if family.GetName() != "studentms_http_requests_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "path" {
					paths[label.GetValue()] = true
				}
			}
		}
	}
	assert.Equal(t, map[string]bool{"/students/:id": true, unmatchedRoute: true}, paths)
}

func TestMetricsMiddlewareSkipsScrapeEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	doRequest(r, "/metrics", "")
	assert.Zero(t, metrics.Snapshot().RequestsTotal)
}

func TestResponseMetaCollectsCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/x", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	doRequest(r, "/x", "")
	assert.Equal(t, true, meta[cacheHitKey])
	assert.Contains(t, meta, processingTimeMs)
}

func TestAuditLogsSuccessfulWritesOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	validator := stubValidator{"admin": {Username: "admin", Role: models.RoleAdmin}}

	r := gin.New()
	r.DELETE("/students/:id", JWT(validator), Audit(zap.New(core), "student"), func(c *gin.Context) {
		if c.Param("id") == "404" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusNoContent)
	})

	for _, id := range []string{"5", "404"} {
		req := httptest.NewRequest(http.MethodDelete, "/students/"+id, nil)
		req.Header.Set("Authorization", "Bearer admin")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.FilterMessage("write audited").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "student", fields["resource"])
	assert.Equal(t, "5", fields["resource_id"])
	assert.Equal(t, "admin", fields["actor"])
	assert.Equal(t, "ADMIN", fields["role"])
}
