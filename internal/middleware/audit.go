package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/studentms/pkg/middleware/requestid"
)

// Audit logs successful writes against resource with the acting principal.
// Failed requests are left to the request logger.
func Audit(logger *zap.Logger, resource string) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("audit")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status >= 400 {
			return
		}

		fields := []zap.Field{
			zap.String("resource", resource),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("resource_id", c.Param("id")),
			zap.Int("status", status),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", requestid.Value(c)),
		}
		if claims := Claims(c); claims != nil {
			fields = append(fields, zap.String("actor", claims.Username), zap.String("role", string(claims.Role)))
		}
		logger.Info("write audited", fields...)
	}
}
