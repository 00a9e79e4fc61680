package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studentms/internal/service"
)

// unmatchedRoute labels requests that hit no registered route, keeping raw URLs out of label values.
const unmatchedRoute = "unmatched"

// Metrics records request count and latency per route pattern.
// The Prometheus scrape endpoint itself is not observed.
func Metrics(metrics *service.MetricsService, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			return
		}
		if route == "" {
			route = unmatchedRoute
		}
		metrics.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
