package middleware

import (
	"time"

	"storefront/internal/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records every request against its route pattern.
func MetricsMiddleware(collector *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		collector.RecordRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
