package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/metrics"
)

// Metrics records request count, latency and size per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		reqSize := c.Request.ContentLength

		c.Next()

		// Template path keeps label cardinality bounded.
		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}

		metrics.RecordHTTPRequest(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
			reqSize,
		)
	}
}
