package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/logger"
)

const (
	// TraceIDHeader carries the trace id on requests and replies.
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the gin context key of the trace id.
	TraceIDKey = "trace_id"
)

// Trace reuses the caller's X-Trace-ID or generates one, and attaches a
// logger carrying it to the request context.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)
		c.Request = c.Request.WithContext(logger.NewContext(c.Request.Context(), zap.String(TraceIDKey, traceID)))

		c.Next()
	}
}
