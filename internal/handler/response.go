// Package handler serves the toolkit over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/dto"
	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/metrics"
)

// Success writes data in a success envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Error writes err in an error envelope.
func Error(c *gin.Context, err *dto.BizError) {
	c.JSON(err.HTTPStatus, dto.NewErrorResponse(err))
}

// BadRequest writes an INVALID_PARAMS reply carrying message.
func BadRequest(c *gin.Context, message string) {
	Error(c, dto.ErrInvalidParams.WithMessage(message))
}

// handleServiceError renders a toolkit error and counts it by kind.
func handleServiceError(c *gin.Context, err error) {
	bizErr := dto.FromError(err)
	kind := bizErr.Kind
	if kind == "" {
		kind = "Request"
	}
	metrics.RecordError(kind)
	_ = c.Error(err)
	Error(c, bizErr)
}

// GetTraceID returns the trace id set by the Trace middleware.
func GetTraceID(c *gin.Context) string {
	traceID, _ := c.Get("trace_id")
	if t, ok := traceID.(string); ok {
		return t
	}
	return ""
}
