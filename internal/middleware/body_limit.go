package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/dto"
)

// BodyLimit rejects bodies larger than maxBytes. A declared Content-Length
// over the limit is refused up front; chunked bodies fail when the handler
// reads past the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(dto.ErrPayloadTooLarge))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
