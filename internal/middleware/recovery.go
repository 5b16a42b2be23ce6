// Package middleware holds the gin middleware chain of the HTTP shell.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/dto"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/logger"
)

// Recovery turns a panic into an INTERNAL_ERROR reply.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.WithContext(c.Request.Context()).Error("panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.ByteString("stack", debug.Stack()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, dto.NewErrorResponse(dto.ErrInternalError))
			}
		}()
		c.Next()
	}
}
