// Package router registers middleware and routes on the gin engine.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/config"
	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/handler"
	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/middleware"
)

// Router wires handlers onto an engine.
type Router struct {
	engine *gin.Engine
	cfg    *config.Config
	logger *zap.Logger
}

// New creates a Router.
func New(engine *gin.Engine, cfg *config.Config, logger *zap.Logger) *Router {
	// Handlers pass *gin.Context as context.Context; fall back to the
	// request context so the trace logger is visible to the toolkit.
	engine.ContextWithFallback = true
	return &Router{
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}
}

// RegisterMiddleware installs Recovery → Trace → Logger → CORS → Metrics.
func (r *Router) RegisterMiddleware() {
	r.engine.Use(
		middleware.Recovery(),
		middleware.Trace(),
		middleware.Logger(),
		middleware.CORS(),
		middleware.Metrics(),
	)
}

// RegisterRoutes mounts the probes, /metrics and the toolkit API.
func (r *Router) RegisterRoutes(healthHandler *handler.HealthHandler, sigkitHandler *handler.SigkitHandler) {
	r.engine.GET("/health/live", healthHandler.Live)
	r.engine.GET("/health/ready", healthHandler.Ready)

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.engine.Group("/api/v1")
	v1.Use(middleware.BodyLimit(r.cfg.Limits.MaxBodyBytes))
	{
		v1.POST("/units/convert", sigkitHandler.ConvertUnits)
		v1.POST("/hash", sigkitHandler.Hash)

		signatures := v1.Group("/signatures")
		{
			signatures.POST("/classify", sigkitHandler.ClassifySignature)
			signatures.POST("/parse", sigkitHandler.ParseSignature)
		}

		v1.POST("/messages/classify", sigkitHandler.ClassifyMessage)
		v1.POST("/verify", sigkitHandler.Verify)

		typedData := v1.Group("/typed-data")
		{
			typedData.POST("/encode", sigkitHandler.EncodeTypedData)
			typedData.POST("/decode", sigkitHandler.DecodeTypedData)
		}
	}

	r.logger.Debug("routes registered", zap.Int("count", len(r.engine.Routes())))
}
