// Package app manages the lifecycle of the sigkit HTTP service.
package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/config"
	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/handler"
	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/router"
	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/service"
)

// App is one running service instance.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	httpServer *http.Server
	engine     *gin.Engine
	listener   net.Listener

	toolkit *service.Toolkit

	healthHandler *handler.HealthHandler
	sigkitHandler *handler.SigkitHandler
}

// New creates an App. Nothing is started until Start.
func New(cfg *config.Config, logger *zap.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Start builds the toolkit, runs its self test and serves HTTP in the
// background.
func (a *App) Start(ctx context.Context) error {
	if err := a.initDependencies(); err != nil {
		return fmt.Errorf("init dependencies: %w", err)
	}

	a.initHTTPServer()

	ln, err := net.Listen("tcp", a.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.httpServer.Addr, err)
	}
	a.listener = ln

	a.healthHandler.SetReady(true)

	go func() {
		a.logger.Info("starting HTTP server", zap.String("addr", ln.Addr().String()))
		if err := a.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop drains in-flight requests. Safe to call on an App that never started.
func (a *App) Stop(ctx context.Context) error {
	a.logger.Info("stopping application")

	if a.healthHandler != nil {
		a.healthHandler.SetReady(false)
	}

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(ctx); err != nil {
			a.logger.Error("HTTP server shutdown error", zap.Error(err))
			return err
		}
	}

	a.logger.Info("application stopped")
	return nil
}

// WaitForShutdown blocks until SIGINT or SIGTERM, then stops the App.
func (a *App) WaitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	a.logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.Stop(ctx); err != nil {
		a.logger.Error("application stop error", zap.Error(err))
	}
}

func (a *App) initDependencies() error {
	toolkit, err := service.NewToolkit(a.cfg)
	if err != nil {
		return err
	}
	// Fail fast when a backend cannot reproduce a known recovery.
	if err := toolkit.Ping(); err != nil {
		return fmt.Errorf("toolkit self test: %w", err)
	}
	a.toolkit = toolkit
	a.logger.Info("toolkit ready",
		zap.String("recovery", a.cfg.Crypto.Recovery),
		zap.String("keccak", a.cfg.Crypto.Keccak))

	a.healthHandler = handler.NewHealthHandler(map[string]handler.Pinger{"toolkit": toolkit})
	a.sigkitHandler = handler.NewSigkitHandler(toolkit)
	return nil
}

func (a *App) initHTTPServer() {
	if a.cfg.Service.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	a.engine = gin.New()

	r := router.New(a.engine, a.cfg, a.logger)
	r.RegisterMiddleware()
	r.RegisterRoutes(a.healthHandler, a.sigkitHandler)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Service.HTTPPort),
		Handler:      a.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Engine returns the gin engine, nil before Start.
func (a *App) Engine() *gin.Engine {
	return a.engine
}

// Addr returns the bound listen address, nil before Start.
func (a *App) Addr() net.Addr {
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}
