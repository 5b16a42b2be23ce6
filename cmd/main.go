package main

import (
	"context"
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/app"
	"github.com/eidos-exchange/eidos/eidos-sigkit/internal/config"
	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("load config: " + err.Error())
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: cfg.Service.Name,
	}); err != nil {
		panic("init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.L()
	log.Info("starting service",
		zap.String("service", cfg.Service.Name),
		zap.String("env", cfg.Service.Env),
		zap.Int("port", cfg.Service.HTTPPort),
	)

	application := app.New(cfg, log)

	ctx := context.Background()
	if err := application.Start(ctx); err != nil {
		log.Fatal("failed to start application", zap.Error(err))
	}

	log.Info("service started successfully",
		zap.Int("port", cfg.Service.HTTPPort),
	)

	application.WaitForShutdown()

	os.Exit(0)
}
