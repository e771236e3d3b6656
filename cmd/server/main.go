package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/garyjia/gumball-machine/internal/config"
	"github.com/garyjia/gumball-machine/internal/container"
	"github.com/garyjia/gumball-machine/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting gumball machine server",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port),
		zap.Int("machines", len(cfg.Vending.Machines)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}

	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}

	// Start blocks until ctx is cancelled by a signal
	if err := c.Server().Start(ctx); err != nil {
		logger.Error("HTTP server failed", zap.Error(err))
	}

	logger.Info("Shutting down server...")

	if err := c.Close(); err != nil {
		logger.Error("Container shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Server exited successfully")
}
