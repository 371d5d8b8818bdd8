// Package main provides the read-side API server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/portfolio-snapshot/internal/api"
	"github.com/portfolio-snapshot/internal/config"
	"github.com/portfolio-snapshot/internal/logging"
	"github.com/portfolio-snapshot/internal/service"
	"github.com/portfolio-snapshot/internal/storage"
)

func main() {
	fmt.Println("Portfolio Snapshot API Server")
	log.Println("Server starting...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)
	logger := logging.GetGlobalLogger()

	// Connect to Postgres
	logger.Info("Connecting to database...")
	postgres, err := storage.NewPostgresDB(cfg.DatabaseURL, cfg.Pipeline.MaxPostgresConns)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}
	defer postgres.Close()

	ledgerRepo := storage.NewLedgerRepository(postgres)
	aggregator := service.NewSnapshotAggregator(ledgerRepo)

	server := api.NewServer(&api.ServerConfig{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, aggregator, ledgerRepo, logger)

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.WithError(err).Fatal("Server failed")
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
	logger.Info("Server stopped")
}
