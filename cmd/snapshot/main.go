// Package main provides the valuation pipeline entry point.
// The worker snapshots the portfolio daily at 00:00 UTC, or once with "run".
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/portfolio-snapshot/internal/adapter"
	"github.com/portfolio-snapshot/internal/config"
	"github.com/portfolio-snapshot/internal/logging"
	"github.com/portfolio-snapshot/internal/service"
	"github.com/portfolio-snapshot/internal/storage"
)

func main() {
	fmt.Println("Portfolio Snapshot Worker")
	log.Println("Worker starting...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
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

	// Connect to Redis if configured. The pipeline degrades to database reads
	// without it, so a failed connection is not fatal.
	var rateCache service.RateCache
	if cfg.Redis.Addr != "" {
		redis, err := storage.NewRedisCache(&cfg.Redis)
		if err != nil {
			logger.WithError(err).Warn("Failed to connect to Redis, continuing without rate cache")
		} else {
			defer redis.Close()
			rateCache = storage.NewRateCache(redis, cfg.Pipeline.RateCacheTTL)
			logger.Info("Rate cache enabled")
		}
	}

	ctx := logging.WithLogger(context.Background(), logger)

	// Prepare schema and seed the instrument registry
	if err := storage.Setup(ctx, postgres); err != nil {
		logger.WithError(err).Fatal("Failed to set up database schema")
	}

	instrumentRepo := storage.NewInstrumentRepository(postgres)
	if err := instrumentRepo.SeedRegistry(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to seed instrument registry")
	}

	holdingRepo := storage.NewHoldingRepository(postgres)
	walletRepo := storage.NewWalletRepository(postgres)
	ledgerRepo := storage.NewLedgerRepository(postgres)

	// Wire up the pipeline
	quoteClient := adapter.NewQuoteClient(&cfg.Quote)
	heliusClient := adapter.NewHeliusClient(&cfg.Wallet)

	resolver := service.NewPriceResolver(quoteClient)
	converter := service.NewCurrencyConverter(instrumentRepo, resolver)
	nativeRates := service.NewNativeRateSource(rateCache, ledgerRepo, cfg.Pipeline.DefaultNativeRate)
	normalizer := service.NewWalletNormalizer(nativeRates, cfg.Pipeline.DustThreshold)

	pipeline := service.NewPipeline(
		holdingRepo,
		walletRepo,
		instrumentRepo,
		ledgerRepo,
		heliusClient,
		resolver,
		converter,
		normalizer,
	)
	aggregator := service.NewSnapshotAggregator(ledgerRepo)

	// Check for one-time run mode
	if len(os.Args) > 1 && os.Args[1] == "run" {
		logger.Info("Running valuation immediately...")
		runOnce(ctx, pipeline, aggregator, logger)
		return
	}

	// Start scheduler
	logger.Info("Starting snapshot scheduler...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go runScheduler(ctx, pipeline, aggregator, logger)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down snapshot worker...")
	cancel()
	time.Sleep(time.Second) // Give time for cleanup
	logger.Info("Worker stopped")
}

// runOnce executes one pipeline run and reports the resulting total
func runOnce(ctx context.Context, pipeline *service.Pipeline, aggregator *service.SnapshotAggregator, logger *logging.Logger) {
	summary, err := pipeline.Run(ctx)
	if err != nil {
		logger.WithError(err).Fatal("Valuation run failed")
	}

	total, err := aggregator.LatestTotalUSD(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to read portfolio total")
		return
	}

	logger.WithFields(map[string]interface{}{
		"run_id":    summary.RunID,
		"total_usd": total.String(),
	}).Info("Snapshot complete")
}

// runScheduler runs the valuation pipeline at 00:00 UTC daily
func runScheduler(ctx context.Context, pipeline *service.Pipeline, aggregator *service.SnapshotAggregator, logger *logging.Logger) {
	for {
		// Calculate time until next 00:00 UTC
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
		duration := next.Sub(now)

		logger.WithFields(map[string]interface{}{
			"next_run": next.Format(time.RFC3339),
			"wait":     duration.String(),
		}).Info("Waiting for next snapshot time")

		select {
		case <-ctx.Done():
			return
		case <-time.After(duration):
			logger.Info("Running daily valuation")
			runOnce(ctx, pipeline, aggregator, logger)
		}
	}
}
