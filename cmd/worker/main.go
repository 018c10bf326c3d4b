package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"catalogsync/internal/config"
	"catalogsync/internal/database"
	"catalogsync/internal/logger"
	"catalogsync/internal/metrics"
	"catalogsync/internal/reconciler"
	"catalogsync/internal/services/shopify"
	"catalogsync/internal/worker"
	"catalogsync/internal/worker/processors"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel, cfg.LogBufferSize)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	m := metrics.New()

	shop := shopify.NewClient(cfg.ShopDomain(), cfg.ShopifyAccessToken, logger,
		shopify.WithAPIVersion(cfg.ShopifyAPIVersion),
		shopify.WithTimeout(cfg.HTTPTimeout),
	)

	rec := reconciler.New(shop, shop, logger, reconciler.Options{
		Window:       cfg.DebounceWindow,
		ApplyTimeout: cfg.HTTPTimeout,
		Recorder:     database.NewJournal(db),
		Metrics:      m,
	})

	// Initialize worker
	w := worker.New(worker.NewReader(cfg), processors.NewEventProcessor(rec, m, logger), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start worker
	logger.Info("Starting worker on topic %s...", cfg.KafkaTopic)
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	<-ctx.Done()
	logger.Info("Shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := <-done; err != nil {
		logger.Error("Worker stopped with error: %v", err)
	}
	if err := w.Stop(); err != nil {
		logger.Error("Failed to close reader: %v", err)
	}
	if err := rec.Stop(shutdownCtx); err != nil {
		logger.Error("Reconciler shutdown failed: %v", err)
	}
}
