package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catalogsync/internal/api"
	"catalogsync/internal/bulk"
	"catalogsync/internal/config"
	"catalogsync/internal/database"
	"catalogsync/internal/ignorelist"
	"catalogsync/internal/logger"
	"catalogsync/internal/metrics"
	"catalogsync/internal/reconciler"
	"catalogsync/internal/services/ai"
	"catalogsync/internal/services/images"
	"catalogsync/internal/services/shopify"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel, cfg.LogBufferSize)

	// Initialize database
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

	generator := ai.New(ai.Settings{
		APIKey:           cfg.OpenAIAPIKey,
		BaseURL:          cfg.OpenAIBaseURL,
		Model:            cfg.OpenAIModel,
		MaxTokens:        cfg.OpenAIMaxTokens,
		MaxAttempts:      cfg.OpenAIMaxAttempts,
		RateLimitBackoff: cfg.OpenAIRateLimitBackoff,
		Timeout:          cfg.HTTPTimeout,
	}, logger)

	finder := images.NewFinder(cfg.ImageSearchURL, cfg.ImageSearchLimit, cfg.HTTPTimeout, logger)

	// Ignore list
	var backend ignorelist.Backend
	switch cfg.IgnoreListBackend {
	case "redis":
		rb, err := ignorelist.NewRedisBackend(cfg.RedisURL, cfg.IgnoreListKey)
		if err != nil {
			logger.Fatal("Failed to initialize ignore list: %v", err)
		}
		defer rb.Close()
		backend = rb
	default:
		backend = ignorelist.NewFileBackend(cfg.IgnoreListFile)
	}
	ignored := ignorelist.New(backend, logger)
	if err := ignored.Load(context.Background()); err != nil {
		logger.Fatal("Failed to load ignore list: %v", err)
	}

	journal := database.NewJournal(db)

	rec := reconciler.New(shop, shop, logger, reconciler.Options{
		Window:       cfg.DebounceWindow,
		ApplyTimeout: cfg.HTTPTimeout,
		Recorder:     journal,
		Metrics:      m,
	})

	workflow := bulk.New(shop, shop, generator, finder, ignored, logger, bulk.Options{
		Concurrency: cfg.BulkConcurrency,
		Metrics:     m,
	})

	// Initialize API server
	server, err := api.New(cfg, logger, api.Dependencies{
		Reconciler: rec,
		Workflow:   workflow,
		IgnoreList: ignored,
		Journal:    journal,
		Metrics:    m,
		Gatherer:   prometheus.DefaultGatherer,
	})
	if err != nil {
		logger.Fatal("Failed to initialize server: %v", err)
	}

	// Start server
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
	if err := rec.Stop(ctx); err != nil {
		logger.Error("Reconciler shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
