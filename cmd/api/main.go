package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arlen/lectern/internal/analytics"
	"github.com/arlen/lectern/internal/api"
	"github.com/arlen/lectern/internal/broker"
	"github.com/arlen/lectern/internal/config"
	"github.com/arlen/lectern/internal/logger"
	"github.com/arlen/lectern/internal/pdf"
	"github.com/arlen/lectern/internal/repository"
	"github.com/arlen/lectern/internal/service"
	"github.com/arlen/lectern/internal/storage"
)

func main() {
	// Initialize logger from environment (rotation + stdout/file routing)
	appLogger := logger.NewFromEnv(nil)
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	lectureRepo := repository.NewLectureRepository(db)
	slideRepo := repository.NewSlideRepository(db)

	// Initialize storage (supports MinIO, R2, S3)
	objectStorage, err := storage.NewStorage(&storage.Config{
		Type:      storage.StorageType(cfg.Storage.Type),
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		UseSSL:    cfg.Storage.UseSSL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize storage")
	}

	// Ensure bucket exists
	ctx := context.Background()
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
	}

	// Initialize job publisher
	publisher, err := broker.NewRedisPublisher(&broker.Config{
		Addr:     cfg.Broker.Addr,
		Password: cfg.Broker.Password,
		DB:       cfg.Broker.DB,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to connect to broker")
	}

	// Initialize analytics capture (no-op without an API key)
	track := analytics.NewClient(&analytics.Config{
		APIKey: cfg.Analytics.APIKey,
		Host:   cfg.Analytics.Host,
	})
	if track.Enabled() {
		appLogger.Info("Analytics capture enabled")
	}

	// Initialize ingest service
	opener := service.OpenerFunc(func(data []byte) (service.Document, error) {
		return pdf.Open(data)
	})
	ingestService := service.NewIngestService(
		lectureRepo,
		slideRepo,
		objectStorage,
		opener,
		publisher,
		track,
		appLogger,
		&service.IngestConfig{
			MaxChunkTokens: cfg.Ingest.MaxChunkTokens,
			Topics: service.DispatchTopics{
				Explanation:   cfg.Broker.Topics.Explanation,
				ImageAnalysis: cfg.Broker.Topics.ImageAnalysis,
				Embedding:     cfg.Broker.Topics.Embedding,
			},
		},
	)

	// Setup router
	router := api.SetupRouter(ingestService, lectureRepo, slideRepo, appLogger, &cfg.Server)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	if err := publisher.Close(); err != nil {
		appLogger.WithError(err).Warn("Failed to close broker connection")
	}

	appLogger.Info("Server exited")
}
