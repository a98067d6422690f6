package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/arlen/lectern/internal/analytics"
	"github.com/arlen/lectern/internal/broker"
	"github.com/arlen/lectern/internal/config"
	"github.com/arlen/lectern/internal/domain"
	"github.com/arlen/lectern/internal/logger"
	"github.com/arlen/lectern/internal/pdf"
	"github.com/arlen/lectern/internal/repository"
	"github.com/arlen/lectern/internal/service"
	"github.com/arlen/lectern/internal/storage"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "json",
		ServiceName: "lectern-ingest",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	lectureID := flag.String("lecture", "", "Lecture ID to ingest (required)")
	storagePath := flag.String("path", "", "Storage key of the uploaded document (required)")
	customer := flag.String("customer", "", "Customer identifier forwarded to downstream jobs")
	name := flag.String("name", "", "Customer name forwarded to downstream jobs")
	email := flag.String("email", "", "Customer email forwarded to downstream jobs")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if *lectureID == "" || *storagePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	appLogger.WithFields(logger.Fields{
		"lecture_id":   *lectureID,
		"storage_path": *storagePath,
	}).Info("Starting manual ingestion")

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure bucket exists
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
	defer publisher.Close()

	// Initialize analytics capture (no-op without an API key)
	track := analytics.NewClient(&analytics.Config{
		APIKey: cfg.Analytics.APIKey,
		Host:   cfg.Analytics.Host,
	})

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

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	// Run ingestion
	msg := &domain.IngestionMessage{
		LectureID:          *lectureID,
		StoragePath:        *storagePath,
		CustomerIdentifier: *customer,
		Name:               *name,
		Email:              *email,
	}

	outcome, err := ingestService.Ingest(ctx, msg)
	if err != nil {
		appLogger.WithError(err).Fatal("Ingestion failed")
	}

	appLogger.WithFields(logger.Fields{
		"lecture_id": *lectureID,
		"outcome":    outcome.String(),
	}).Info("Ingestion finished")
}
