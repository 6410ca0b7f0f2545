package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feastly/feastly/internal/api"
	"github.com/feastly/feastly/internal/config"
	"github.com/feastly/feastly/internal/domain"
	"github.com/feastly/feastly/internal/logger"
	"github.com/feastly/feastly/internal/repository"
	"github.com/feastly/feastly/internal/service"
	"github.com/feastly/feastly/internal/storage"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(logger.DefaultConfig())
	logger.SetDefault(appLogger)
	defer logger.Sync()

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	recipeRepo := repository.NewRecipeRepository(db)
	viewRepo := repository.NewViewRepository(db)

	if approved, err := recipeRepo.CountByState(context.Background(), domain.StateApproved); err == nil {
		appLogger.WithField("approved_recipes", approved).Info("Catalog loaded")
	}
	qdrantRepo, err := repository.NewQdrantRepository(&repository.QdrantConnectionConfig{
		Host:       cfg.Qdrant.Host,
		Port:       cfg.Qdrant.Port,
		Collection: cfg.Qdrant.Collection,
		APIKey:     cfg.Qdrant.APIKey,
		UseTLS:     cfg.Qdrant.UseTLS,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize Qdrant repository")
	}
	defer qdrantRepo.Close()

	// Ensure Qdrant collection exists
	ctx := context.Background()
	if err := qdrantRepo.EnsureCollection(ctx); err != nil {
		appLogger.WithError(err).Fatal("Failed to ensure Qdrant collection")
	}

	// Initialize thumbnail storage (supports MinIO, R2, S3)
	var objectStorage storage.ObjectStorage
	if cfg.Storage.Endpoint != "" {
		objectStorage, err = storage.NewStorage(&storage.S3Config{
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

		if err := objectStorage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Fatal("Failed to ensure storage bucket")
		}
	} else {
		appLogger.Warn("Object storage not configured, inline thumbnails will be rejected")
	}

	// Initialize services
	embedder := service.NewEmbeddingClient(&service.EmbeddingClientConfig{
		Endpoint: cfg.Embedder.Endpoint,
		Timeout:  cfg.Embedder.Timeout,
	})

	retrievalService := service.NewRetrievalService(
		recipeRepo,
		qdrantRepo,
		viewRepo,
		embedder,
		service.RetrievalConfig{
			PageSize:               cfg.Search.PageSize,
			VectorMinSimilarity:    cfg.Search.VectorMinSimilarity,
			RecommendMinSimilarity: cfg.Search.RecommendMinSimilarity,
			CandidateLimit:         cfg.Search.CandidateLimit,
		},
	)

	moderationService := service.NewModerationService(
		recipeRepo,
		qdrantRepo,
		embedder,
		objectStorage,
		service.NewStaticReassignment(cfg.Moderation.Reassignment),
	)

	// Setup router
	router := api.NewRouter(&cfg.Server, retrievalService, moderationService)

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

	appLogger.Info("Server exited")
}
