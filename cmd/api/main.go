package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Lukita-it/buscador-semantico/internal/api"
	"github.com/Lukita-it/buscador-semantico/internal/api/middleware"
	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/Lukita-it/buscador-semantico/internal/logger"
	"github.com/Lukita-it/buscador-semantico/internal/repository"
	"github.com/Lukita-it/buscador-semantico/internal/service"
	"github.com/Lukita-it/buscador-semantico/internal/storage"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// CONFIG_PATH points at the config file in production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx := context.Background()

	if cfg.Artifacts.FetchOnStart {
		if err := fetchArtifacts(ctx, cfg); err != nil {
			appLogger.WithError(err).Fatal("Failed to fetch artifacts from storage")
		}
	}

	// Any cold-start failure below is fatal: the service never serves
	// without a loaded encoder and aligned artifacts.
	embedding, err := service.NewEmbeddingLoader(&cfg.Embedding).Load()
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load embedding encoder")
	}

	artifacts, err := service.LoadArtifacts(ctx, &cfg.Data)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load artifacts")
	}

	searchService, err := service.NewSearchService(
		service.NewQueryExpansionService(nil),
		embedding,
		artifacts.Index,
		artifacts.Catalog,
		&service.SearchConfig{DefaultTopK: cfg.Search.DefaultTopK},
	)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to create search service")
	}

	services := &api.Services{Search: searchService}
	if cfg.Enrichment.Enabled {
		services.Enricher = newEnrichmentService(cfg)
	}

	if cfg.Database.Enabled {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize database")
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		services.SearchLogs = repository.NewSearchLogRepository(db)
	}

	router := api.SetupRouter(services, &api.RouterConfig{
		Mode: cfg.Server.Mode,
		CORS: middleware.CORSConfig{
			AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
			AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
		},
		Logger: appLogger,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":      cfg.Server.Port,
			"mode":      cfg.Server.Mode,
			"entries":   artifacts.Catalog.Len(),
			"model":     embedding.GetModel(),
			"enrich":    cfg.Enrichment.Enabled,
			"searchlog": cfg.Database.Enabled,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
		return
	}

	appLogger.Info("Server exited")
}

// newEnrichmentService wires the display-data collaborators. Posters and
// streaming need API keys and are skipped without them.
func newEnrichmentService(cfg *config.Config) *service.EnrichmentService {
	enrichCfg := &service.EnrichmentConfig{
		Trailers:    service.NewYouTubeService(&cfg.YouTube),
		Cache:       service.NewTTLCache[any](cfg.Enrichment.CacheSize, cfg.Enrichment.CacheTTL),
		Concurrency: cfg.Enrichment.Concurrency,
	}
	if cfg.OMDB.APIKey != "" {
		enrichCfg.Posters = service.NewOMDBService(&cfg.OMDB)
	} else {
		logger.Warn("OMDB_API_KEY not set, posters disabled")
	}
	if cfg.Streaming.APIKey != "" {
		enrichCfg.Streaming = service.NewStreamingService(&cfg.Streaming)
	} else {
		logger.Warn("RAPIDAPI_KEY not set, streaming availability disabled")
	}
	return service.NewEnrichmentService(enrichCfg)
}

func fetchArtifacts(ctx context.Context, cfg *config.Config) error {
	store, err := storage.NewStorage(&cfg.Storage)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	_, err = storage.NewArtifactSync(store, cfg.Storage.Prefix).Fetch(ctx, storage.ServeArtifacts(&cfg.Data))
	return err
}
