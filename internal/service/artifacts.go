package service

import (
	"context"
	"fmt"

	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/Lukita-it/buscador-semantico/internal/logger"
	"github.com/Lukita-it/buscador-semantico/internal/repository"
)

// Artifacts are the read-only serve-time files, loaded once at startup.
type Artifacts struct {
	Catalog *repository.CatalogTable
	Index   *repository.FlatIndex
}

// LoadArtifacts reads the metadata table and vector index and checks they
// are row-aligned. Any error means the service must not start.
func LoadArtifacts(ctx context.Context, data *config.DataConfig) (*Artifacts, error) {
	catalog, err := repository.LoadCatalog(data.MetadataPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load metadata: %w", err)
	}
	index, err := repository.LoadFlatIndex(data.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load vector index: %w", err)
	}
	if catalog.Len() != index.Len() {
		return nil, fmt.Errorf("%d metadata rows vs %d vectors: %w", catalog.Len(), index.Len(), domain.ErrArtifactsMisaligned)
	}

	logger.With(logger.Fields{
		logger.FieldComponent: "artifacts",
		"dimensions":          index.Dim(),
	}).WithCount(catalog.Len()).Info(ctx, "Artifacts loaded")

	return &Artifacts{Catalog: catalog, Index: index}, nil
}
