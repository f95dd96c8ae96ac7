package source

import (
	"context"

	"github.com/Lukita-it/buscador-semantico/internal/repository"
)

// Source defines the interface for catalog data sources.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	// Parameters: none.
	// Returns:
	//   - string: stable source identifier.
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	// Parameters: none.
	// Returns:
	//   - string: display-friendly source name.
	GetDisplayName() string

	// Load reads the whole catalog in its persisted row order, with the
	// title_es, genre_es and description_es columns present.
	// Parameters:
	//   - ctx: context for cancellation.
	// Returns:
	//   - *repository.CatalogTable: ordered catalog table.
	//   - error: non-nil if the source cannot be read.
	Load(ctx context.Context) (*repository.CatalogTable, error)
}
