package imdb

import (
	"context"
	"fmt"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/Lukita-it/buscador-semantico/internal/repository"
	"github.com/Lukita-it/buscador-semantico/internal/source/augmented"
)

// Adapter reads the raw IMDB movie dataset (Rank, Title, Genre, Description,
// Year, ...). Column names are normalized to snake case on load.
type Adapter struct {
	path string
}

// NewAdapter creates a new raw dataset adapter.
// Parameters:
//   - path: path to imdb_movie_dataset.csv.
// Returns:
//   - *Adapter: initialized adapter.
func NewAdapter(path string) *Adapter {
	return &Adapter{path: path}
}

// GetSourceID returns "imdb".
func (a *Adapter) GetSourceID() string { return "imdb" }

// GetDisplayName returns a human-readable name for this source.
func (a *Adapter) GetDisplayName() string { return "IMDB dataset (" + a.path + ")" }

// Load reads the raw dataset and falls back to the English fields for the
// Spanish ones.
func (a *Adapter) Load(ctx context.Context) (*repository.CatalogTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := repository.LoadRawCatalog(a.path)
	if err != nil {
		return nil, err
	}
	if !table.HasColumn(domain.ColTitle) {
		return nil, fmt.Errorf("%s: no %q column after normalization: %w", a.path, domain.ColTitle, domain.ErrCorruptArtifact)
	}
	if err := augmented.EnsureSpanishColumns(table); err != nil {
		return nil, err
	}
	return table, nil
}
