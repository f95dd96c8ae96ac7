package augmented

import (
	"context"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/Lukita-it/buscador-semantico/internal/repository"
)

// Adapter reads a previously built, Spanish-augmented metadata table.
type Adapter struct {
	path string
}

// NewAdapter creates a new augmented-metadata adapter.
// Parameters:
//   - path: path to metadata_es.csv.
// Returns:
//   - *Adapter: initialized adapter.
func NewAdapter(path string) *Adapter {
	return &Adapter{path: path}
}

// GetSourceID returns "augmented".
func (a *Adapter) GetSourceID() string { return "augmented" }

// GetDisplayName returns a human-readable name for this source.
func (a *Adapter) GetDisplayName() string { return "Spanish metadata (" + a.path + ")" }

// Load reads the table. Spanish columns missing from an older file are
// synthesized from the original ones.
func (a *Adapter) Load(ctx context.Context) (*repository.CatalogTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	table, err := repository.LoadCatalog(a.path)
	if err != nil {
		return nil, err
	}
	if err := EnsureSpanishColumns(table); err != nil {
		return nil, err
	}
	return table, nil
}

// EnsureSpanishColumns copies title, genre and description into their _es
// counterparts when those are absent, so the pipeline runs before translation.
func EnsureSpanishColumns(table *repository.CatalogTable) error {
	pairs := [][2]string{
		{domain.ColTitleES, domain.ColTitle},
		{domain.ColGenreES, domain.ColGenre},
		{domain.ColDescriptionES, domain.ColDescription},
	}
	for _, p := range pairs {
		if table.HasColumn(p[0]) {
			continue
		}
		if err := table.SetColumn(p[0], table.Column(p[1])); err != nil {
			return err
		}
	}
	return nil
}
