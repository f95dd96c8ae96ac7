package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/Lukita-it/buscador-semantico/internal/logger"
	"github.com/Lukita-it/buscador-semantico/internal/repository"
)

// VectorSearcher is the read side of the vector index.
type VectorSearcher interface {
	Search(queries [][]float32, k int) ([]repository.SearchResult, error)
	Dim() int
	Len() int
}

// CatalogReader is the read side of the catalog metadata table.
type CatalogReader interface {
	RowAt(index int) (domain.CatalogEntry, error)
	Len() int
}

// SearchConfig holds configuration for search service.
type SearchConfig struct {
	DefaultTopK int
}

// SearchService answers free-text queries against the loaded artifacts.
// It holds no mutable state and is safe for concurrent use.
type SearchService struct {
	expander    *QueryExpansionService
	embedding   EmbeddingProvider
	index       VectorSearcher
	catalog     CatalogReader
	defaultTopK int
}

// NewSearchService creates a new search service and checks that the
// artifacts line up with each other and with the embedding provider.
// Parameters:
//   - expander: query expansion service.
//   - embedding: embedding provider used at build time.
//   - index: loaded vector index.
//   - catalog: loaded catalog metadata, row-aligned with index.
//   - cfg: search configuration settings.
//
// Returns:
//   - *SearchService: initialized search service.
//   - error: non-nil if the artifacts are misaligned.
func NewSearchService(
	expander *QueryExpansionService,
	embedding EmbeddingProvider,
	index VectorSearcher,
	catalog CatalogReader,
	cfg *SearchConfig,
) (*SearchService, error) {
	if catalog.Len() != index.Len() {
		return nil, fmt.Errorf("catalog has %d rows, index has %d vectors: %w", catalog.Len(), index.Len(), domain.ErrArtifactsMisaligned)
	}
	if d := embedding.GetDimensions(); index.Len() > 0 && d > 0 && d != index.Dim() {
		return nil, fmt.Errorf("embedding model %q yields %d dimensions, index has %d: %w",
			embedding.GetModel(), d, index.Dim(), domain.ErrDimensionMismatch)
	}

	defaultTopK := 10
	if cfg != nil && cfg.DefaultTopK > 0 {
		defaultTopK = cfg.DefaultTopK
	}
	return &SearchService{
		expander:    expander,
		embedding:   embedding,
		index:       index,
		catalog:     catalog,
		defaultTopK: defaultTopK,
	}, nil
}

// DefaultTopK returns the k used when a request does not specify one.
func (s *SearchService) DefaultTopK() int {
	return s.defaultTopK
}

// SearchResponse is the ranked outcome of one query.
type SearchResponse struct {
	Query         string
	ExpandedQuery string
	TopK          int
	Matches       []domain.Match
}

// Search returns up to k catalog entries ranked by similarity to query.
// A blank query yields no matches without touching the encoder or index;
// k is clamped to at least 1 and the index is never asked for more rows
// than it holds.
func (s *SearchService) Search(ctx context.Context, query string, k int) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if k < 1 {
		k = 1
	}
	resp := &SearchResponse{Query: query, TopK: k, Matches: []domain.Match{}}
	if query == "" {
		return resp, nil
	}

	ctx = logger.SetComponent(ctx, "search")
	start := time.Now()

	resp.ExpandedQuery = s.expander.Expand(query)

	vec, err := s.embedding.EmbedQuery(ctx, resp.ExpandedQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embedding: %w", err)
	}

	results, err := s.index.Search([][]float32{vec}, min(k, max(s.index.Len(), 1)))
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if len(results) != 1 {
		return nil, fmt.Errorf("vector search returned %d result sets for 1 query", len(results))
	}

	hits := results[0]
	for i, idx := range hits.Indices {
		if idx == repository.NoResult {
			continue
		}
		entry, err := s.catalog.RowAt(idx)
		if err != nil {
			return nil, fmt.Errorf("failed to map result %d: %w", i, err)
		}
		resp.Matches = append(resp.Matches, domain.Match{Entry: entry, Score: hits.Scores[i]})
	}

	logger.With(logger.Fields{
		"query":          query,
		"expanded_query": resp.ExpandedQuery,
		"top_k":          k,
	}).WithCount(len(resp.Matches)).
		WithDuration(time.Since(start).Milliseconds()).
		Info(ctx, "Search completed")

	return resp, nil
}
