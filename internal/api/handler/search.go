package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/Lukita-it/buscador-semantico/internal/logger"
	"github.com/Lukita-it/buscador-semantico/internal/service"
	"github.com/gin-gonic/gin"
)

// Searcher ranks catalog entries for a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) (*service.SearchResponse, error)
	DefaultTopK() int
}

// Enricher attaches display data to ranked matches.
type Enricher interface {
	Enrich(ctx context.Context, matches []domain.Match) []domain.EnrichedMovie
}

// SearchLogWriter records served searches.
type SearchLogWriter interface {
	Create(ctx context.Context, entry *domain.SearchLog) error
}

// SearchHandler handles search-related endpoints.
type SearchHandler struct {
	searcher   Searcher
	enricher   Enricher
	searchLogs SearchLogWriter
}

// NewSearchHandler creates a new search handler.
// Parameters:
//   - searcher: retrieval service.
//   - enricher: optional, nil serves the no-result display values.
//   - searchLogs: optional, nil disables search logging.
//
// Returns:
//   - *SearchHandler: initialized handler.
func NewSearchHandler(searcher Searcher, enricher Enricher, searchLogs SearchLogWriter) *SearchHandler {
	return &SearchHandler{
		searcher:   searcher,
		enricher:   enricher,
		searchLogs: searchLogs,
	}
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"q"`
	K     *int   `json:"k"`
}

// SearchResponse is the body returned by POST /search.
type SearchResponse struct {
	Results []map[string]interface{} `json:"results"`
}

// Search handles POST /search.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *SearchHandler) Search(c *gin.Context) {
	ctx := c.Request.Context()

	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.CtxWarn(ctx, "Invalid search request: client_ip=%s, error=%v", c.ClientIP(), err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: " + err.Error(),
		})
		return
	}

	k := h.searcher.DefaultTopK()
	if req.K != nil {
		k = *req.K
	}

	start := time.Now()
	resp, err := h.searcher.Search(ctx, req.Query, k)
	if err != nil {
		logger.CtxError(ctx, "Search failed: query=%q, k=%d, error=%v", req.Query, k, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	movies := h.enrich(ctx, resp.Matches)
	results := make([]map[string]interface{}, len(movies))
	for i, m := range movies {
		results[i] = m.ToMap()
	}

	if resp.Query != "" {
		h.record(ctx, resp, time.Since(start))
	}

	c.JSON(http.StatusOK, SearchResponse{Results: results})
}

func (h *SearchHandler) enrich(ctx context.Context, matches []domain.Match) []domain.EnrichedMovie {
	if h.enricher != nil {
		return h.enricher.Enrich(ctx, matches)
	}
	out := make([]domain.EnrichedMovie, len(matches))
	for i, m := range matches {
		out[i] = domain.EnrichedMovie{Match: m}
	}
	return out
}

// record stores the search log. Failures are logged and never reach the client.
func (h *SearchHandler) record(ctx context.Context, resp *service.SearchResponse, elapsed time.Duration) {
	if h.searchLogs == nil {
		return
	}
	entry := &domain.SearchLog{
		Query:         resp.Query,
		ExpandedQuery: resp.ExpandedQuery,
		TopK:          resp.TopK,
		ResultCount:   len(resp.Matches),
		DurationMs:    elapsed.Milliseconds(),
	}
	if len(resp.Matches) > 0 {
		top := resp.Matches[0].Entry.Index
		entry.TopIndex = &top
	}
	if err := h.searchLogs.Create(ctx, entry); err != nil {
		logger.CtxWarn(ctx, "Failed to record search log: query=%q, error=%v", resp.Query, err)
	}
}
