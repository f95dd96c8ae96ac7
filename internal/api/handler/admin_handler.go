package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/Lukita-it/buscador-semantico/internal/logger"
	"github.com/gin-gonic/gin"
)

const maxRecentSearches = 200

// SearchLogReader lists recorded searches.
type SearchLogReader interface {
	Recent(ctx context.Context, limit int) ([]domain.SearchLog, error)
	Count(ctx context.Context) (int64, error)
}

// AdminHandler handles admin operations.
type AdminHandler struct {
	searchLogs SearchLogReader
}

// NewAdminHandler creates a new admin handler.
// Parameters:
//   - searchLogs: search log store.
//
// Returns:
//   - *AdminHandler: initialized handler.
func NewAdminHandler(searchLogs SearchLogReader) *AdminHandler {
	return &AdminHandler{searchLogs: searchLogs}
}

// RecentSearchesResponse represents the recent searches listing.
type RecentSearchesResponse struct {
	Searches []domain.SearchLog `json:"searches"`
	Total    int64              `json:"total"`
}

// RecentSearches handles GET /admin/searches?limit=N.
// Parameters:
//   - c: Gin request context.
//
// Returns: none (writes JSON response).
func (h *AdminHandler) RecentSearches(c *gin.Context) {
	ctx := c.Request.Context()

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxRecentSearches)
	}

	searches, err := h.searchLogs.Recent(ctx, limit)
	if err != nil {
		logger.CtxError(ctx, "Failed to list searches: limit=%d, error=%v", limit, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	total, err := h.searchLogs.Count(ctx)
	if err != nil {
		logger.CtxError(ctx, "Failed to count searches: error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	logger.CtxDebug(ctx, "Recent searches requested: client_ip=%s, limit=%d", c.ClientIP(), limit)
	c.JSON(http.StatusOK, RecentSearchesResponse{Searches: searches, Total: total})
}
