package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Lukita-it/buscador-semantico/internal/api/middleware"
	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/Lukita-it/buscador-semantico/internal/repository"
	"github.com/Lukita-it/buscador-semantico/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySearchLogs struct {
	mu      sync.Mutex
	entries []domain.SearchLog
	err     error
}

func (m *memorySearchLogs) Create(ctx context.Context, entry *domain.SearchLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memorySearchLogs) Recent(ctx context.Context, limit int) ([]domain.SearchLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.SearchLog, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *memorySearchLogs) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.entries)), m.err
}

type failingSearcher struct{}

func (failingSearcher) Search(ctx context.Context, query string, k int) (*service.SearchResponse, error) {
	return nil, errors.New("index exploded")
}

func (failingSearcher) DefaultTopK() int { return 10 }

type posterEnricher struct{}

func (posterEnricher) Enrich(ctx context.Context, matches []domain.Match) []domain.EnrichedMovie {
	out := make([]domain.EnrichedMovie, len(matches))
	for i, m := range matches {
		poster := "https://img.example/" + m.Entry.Title + ".jpg"
		out[i] = domain.EnrichedMovie{Match: m, Enrichment: domain.Enrichment{
			Poster:  &poster,
			WatchOn: []string{"Netflix"},
		}}
	}
	return out
}

func newSearchService(t *testing.T) *service.SearchService {
	t.Helper()
	titles := []string{"Comedia familiar", "Terror espacial", "Drama romántico"}
	texts := []string{"comedia familiar", "terror espacial", "drama romántico"}

	rows := make([][]string, len(texts))
	for i := range texts {
		rows[i] = []string{titles[i], texts[i], "nan"}
	}
	catalog, err := repository.NewCatalogTable([]string{domain.ColTitle, domain.ColTextES, domain.ColProviders}, rows)
	require.NoError(t, err)

	enc := service.NewHashEmbedding(256)
	vecs, err := enc.EmbedBatch(context.Background(), texts)
	require.NoError(t, err)
	m, err := repository.NewMatrix(vecs)
	require.NoError(t, err)

	svc, err := service.NewSearchService(service.NewQueryExpansionService(nil), enc, repository.NewFlatIndex(m), catalog, &service.SearchConfig{DefaultTopK: 10})
	require.NoError(t, err)
	return svc
}

func newTestRouter(t *testing.T, svc *Services) http.Handler {
	t.Helper()
	return SetupRouter(svc, &RouterConfig{
		Mode: "test",
		CORS: middleware.CORSConfig{AllowAllOrigins: true},
	})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type searchBody struct {
	Results []map[string]interface{} `json:"results"`
}

func decodeResults(t *testing.T, w *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var body searchBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Results, "results must be a JSON array: %s", w.Body.String())
	return body.Results
}

func TestRouter_RootAndHealth(t *testing.T) {
	r := newTestRouter(t, &Services{Search: newSearchService(t)})

	w := do(r, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Semantic Search ES API running"}`, w.Body.String())

	w = do(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_Search(t *testing.T) {
	r := newTestRouter(t, &Services{Search: newSearchService(t)})

	w := do(r, http.MethodPost, "/search", `{"q":"comedia","k":1}`)
	require.Equal(t, http.StatusOK, w.Code)

	results := decodeResults(t, w)
	require.Len(t, results, 1)
	got := results[0]
	assert.Equal(t, "Comedia familiar", got["title"])
	assert.Equal(t, "", got["providers"])
	assert.Nil(t, got["poster"])
	assert.Nil(t, got["trailer_id"])
	assert.Equal(t, []interface{}{domain.NotAvailable}, got["watch_on"])
	assert.Greater(t, got["score"].(float64), 0.0)
}

func TestRouter_SearchDefaultK(t *testing.T) {
	r := newTestRouter(t, &Services{Search: newSearchService(t)})

	w := do(r, http.MethodPost, "/search", `{"q":"drama"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeResults(t, w), 3, "catalog smaller than the default k")
}

func TestRouter_SearchBlankQuery(t *testing.T) {
	logs := &memorySearchLogs{}
	r := newTestRouter(t, &Services{Search: newSearchService(t), SearchLogs: logs})

	w := do(r, http.MethodPost, "/search", `{"q":"   ","k":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"results":[]}`, w.Body.String())
	assert.Empty(t, logs.entries)
}

func TestRouter_SearchMalformedJSON(t *testing.T) {
	r := newTestRouter(t, &Services{Search: newSearchService(t)})

	for _, body := range []string{`{"q":`, `not json`, `{"q":"x","k":"three"}`} {
		w := do(r, http.MethodPost, "/search", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestRouter_SearchInternalError(t *testing.T) {
	r := newTestRouter(t, &Services{Search: failingSearcher{}})

	w := do(r, http.MethodPost, "/search", `{"q":"terror"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestRouter_SearchEnriched(t *testing.T) {
	r := newTestRouter(t, &Services{Search: newSearchService(t), Enricher: posterEnricher{}})

	w := do(r, http.MethodPost, "/search", `{"q":"terror espacial","k":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	results := decodeResults(t, w)
	require.Len(t, results, 1)
	assert.Equal(t, "https://img.example/Terror espacial.jpg", results[0]["poster"])
	assert.Equal(t, []interface{}{"Netflix"}, results[0]["watch_on"])
}

func TestRouter_SearchLogs(t *testing.T) {
	logs := &memorySearchLogs{}
	r := newTestRouter(t, &Services{Search: newSearchService(t), SearchLogs: logs})

	w := do(r, http.MethodPost, "/search", `{"q":"comedia","k":2}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, logs.entries, 1)
	entry := logs.entries[0]
	assert.Equal(t, "comedia", entry.Query)
	assert.Equal(t, "comedia humor divertida", entry.ExpandedQuery)
	assert.Equal(t, 2, entry.TopK)
	assert.Equal(t, 2, entry.ResultCount)
	require.NotNil(t, entry.TopIndex)
	assert.Equal(t, 0, *entry.TopIndex)

	w = do(r, http.MethodGet, "/admin/searches?limit=5", "")
	require.Equal(t, http.StatusOK, w.Code)
	var listing struct {
		Searches []domain.SearchLog `json:"searches"`
		Total    int64              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listing))
	assert.Equal(t, int64(1), listing.Total)
	require.Len(t, listing.Searches, 1)
	assert.Equal(t, "comedia", listing.Searches[0].Query)

	w = do(r, http.MethodGet, "/admin/searches?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_SearchLogFailureIsNotFatal(t *testing.T) {
	logs := &memorySearchLogs{err: errors.New("disk full")}
	r := newTestRouter(t, &Services{Search: newSearchService(t), SearchLogs: logs})

	w := do(r, http.MethodPost, "/search", `{"q":"comedia","k":1}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeResults(t, w), 1)
}

func TestRouter_AdminRoutesNeedSearchLogs(t *testing.T) {
	r := newTestRouter(t, &Services{Search: newSearchService(t)})

	w := do(r, http.MethodGet, "/admin/searches", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(t, &Services{Search: newSearchService(t)})

	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
