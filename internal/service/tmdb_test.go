package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func newTMDBTestServer(t *testing.T, handler http.HandlerFunc) *TMDBService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewTMDBService(&config.TMDBConfig{
		APIKey:  "key",
		BaseURL: srv.URL + "/3",
		Country: "PE",
		Timeout: 2 * time.Second,
	})
}

func TestTMDBService_SearchTitle(t *testing.T) {
	var gotQuery map[string][]string
	svc := newTMDBTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/search/movie", r.URL.Path)
		gotQuery = r.URL.Query()
		writeJSON(w, 200, `{"results":[{"id":603,"title":"The Matrix"},{"id":604}]}`)
	})

	res := svc.SearchTitle(context.Background(), "The Matrix", "1999")
	require.True(t, res.IsFound())
	assert.Equal(t, 603, res.Value)
	assert.Equal(t, []string{"key"}, gotQuery["api_key"])
	assert.Equal(t, []string{"The Matrix"}, gotQuery["query"])
	assert.Equal(t, []string{"en-US"}, gotQuery["language"])
	assert.Equal(t, []string{"1999"}, gotQuery["year"])
}

func TestTMDBService_SearchTitle_NonNumericYearOmitted(t *testing.T) {
	svc := newTMDBTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, hasYear := r.URL.Query()["year"]
		assert.False(t, hasYear)
		writeJSON(w, 200, `{"results":[]}`)
	})

	for _, year := range []string{"", "1999.0", "unknown"} {
		res := svc.SearchTitle(context.Background(), "Nada", year)
		assert.Equal(t, LookupNotFound, res.Status)
	}
}

func TestTMDBService_SearchTitle_ServerError(t *testing.T) {
	svc := newTMDBTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 500, `{}`)
	})
	res := svc.SearchTitle(context.Background(), "x", "")
	assert.Equal(t, LookupUnavailable, res.Status)
	assert.Error(t, res.Err)
}

func TestTMDBService_GetProviders(t *testing.T) {
	svc := newTMDBTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/movie/603/watch/providers", r.URL.Path)
		writeJSON(w, 200, `{"results":{
			"PE":{"flatrate":[{"provider_name":"Netflix"},{"provider_name":"HBO Max"},{"provider_name":"Netflix"}]},
			"US":{"flatrate":[{"provider_name":"Hulu"}]}
		}}`)
	})

	res := svc.GetProviders(context.Background(), 603)
	require.True(t, res.IsFound())
	assert.Equal(t, []string{"Netflix", "HBO Max"}, res.Value)
}

func TestTMDBService_GetProviders_NoRegion(t *testing.T) {
	svc := newTMDBTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, `{"results":{"US":{"flatrate":[{"provider_name":"Hulu"}]}}}`)
	})
	res := svc.GetProviders(context.Background(), 1)
	assert.Equal(t, LookupNotFound, res.Status)
}
