package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Lukita-it/buscador-semantico/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestOMDBService_Poster(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k", r.URL.Query().Get("apikey"))
		switch r.URL.Query().Get("t") {
		case "Alien":
			writeJSON(w, 200, `{"Title":"Alien","Poster":"https://img/alien.jpg","Response":"True"}`)
		case "Sin Poster":
			writeJSON(w, 200, `{"Title":"Sin Poster","Poster":"N/A","Response":"True"}`)
		case "Roto":
			writeJSON(w, 503, `{}`)
		default:
			writeJSON(w, 200, `{"Response":"False","Error":"Movie not found!"}`)
		}
	}))
	defer srv.Close()

	svc := NewOMDBService(&config.OMDBConfig{APIKey: "k", BaseURL: srv.URL + "/"})
	ctx := context.Background()

	res := svc.Poster(ctx, "Alien")
	assert.Equal(t, Found("https://img/alien.jpg"), res)
	assert.Equal(t, LookupNotFound, svc.Poster(ctx, "Sin Poster").Status)
	assert.Equal(t, LookupNotFound, svc.Poster(ctx, "Desconocida").Status)
	assert.Equal(t, LookupUnavailable, svc.Poster(ctx, "Roto").Status)
}
