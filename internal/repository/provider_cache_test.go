package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderCacheKey(t *testing.T) {
	assert.Equal(t, "Alien|1979", ProviderCacheKey("Alien", "1979"))
	assert.Equal(t, " alien |", ProviderCacheKey(" alien ", ""))
}

func TestProviderCache_MissingFileIsEmpty(t *testing.T) {
	c, err := LoadProviderCache(filepath.Join(t.TempDir(), "providers_cache.json"))
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}

func TestProviderCache_PutPersistsImmediately(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers_cache.json")
	c, err := LoadProviderCache(path)
	require.NoError(t, err)

	require.NoError(t, c.Put("Amélie|2001", "Netflix, Mubi"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"Amélie|2001\": \"Netflix, Mubi\"")

	reloaded, err := LoadProviderCache(path)
	require.NoError(t, err)
	v, ok := reloaded.Get("Amélie|2001")
	assert.True(t, ok)
	assert.Equal(t, "Netflix, Mubi", v)
}

func TestProviderCache_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers_cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadProviderCache(path)
	assert.ErrorIs(t, err, domain.ErrCorruptArtifact)
}
