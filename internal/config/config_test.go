package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Search.DefaultTopK)
	assert.Equal(t, ProviderOpenAICompatible, cfg.Embedding.Provider)
	assert.Equal(t, "sentence-transformers/all-mpnet-base-v2", cfg.Embedding.Model)
	assert.Equal(t, 768, cfg.Embedding.Dimensions)
	assert.Equal(t, "PE", cfg.TMDB.Country)
	assert.Equal(t, 250*time.Millisecond, cfg.TMDB.RequestDelay)
	assert.Equal(t, filepath.Join("data", "metadata_es.csv"), cfg.Data.MetadataPath())
	assert.Equal(t, filepath.Join("data", "providers_cache.json"), cfg.Data.ProviderCachePath())
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Storage.Enabled)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TMDB_API_KEY", "tmdb-secret")
	t.Setenv("RAPIDAPI_KEY", "rapid-secret")
	t.Setenv("SEARCH_DEFAULT_TOP_K", "5")
	t.Setenv("DATA_DIR", "/srv/artifacts")
	t.Setenv("EMBEDDING_API_KEY", "emb-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "tmdb-secret", cfg.TMDB.APIKey)
	assert.Equal(t, "rapid-secret", cfg.Streaming.APIKey)
	assert.Equal(t, 5, cfg.Search.DefaultTopK)
	assert.Equal(t, "/srv/artifacts", cfg.Data.Dir)
	assert.Equal(t, "emb-secret", cfg.Embedding.APIKey)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
embedding:
  provider: hash
  dimensions: 256
enrichment:
  cache_ttl: 30m
database:
  enabled: true
  driver: postgres
  url: postgres://u:p@db/search
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, ProviderHash, cfg.Embedding.Provider)
	assert.Equal(t, 256, cfg.Embedding.Dimensions)
	assert.Equal(t, 30*time.Minute, cfg.Enrichment.CacheTTL)
	assert.Equal(t, "postgres://u:p@db/search", cfg.Database.DSN())
	require.NoError(t, cfg.Embedding.Validate())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestEmbeddingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     EmbeddingConfig
		wantErr bool
	}{
		{"hash", EmbeddingConfig{Provider: ProviderHash, Dimensions: 64}, false},
		{"hash without dims", EmbeddingConfig{Provider: ProviderHash}, true},
		{"openai", EmbeddingConfig{Provider: ProviderOpenAICompatible, Model: "m", BaseURL: "http://x/v1", Dimensions: 768}, false},
		{"openai without base url", EmbeddingConfig{Provider: ProviderOpenAICompatible, Model: "m", Dimensions: 768}, true},
		{"openai without model", EmbeddingConfig{Provider: ProviderOpenAICompatible, BaseURL: "http://x/v1", Dimensions: 768}, true},
		{"jina without key", EmbeddingConfig{Provider: ProviderJina, Model: "jina-embeddings-v3", Dimensions: 1024}, true},
		{"jina", EmbeddingConfig{Provider: ProviderJina, Model: "jina-embeddings-v3", APIKey: "k", Dimensions: 1024}, false},
		{"negative batch", EmbeddingConfig{Provider: ProviderHash, Dimensions: 8, BatchSize: -1}, true},
		{"unknown", EmbeddingConfig{Provider: "word2vec", Dimensions: 8}, true},
		{"empty", EmbeddingConfig{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEmbeddingConfig_ResolveEnvVars(t *testing.T) {
	t.Setenv("MY_EMB_KEY", "from-env")
	t.Setenv("MY_EMB_URL", "http://tei:8080/v1")

	cfg := EmbeddingConfig{APIKeyEnv: "MY_EMB_KEY", BaseURLEnv: "MY_EMB_URL"}
	cfg.ResolveEnvVars()
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, "http://tei:8080/v1", cfg.BaseURL)

	direct := EmbeddingConfig{APIKey: "direct", APIKeyEnv: "MY_EMB_KEY"}
	direct.ResolveEnvVars()
	assert.Equal(t, "direct", direct.APIKey)
}
