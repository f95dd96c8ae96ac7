package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Data       DataConfig       `mapstructure:"data"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Search     SearchConfig     `mapstructure:"search"`
	TMDB       TMDBConfig       `mapstructure:"tmdb"`
	OMDB       OMDBConfig       `mapstructure:"omdb"`
	Streaming  StreamingConfig  `mapstructure:"streaming"`
	YouTube    YouTubeConfig    `mapstructure:"youtube"`
	Enrichment EnrichmentConfig `mapstructure:"enrichment"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Artifacts  ArtifactsConfig  `mapstructure:"artifacts"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// DataConfig locates the build inputs and serve-time artifacts. File names are
// relative to Dir.
type DataConfig struct {
	Dir               string `mapstructure:"dir"`
	RawCatalogFile    string `mapstructure:"raw_catalog_file"`
	MetadataFile      string `mapstructure:"metadata_file"`
	EmbeddingsFile    string `mapstructure:"embeddings_file"`
	IndexFile         string `mapstructure:"index_file"`
	ProviderCacheFile string `mapstructure:"provider_cache_file"`
}

func (d DataConfig) RawCatalogPath() string    { return filepath.Join(d.Dir, d.RawCatalogFile) }
func (d DataConfig) MetadataPath() string      { return filepath.Join(d.Dir, d.MetadataFile) }
func (d DataConfig) EmbeddingsPath() string    { return filepath.Join(d.Dir, d.EmbeddingsFile) }
func (d DataConfig) IndexPath() string         { return filepath.Join(d.Dir, d.IndexFile) }
func (d DataConfig) ProviderCachePath() string { return filepath.Join(d.Dir, d.ProviderCacheFile) }

type SearchConfig struct {
	DefaultTopK int `mapstructure:"default_top_k"`
}

type TMDBConfig struct {
	APIKey       string        `mapstructure:"api_key"`
	BaseURL      string        `mapstructure:"base_url"`
	Country      string        `mapstructure:"country"`
	Language     string        `mapstructure:"language"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type OMDBConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StreamingConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	Host    string        `mapstructure:"host"`
	BaseURL string        `mapstructure:"base_url"`
	Country string        `mapstructure:"country"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type YouTubeConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type EnrichmentConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	CacheSize   int           `mapstructure:"cache_size"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	Concurrency int           `mapstructure:"concurrency"`
}

// DatabaseConfig configures the optional search log.
type DatabaseConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"` // sqlite, postgres
	Path            string        `mapstructure:"path"`   // sqlite file
	URL             string        `mapstructure:"url"`    // postgres DSN
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// DSN returns the connection string for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == "postgres" {
		return c.URL
	}
	return c.Path
}

// StorageConfig configures S3-compatible object storage for artifacts.
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"` // r2, s3, s3compatible
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
}

type ArtifactsConfig struct {
	FetchOnStart bool `mapstructure:"fetch_on_start"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})

	v.SetDefault("data.dir", "./data")
	v.SetDefault("data.raw_catalog_file", "imdb_movie_dataset.csv")
	v.SetDefault("data.metadata_file", "metadata_es.csv")
	v.SetDefault("data.embeddings_file", "embeddings_es.npy")
	v.SetDefault("data.index_file", "index_es.bin")
	v.SetDefault("data.provider_cache_file", "providers_cache.json")

	v.SetDefault("embedding.provider", ProviderOpenAICompatible)
	v.SetDefault("embedding.model", "sentence-transformers/all-mpnet-base-v2")
	v.SetDefault("embedding.base_url", "http://localhost:8081/v1")
	v.SetDefault("embedding.dimensions", 768)
	v.SetDefault("embedding.batch_size", 64)
	v.SetDefault("embedding.api_key_env", "EMBEDDING_API_KEY")

	v.SetDefault("search.default_top_k", 10)

	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.country", "PE")
	v.SetDefault("tmdb.language", "en-US")
	v.SetDefault("tmdb.request_delay", 250*time.Millisecond)
	v.SetDefault("tmdb.timeout", 10*time.Second)

	v.SetDefault("omdb.base_url", "http://www.omdbapi.com/")
	v.SetDefault("omdb.timeout", 10*time.Second)

	v.SetDefault("streaming.host", "streaming-availability.p.rapidapi.com")
	v.SetDefault("streaming.base_url", "https://streaming-availability.p.rapidapi.com")
	v.SetDefault("streaming.country", "us")
	v.SetDefault("streaming.timeout", 10*time.Second)

	v.SetDefault("youtube.base_url", "https://www.youtube.com")
	v.SetDefault("youtube.timeout", 10*time.Second)

	v.SetDefault("enrichment.enabled", true)
	v.SetDefault("enrichment.cache_size", 1000)
	v.SetDefault("enrichment.cache_ttl", time.Hour)
	v.SetDefault("enrichment.concurrency", 4)

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/search_log.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "buscador-semantico")
	v.SetDefault("storage.prefix", "artifacts")

	v.SetDefault("artifacts.fetch_on_start", false)
}

// Load reads configuration from configPath (or ./configs/config.yaml, ./config.yaml),
// .env and the environment. A missing config file is not an error.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Secrets
	v.BindEnv("tmdb.api_key", "TMDB_API_KEY")
	v.BindEnv("omdb.api_key", "OMDB_API_KEY")
	v.BindEnv("streaming.api_key", "RAPIDAPI_KEY")
	v.BindEnv("embedding.base_url", "EMBEDDING_BASE_URL")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("data.dir", "DATA_DIR")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Embedding.ResolveEnvVars()

	return &cfg, nil
}
