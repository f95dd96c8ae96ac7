package config

import (
	"fmt"
	"os"
)

// Embedding provider identifiers.
const (
	ProviderOpenAICompatible = "openai-compatible"
	ProviderJina             = "jina"
	ProviderHash             = "hash"
)

// EmbeddingConfig defines the sentence-embedding backend used both by the
// offline index build and by the serving process. Both must agree on Model
// and Dimensions or query vectors will not live in the index's space.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`     // "openai-compatible", "jina", "hash"
	Model      string `mapstructure:"model"`        // Model name/ID
	APIKey     string `mapstructure:"api_key"`      // API key (can be set directly or via env var)
	APIKeyEnv  string `mapstructure:"api_key_env"`  // Environment variable name for API key
	BaseURL    string `mapstructure:"base_url"`     // Base URL for OpenAI-compatible APIs
	BaseURLEnv string `mapstructure:"base_url_env"` // Environment variable name for base URL
	Dimensions int    `mapstructure:"dimensions"`   // Embedding vector dimensions
	BatchSize  int    `mapstructure:"batch_size"`   // Texts per request at build time
}

// ResolveEnvVars fills APIKey and BaseURL from their *Env variables when the
// direct values are empty.
func (c *EmbeddingConfig) ResolveEnvVars() {
	if c.APIKeyEnv != "" && c.APIKey == "" {
		if val := os.Getenv(c.APIKeyEnv); val != "" {
			c.APIKey = val
		}
	}
	if c.BaseURLEnv != "" && c.BaseURL == "" {
		if val := os.Getenv(c.BaseURLEnv); val != "" {
			c.BaseURL = val
		}
	}
}

// Validate checks that the embedding configuration has all required fields.
func (c *EmbeddingConfig) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("embedding: provider is required")
	}
	if c.Dimensions <= 0 {
		return fmt.Errorf("embedding %q: dimensions must be positive", c.Provider)
	}
	if c.BatchSize < 0 {
		return fmt.Errorf("embedding %q: batch_size must not be negative", c.Provider)
	}

	switch c.Provider {
	case ProviderHash:
		return nil
	case ProviderJina:
		if c.APIKey == "" {
			return fmt.Errorf("embedding %q: api_key is required (set directly or via %s)", c.Provider, c.APIKeyEnv)
		}
	case ProviderOpenAICompatible:
		if c.BaseURL == "" {
			return fmt.Errorf("embedding %q: base_url is required", c.Provider)
		}
	default:
		return fmt.Errorf("embedding: unknown provider %q", c.Provider)
	}

	if c.Model == "" {
		return fmt.Errorf("embedding %q: model is required", c.Provider)
	}
	return nil
}
