package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
)

// ProviderCacheKey builds the cache key for a title and year. Values are used
// verbatim.
func ProviderCacheKey(title, year string) string {
	return title + "|" + year
}

// ProviderCache maps "{title}|{year}" to a provider string and is persisted as
// a flat JSON object. Keys are never invalidated.
type ProviderCache struct {
	path    string
	mu      sync.Mutex
	entries map[string]string
}

// LoadProviderCache reads the cache at path. A missing file yields an empty cache.
func LoadProviderCache(path string) (*ProviderCache, error) {
	c := &ProviderCache{path: path, entries: make(map[string]string)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return c, nil
		}
		return nil, fmt.Errorf("failed to read provider cache: %w", err)
	}
	if len(data) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, domain.ErrCorruptArtifact)
	}
	if c.entries == nil {
		c.entries = make(map[string]string)
	}
	return c, nil
}

// Path returns the backing file path.
func (c *ProviderCache) Path() string { return c.path }

// Get returns the cached provider string for key.
func (c *ProviderCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Len returns the number of cached keys.
func (c *ProviderCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Put stores a value and rewrites the whole file.
func (c *ProviderCache) Put(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return c.saveLocked()
}

// Save rewrites the whole file.
func (c *ProviderCache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

func (c *ProviderCache) saveLocked() error {
	return WriteFileAtomic(c.path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(c.entries)
	})
}
