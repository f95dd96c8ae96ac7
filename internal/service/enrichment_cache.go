package service

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// TTLCache is a size-bounded LRU whose entries also expire after ttl.
// Safe for concurrent use.
type TTLCache[T any] struct {
	storage *lru.Cache[string, cacheItem[T]]
	ttl     time.Duration
	now     func() time.Time
}

// NewTTLCache creates a cache holding at most size entries.
func NewTTLCache[T any](size int, ttl time.Duration) *TTLCache[T] {
	if size <= 0 {
		size = 1000
	}
	c, _ := lru.New[string, cacheItem[T]](size)
	return &TTLCache[T]{storage: c, ttl: ttl, now: time.Now}
}

// Set adds or replaces a value.
func (c *TTLCache[T]) Set(key string, value T) {
	c.storage.Add(key, cacheItem[T]{Value: value, ExpiredAt: c.now().Add(c.ttl)})
}

// Get returns a live value, evicting it when expired.
func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}
	if c.ttl > 0 && c.now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}
	return item.Value, true
}

// Len returns the number of stored entries, expired ones included.
func (c *TTLCache[T]) Len() int {
	return c.storage.Len()
}

// Clear drops every entry.
func (c *TTLCache[T]) Clear() {
	c.storage.Purge()
}
