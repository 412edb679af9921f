package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// cleanupInterval is how often expired entries are purged in the background
const cleanupInterval = time.Minute

// MemoryCache is an in-process CacheService used when no memcache server is
// configured
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

// Get retrieves a copy of a value. Expired entries are misses.
func (c *MemoryCache) Get(key string) ([]byte, error) {
	v, ok := c.items.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	value := v.([]byte)
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

// Set stores a copy of value. A non-positive expiration keeps it until deleted.
func (c *MemoryCache) Set(key string, value []byte, expiration time.Duration) error {
	if expiration <= 0 {
		expiration = gocache.NoExpiration
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	c.items.Set(key, stored, expiration)
	return nil
}

// Delete removes a value
func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}
