package callback

import (
	"context"
	"sync"
)

// Cache maps short URL hashes to the full URLs they stand for. The
// production implementation persists entries so tokens survive process
// restarts; MemoryCache serves tests and single-process deployments.
type Cache interface {
	Put(ctx context.Context, key, url string) error
	// Get returns the URL for a key, or ErrUnknownReference when the
	// entry is absent or expired.
	Get(ctx context.Context, key string) (string, error)
}

// MemoryCache is a process-local Cache guarded by a mutex.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]string)}
}

func (c *MemoryCache) Put(_ context.Context, key, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = url
	return nil
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	url, ok := c.entries[key]
	if !ok {
		return "", ErrUnknownReference
	}
	return url, nil
}
