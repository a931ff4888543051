package memory

import (
	"context"
	"sync"
)

// ResponseCache is an in-process app.ResponseCache. Entries live for the
// lifetime of the process; nothing is evicted.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

func NewResponseCache() *ResponseCache {
	return &ResponseCache{entries: make(map[string][]byte)}
}

func (c *ResponseCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (c *ResponseCache) Set(_ context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = append([]byte(nil), value...)
	return nil
}

// Len reports the number of cached responses.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
