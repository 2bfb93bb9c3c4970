package forms

import "sync"

// MemoryCache is a process-local LocalCache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]RawRecord
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]RawRecord{}}
}

func (c *MemoryCache) Put(key string, rec RawRecord) error {
	payload := append([]byte(nil), rec.Payload...)
	c.mu.Lock()
	c.entries[key] = RawRecord{Payload: payload, UpdatedAt: rec.UpdatedAt}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Get(key string) (*RawRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}
