package storage

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/ReaderBridge/internal/shared/types"
)

// MemoryCache is an in-process LocationsCache
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]types.NavigationIndex
}

// NewMemoryCache creates an empty cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]types.NavigationIndex)}
}

// Load implements LocationsCache
func (c *MemoryCache) Load(ctx context.Context, key string) (types.NavigationIndex, bool, error) {
	if err := ValidateKey(key); err != nil {
		return types.NavigationIndex{}, false, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	index, ok := c.entries[key]
	if !ok {
		return types.NavigationIndex{}, false, nil
	}
	return clone(index), true, nil
}

// Save implements LocationsCache
func (c *MemoryCache) Save(ctx context.Context, key string, index types.NavigationIndex) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := validateIndex(index); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = clone(index)
	return nil
}

// Delete implements LocationsCache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Len returns the number of cached indices
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
