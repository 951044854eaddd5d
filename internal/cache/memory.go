package cache

import (
	"context"
	"sync"

	"predictionScope/internal/model"
)

// MemoryMetadataCache caches round metadata objects by object id. Metadata objects are
// immutable once a round is created, so entries never expire.
type MemoryMetadataCache struct {
	mu   sync.RWMutex
	data map[string]model.RoundMetadata
}

func NewMemoryMetadataCache() *MemoryMetadataCache {
	return &MemoryMetadataCache{data: make(map[string]model.RoundMetadata)}
}

func (c *MemoryMetadataCache) GetMetadata(_ context.Context, ids []string) (map[string]model.RoundMetadata, error) {
	out := make(map[string]model.RoundMetadata, len(ids))
	c.mu.RLock()
	for _, id := range ids {
		if meta, ok := c.data[id]; ok {
			out[id] = meta
		}
	}
	c.mu.RUnlock()
	return out, nil
}

func (c *MemoryMetadataCache) PutMetadata(_ context.Context, entries []model.RoundMetadata) error {
	c.mu.Lock()
	for _, meta := range entries {
		c.data[meta.ObjectID] = meta
	}
	c.mu.Unlock()
	return nil
}
