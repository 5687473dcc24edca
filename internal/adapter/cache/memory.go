package cache

import (
	"context"
	"sync"
	"time"

	"currency-rate-proxy/internal/domain/model"
	"currency-rate-proxy/pkg/logger"
)

type memoryEntry struct {
	entry   model.CacheEntry
	purgeAt time.Time
}

// MemoryCache is an in-process CacheStore. Entries are kept until their
// retention deadline, past their freshness expiry, so stale reads work.
type MemoryCache struct {
	cacheMap map[string]memoryEntry
	mutex    sync.RWMutex
	now      func() time.Time
	log      *logger.Logger
}

func NewMemoryCache(log *logger.Logger) *MemoryCache {
	return &MemoryCache{
		cacheMap: make(map[string]memoryEntry),
		now:      time.Now,
		log:      log,
	}
}

func (c *MemoryCache) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, found := c.cacheMap[key]
	if !found || !c.now().Before(item.purgeAt) {
		c.log.Debug("Cache miss", "key", key)
		return nil, nil
	}

	entry := item.entry
	c.log.Debug("Cache hit", "key", key, "expires_at", entry.ExpiresAt)
	return &entry, nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, entry model.CacheEntry, retention time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.cacheMap[key] = memoryEntry{
		entry:   entry,
		purgeAt: c.now().Add(retention),
	}
	c.log.Debug("Cache set", "key", key, "expires_at", entry.ExpiresAt, "retention", retention)

	return nil
}

// ClearExpired removes entries whose retention has run out.
func (c *MemoryCache) ClearExpired(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	expiredKeys := make([]string, 0)

	for key, item := range c.cacheMap {
		if !now.Before(item.purgeAt) {
			expiredKeys = append(expiredKeys, key)
		}
	}

	for _, key := range expiredKeys {
		delete(c.cacheMap, key)
		c.log.Debug("Removed expired cache entry", "key", key)
	}

	c.log.Info("Cleared expired cache entries", "count", len(expiredKeys))
	return nil
}

func (c *MemoryCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.cacheMap)
}
