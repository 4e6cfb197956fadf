package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/vendor"
)

// SearchCache stores hotel autocomplete results by normalized query.
type SearchCache interface {
	Get(ctx context.Context, query string) ([]vendor.Hotel, bool)
	Set(ctx context.Context, query string, hotels []vendor.Hotel)
}

type memoryEntry struct {
	hotels   []vendor.Hotel
	storedAt time.Time
}

// MemorySearchCache is a bounded in-process cache.  When full, the oldest
// stored entry is evicted.
type MemorySearchCache struct {
	mu      sync.Mutex
	size    int
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemorySearchCache(size int, ttl time.Duration, now func() time.Time) *MemorySearchCache {
	if size <= 0 {
		size = 100
	}
	if now == nil {
		now = time.Now
	}
	return &MemorySearchCache{size: size, ttl: ttl, now: now, entries: make(map[string]memoryEntry, size)}
}

func (c *MemorySearchCache) Get(_ context.Context, query string) ([]vendor.Hotel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[query]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, query)
		return nil, false
	}
	return e.hotels, true
}

func (c *MemorySearchCache) Set(_ context.Context, query string, hotels []vendor.Hotel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[query]; !exists && len(c.entries) >= c.size {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.storedAt.Before(oldest) {
				oldestKey, oldest = k, e.storedAt
			}
		}
		delete(c.entries, oldestKey)
	}
	c.entries[query] = memoryEntry{hotels: hotels, storedAt: c.now()}
}

// Len returns the number of cached queries.
func (c *MemorySearchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RedisSearchCache shares autocomplete results across server instances.
// Redis errors degrade to cache misses.
type RedisSearchCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	log    logrus.FieldLogger
}

func NewRedisSearchCache(rdb *redis.Client, ttl time.Duration, log logrus.FieldLogger) *RedisSearchCache {
	return &RedisSearchCache{rdb: rdb, ttl: ttl, prefix: "rateshop:search:", log: log.WithField("component", "search-cache")}
}

func (c *RedisSearchCache) Get(ctx context.Context, query string) ([]vendor.Hotel, bool) {
	bs, err := c.rdb.Get(ctx, c.prefix+query).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).Warn("search cache read")
		}
		return nil, false
	}
	var hotels []vendor.Hotel
	if err := json.Unmarshal(bs, &hotels); err != nil {
		return nil, false
	}
	return hotels, true
}

func (c *RedisSearchCache) Set(ctx context.Context, query string, hotels []vendor.Hotel) {
	bs, err := json.Marshal(hotels)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, c.prefix+query, bs, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("search cache write")
	}
}
