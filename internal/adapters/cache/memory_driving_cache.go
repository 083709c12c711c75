package cache

import (
	"commute-service/internal/ports"
	"context"
	"time"

	"github.com/bluele/gcache"
)

const DefaultMemoryCacheSize = 1024

// MemoryDrivingCache is an in-process LRU used when Redis is not configured.
type MemoryDrivingCache struct {
	lru gcache.Cache
}

func NewMemoryDrivingCache(size int, ttl time.Duration) *MemoryDrivingCache {
	return newMemoryDrivingCache(size, ttl, gcache.NewRealClock())
}

func newMemoryDrivingCache(size int, ttl time.Duration, clock gcache.Clock) *MemoryDrivingCache {
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultDrivingTTL
	}
	return &MemoryDrivingCache{
		lru: gcache.New(size).
			LRU().
			Expiration(ttl).
			Clock(clock).
			Build(),
	}
}

func (c *MemoryDrivingCache) Get(_ context.Context, key string) (ports.DrivingResult, bool) {
	v, err := c.lru.Get(key)
	if err != nil {
		return ports.DrivingResult{}, false
	}
	r, ok := v.(ports.DrivingResult)
	return r, ok
}

func (c *MemoryDrivingCache) Put(_ context.Context, key string, r ports.DrivingResult) {
	_ = c.lru.Set(key, r)
}
