package cache

import (
	"commute-service/internal/ports"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	DefaultDrivingTTL = 15 * time.Minute
	keyDriving        = "commute:cache:drive:" // + provider key
)

// RedisDrivingCache stores driving lookups in Redis.
//
// The first Redis error disables the cache for the life of the process.
type RedisDrivingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger

	mu       sync.RWMutex
	disabled bool
}

func NewRedisDrivingCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisDrivingCache {
	if ttl <= 0 {
		ttl = DefaultDrivingTTL
	}
	return &RedisDrivingCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "driving_cache").Logger(),
	}
}

// NewRedisClient builds a client and checks it with a ping. A failed ping is
// returned so callers can fall back to another cache.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (c *RedisDrivingCache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

func (c *RedisDrivingCache) Get(ctx context.Context, key string) (ports.DrivingResult, bool) {
	if !c.IsAvailable() {
		return ports.DrivingResult{}, false
	}

	data, err := c.client.Get(ctx, keyDriving+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ports.DrivingResult{}, false
	}
	if err != nil {
		c.handleError(err, "get")
		return ports.DrivingResult{}, false
	}

	var r ports.DrivingResult
	if err := json.Unmarshal(data, &r); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return ports.DrivingResult{}, false
	}
	return r, true
}

func (c *RedisDrivingCache) Put(ctx context.Context, key string, r ports.DrivingResult) {
	if !c.IsAvailable() {
		return
	}

	data, err := json.Marshal(r)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, keyDriving+key, data, c.ttl).Err(); err != nil {
		c.handleError(err, "set")
	}
}

func (c *RedisDrivingCache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *RedisDrivingCache) handleError(err error, operation string) {
	// A cancelled request says nothing about Redis health.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	c.mu.Lock()
	c.disabled = true
	c.mu.Unlock()
	c.logger.Warn().Msg("disabling driving cache due to Redis error")
}
