// Package cache holds rendered EQ configs in Redis so repeated downloads
// skip re-rendering. Caching is optional; an empty Redis URL yields a no-op
// cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ConfigCache stores rendered EQ config text keyed by job ID. Get returns
// ("", nil) on a miss.
type ConfigCache interface {
	Get(ctx context.Context, jobID string) (string, error)
	Set(ctx context.Context, jobID string, config string) error
	Invalidate(ctx context.Context, jobID string) error
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to Redis using a redis:// URL.
func NewRedisCache(url string) (ConfigCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisCache{
		client: client,
		ttl:    24 * time.Hour,
	}, nil
}

func cacheKey(jobID string) string {
	return "graphiceq:" + jobID
}

func (c *redisCache) Get(ctx context.Context, jobID string) (string, error) {
	val, err := c.client.Get(ctx, cacheKey(jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		// Treat Redis failures as misses, the config can be re-rendered.
		log.Warn().Err(err).Str("jobID", jobID).Msg("Config cache read failed")
		return "", nil
	}
	return val, nil
}

func (c *redisCache) Set(ctx context.Context, jobID string, config string) error {
	if err := c.client.Set(ctx, cacheKey(jobID), config, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache config: %w", err)
	}
	return nil
}

func (c *redisCache) Invalidate(ctx context.Context, jobID string) error {
	if err := c.client.Del(ctx, cacheKey(jobID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached config: %w", err)
	}
	return nil
}

type noopCache struct{}

// NewNoopCache returns a cache that never stores anything, used when Redis
// is not configured.
func NewNoopCache() ConfigCache {
	return noopCache{}
}

func (noopCache) Get(ctx context.Context, jobID string) (string, error) { return "", nil }

func (noopCache) Set(ctx context.Context, jobID string, config string) error { return nil }

func (noopCache) Invalidate(ctx context.Context, jobID string) error { return nil }
