package provision

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// residencyCacheTTL bounds retention of residency lookups so a tenant
// migrating between modes is picked up without a restart.
const residencyCacheTTL = 5 * time.Minute

// RedisResidencyCache caches residency modes in Redis. The cache is
// best-effort: Redis failures degrade to a credential service call, never
// to a provisioning error.
type RedisResidencyCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisResidencyCache wraps an existing Redis client.
func NewRedisResidencyCache(client *redis.Client, logger *slog.Logger) *RedisResidencyCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisResidencyCache{client: client, logger: logger}
}

func (c *RedisResidencyCache) key(slug string) string {
	return "tenant:residency:" + slug
}

func (c *RedisResidencyCache) Get(ctx context.Context, slug string) (Residency, bool) {
	val, err := c.client.Get(ctx, c.key(slug)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("residency cache read failed", "tenant", slug, "error", err)
		}
		return "", false
	}
	mode := Residency(val)
	if mode != ResidencyCentralized && mode != ResidencyIsolated {
		return "", false
	}
	return mode, true
}

func (c *RedisResidencyCache) Set(ctx context.Context, slug string, mode Residency) {
	if err := c.client.Set(ctx, c.key(slug), string(mode), residencyCacheTTL).Err(); err != nil {
		c.logger.Warn("residency cache write failed", "tenant", slug, "error", err)
	}
}
