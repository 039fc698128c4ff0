package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Redis-backed Cache implementation.
type RedisCache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedisCache dials Redis and verifies connectivity with a ping.
func NewRedisCache(opts *Options) (*RedisCache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	poolSize := opts.RedisPoolSize
	if poolSize <= 0 {
		poolSize = 10
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.RedisAddr,
		Password: opts.RedisPassword,
		DB:       opts.RedisDB,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisCache{
		client:     client,
		defaultTTL: opts.DefaultTTL,
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisCache) Stats(ctx context.Context) (*Stats, error) {
	info, err := c.client.Info(ctx, "stats", "memory", "keyspace").Result()
	if err != nil {
		return nil, err
	}

	stats := &Stats{Backend: "redis"}

	for _, line := range strings.Split(info, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "keyspace_hits:"):
			parseStatLine(line, "keyspace_hits:%d", &stats.Hits)
		case strings.HasPrefix(line, "keyspace_misses:"):
			parseStatLine(line, "keyspace_misses:%d", &stats.Misses)
		case strings.HasPrefix(line, "used_memory:"):
			parseStatLine(line, "used_memory:%d", &stats.MemoryBytes)
		}
	}

	dbSize, err := c.client.DBSize(ctx).Result()
	if err == nil {
		stats.TotalKeys = dbSize
	}

	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}

	return stats, nil
}

// parseStatLine is a best-effort parse; stats are non-critical so errors
// are ignored and the field is left at zero.
func parseStatLine(line, format string, target *int64) {
	if _, err := fmt.Sscanf(line, format, target); err != nil {
		return
	}
}

func (c *RedisCache) Clear(ctx context.Context) error {
	return c.client.FlushDB(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
