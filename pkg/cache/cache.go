// Package cache provides a small caching interface with in-memory and
// Redis-backed implementations, used by the geo provider to avoid
// re-querying the same geocode/route lookups.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/fleetops/hos-planner/pkg/config"
)

// Backend types for cache implementations.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ErrKeyNotFound is returned when a requested key does not exist in the cache.
var ErrKeyNotFound = errors.New("key not found")

// ErrCacheClosed is returned when an operation is attempted on a closed cache.
var ErrCacheClosed = errors.New("cache is closed")

// Cache is the interface shared by the memory and Redis backends.
type Cache interface {
	// Get retrieves the value associated with the given key.
	// Returns ErrKeyNotFound if the key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores a value for the given key with a time-to-live.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the key-value pair from the cache.
	Delete(ctx context.Context, key string) error
	// Exists checks if a key exists in the cache.
	Exists(ctx context.Context, key string) (bool, error)

	// Stats returns statistics about the cache.
	Stats(ctx context.Context) (*Stats, error)
	// Clear removes all keys from the cache.
	Clear(ctx context.Context) error
	// Close shuts down the cache and releases any underlying resources.
	Close() error
}

// Stats holds statistics about a cache's performance and state.
type Stats struct {
	TotalKeys   int64
	Hits        int64
	Misses      int64
	HitRate     float64
	MemoryBytes int64
	Backend     string
}

// Options configures a Cache instance.
type Options struct {
	Backend    string
	DefaultTTL time.Duration

	// Memory cache options.
	MaxEntries      int
	CleanupInterval time.Duration

	// Redis cache options.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// DefaultOptions returns sensible defaults for a memory-backed cache.
func DefaultOptions() *Options {
	return &Options{
		Backend:         BackendMemory,
		DefaultTTL:      1 * time.Hour,
		MaxEntries:      100000,
		CleanupInterval: 1 * time.Minute,
		RedisAddr:       "localhost:6379",
		RedisDB:         0,
		RedisPoolSize:   10,
	}
}

// FromConfig builds Options from a loaded CacheConfig. The geocode TTL is
// used as the cache-wide default; callers that need the route TTL pass it
// explicitly to Set.
func FromConfig(cfg config.CacheConfig) *Options {
	return &Options{
		Backend:       cfg.Driver,
		DefaultTTL:    cfg.GeocodeTTL,
		MaxEntries:    cfg.MaxEntries,
		RedisAddr:     cfg.Address(),
		RedisPassword: cfg.Password,
		RedisDB:       cfg.DB,
		RedisPoolSize: 10,
	}
}

// New builds a Cache from the given options.
func New(opts *Options) (Cache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch opts.Backend {
	case BackendRedis:
		return NewRedisCache(opts)
	default:
		return NewMemoryCache(opts), nil
	}
}

// MustNew builds a Cache or panics.
func MustNew(opts *Options) Cache {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}
