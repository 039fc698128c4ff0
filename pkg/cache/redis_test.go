package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func skipIfNoRedis(t *testing.T) {
	if os.Getenv("REDIS_TEST_ADDR") == "" {
		t.Skip("REDIS_TEST_ADDR not set, skipping Redis tests")
	}
}

func TestNewRedisCache(t *testing.T) {
	skipIfNoRedis(t)

	opts := &Options{
		Backend:       BackendRedis,
		RedisAddr:     os.Getenv("REDIS_TEST_ADDR"),
		RedisPassword: os.Getenv("REDIS_TEST_PASSWORD"),
		RedisDB:       0,
		DefaultTTL:    time.Minute,
	}

	c, err := NewRedisCache(opts)
	if err != nil {
		t.Fatalf("NewRedisCache() error = %v", err)
	}
	defer c.Close()

	ctx := context.Background()

	if err := c.Set(ctx, "route:key", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := c.Get(ctx, "route:key")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("Get() = %s, want payload", got)
	}

	if err := c.Delete(ctx, "route:key"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := c.Get(ctx, "route:key"); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestRedisCache_NewFailsOnUnreachable(t *testing.T) {
	_, err := NewRedisCache(&Options{RedisAddr: "127.0.0.1:1"})
	if err == nil {
		t.Errorf("expected error connecting to unreachable redis")
	}
}
