package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(&Options{DefaultTTL: 1 * time.Minute, MaxEntries: 100})
	defer c.Close()

	ctx := context.Background()
	key := "geocode:1600 amphitheatre parkway"
	value := []byte(`{"lat":37.422,"lng":-122.084}`)

	if err := c.Set(ctx, key, value, 0); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("got %s, want %s", got, value)
	}
}

func TestMemoryCache_GetNotFound(t *testing.T) {
	c := NewMemoryCache(nil)
	defer c.Close()

	if _, err := c.Get(context.Background(), "nonexistent"); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(nil)
	defer c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 1*time.Millisecond); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := c.Get(ctx, "k"); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound after expiry, got %v", err)
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	c := NewMemoryCache(nil)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "k", []byte("v"), 0)

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	if _, err := c.Get(ctx, "k"); err != ErrKeyNotFound {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestMemoryCache_Exists(t *testing.T) {
	c := NewMemoryCache(nil)
	defer c.Close()

	ctx := context.Background()
	if exists, _ := c.Exists(ctx, "k"); exists {
		t.Errorf("expected key to not exist")
	}

	c.Set(ctx, "k", []byte("v"), 0)
	if exists, _ := c.Exists(ctx, "k"); !exists {
		t.Errorf("expected key to exist")
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	c := NewMemoryCache(&Options{MaxEntries: 2, DefaultTTL: 1 * time.Minute})
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "a", []byte("1"), 0)
	time.Sleep(1 * time.Millisecond)
	c.Set(ctx, "b", []byte("2"), 0)
	time.Sleep(1 * time.Millisecond)
	c.Set(ctx, "c", []byte("3"), 0)

	if _, err := c.Get(ctx, "a"); err != ErrKeyNotFound {
		t.Errorf("expected oldest entry to be evicted")
	}
	if _, err := c.Get(ctx, "c"); err != nil {
		t.Errorf("expected newest entry to survive, got error: %v", err)
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c := NewMemoryCache(nil)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "k", []byte("v"), 0)
	c.Get(ctx, "k")
	c.Get(ctx, "missing")

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("failed to get stats: %v", err)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("Hits=%d Misses=%d, want 1/1", stats.Hits, stats.Misses)
	}
	if stats.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", stats.Backend)
	}
}

func TestMemoryCache_ClosedReturnsError(t *testing.T) {
	c := NewMemoryCache(nil)
	c.Close()

	ctx := context.Background()
	if err := c.Set(ctx, "k", []byte("v"), 0); err != ErrCacheClosed {
		t.Errorf("expected ErrCacheClosed, got %v", err)
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	c := NewMemoryCache(nil)
	defer c.Close()

	ctx := context.Background()
	c.Set(ctx, "k", []byte("v"), 0)
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("failed to clear: %v", err)
	}
	if _, err := c.Get(ctx, "k"); err != ErrKeyNotFound {
		t.Errorf("expected cache to be empty after clear")
	}
}
