package geoprovider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fleetops/hos-planner/pkg/cache"
	"github.com/fleetops/hos-planner/pkg/domain"
)

type fakeProvider struct {
	geocodeCalls int
	routeCalls   int
	point        domain.GeoPoint
	route        *domain.Route
	err          error
}

func (f *fakeProvider) Geocode(_ context.Context, _ string) (domain.GeoPoint, error) {
	f.geocodeCalls++
	return f.point, f.err
}

func (f *fakeProvider) ReverseGeocode(_ context.Context, _, _ float64) (string, string, error) {
	f.geocodeCalls++
	return f.point.City, f.point.State, f.err
}

func (f *fakeProvider) Route(_ context.Context, origin, destination domain.GeoPoint, _ ...domain.GeoPoint) (*domain.Route, error) {
	f.routeCalls++
	return f.route, f.err
}

func TestCachedProvider_Geocode_CachesResult(t *testing.T) {
	inner := &fakeProvider{point: domain.GeoPoint{Lat: 34.05, Lng: -118.24, City: "Los Angeles", State: "CA"}}
	mem := cache.NewMemoryCache(nil)
	defer mem.Close()

	c := NewCachedProvider(inner, mem, 7*24*time.Hour, 1*time.Hour)
	ctx := context.Background()

	pt1, err := c.Geocode(ctx, "  Los Angeles, CA  ")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}

	pt2, err := c.Geocode(ctx, "los angeles, ca")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}

	if pt1 != pt2 {
		t.Errorf("expected equal points from cache, got %v vs %v", pt1, pt2)
	}
	if inner.geocodeCalls != 1 {
		t.Errorf("inner.Geocode called %d times, want 1 (second lookup should hit cache)", inner.geocodeCalls)
	}
}

func TestCachedProvider_Geocode_PropagatesError(t *testing.T) {
	inner := &fakeProvider{err: errors.New("boom")}
	mem := cache.NewMemoryCache(nil)
	defer mem.Close()

	c := NewCachedProvider(inner, mem, time.Hour, time.Hour)
	if _, err := c.Geocode(context.Background(), "nowhere"); err == nil {
		t.Errorf("expected error to propagate")
	}
}

func TestCachedProvider_ReverseGeocode_Buckets4Decimals(t *testing.T) {
	inner := &fakeProvider{point: domain.GeoPoint{City: "Chicago", State: "IL"}}
	mem := cache.NewMemoryCache(nil)
	defer mem.Close()

	c := NewCachedProvider(inner, mem, time.Hour, time.Hour)
	ctx := context.Background()

	if _, _, err := c.ReverseGeocode(ctx, 41.878100, -87.629800); err != nil {
		t.Fatalf("ReverseGeocode() error = %v", err)
	}
	// Within the same 4-decimal bucket: should hit cache, not call inner again.
	if _, _, err := c.ReverseGeocode(ctx, 41.878101, -87.629799); err != nil {
		t.Fatalf("ReverseGeocode() error = %v", err)
	}

	if inner.geocodeCalls != 1 {
		t.Errorf("inner.ReverseGeocode called %d times, want 1", inner.geocodeCalls)
	}
}

func TestCachedProvider_Route_CachesByCoordinateKey(t *testing.T) {
	origin := domain.GeoPoint{Lat: 41.85, Lng: -87.65}
	destination := domain.GeoPoint{Lat: 39.95, Lng: -75.16}
	route := domain.NewRoute(1000, 3600, []domain.GeoPoint{origin, destination}, origin, destination)

	inner := &fakeProvider{route: route}
	mem := cache.NewMemoryCache(nil)
	defer mem.Close()

	c := NewCachedProvider(inner, mem, time.Hour, time.Hour)
	ctx := context.Background()

	r1, err := c.Route(ctx, origin, destination)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	r2, err := c.Route(ctx, origin, destination)
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}

	if r1.DistanceMeters != r2.DistanceMeters {
		t.Errorf("expected cached route distance to match")
	}
	if inner.routeCalls != 1 {
		t.Errorf("inner.Route called %d times, want 1", inner.routeCalls)
	}
}
