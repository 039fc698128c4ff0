package geoprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fleetops/hos-planner/pkg/cache"
	"github.com/fleetops/hos-planner/pkg/domain"
	"github.com/fleetops/hos-planner/pkg/metrics"
)

// CachedProvider decorates a GeoProvider with geocode/route result caching:
// geocode entries live 7 days, route entries 1 hour, and reverse-geocode
// coordinates are bucketed to 4 decimal places before lookup.
type CachedProvider struct {
	inner      GeoProvider
	store      cache.Cache
	geocodeTTL time.Duration
	routeTTL   time.Duration
	metrics    *metrics.Metrics
}

// NewCachedProvider wraps inner with the given cache and TTLs.
func NewCachedProvider(inner GeoProvider, store cache.Cache, geocodeTTL, routeTTL time.Duration) *CachedProvider {
	return &CachedProvider{
		inner:      inner,
		store:      store,
		geocodeTTL: geocodeTTL,
		routeTTL:   routeTTL,
		metrics:    metrics.Get(),
	}
}

func geocodeKey(query string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(query))
}

func reverseGeocodeKey(lat, lng float64) string {
	return fmt.Sprintf("reverse:%s,%s", bucket4(lat), bucket4(lng))
}

func bucket4(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func routeKey(points []domain.GeoPoint) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = fmt.Sprintf("%g,%g", p.Lng, p.Lat)
	}
	return "route:" + strings.Join(parts, ";")
}

func (c *CachedProvider) Geocode(ctx context.Context, query string) (domain.GeoPoint, error) {
	key := geocodeKey(query)

	if raw, err := c.store.Get(ctx, key); err == nil {
		var pt domain.GeoPoint
		if jsonErr := json.Unmarshal(raw, &pt); jsonErr == nil {
			c.metrics.RecordGeoCacheLookup("geocode", true)
			return pt, nil
		}
	}
	c.metrics.RecordGeoCacheLookup("geocode", false)

	pt, err := c.inner.Geocode(ctx, query)
	if err != nil {
		return domain.GeoPoint{}, err
	}

	if raw, err := json.Marshal(pt); err == nil {
		_ = c.store.Set(ctx, key, raw, c.geocodeTTL)
	}

	return pt, nil
}

func (c *CachedProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (string, string, error) {
	key := reverseGeocodeKey(lat, lng)

	if raw, err := c.store.Get(ctx, key); err == nil {
		var v [2]string
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			c.metrics.RecordGeoCacheLookup("reverse_geocode", true)
			return v[0], v[1], nil
		}
	}
	c.metrics.RecordGeoCacheLookup("reverse_geocode", false)

	city, state, err := c.inner.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		return city, state, err
	}

	if raw, err := json.Marshal([2]string{city, state}); err == nil {
		_ = c.store.Set(ctx, key, raw, c.geocodeTTL)
	}

	return city, state, nil
}

func (c *CachedProvider) Route(ctx context.Context, origin, destination domain.GeoPoint, waypoints ...domain.GeoPoint) (*domain.Route, error) {
	points := make([]domain.GeoPoint, 0, len(waypoints)+2)
	points = append(points, origin)
	points = append(points, waypoints...)
	points = append(points, destination)
	key := routeKey(points)

	if raw, err := c.store.Get(ctx, key); err == nil {
		var cached cachedRoute
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			c.metrics.RecordGeoCacheLookup("route", true)
			return cached.toRoute(), nil
		}
	}
	c.metrics.RecordGeoCacheLookup("route", false)

	route, err := c.inner.Route(ctx, origin, destination, waypoints...)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(fromRoute(route)); err == nil {
		_ = c.store.Set(ctx, key, raw, c.routeTTL)
	}

	return route, nil
}

// cachedRoute is the JSON-serializable shape of a domain.Route, whose
// unexported cumulative-distance table must be recomputed on load.
type cachedRoute struct {
	DistanceMeters  float64           `json:"distance_meters"`
	DurationSeconds float64           `json:"duration_seconds"`
	Geometry        []domain.GeoPoint `json:"geometry"`
	Origin          domain.GeoPoint   `json:"origin"`
	Destination     domain.GeoPoint   `json:"destination"`
}

func fromRoute(r *domain.Route) cachedRoute {
	return cachedRoute{
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: r.DurationSeconds,
		Geometry:        r.Geometry,
		Origin:          r.Origin,
		Destination:     r.Destination,
	}
}

func (c cachedRoute) toRoute() *domain.Route {
	return domain.NewRoute(c.DistanceMeters, c.DurationSeconds, c.Geometry, c.Origin, c.Destination)
}
