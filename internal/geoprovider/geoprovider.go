// Package geoprovider resolves addresses to coordinates and builds the
// driving route between them, against a Nominatim-style geocoder and an
// OSRM-style routing engine.
package geoprovider

import (
	"context"

	"github.com/fleetops/hos-planner/pkg/domain"
)

// GeoProvider resolves locations and routes for the planner. Every
// implementation must ensure reverse geocode never fails on valid
// coordinates, falling back to domain.UnknownCity/UnknownState instead.
type GeoProvider interface {
	// Geocode resolves a free-text query to a point with city/state, US-biased.
	Geocode(ctx context.Context, query string) (domain.GeoPoint, error)
	// ReverseGeocode resolves coordinates to a city/state at roughly city
	// granularity. Never returns an error for structurally valid coordinates.
	ReverseGeocode(ctx context.Context, lat, lng float64) (city, state string, err error)
	// Route computes the driving route through origin, any waypoints, and
	// destination, in that order.
	Route(ctx context.Context, origin, destination domain.GeoPoint, waypoints ...domain.GeoPoint) (*domain.Route, error)
}
