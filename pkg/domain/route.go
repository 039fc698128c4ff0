package domain

import "math"

const earthRadiusMeters = 6371000.0
const metersPerMile = 1609.344

// Route is the immutable output of the geo provider's routing call: an
// ordered polyline plus the provider's own distance/duration estimate.
// Route never mutates after construction; Interpolate is a pure read.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        []GeoPoint // at least two points
	Origin          GeoPoint
	Destination     GeoPoint

	// cumulative arc length (meters) at each vertex, precomputed from
	// Geometry by haversine distance between successive vertices.
	cumulative []float64
}

// NewRoute builds a Route and precomputes its cumulative arc-length table.
// geometry must contain at least two points.
func NewRoute(distanceMeters, durationSeconds float64, geometry []GeoPoint, origin, destination GeoPoint) *Route {
	r := &Route{
		DistanceMeters:  distanceMeters,
		DurationSeconds: durationSeconds,
		Geometry:        geometry,
		Origin:          origin,
		Destination:     destination,
	}
	r.cumulative = make([]float64, len(geometry))
	for i := 1; i < len(geometry); i++ {
		r.cumulative[i] = r.cumulative[i-1] + haversineMeters(geometry[i-1], geometry[i])
	}
	return r
}

// DistanceMiles returns the route's total distance in miles.
func (r *Route) DistanceMiles() float64 {
	return r.DistanceMeters / metersPerMile
}

// haversineMeters returns the great-circle distance between two points.
func haversineMeters(a, b GeoPoint) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	sinDLat := math.Sin(dLat / 2)
	sinDLng := math.Sin(dLng / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusMeters * c
}

// Interpolate returns the point on the polyline at the given cumulative arc
// length from the origin, measured in meters. It walks vertices accumulating
// distance until the target falls inside a segment, then linearly
// interpolates lat/lng within that segment. If distanceMeters exceeds the
// polyline length, the last vertex is returned. Not reversible, not
// resampled: a second call with a smaller distance still walks from vertex 0.
func (r *Route) Interpolate(distanceMeters float64) GeoPoint {
	n := len(r.Geometry)
	if n == 0 {
		return GeoPoint{}
	}
	if n == 1 || distanceMeters <= 0 {
		return r.Geometry[0]
	}
	last := r.cumulative[n-1]
	if distanceMeters >= last {
		return r.Geometry[n-1]
	}

	for i := 1; i < n; i++ {
		if distanceMeters <= r.cumulative[i] {
			segStart := r.cumulative[i-1]
			segLen := r.cumulative[i] - segStart
			if segLen <= 0 {
				return r.Geometry[i]
			}
			frac := (distanceMeters - segStart) / segLen
			a, b := r.Geometry[i-1], r.Geometry[i]
			return GeoPoint{
				Lat: a.Lat + (b.Lat-a.Lat)*frac,
				Lng: a.Lng + (b.Lng-a.Lng)*frac,
			}
		}
	}
	return r.Geometry[n-1]
}

// InterpolateMiles is a convenience wrapper around Interpolate that accepts
// a cumulative distance in miles, the unit the planner tracks internally.
func (r *Route) InterpolateMiles(distanceMiles float64) GeoPoint {
	return r.Interpolate(distanceMiles * metersPerMile)
}
