package geoprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fleetops/hos-planner/pkg/apperror"
	"github.com/fleetops/hos-planner/pkg/config"
	"github.com/fleetops/hos-planner/pkg/domain"
)

// HTTPProvider is the default GeoProvider: plain net/http GETs against a
// Nominatim-style geocoder and an OSRM-style routing engine.
type HTTPProvider struct {
	geocodeClient *http.Client
	routeClient   *http.Client
	geocodeURL    string
	routeURL      string
	userAgent     string
}

// NewHTTPProvider builds a provider from a loaded GeoProviderConfig.
func NewHTTPProvider(cfg config.GeoProviderConfig) *HTTPProvider {
	return &HTTPProvider{
		geocodeClient: &http.Client{Timeout: cfg.GeocodeTimeout},
		routeClient:   &http.Client{Timeout: cfg.RouteTimeout},
		geocodeURL:    cfg.GeocodeBaseURL,
		routeURL:      cfg.RouteBaseURL,
		userAgent:     cfg.UserAgent,
	}
}

type nominatimAddress struct {
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Hamlet       string `json:"hamlet"`
	Municipality string `json:"municipality"`
	County       string `json:"county"`
	State        string `json:"state"`
}

// cityName returns the first populated place-name field, following the
// fallback chain (city | town | village | hamlet | municipality | county).
func (a nominatimAddress) cityName() string {
	for _, v := range []string{a.City, a.Town, a.Village, a.Hamlet, a.Municipality, a.County} {
		if v != "" {
			return v
		}
	}
	return ""
}

type nominatimResult struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

func (p *HTTPProvider) Geocode(ctx context.Context, query string) (domain.GeoPoint, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("countrycodes", "us")
	q.Set("addressdetails", "1")

	var results []nominatimResult
	if err := p.getJSON(ctx, p.geocodeClient, p.geocodeURL+"?"+q.Encode(), &results); err != nil {
		return domain.GeoPoint{}, classifyProviderError(err, apperror.CodeGeocoding)
	}

	if len(results) == 0 {
		return domain.GeoPoint{}, apperror.New(apperror.CodeGeocoding, fmt.Sprintf("no geocode result for %q", query))
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return domain.GeoPoint{}, apperror.Wrap(err, apperror.CodeGeocoding, "malformed latitude in geocode response")
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return domain.GeoPoint{}, apperror.Wrap(err, apperror.CodeGeocoding, "malformed longitude in geocode response")
	}

	city := r.Address.cityName()
	if city == "" {
		city = domain.UnknownCity
	}

	return domain.GeoPoint{
		Lat:   lat,
		Lng:   lng,
		City:  city,
		State: domain.NormalizeStateName(r.Address.State),
	}, nil
}

func (p *HTTPProvider) ReverseGeocode(ctx context.Context, lat, lng float64) (string, string, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("zoom", "10")

	var result struct {
		Address nominatimAddress `json:"address"`
	}
	if err := p.getJSON(ctx, p.geocodeClient, p.geocodeURL+"?"+q.Encode(), &result); err != nil {
		// Reverse geocode must never fail for valid coordinates, so a
		// provider failure falls back instead of erroring.
		return domain.UnknownCity, domain.UnknownState, nil
	}

	city := result.Address.cityName()
	if city == "" {
		return domain.UnknownCity, domain.UnknownState, nil
	}

	return city, domain.NormalizeStateName(result.Address.State), nil
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

func (p *HTTPProvider) Route(ctx context.Context, origin, destination domain.GeoPoint, waypoints ...domain.GeoPoint) (*domain.Route, error) {
	points := make([]domain.GeoPoint, 0, len(waypoints)+2)
	points = append(points, origin)
	points = append(points, waypoints...)
	points = append(points, destination)

	coordParts := make([]string, len(points))
	for i, pt := range points {
		coordParts[i] = fmt.Sprintf("%g,%g", pt.Lng, pt.Lat)
	}
	coords := strings.Join(coordParts, ";")

	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "geojson")
	q.Set("steps", "false")

	reqURL := fmt.Sprintf("%s/%s?%s", strings.TrimRight(p.routeURL, "/"), coords, q.Encode())

	var resp osrmResponse
	if err := p.getJSON(ctx, p.routeClient, reqURL, &resp); err != nil {
		return nil, classifyProviderError(err, apperror.CodeRouting)
	}

	if resp.Code != "Ok" || len(resp.Routes) == 0 {
		return nil, apperror.New(apperror.CodeRouting, "routing engine returned no route")
	}

	route := resp.Routes[0]
	geometry := make([]domain.GeoPoint, len(route.Geometry.Coordinates))
	for i, c := range route.Geometry.Coordinates {
		geometry[i] = domain.GeoPoint{Lng: c[0], Lat: c[1]}
	}
	if len(geometry) < 2 {
		return nil, apperror.New(apperror.CodeRouting, "route geometry has fewer than two points")
	}

	return domain.NewRoute(route.Distance, route.Duration, geometry, origin, destination), nil
}

func (p *HTTPProvider) getJSON(ctx context.Context, client *http.Client, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return transientError{err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return transientError{fmt.Errorf("provider returned status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// transientError marks network/timeout failures as retryable, distinct
// from a well-formed but empty/erroring provider response.
type transientError struct{ cause error }

func (t transientError) Error() string { return t.cause.Error() }
func (t transientError) Unwrap() error { return t.cause }

func classifyProviderError(err error, fallback apperror.ErrorCode) error {
	if te, ok := err.(transientError); ok {
		return apperror.Wrap(te.cause, apperror.CodeTransientProvider, "geo provider request failed")
	}
	return apperror.Wrap(err, fallback, "geo provider request failed")
}
