package geoprovider

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fleetops/hos-planner/pkg/apperror"
	"github.com/fleetops/hos-planner/pkg/config"
	"github.com/fleetops/hos-planner/pkg/domain"
)

func dp(lat, lng float64) domain.GeoPoint {
	return domain.GeoPoint{Lat: lat, Lng: lng}
}

func TestHTTPProvider_Geocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "" {
			t.Errorf("expected q query parameter")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"lat":          "41.8781",
				"lon":          "-87.6298",
				"display_name": "Chicago, Illinois",
				"address": map[string]string{
					"city":  "Chicago",
					"state": "Illinois",
				},
			},
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider(config.GeoProviderConfig{
		GeocodeBaseURL: srv.URL,
		RouteBaseURL:   srv.URL,
		UserAgent:      "hos-planner-test/1.0",
		GeocodeTimeout: 5 * time.Second,
		RouteTimeout:   5 * time.Second,
	})

	pt, err := p.Geocode(t.Context(), "Chicago, IL")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}

	if pt.City != "Chicago" || pt.State != "IL" {
		t.Errorf("Geocode() = %+v, want Chicago/IL", pt)
	}
	if pt.Lat < 41.8 || pt.Lat > 41.9 {
		t.Errorf("Geocode() lat = %v, want ~41.8781", pt.Lat)
	}
}

func TestHTTPProvider_Geocode_EmptyResultIsGeocodingError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer srv.Close()

	p := NewHTTPProvider(config.GeoProviderConfig{
		GeocodeBaseURL: srv.URL,
		GeocodeTimeout: 5 * time.Second,
	})

	_, err := p.Geocode(t.Context(), "nowhere at all")
	if !apperror.Is(err, apperror.CodeGeocoding) {
		t.Errorf("expected CodeGeocoding, got %v", err)
	}
}

func TestHTTPProvider_ReverseGeocode_FallsBackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPProvider(config.GeoProviderConfig{
		GeocodeBaseURL: srv.URL,
		GeocodeTimeout: 5 * time.Second,
	})

	city, state, err := p.ReverseGeocode(t.Context(), 41.87, -87.62)
	if err != nil {
		t.Fatalf("ReverseGeocode() must never error for valid coordinates, got %v", err)
	}
	if city != "Unknown" || state != "" {
		t.Errorf("ReverseGeocode() = (%q, %q), want fallback (Unknown, \"\")", city, state)
	}
}

func TestHTTPProvider_Route(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("overview") != "full" {
			t.Errorf("expected overview=full")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"code": "Ok",
			"routes": []map[string]any{
				{
					"distance": 1609344.0,
					"duration": 3600.0,
					"geometry": map[string]any{
						"coordinates": [][2]float64{
							{-87.6298, 41.8781},
							{-75.1652, 39.9526},
						},
					},
				},
			},
		})
	}))
	defer srv.Close()

	p := NewHTTPProvider(config.GeoProviderConfig{
		RouteBaseURL: srv.URL,
		RouteTimeout: 5 * time.Second,
	})

	route, err := p.Route(t.Context(),
		dp(41.8781, -87.6298), dp(39.9526, -75.1652))
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if route.DistanceMeters != 1609344.0 {
		t.Errorf("DistanceMeters = %v, want 1609344", route.DistanceMeters)
	}
	if len(route.Geometry) != 2 {
		t.Errorf("Geometry len = %d, want 2", len(route.Geometry))
	}
}

func TestHTTPProvider_Route_NotOkIsRoutingError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"code": "NoRoute", "routes": []any{}})
	}))
	defer srv.Close()

	p := NewHTTPProvider(config.GeoProviderConfig{RouteBaseURL: srv.URL, RouteTimeout: 5 * time.Second})

	_, err := p.Route(t.Context(), dp(0, 0), dp(1, 1))
	if !apperror.Is(err, apperror.CodeRouting) {
		t.Errorf("expected CodeRouting, got %v", err)
	}
}
