package planner

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/fleetops/hos-planner/pkg/apperror"
	"github.com/fleetops/hos-planner/pkg/domain"
)

const metersPerMile = 1609.344

type stubGeo struct{}

func (stubGeo) ReverseGeocode(_ context.Context, _, _ float64) (string, string, error) {
	return "En Route", "", nil
}

func straightRoute(miles, speed float64) *domain.Route {
	origin := domain.GeoPoint{Lat: 41.85, Lng: -87.65}
	destination := domain.GeoPoint{Lat: 41.85 + miles/69.0, Lng: -87.65}
	return domain.NewRoute(miles*metersPerMile, miles/speed*3600, []domain.GeoPoint{origin, destination}, origin, destination)
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tm
}

func countStops(stops []domain.Stop, t domain.StopType) int {
	n := 0
	for _, s := range stops {
		if s.Type == t {
			n++
		}
	}
	return n
}

func totalDrivingHours(result domain.PlanResult) float64 {
	var total float64
	for _, e := range result.Timeline.Events {
		if e.Status == domain.Driving {
			total += e.DurationHours()
		}
	}
	return total
}

func TestPlan_S1_ShortDirectTrip(t *testing.T) {
	rules := domain.DefaultRuleSet()
	req := domain.TripRequest{
		OriginQuery: "Chicago, IL", DestinationQuery: "St Louis, MO",
		StartTime: mustParse(t, "2026-01-27T06:00:00Z"),
		CurrentCycleHours: 42.5, AverageSpeedMPH: 55,
		IncludePickup: true, IncludeDropoff: true,
	}
	route := straightRoute(280, 55)

	result, _, err := Plan(context.Background(), stubGeo{}, Input{
		Route: route, Request: req, Rules: rules,
		PickupCity: "Chicago", PickupState: "IL",
		DropoffCity: "St Louis", DropoffState: "MO",
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if got := countStops(result.Stops, domain.StopPickup); got != 1 {
		t.Errorf("PICKUP stops = %d, want 1", got)
	}
	if got := countStops(result.Stops, domain.StopDropoff); got != 1 {
		t.Errorf("DROPOFF stops = %d, want 1", got)
	}
	if got := countStops(result.Stops, domain.StopBreak); got != 0 {
		t.Errorf("BREAK stops = %d, want 0", got)
	}
	if got := countStops(result.Stops, domain.StopRest); got != 0 {
		t.Errorf("REST stops = %d, want 0", got)
	}
	if got := countStops(result.Stops, domain.StopFuel); got != 0 {
		t.Errorf("FUEL stops = %d, want 0", got)
	}

	driving := totalDrivingHours(result)
	if math.Abs(driving-280.0/55) > 0.05 {
		t.Errorf("total driving hours = %.2f, want ~%.2f", driving, 280.0/55)
	}
}

func TestPlan_S2_LongTripRequiresRestsBreaksFuel(t *testing.T) {
	rules := domain.DefaultRuleSet()
	req := domain.TripRequest{
		OriginQuery: "Chicago, IL", DestinationQuery: "Los Angeles, CA",
		StartTime: mustParse(t, "2026-01-27T08:00:00Z"),
		CurrentCycleHours: 20, AverageSpeedMPH: 55,
		IncludePickup: true, IncludeDropoff: true,
	}
	route := straightRoute(2800, 55)

	result, _, err := Plan(context.Background(), stubGeo{}, Input{
		Route: route, Request: req, Rules: rules,
		PickupCity: "Chicago", PickupState: "IL",
		DropoffCity: "Los Angeles", DropoffState: "CA",
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	driving := totalDrivingHours(result)
	if math.Abs(driving-2800.0/55) > 0.1 {
		t.Errorf("total driving hours = %.2f, want ~%.2f", driving, 2800.0/55)
	}
	if got := countStops(result.Stops, domain.StopRest); got < 4 {
		t.Errorf("REST stops = %d, want >= 4", got)
	}
	if got := countStops(result.Stops, domain.StopBreak); got < 4 {
		t.Errorf("BREAK stops = %d, want >= 4", got)
	}
	if got := countStops(result.Stops, domain.StopFuel); got < 2 {
		t.Errorf("FUEL stops = %d, want >= 2", got)
	}

	if err := result.Timeline.CheckContiguity(); err != nil {
		t.Errorf("timeline not contiguous: %v", err)
	}
}

func TestPlan_S3_CycleExhaustionRejection(t *testing.T) {
	rules := domain.DefaultRuleSet()
	req := domain.TripRequest{
		OriginQuery: "Chicago, IL", DestinationQuery: "Indianapolis, IN",
		StartTime:         mustParse(t, "2026-01-27T06:00:00Z"),
		CurrentCycleHours: 65,
		AverageSpeedMPH:   55,
		IncludePickup:     true, IncludeDropoff: true,
	}
	// ~440 miles at 55 mph is ~8h driving + 2h pickup/dropoff = 10h on duty,
	// exceeding the 5h of cycle remaining (70 - 65).
	route := straightRoute(440, 55)

	_, _, err := Plan(context.Background(), stubGeo{}, Input{
		Route: route, Request: req, Rules: rules,
		PickupCity: "Chicago", PickupState: "IL",
		DropoffCity: "Indianapolis", DropoffState: "IN",
	})
	if !apperror.Is(err, apperror.CodeHOSViolation) {
		t.Fatalf("expected CodeHOSViolation, got %v", err)
	}
}

func TestPlan_S6_ZeroMileageDegenerate(t *testing.T) {
	rules := domain.DefaultRuleSet()
	req := domain.TripRequest{
		OriginQuery: "Chicago, IL", DestinationQuery: "Chicago, IL",
		StartTime: mustParse(t, "2026-01-27T06:00:00Z"),
		CurrentCycleHours: 0, AverageSpeedMPH: 55,
		IncludePickup: true, IncludeDropoff: true,
	}
	route := straightRoute(1, 55)

	result, _, err := Plan(context.Background(), stubGeo{}, Input{
		Route: route, Request: req, Rules: rules,
		PickupCity: "Chicago", PickupState: "IL",
		DropoffCity: "Chicago", DropoffState: "IL",
	})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if got := countStops(result.Stops, domain.StopPickup); got != 1 {
		t.Errorf("PICKUP stops = %d, want 1", got)
	}
	if got := countStops(result.Stops, domain.StopDropoff); got != 1 {
		t.Errorf("DROPOFF stops = %d, want 1", got)
	}
	if got := countStops(result.Stops, domain.StopBreak) + countStops(result.Stops, domain.StopRest) + countStops(result.Stops, domain.StopFuel); got != 0 {
		t.Errorf("unexpected interior stops = %d, want 0", got)
	}
}

func TestPlan_P3_DrivingBoundBetweenRests(t *testing.T) {
	rules := domain.DefaultRuleSet()
	req := domain.TripRequest{
		OriginQuery: "A", DestinationQuery: "B",
		StartTime: mustParse(t, "2026-01-27T06:00:00Z"),
		CurrentCycleHours: 0, AverageSpeedMPH: 60,
	}
	route := straightRoute(3000, 60)

	result, _, err := Plan(context.Background(), stubGeo{}, Input{Route: route, Request: req, Rules: rules})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	var sinceRest float64
	for _, e := range result.Timeline.Events {
		if e.Status == domain.Sleeper || (e.Status == domain.OffDuty && e.DurationHours() >= rules.MinimumRestHours-0.02) {
			sinceRest = 0
			continue
		}
		if e.Status == domain.Driving {
			sinceRest += e.DurationHours()
			if sinceRest > rules.MaxDrivingHours+0.02 {
				t.Fatalf("driving accumulated to %.2fh between rests, want <= %.2fh", sinceRest, rules.MaxDrivingHours)
			}
		}
	}
}

func TestPlan_P6_CycleBoundRespected(t *testing.T) {
	rules := domain.DefaultRuleSet()
	req := domain.TripRequest{
		OriginQuery: "A", DestinationQuery: "B",
		StartTime: mustParse(t, "2026-01-27T06:00:00Z"),
		CurrentCycleHours: 69, AverageSpeedMPH: 55,
	}
	route := straightRoute(100, 55)

	_, _, err := Plan(context.Background(), stubGeo{}, Input{Route: route, Request: req, Rules: rules})
	if !apperror.Is(err, apperror.CodeHOSViolation) {
		t.Fatalf("expected rejection near cycle bound, got %v", err)
	}
}

func TestPlan_P7_Determinism(t *testing.T) {
	rules := domain.DefaultRuleSet()
	req := domain.TripRequest{
		OriginQuery: "A", DestinationQuery: "B",
		StartTime: mustParse(t, "2026-01-27T06:00:00Z"),
		CurrentCycleHours: 10, AverageSpeedMPH: 55,
		IncludePickup: true, IncludeDropoff: true,
	}
	route := straightRoute(900, 55)
	in := Input{Route: route, Request: req, Rules: rules, PickupCity: "A", DropoffCity: "B"}

	r1, _, err := Plan(context.Background(), stubGeo{}, in)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	r2, _, err := Plan(context.Background(), stubGeo{}, in)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	if len(r1.Stops) != len(r2.Stops) {
		t.Fatalf("stop count mismatch: %d vs %d", len(r1.Stops), len(r2.Stops))
	}
	for i := range r1.Timeline.Events {
		if r1.Timeline.Events[i] != r2.Timeline.Events[i] {
			t.Fatalf("event %d differs between runs: %+v vs %+v", i, r1.Timeline.Events[i], r2.Timeline.Events[i])
		}
	}
}

func TestPlan_P9_FuelCoverage(t *testing.T) {
	rules := domain.DefaultRuleSet()
	req := domain.TripRequest{
		OriginQuery: "A", DestinationQuery: "B",
		StartTime: mustParse(t, "2026-01-27T06:00:00Z"),
		CurrentCycleHours: 0, AverageSpeedMPH: 55,
	}
	distance := 3200.0
	route := straightRoute(distance, 55)

	result, _, err := Plan(context.Background(), stubGeo{}, Input{Route: route, Request: req, Rules: rules})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}

	want := int(distance / rules.FuelIntervalMiles)
	got := countStops(result.Stops, domain.StopFuel)
	if got < want-1 || got > want+1 {
		t.Errorf("FUEL stops = %d, want %d +/- 1", got, want)
	}
}

func TestPlan_RejectsNilRoute(t *testing.T) {
	req := domain.TripRequest{OriginQuery: "A", DestinationQuery: "B", StartTime: mustParse(t, "2026-01-27T06:00:00Z"), AverageSpeedMPH: 55}
	_, _, err := Plan(context.Background(), stubGeo{}, Input{Route: nil, Request: req, Rules: domain.DefaultRuleSet()})
	if !apperror.Is(err, apperror.CodeInvalidSequence) {
		t.Fatalf("expected CodeInvalidSequence, got %v", err)
	}
}

func TestPlan_SkipReverseGeocodingUsesPlaceholder(t *testing.T) {
	rules := domain.DefaultRuleSet()
	req := domain.TripRequest{
		OriginQuery: "A", DestinationQuery: "B",
		StartTime: mustParse(t, "2026-01-27T06:00:00Z"),
		CurrentCycleHours: 0, AverageSpeedMPH: 55,
		SkipReverseGeocoding: true,
	}
	route := straightRoute(2800, 55)

	result, _, err := Plan(context.Background(), nil, Input{Route: route, Request: req, Rules: rules})
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	for _, stop := range result.Stops {
		if stop.Location.City != domain.EnRouteCity {
			t.Errorf("stop city = %q, want %q", stop.Location.City, domain.EnRouteCity)
		}
	}
}
