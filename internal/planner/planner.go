// Package planner implements the stop planner: a deterministic state machine
// that walks a route mile by mile, inserting REST/BREAK/FUEL stops as the
// driver's HOS counters run out of headroom, and emits the fused duty-event
// timeline the logbook transformer consumes next.
package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetops/hos-planner/pkg/apperror"
	"github.com/fleetops/hos-planner/pkg/domain"
)

// epsilon is the headroom/driving-block exhaustion tolerance, in hours,
// below which a counter is treated as used up.
const epsilon = 0.01

// minFuelMiles is the minimum remaining slack, in miles, below which the
// fuel counter is treated as exhausted (~1 mile rather than an hours-based
// epsilon, since fuel is tracked in miles).
const minFuelMiles = 1.0

// minMilesRemaining is the residual-distance tolerance, in miles, below
// which the drive loop treats the destination as reached.
const minMilesRemaining = 0.01

// Input is everything the planner needs to produce a PlanResult. Route must
// already be resolved by the geo provider; Geo is used only to resolve the
// city/state of stops inserted mid-route, never to re-route.
type Input struct {
	Route   *domain.Route
	Request domain.TripRequest
	Rules   domain.RuleSet

	PickupCity, PickupState   string
	DropoffCity, DropoffState string

	// SuppressFinalRest skips the unconditional trailing 10-hour OFF_DUTY
	// block. The orchestrator sets this on the origin-to-pickup leg of a
	// two-leg trip, since that leg's end time feeds directly into the
	// pickup-to-destination leg with no gap.
	SuppressFinalRest bool

	// Carry, when non-nil, seeds the HOS counters from a prior leg instead
	// of starting fresh. The orchestrator passes the first leg's ending
	// Continuation into the second leg of a two-leg (pickup != origin)
	// trip, so driving/break/fuel/window counters stay correct across the
	// re-based route.
	Carry *Continuation
}

// Continuation is the planner's HOS counters at the end of a leg, passed to
// the next leg of a multi-leg trip so counters are never silently reset at
// the pickup boundary.
type Continuation struct {
	DrivingToday      float64
	DrivingSinceBreak float64
	MilesSinceFuel    float64
	WindowStart       time.Time
}

// Plan runs the stop planner over a single leg of a trip: one Route, one
// origin-city label and one destination-city label. The orchestrator is
// responsible for stitching the pickup and delivery legs together when
// the pickup location differs from the origin.
func Plan(ctx context.Context, geo GeoResolver, in Input) (domain.PlanResult, Continuation, error) {
	if in.Route == nil {
		return domain.PlanResult{}, Continuation{}, apperror.New(apperror.CodeInvalidSequence, "planner: nil route")
	}
	if err := in.Request.Validate(); err != nil {
		return domain.PlanResult{}, Continuation{}, apperror.Wrap(err, apperror.CodeInputValidation, "planner: invalid trip request")
	}

	if err := checkCycleAvailability(in); err != nil {
		return domain.PlanResult{}, Continuation{}, err
	}

	s := &state{
		ctx:          ctx,
		geo:          geo,
		route:        in.Route,
		req:          in.Request,
		rules:        in.Rules,
		currentTime:  in.Request.StartTime,
		pickupCity:   in.PickupCity,
		pickupState:  in.PickupState,
		dropoffCity:  in.DropoffCity,
		dropoffState: in.DropoffState,
	}
	s.windowStart = s.currentTime

	if in.Carry != nil {
		s.drivingToday = in.Carry.DrivingToday
		s.drivingSinceBreak = in.Carry.DrivingSinceBreak
		s.milesSinceFuel = in.Carry.MilesSinceFuel
		s.windowStart = in.Carry.WindowStart
	}

	if in.Request.IncludePickup {
		s.emitPickup()
	}

	if err := s.driveToDestination(); err != nil {
		return domain.PlanResult{}, Continuation{}, err
	}

	if in.Request.IncludeDropoff {
		s.emitDropoff()
	}

	if !in.SuppressFinalRest {
		s.emitFinalRest()
	}

	if err := s.timeline.CheckContiguity(); err != nil {
		return domain.PlanResult{}, Continuation{}, apperror.Wrap(err, apperror.CodeInvalidSequence, "planner: produced a non-contiguous timeline")
	}

	result := domain.PlanResult{
		Stops:          s.stops,
		Segments:       s.segments,
		Timeline:       s.timeline,
		TotalTripHours: s.currentTime.Sub(in.Request.StartTime).Hours(),
	}
	continuation := Continuation{
		DrivingToday:      s.drivingToday,
		DrivingSinceBreak: s.drivingSinceBreak,
		MilesSinceFuel:    s.milesSinceFuel,
		WindowStart:       s.windowStart,
	}
	return result, continuation, nil
}

// GeoResolver is the subset of geoprovider.GeoProvider the planner needs to
// label a stop inserted mid-route. It is satisfied by
// *geoprovider.CachedProvider and *geoprovider.HTTPProvider alike.
type GeoResolver interface {
	ReverseGeocode(ctx context.Context, lat, lng float64) (city, state string, err error)
}

// checkCycleAvailability is the planner's only precondition check: can this
// trip's first continuous on-duty block possibly fit inside the remaining
// 70-hour/8-day cycle. The estimate is pickup + dropoff + driving capped at
// MaxDrivingHours, not the full multi-day trip total: the mandatory rest
// that follows the first exhausted driving/window counter begins a new
// on-duty block, so on-duty time planned after that first rest is no longer
// chained against the pre-trip cycle baseline here — it is bounded instead
// by the per-day HOS limits the drive loop itself enforces, and by the
// post-hoc compliance checks. A trip that fails this first-block check is
// rejected before a single stop is planned.
func checkCycleAvailability(in Input) error {
	drivingHours := in.Route.DistanceMiles() / in.Request.AverageSpeedMPH
	if drivingHours > in.Rules.MaxDrivingHours {
		drivingHours = in.Rules.MaxDrivingHours
	}

	estimated := drivingHours
	if in.Request.IncludePickup {
		estimated += in.Rules.PickupDurationHours
	}
	if in.Request.IncludeDropoff {
		estimated += in.Rules.DropoffDurationHours
	}

	hoursRemaining := in.Rules.MaxCycleHours - in.Request.CurrentCycleHours
	if estimated > hoursRemaining {
		return apperror.New(apperror.CodeHOSViolation, fmt.Sprintf(
			"trip's first on-duty block requires an estimated %.1fh but only %.1fh remain in the 70-hour cycle",
			estimated, hoursRemaining,
		)).WithDetails("rule", "70_HOUR_CYCLE").WithDetails("estimated_hours", estimated).WithDetails("hours_remaining", hoursRemaining)
	}
	return nil
}

// state is the planner's mutable working set for a single leg. Every field
// here is advanced by exactly one of the emit* methods; nothing is mutated
// from outside this package.
type state struct {
	ctx   context.Context
	geo   GeoResolver
	route *domain.Route
	req   domain.TripRequest
	rules domain.RuleSet

	currentTime       time.Time
	currentMiles      float64
	windowStart       time.Time
	drivingToday      float64
	drivingSinceBreak float64
	milesSinceFuel    float64

	pickupCity, pickupState   string
	dropoffCity, dropoffState string

	timeline domain.EventTimeline
	stops    []domain.Stop
	segments []domain.DrivingSegment
}

func (s *state) emitPickup() {
	start := s.currentTime
	end := start.Add(time.Duration(s.rules.PickupDurationHours * float64(time.Hour)))

	s.timeline.Append(domain.DutyEvent{
		Start: start, End: end, Status: domain.OnDuty,
		City: s.pickupCity, State: s.pickupState,
		Remark: "Pickup - loading and inspection",
	})
	s.stops = append(s.stops, domain.Stop{
		Type:               domain.StopPickup,
		Location:           domain.GeoPoint{Lat: s.route.Origin.Lat, Lng: s.route.Origin.Lng, City: s.pickupCity, State: s.pickupState},
		ScheduledArrival:   start,
		ScheduledDeparture: end,
		CumulativeMiles:    0,
	})

	s.currentTime = end
}

func (s *state) emitDropoff() {
	start := s.currentTime
	end := start.Add(time.Duration(s.rules.DropoffDurationHours * float64(time.Hour)))

	s.timeline.Append(domain.DutyEvent{
		Start: start, End: end, Status: domain.OnDuty,
		City: s.dropoffCity, State: s.dropoffState,
		Remark: "Dropoff - unloading and paperwork",
	})
	s.stops = append(s.stops, domain.Stop{
		Type:               domain.StopDropoff,
		Location:           domain.GeoPoint{Lat: s.route.Destination.Lat, Lng: s.route.Destination.Lng, City: s.dropoffCity, State: s.dropoffState},
		ScheduledArrival:   start,
		ScheduledDeparture: end,
		CumulativeMiles:    s.route.DistanceMiles(),
	})

	s.currentTime = end
}

// emitFinalRest closes out the trip with an unconditional 10-hour OFF_DUTY
// block, matching the reference engine's closing behavior: a driver is
// never left mid-duty-status at the end of a planned trip, regardless of
// whether dropoff was requested for this leg. It is not reported as a
// Stop — only pickup/break/rest/fuel/dropoff are rider-visible stops.
func (s *state) emitFinalRest() {
	start := s.currentTime
	end := start.Add(time.Duration(s.rules.MinimumRestHours * float64(time.Hour)))

	s.timeline.Append(domain.DutyEvent{
		Start: start, End: end, Status: domain.OffDuty,
		City: s.dropoffCity, State: s.dropoffState,
		Remark: "Trip complete - off duty",
	})

	s.currentTime = end
}

// driveToDestination runs phase 2: the headroom-driven loop that alternates
// between driving blocks and REST/BREAK/FUEL stops until currentMiles
// reaches the route's total distance.
func (s *state) driveToDestination() error {
	totalMiles := s.route.DistanceMiles()
	speed := s.req.AverageSpeedMPH

	for s.currentMiles < totalMiles-minMilesRemaining {
		hoursToDestination := (totalMiles - s.currentMiles) / speed
		hSinceWindowStart := s.currentTime.Sub(s.windowStart).Hours()

		hDay := s.rules.MaxDrivingHours - s.drivingToday
		hWindow := s.rules.MaxOnDutyWindowHours - hSinceWindowStart
		hBreak := s.rules.BreakRequiredAfterHours - s.drivingSinceBreak
		milesLeftToFuel := s.rules.FuelIntervalMiles - s.milesSinceFuel
		hFuel := milesLeftToFuel / speed

		restExhausted := hDay <= epsilon || hWindow <= epsilon
		breakExhausted := hBreak <= epsilon
		fuelExhausted := milesLeftToFuel <= minFuelMiles

		// Every headroom counter is always a candidate, exhausted or not: an
		// exhausted counter is already <= epsilon, so including it is what
		// collapses driveHours and routes control into the switch below. A
		// non-positive driveHours must come from one of hDay, hWindow,
		// hBreak, or hFuel, which is exactly what restExhausted/
		// breakExhausted/fuelExhausted test.
		driveHours := minOf(hoursToDestination, s.rules.MaxContinuousDrivingHours, hDay, hWindow, hBreak, hFuel)

		if driveHours > epsilon || driveHours == hoursToDestination {
			s.emitDriving(driveHours)
			continue
		}

		// Priority REST > BREAK > FUEL when multiple counters are exhausted
		// at once.
		switch {
		case restExhausted:
			s.emitRest(hDay <= epsilon)
		case breakExhausted:
			s.emitBreak()
		case fuelExhausted:
			s.emitFuel()
		default:
			// driveHours collapsed to ~0 without any tracked counter reading
			// exhausted: driveHours is the min of hoursToDestination,
			// MaxContinuousDrivingHours, hDay, hWindow, hBreak, and hFuel,
			// and a final block that ends at the destination is driven
			// above, so with all four headroom counters above epsilon this
			// is reached only when MaxContinuousDrivingHours <= epsilon.
			return apperror.New(apperror.CodeInvalidSequence,
				"planner: drive block exhausted with no headroom counter at zero").
				WithDetails("current_miles", s.currentMiles).
				WithDetails("hours_to_destination", hoursToDestination)
		}
	}

	return nil
}

func (s *state) emitDriving(hours float64) {
	start := s.currentTime
	end := start.Add(time.Duration(hours * float64(time.Hour)))
	miles := hours * s.req.AverageSpeedMPH

	startMiles := s.currentMiles
	endMiles := startMiles + miles

	location := s.stopLocation(endMiles)

	s.timeline.Append(domain.DutyEvent{
		Start: start, End: end, Status: domain.Driving,
		City: location.City, State: location.State,
		Remark: fmt.Sprintf("Driving (%.0f miles)", miles),
	})
	s.segments = append(s.segments, domain.DrivingSegment{
		StartMiles: startMiles, EndMiles: endMiles, Start: start, End: end,
	})

	s.currentTime = end
	s.currentMiles = endMiles
	s.drivingToday += hours
	s.drivingSinceBreak += hours
	s.milesSinceFuel += miles
}

// emitRest's timeline status depends on which counter forced it: OFF_DUTY
// for a window-limit rest, SLEEPER for a driving-limit rest, matching the
// reference engine. The inserted Stop itself has no such distinction —
// domain.StopRest.DutyStatus() always returns Sleeper — so a reader
// recovering duty status from a persisted Stop rather than the timeline
// will get the driving-limit answer even for a window-limit rest.
func (s *state) emitRest(hitDrivingLimit bool) {
	start := s.currentTime
	end := start.Add(time.Duration(s.rules.MinimumRestHours * float64(time.Hour)))
	location := s.stopLocation(s.currentMiles)

	remark := fmt.Sprintf("%.0f-hour rest (hit %.0f-hr on-duty window)", s.rules.MinimumRestHours, s.rules.MaxOnDutyWindowHours)
	status := domain.OffDuty
	if hitDrivingLimit {
		remark = fmt.Sprintf("%.0f-hour rest (hit %.0f-hr driving limit)", s.rules.MinimumRestHours, s.rules.MaxDrivingHours)
		status = domain.Sleeper
	}

	s.timeline.Append(domain.DutyEvent{
		Start: start, End: end, Status: status,
		City: location.City, State: location.State,
		Remark: remark,
	})
	s.stops = append(s.stops, domain.Stop{
		Type: domain.StopRest, Location: location,
		ScheduledArrival: start, ScheduledDeparture: end,
		CumulativeMiles: s.currentMiles,
	})

	s.currentTime = end
	s.windowStart = end
	s.drivingToday = 0
	s.drivingSinceBreak = 0
}

func (s *state) emitBreak() {
	start := s.currentTime
	end := start.Add(time.Duration(s.rules.BreakDurationHours() * float64(time.Hour)))
	location := s.stopLocation(s.currentMiles)

	s.timeline.Append(domain.DutyEvent{
		Start: start, End: end, Status: domain.OffDuty,
		City: location.City, State: location.State,
		Remark: fmt.Sprintf("%.0f-minute break (required after %.0f hrs driving)", s.rules.BreakDurationMinutes, s.rules.BreakRequiredAfterHours),
	})
	s.stops = append(s.stops, domain.Stop{
		Type: domain.StopBreak, Location: location,
		ScheduledArrival: start, ScheduledDeparture: end,
		CumulativeMiles: s.currentMiles,
	})

	s.currentTime = end
	s.drivingSinceBreak = 0
}

func (s *state) emitFuel() {
	start := s.currentTime
	end := start.Add(time.Duration(s.rules.FuelStopDurationHours() * float64(time.Hour)))
	location := s.stopLocation(s.currentMiles)

	s.timeline.Append(domain.DutyEvent{
		Start: start, End: end, Status: domain.OnDuty,
		City: location.City, State: location.State,
		Remark: "Fuel stop",
	})
	s.stops = append(s.stops, domain.Stop{
		Type: domain.StopFuel, Location: location,
		ScheduledArrival: start, ScheduledDeparture: end,
		CumulativeMiles: s.currentMiles,
	})

	s.currentTime = end
	s.milesSinceFuel = 0
}

// stopLocation resolves the city/state of a stop at the given cumulative
// mile mark, honoring SkipReverseGeocoding.
func (s *state) stopLocation(miles float64) domain.GeoPoint {
	pt := s.route.InterpolateMiles(miles)
	if s.req.SkipReverseGeocoding || s.geo == nil {
		pt.City, pt.State = domain.EnRouteCity, domain.EnRouteState
		return pt
	}
	city, state, err := s.geo.ReverseGeocode(s.ctx, pt.Lat, pt.Lng)
	if err != nil {
		pt.City, pt.State = domain.UnknownCity, domain.UnknownState
		return pt
	}
	pt.City, pt.State = city, state
	return pt
}

// minOf returns the smallest of the given values. len(vs) is always >= 2 at
// every call site in this package.
func minOf(vs ...float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
