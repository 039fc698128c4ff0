// Package orchestrator composes the pure pipeline packages (geoprovider,
// planner, logbook, compliance) behind one exported entry point and turns
// their errors into the service's tagged error taxonomy. It decides whether
// a plan may be persisted and returns no plan on any failure. It does not
// write the plan; the caller saves it through internal/store.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/fleetops/hos-planner/internal/compliance"
	"github.com/fleetops/hos-planner/internal/geoprovider"
	"github.com/fleetops/hos-planner/internal/logbook"
	"github.com/fleetops/hos-planner/internal/planner"
	"github.com/fleetops/hos-planner/pkg/apperror"
	"github.com/fleetops/hos-planner/pkg/domain"
	"github.com/fleetops/hos-planner/pkg/logger"
	"github.com/fleetops/hos-planner/pkg/metrics"
)

// Orchestrator runs the full geocode -> route -> plan -> transform ->
// validate pipeline for a single trip request.
type Orchestrator struct {
	geo     geoprovider.GeoProvider
	rules   domain.RuleSet
	metrics *metrics.Metrics
}

// New builds an Orchestrator against the given geo provider and rule set.
func New(geo geoprovider.GeoProvider, rules domain.RuleSet) *Orchestrator {
	return &Orchestrator{geo: geo, rules: rules, metrics: metrics.Get()}
}

// Result is everything a successful Plan call produces: the ready-to-persist
// plan plus the validation findings a caller may still want to inspect
// (warnings survive even on a valid plan).
type Result struct {
	Plan     domain.PersistencePlan
	Findings *apperror.ValidationErrors
}

// Plan runs the pipeline end to end for one trip request and returns a
// PersistencePlan only when the plan passes every compliance check. A
// pickup location distinct from the origin is planned as two legs
// (origin->pickup, pickup->destination) with HOS counters carried across
// the leg boundary via planner.Continuation, matching the single-leg case
// when PickupQuery is empty or equal to the origin.
func (o *Orchestrator) Plan(ctx context.Context, tripID string, req domain.TripRequest) (Result, error) {
	start := time.Now()
	result, err := o.plan(ctx, tripID, req)
	o.metrics.RecordPlanOperation(err == nil, time.Since(start), len(result.Plan.Stops), result.Plan.DrivingHours)
	if err != nil {
		logger.WithTripID(tripID).Error("trip planning failed", "error", err)
		return Result{}, err
	}
	return result, nil
}

func (o *Orchestrator) plan(ctx context.Context, tripID string, req domain.TripRequest) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, apperror.Wrap(err, apperror.CodeInputValidation, "orchestrator: invalid trip request")
	}

	origin, err := o.geo.Geocode(ctx, req.OriginQuery)
	if err != nil {
		return Result{}, err
	}
	destination, err := o.geo.Geocode(ctx, req.DestinationQuery)
	if err != nil {
		return Result{}, err
	}

	var planResult domain.PlanResult
	if req.HasSeparatePickup() {
		planResult, err = o.planTwoLegs(ctx, req, origin, destination)
	} else {
		planResult, err = o.planOneLeg(ctx, req, origin, destination)
	}
	if err != nil {
		return Result{}, err
	}

	days := logbook.Transform(planResult.Timeline)
	findings := compliance.Validate(planResult.Timeline, days, o.rules, req.CurrentCycleHours)
	for _, v := range findings.Errors {
		if rule, ok := v.Details["rule"].(string); ok {
			o.metrics.RecordComplianceViolation(rule)
		}
	}
	if findings.HasErrors() {
		return Result{}, apperror.New(apperror.CodeHOSViolation, fmt.Sprintf(
			"plan failed %d compliance check(s)", len(findings.Errors),
		)).WithDetails("violations", findings.ErrorMessages())
	}

	persistencePlan := buildPersistencePlan(tripID, planResult, days)
	return Result{Plan: persistencePlan, Findings: findings}, nil
}

// planOneLeg runs the planner over a single origin-to-destination route,
// the common case when no separate pickup location was requested.
func (o *Orchestrator) planOneLeg(ctx context.Context, req domain.TripRequest, origin, destination domain.GeoPoint) (domain.PlanResult, error) {
	route, err := o.geo.Route(ctx, origin, destination)
	if err != nil {
		return domain.PlanResult{}, err
	}

	result, _, err := planner.Plan(ctx, o.geo, planner.Input{
		Route: route, Request: req, Rules: o.rules,
		PickupCity: origin.City, PickupState: origin.State,
		DropoffCity: destination.City, DropoffState: destination.State,
	})
	return result, err
}

// planTwoLegs plans origin->pickup then pickup->destination as two separate
// routes, carrying the first leg's ending HOS counters into the second via
// planner.Continuation, and suppressing the first leg's trailing 10-hour
// rest so the driver proceeds directly into the pickup-to-destination leg.
func (o *Orchestrator) planTwoLegs(ctx context.Context, req domain.TripRequest, origin, destination domain.GeoPoint) (domain.PlanResult, error) {
	pickup, err := o.geo.Geocode(ctx, req.PickupQuery)
	if err != nil {
		return domain.PlanResult{}, err
	}

	leg1Route, err := o.geo.Route(ctx, origin, pickup)
	if err != nil {
		return domain.PlanResult{}, err
	}

	leg1Req := req
	leg1Req.IncludePickup = false
	leg1Req.IncludeDropoff = false

	leg1Result, carry, err := planner.Plan(ctx, o.geo, planner.Input{
		Route: leg1Route, Request: leg1Req, Rules: o.rules,
		PickupCity: origin.City, PickupState: origin.State,
		DropoffCity: pickup.City, DropoffState: pickup.State,
		SuppressFinalRest: true,
	})
	if err != nil {
		return domain.PlanResult{}, err
	}

	leg2Route, err := o.geo.Route(ctx, pickup, destination)
	if err != nil {
		return domain.PlanResult{}, err
	}

	leg2Req := req
	leg2Req.StartTime = leg1Result.Timeline.Events[len(leg1Result.Timeline.Events)-1].End
	leg2Req.IncludePickup = req.IncludePickup
	leg2Req.IncludeDropoff = req.IncludeDropoff
	// leg 2's cycle-availability check counts leg 1's on-duty hours on top
	// of the cycle hours the driver had already used before the trip.
	leg2Req.CurrentCycleHours = req.CurrentCycleHours + legOnDutyHours(leg1Result.Timeline)

	leg2Result, _, err := planner.Plan(ctx, o.geo, planner.Input{
		Route: leg2Route, Request: leg2Req, Rules: o.rules,
		PickupCity: pickup.City, PickupState: pickup.State,
		DropoffCity: destination.City, DropoffState: destination.State,
		Carry: &carry,
	})
	if err != nil {
		return domain.PlanResult{}, err
	}

	return concatenateLegs(leg1Result, leg2Result), nil
}

// legOnDutyHours sums the driving and on-duty time of a leg's timeline, the
// amount its cycle bound consumes from the 70-hour window before the next
// leg starts.
func legOnDutyHours(timeline domain.EventTimeline) float64 {
	var total float64
	for _, e := range timeline.Events {
		if e.Status == domain.Driving || e.Status == domain.OnDuty {
			total += e.DurationHours()
		}
	}
	return total
}

// concatenateLegs stitches two single-leg PlanResults into one, re-basing
// leg 2's cumulative mileage onto leg 1's total distance so
// Stop.CumulativeMiles and DrivingSegment mile ranges read continuously
// across the pickup boundary.
func concatenateLegs(leg1, leg2 domain.PlanResult) domain.PlanResult {
	var offset float64
	if len(leg1.Segments) > 0 {
		offset = leg1.Segments[len(leg1.Segments)-1].EndMiles
	}

	stops := append([]domain.Stop{}, leg1.Stops...)
	for _, s := range leg2.Stops {
		s.CumulativeMiles += offset
		stops = append(stops, s)
	}

	segments := append([]domain.DrivingSegment{}, leg1.Segments...)
	for _, seg := range leg2.Segments {
		seg.StartMiles += offset
		seg.EndMiles += offset
		segments = append(segments, seg)
	}

	timeline := domain.EventTimeline{}
	timeline.Events = append(timeline.Events, leg1.Timeline.Events...)
	timeline.Events = append(timeline.Events, leg2.Timeline.Events...)

	return domain.PlanResult{
		Stops:          stops,
		Segments:       segments,
		Timeline:       timeline,
		TotalTripHours: leg1.TotalTripHours + leg2.TotalTripHours,
	}
}

// buildPersistencePlan flattens a validated PlanResult and its log days into
// the store-facing PersistencePlan shape.
func buildPersistencePlan(tripID string, plan domain.PlanResult, days []domain.LogDay) domain.PersistencePlan {
	records := make([]domain.LogDayRecord, len(days))
	var totalMiles, drivingHours float64
	for i, day := range days {
		segments := make([]domain.DutySegmentRecord, len(day.Segments))
		for j, seg := range day.Segments {
			segments[j] = domain.DutySegmentRecord{
				Start: seg.Start, End: seg.End, Status: seg.Status,
				City: seg.City, State: seg.State, Remark: seg.Remark,
			}
		}
		records[i] = domain.LogDayRecord{
			Date: day.Date, DrivingHours: day.DrivingHours, OnDutyHours: day.OnDutyHours,
			OffDutyHours: day.OffDutyHours, SleeperHours: day.SleeperHours, Segments: segments,
		}
		drivingHours += day.DrivingHours
	}
	if len(plan.Segments) > 0 {
		totalMiles = plan.Segments[len(plan.Segments)-1].EndMiles
	}

	return domain.PersistencePlan{
		TripID:         tripID,
		LogDays:        records,
		Stops:          plan.Stops,
		TotalMiles:     totalMiles,
		DrivingHours:   drivingHours,
		TotalTripHours: plan.TotalTripHours,
	}
}
