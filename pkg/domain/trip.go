package domain

import (
	"fmt"
	"time"
)

// TripRequest is the immutable input to the planning pipeline. Once planning
// begins a TripRequest is never mutated; a replan takes a fresh request.
type TripRequest struct {
	OriginQuery      string // free-text query passed to the geo provider
	PickupQuery      string // optional; empty means pickup == origin
	DestinationQuery string

	StartTime         time.Time // absolute instant, offset preserved
	CurrentCycleHours float64   // [0, 70]
	AverageSpeedMPH   float64   // [30, 80]

	IncludePickup  bool
	IncludeDropoff bool

	// SkipReverseGeocoding, when set, makes the planner use the
	// ("En Route", "") placeholder instead of calling the geo provider for
	// every inserted stop's location.
	SkipReverseGeocoding bool
}

// Validate enforces the field ranges required before planning starts.
func (r TripRequest) Validate() error {
	switch {
	case r.CurrentCycleHours < 0 || r.CurrentCycleHours > 70:
		return fmt.Errorf("current_cycle_hours must be in [0, 70], got %.2f", r.CurrentCycleHours)
	case r.AverageSpeedMPH < 30 || r.AverageSpeedMPH > 80:
		return fmt.Errorf("average_speed_mph must be in [30, 80], got %.2f", r.AverageSpeedMPH)
	case r.OriginQuery == "":
		return fmt.Errorf("origin is required")
	case r.DestinationQuery == "":
		return fmt.Errorf("destination is required")
	case r.StartTime.IsZero():
		return fmt.Errorf("start_time is required")
	}
	return nil
}

// HasSeparatePickup reports whether the request names a pickup location
// distinct from the origin, which forces the two-leg planning path.
func (r TripRequest) HasSeparatePickup() bool {
	return r.PickupQuery != "" && r.PickupQuery != r.OriginQuery
}

// Stop is one non-driving event the planner inserted, reported separately
// from the fused EventTimeline for UI/map consumers.
type Stop struct {
	Type               StopType
	Location           GeoPoint
	ScheduledArrival   time.Time
	ScheduledDeparture time.Time
	CumulativeMiles    float64
}

// DrivingSegment is one driving span's mile range and wall-clock range,
// reported alongside Stops for reporting/UI.
type DrivingSegment struct {
	StartMiles float64
	EndMiles   float64
	Start      time.Time
	End        time.Time
}

// PlanResult is the full output of the stop planner: the ordered stops,
// the ordered driving segments, the fused timeline built from both, and the
// total elapsed trip time.
type PlanResult struct {
	Stops          []Stop
	Segments       []DrivingSegment
	Timeline       EventTimeline
	TotalTripHours float64
}

// DutySegmentRecord is the flat, store-facing shape of one timeline event
// inside a LogDay, matching the persistence contract.
type DutySegmentRecord struct {
	Start  time.Time
	End    time.Time
	Status DutyStatus
	City   string
	State  string
	Remark string
}

// LogDayRecord is the store-facing shape of one LogDay.
type LogDayRecord struct {
	Date         string
	DrivingHours float64
	OnDutyHours  float64
	OffDutyHours float64
	SleeperHours float64
	Segments     []DutySegmentRecord
}

// PersistencePlan is the orchestrator's sole output on success: the
// per-day log sheets, trip-level totals, and the flat stop list for the UI.
// Persisting it is the store's responsibility and must be atomic: either
// every LogDay and DutySegment commits, or none does.
type PersistencePlan struct {
	TripID         string
	LogDays        []LogDayRecord
	Stops          []Stop
	TotalMiles     float64
	DrivingHours   float64
	TotalTripHours float64
}
