package domain

// RuleSet is the closed, immutable set of numeric HOS limits consumed by the
// planner, the transformer and the validator. It is loaded once at process
// start by pkg/config and passed by reference to every consumer; nothing
// mutates it afterward.
type RuleSet struct {
	MaxDrivingHours           float64 // MAX_DRIVING_HOURS
	MaxOnDutyWindowHours      float64 // MAX_ON_DUTY_WINDOW
	MaxCycleHours             float64 // MAX_CYCLE_HOURS
	CycleDays                 int     // CYCLE_DAYS
	MinimumRestHours          float64 // MINIMUM_REST_HOURS
	BreakRequiredAfterHours   float64 // BREAK_REQUIRED_AFTER_HOURS
	BreakDurationMinutes      float64 // BREAK_DURATION_MINUTES
	FuelIntervalMiles         float64 // FUEL_INTERVAL_MILES
	FuelStopDurationMinutes   float64 // FUEL_STOP_DURATION_MINUTES
	PickupDurationHours       float64 // PICKUP_DURATION_HOURS
	DropoffDurationHours      float64 // DROPOFF_DURATION_HOURS
	MaxContinuousDrivingHours float64 // MAX_CONTINUOUS_DRIVING_HOURS (soft block ceiling, not FMCSA)
	DefaultAverageSpeedMPH    float64 // DEFAULT_AVERAGE_SPEED_MPH
}

// DefaultRuleSet returns the FMCSA Part 395 property-carrying defaults,
// before any HOS_* environment overrides are applied.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		MaxDrivingHours:           11,
		MaxOnDutyWindowHours:      14,
		MaxCycleHours:             70,
		CycleDays:                 8,
		MinimumRestHours:          10,
		BreakRequiredAfterHours:   8,
		BreakDurationMinutes:      30,
		FuelIntervalMiles:         1000,
		FuelStopDurationMinutes:   30,
		PickupDurationHours:       1,
		DropoffDurationHours:      1,
		MaxContinuousDrivingHours: 2,
		DefaultAverageSpeedMPH:    55,
	}
}

// BreakDurationHours returns BreakDurationMinutes expressed in hours.
func (r RuleSet) BreakDurationHours() float64 {
	return r.BreakDurationMinutes / 60
}

// FuelStopDurationHours returns FuelStopDurationMinutes expressed in hours.
func (r RuleSet) FuelStopDurationHours() float64 {
	return r.FuelStopDurationMinutes / 60
}

// DutyStatus is the closed set of duty statuses a DutyEvent can carry.
type DutyStatus string

const (
	OffDuty DutyStatus = "OFF_DUTY"
	Sleeper DutyStatus = "SLEEPER"
	Driving DutyStatus = "DRIVING"
	OnDuty  DutyStatus = "ON_DUTY"
)

// Valid reports whether s is one of the four closed duty statuses.
func (s DutyStatus) Valid() bool {
	switch s {
	case OffDuty, Sleeper, Driving, OnDuty:
		return true
	default:
		return false
	}
}

// StopType is the closed set of non-driving stops the planner can insert.
type StopType string

const (
	StopPickup  StopType = "PICKUP"
	StopDropoff StopType = "DROPOFF"
	StopBreak   StopType = "BREAK"
	StopRest    StopType = "REST"
	StopFuel    StopType = "FUEL"
)

// DutyStatus maps a stop type to the duty status it produces. StopRest is
// the one ambiguous case: the planner itself emits a rest stop as SLEEPER
// when it was forced by the driving-hours limit but as OFF_DUTY when it was
// forced by the on-duty-window limit (see emitRest), so this single-valued
// mapping only reflects the driving-limit case and should not be relied on
// to recover a rest stop's actual timeline status.
func (t StopType) DutyStatus() DutyStatus {
	switch t {
	case StopPickup, StopDropoff, StopFuel:
		return OnDuty
	case StopBreak:
		return OffDuty
	case StopRest:
		return Sleeper
	default:
		return OffDuty
	}
}
