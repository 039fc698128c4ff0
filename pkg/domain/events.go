package domain

import (
	"fmt"
	"time"
)

// contiguityToleranceSeconds is the maximum gap between consecutive events
// that is still considered contiguous.
const contiguityToleranceSeconds = 60.0

// MaxRemarkLength is the maximum length, in bytes, of a DutyEvent remark.
const MaxRemarkLength = 255

// DutyEvent is one contiguous span of a single duty status.
type DutyEvent struct {
	Start  time.Time
	End    time.Time
	Status DutyStatus
	City   string
	State  string
	Remark string
}

// DurationHours returns (End-Start) in hours.
func (e DutyEvent) DurationHours() float64 {
	return e.End.Sub(e.Start).Hours()
}

// Validate checks the single-event invariants: Start strictly before End,
// same offset on both ends, a closed-set status, and a bounded remark.
func (e DutyEvent) Validate() error {
	if !e.Start.Before(e.End) {
		return fmt.Errorf("duty event: start %v is not before end %v", e.Start, e.End)
	}
	_, startOff := e.Start.Zone()
	_, endOff := e.End.Zone()
	if startOff != endOff {
		return fmt.Errorf("duty event: start/end carry different zone offsets (%d vs %d)", startOff, endOff)
	}
	if !e.Status.Valid() {
		return fmt.Errorf("duty event: invalid status %q", e.Status)
	}
	if len(e.Remark) > MaxRemarkLength {
		return fmt.Errorf("duty event: remark exceeds %d bytes", MaxRemarkLength)
	}
	return nil
}

// EventTimeline is an ordered, contiguous sequence of DutyEvents, built
// append-only by the planner. It never overlaps and never skips: every
// event after the first starts within contiguityToleranceSeconds of the
// previous one's end.
type EventTimeline struct {
	Events []DutyEvent
}

// Append adds an event to the end of the timeline. Callers are expected to
// emit events in chronological order; Append does not re-sort.
func (t *EventTimeline) Append(e DutyEvent) {
	t.Events = append(t.Events, e)
}

// Last returns the most recently appended event and whether one exists.
func (t *EventTimeline) Last() (DutyEvent, bool) {
	if len(t.Events) == 0 {
		return DutyEvent{}, false
	}
	return t.Events[len(t.Events)-1], true
}

// CheckContiguity verifies invariant I1: consecutive events satisfy
// events[i].End == events[i+1].Start within a 60-second tolerance, and
// I2 (non-overlap) follows from I1 plus DutyEvent.Validate's Start<End check.
func (t *EventTimeline) CheckContiguity() error {
	for i := 0; i+1 < len(t.Events); i++ {
		gap := t.Events[i+1].Start.Sub(t.Events[i].End).Seconds()
		if gap < 0 || gap > contiguityToleranceSeconds {
			return fmt.Errorf(
				"timeline: gap of %.1fs between event %d (ends %v) and event %d (starts %v) exceeds tolerance",
				gap, i, t.Events[i].End, i+1, t.Events[i+1].Start,
			)
		}
	}
	return nil
}

// LogDay is one calendar-date log sheet: ordered segments covering exactly
// 24 hours, plus the four daily totals.
type LogDay struct {
	Date         string // ISO YYYY-MM-DD
	Segments     []DutyEvent
	DrivingHours float64
	OnDutyHours  float64
	OffDutyHours float64
	SleeperHours float64
}

// TotalHours sums the four daily totals; invariant I4 requires this to be
// 24.00 +/- 0.02.
func (d LogDay) TotalHours() float64 {
	return d.DrivingHours + d.OnDutyHours + d.OffDutyHours + d.SleeperHours
}
