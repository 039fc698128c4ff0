// Package compliance is the pure, read-only checker that runs after the
// logbook transformer and before persistence. It never mutates its inputs
// and never persists anything itself; a caller with any collected error
// must discard the plan entirely.
package compliance

import (
	"fmt"
	"sort"

	"github.com/fleetops/hos-planner/pkg/apperror"
	"github.com/fleetops/hos-planner/pkg/domain"
)

// toleranceHours is the shared slack applied to the per-day 24-hour total
// check, the driving-limit check and the 14-hour window check.
const toleranceHours = 0.02

// minNonDrivingResetMinutes is the minimum duration, in minutes, a
// non-driving event must have to reset the mandatory-break accumulator.
const minNonDrivingResetMinutes = 30.0

// Validate runs every HOS compliance check over timeline and days and
// returns the accumulated findings. An empty result (IsValid() == true)
// means the plan may be persisted.
func Validate(timeline domain.EventTimeline, days []domain.LogDay, rules domain.RuleSet, currentCycleHours float64) *apperror.ValidationErrors {
	result := apperror.NewValidationErrors()

	checkStatuses(timeline, result)
	checkNoOverlap(timeline, result)
	checkContiguity(timeline, result)
	checkDailyTotals(days, result)
	checkDrivingLimit(timeline, rules, result)
	checkOnDutyWindow(timeline, rules, result)
	checkMandatoryBreak(timeline, rules, result)
	checkCycleBound(timeline, rules, currentCycleHours, result)

	return result
}

func invalid(format string, args ...any) *apperror.Error {
	return apperror.New(apperror.CodeInvalidSequence, fmt.Sprintf(format, args...))
}

func violation(rule, format string, args ...any) *apperror.Error {
	return apperror.New(apperror.CodeHOSViolation, fmt.Sprintf(format, args...)).WithDetails("rule", rule)
}

func checkStatuses(timeline domain.EventTimeline, result *apperror.ValidationErrors) {
	for i, e := range timeline.Events {
		if !e.Status.Valid() {
			result.Add(invalid("event %d: invalid duty status %q", i, e.Status))
		}
	}
}

// sortedIndices returns timeline.Events' indices ordered by start time,
// leaving the input slice untouched (this checker must never mutate it).
func sortedIndices(timeline domain.EventTimeline) []int {
	idx := make([]int, len(timeline.Events))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return timeline.Events[idx[a]].Start.Before(timeline.Events[idx[b]].Start)
	})
	return idx
}

func checkNoOverlap(timeline domain.EventTimeline, result *apperror.ValidationErrors) {
	idx := sortedIndices(timeline)
	for i := 0; i+1 < len(idx); i++ {
		curr, next := timeline.Events[idx[i]], timeline.Events[idx[i+1]]
		if curr.End.After(next.Start) {
			result.Add(invalid("events %d and %d overlap: %v ends after %v starts", idx[i], idx[i+1], curr.End, next.Start))
		}
	}
}

func checkContiguity(timeline domain.EventTimeline, result *apperror.ValidationErrors) {
	idx := sortedIndices(timeline)
	for i := 0; i+1 < len(idx); i++ {
		curr, next := timeline.Events[idx[i]], timeline.Events[idx[i+1]]
		gap := next.Start.Sub(curr.End).Seconds()
		if gap < 0 || gap > 60 {
			result.Add(invalid("gap of %.1fs between event %d and event %d exceeds the 60s contiguity tolerance", gap, idx[i], idx[i+1]))
		}
	}
}

func checkDailyTotals(days []domain.LogDay, result *apperror.ValidationErrors) {
	for _, day := range days {
		if diff := day.TotalHours() - 24.0; diff > toleranceHours || diff < -toleranceHours {
			result.Add(invalid("log day %s totals %.2fh, want 24.00h +/- %.2f", day.Date, day.TotalHours(), toleranceHours))
		}
	}
}

// resetsOnRest reports whether e is long enough off-duty/sleeper time to
// reset the driving and on-duty-window accumulators.
func resetsOnRest(e domain.DutyEvent, rules domain.RuleSet) bool {
	return (e.Status == domain.OffDuty || e.Status == domain.Sleeper) && e.DurationHours() >= rules.MinimumRestHours
}

func checkDrivingLimit(timeline domain.EventTimeline, rules domain.RuleSet, result *apperror.ValidationErrors) {
	idx := sortedIndices(timeline)
	var accumulated float64
	for _, i := range idx {
		e := timeline.Events[i]
		if resetsOnRest(e, rules) {
			accumulated = 0
			continue
		}
		if e.Status == domain.Driving {
			accumulated += e.DurationHours()
			if accumulated > rules.MaxDrivingHours+toleranceHours {
				result.Add(violation("11_HOUR_DRIVING",
					"driving accumulator reached %.2fh, exceeding the %.0fh limit by more than %.2fh",
					accumulated, rules.MaxDrivingHours, toleranceHours))
			}
		}
	}
}

func checkOnDutyWindow(timeline domain.EventTimeline, rules domain.RuleSet, result *apperror.ValidationErrors) {
	idx := sortedIndices(timeline)
	var windowStart domain.DutyEvent
	haveWindow := false
	for _, i := range idx {
		e := timeline.Events[i]
		if resetsOnRest(e, rules) {
			haveWindow = false
			continue
		}
		if !haveWindow && (e.Status == domain.OnDuty || e.Status == domain.Driving) {
			windowStart = e
			haveWindow = true
		}
		if haveWindow && e.Status == domain.Driving {
			elapsed := e.End.Sub(windowStart.Start).Hours()
			if elapsed > rules.MaxOnDutyWindowHours+toleranceHours {
				result.Add(violation("14_HOUR_WINDOW",
					"driving event ends %.2fh after the on-duty window began, exceeding the %.0fh limit by more than %.2fh",
					elapsed, rules.MaxOnDutyWindowHours, toleranceHours))
			}
		}
	}
}

func checkMandatoryBreak(timeline domain.EventTimeline, rules domain.RuleSet, result *apperror.ValidationErrors) {
	idx := sortedIndices(timeline)
	var accumulated float64
	for _, i := range idx {
		e := timeline.Events[i]
		if e.Status != domain.Driving && e.DurationHours()*60 >= minNonDrivingResetMinutes {
			accumulated = 0
			continue
		}
		if e.Status == domain.Driving {
			accumulated += e.DurationHours()
			if accumulated > rules.BreakRequiredAfterHours+0.5 {
				result.Add(violation("8_HOUR_BREAK",
					"driving-since-break accumulator reached %.2fh, exceeding the %.0fh threshold by more than 0.5h",
					accumulated, rules.BreakRequiredAfterHours))
			}
		}
	}
}

func checkCycleBound(timeline domain.EventTimeline, rules domain.RuleSet, currentCycleHours float64, result *apperror.ValidationErrors) {
	var onDutyTotal float64
	for _, e := range timeline.Events {
		if e.Status == domain.Driving || e.Status == domain.OnDuty {
			onDutyTotal += e.DurationHours()
		}
	}
	if currentCycleHours+onDutyTotal > rules.MaxCycleHours {
		result.Add(violation("70_HOUR_CYCLE",
			"trip on-duty total %.2fh plus pre-trip cycle %.2fh exceeds the %.0fh cycle limit",
			onDutyTotal, currentCycleHours, rules.MaxCycleHours))
	}
}
