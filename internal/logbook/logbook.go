// Package logbook transforms a planner-produced EventTimeline into one
// FMCSA log sheet per calendar date: events that cross midnight are split
// in two, the resulting per-day segments are gap-filled with OFF_DUTY so
// every minute of the day is accounted for, and each day's four duty
// totals are computed.
package logbook

import (
	"sort"
	"time"

	"github.com/fleetops/hos-planner/pkg/domain"
)

// Transform splits timeline at local midnight, buckets the result by
// calendar date, gap-fills each day, and returns the days ordered by date.
func Transform(timeline domain.EventTimeline) []domain.LogDay {
	byDate := make(map[string][]domain.DutyEvent)
	order := make([]string, 0)

	for _, e := range timeline.Events {
		for _, part := range splitAtMidnight(e) {
			date := dateKey(part.Start)
			if _, seen := byDate[date]; !seen {
				order = append(order, date)
			}
			byDate[date] = append(byDate[date], part)
		}
	}

	sort.Strings(order)

	days := make([]domain.LogDay, 0, len(order))
	for _, date := range order {
		days = append(days, buildLogDay(date, byDate[date]))
	}
	return days
}

// dateKey returns t's calendar date in its own offset, as "YYYY-MM-DD".
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// splitAtMidnight returns e unchanged if it doesn't cross a local midnight,
// or two (or more, for events spanning multiple days) pieces otherwise. The
// piece before each midnight boundary is suffixed " (cont'd)"; the piece
// starting at that midnight is suffixed " (cont'd from prev day)" — the
// convention the log-day splitter has always used, even though the name
// reads oddly for the head piece.
func splitAtMidnight(e domain.DutyEvent) []domain.DutyEvent {
	if dateKey(e.Start) == dateKey(e.End) {
		return []domain.DutyEvent{e}
	}

	var parts []domain.DutyEvent
	cur := e
	for dateKey(cur.Start) != dateKey(cur.End) {
		midnight := nextMidnight(cur.Start)
		if !cur.End.After(midnight) {
			break
		}

		head := cur
		head.End = midnight
		head.Remark = cur.Remark + " (cont'd)"
		parts = append(parts, head)

		cur.Start = midnight
		cur.Remark = e.Remark + " (cont'd from prev day)"
	}
	parts = append(parts, cur)
	return parts
}

// nextMidnight returns the next local midnight strictly after t, in t's
// own zone offset.
func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// buildLogDay gap-fills segments with OFF_DUTY and computes the four
// per-status totals for one calendar date.
func buildLogDay(date string, segments []domain.DutyEvent) domain.LogDay {
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].Start.Before(segments[j].Start)
	})

	dayStart := segments[0].Start
	y, m, d := dayStart.Date()
	dayStart = time.Date(y, m, d, 0, 0, 0, 0, dayStart.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	filled := make([]domain.DutyEvent, 0, len(segments)*2+1)

	if segments[0].Start.After(dayStart) {
		filled = append(filled, gapFill(dayStart, segments[0].Start, segments[0]))
	}

	for i, seg := range segments {
		filled = append(filled, seg)
		if i+1 < len(segments) {
			next := segments[i+1]
			if seg.End.Before(next.Start) {
				filled = append(filled, gapFill(seg.End, next.Start, seg))
			}
		}
	}

	last := segments[len(segments)-1]
	if last.End.Before(dayEnd) {
		filled = append(filled, gapFill(last.End, dayEnd, last))
	}

	day := domain.LogDay{Date: date, Segments: filled}
	for _, seg := range filled {
		hours := round2(seg.DurationHours())
		switch seg.Status {
		case domain.Driving:
			day.DrivingHours += hours
		case domain.OnDuty:
			day.OnDutyHours += hours
		case domain.Sleeper:
			day.SleeperHours += hours
		default:
			day.OffDutyHours += hours
		}
	}
	day.DrivingHours = round2(day.DrivingHours)
	day.OnDutyHours = round2(day.OnDutyHours)
	day.OffDutyHours = round2(day.OffDutyHours)
	day.SleeperHours = round2(day.SleeperHours)

	return day
}

// gapFill builds an OFF_DUTY event covering [start, end), inheriting the
// city/state of the adjacent segment (the one preceding the gap, or the
// first segment for a leading gap).
func gapFill(start, end time.Time, adjacent domain.DutyEvent) domain.DutyEvent {
	return domain.DutyEvent{
		Start:  start,
		End:    end,
		Status: domain.OffDuty,
		City:   adjacent.City,
		State:  adjacent.State,
		Remark: "Off duty",
	}
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
