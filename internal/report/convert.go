package report

import "github.com/fleetops/hos-planner/pkg/domain"

// FromRecords turns the store-facing LogDayRecord shape the orchestrator
// persists back into the domain.LogDay shape LogSheetPDF renders, so a CLI
// or API layer can go straight from a loaded PersistencePlan to a log sheet
// without re-running the planner.
func FromRecords(records []domain.LogDayRecord) []domain.LogDay {
	days := make([]domain.LogDay, len(records))
	for i, r := range records {
		segments := make([]domain.DutyEvent, len(r.Segments))
		for j, s := range r.Segments {
			segments[j] = domain.DutyEvent{
				Start: s.Start, End: s.End, Status: s.Status,
				City: s.City, State: s.State, Remark: s.Remark,
			}
		}
		days[i] = domain.LogDay{
			Date: r.Date, Segments: segments,
			DrivingHours: r.DrivingHours, OnDutyHours: r.OnDutyHours,
			OffDutyHours: r.OffDutyHours, SleeperHours: r.SleeperHours,
		}
	}
	return days
}
