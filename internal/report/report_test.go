package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fleetops/hos-planner/pkg/domain"
)

func sampleDays() []domain.LogDay {
	start := time.Date(2026, 1, 27, 6, 0, 0, 0, time.UTC)
	return []domain.LogDay{
		{
			Date: "2026-01-27",
			Segments: []domain.DutyEvent{
				{Start: start, End: start.Add(1 * time.Hour), Status: domain.OnDuty, City: "Chicago", State: "IL", Remark: "Pickup - loading and inspection"},
				{Start: start.Add(1 * time.Hour), End: start.Add(6 * time.Hour), Status: domain.Driving, City: "Springfield", State: "IL", Remark: "Driving (275 miles)"},
			},
			DrivingHours: 5, OnDutyHours: 1, OffDutyHours: 18, SleeperHours: 0,
		},
	}
}

func TestLogSheetPDF_ProducesNonEmptyDocument(t *testing.T) {
	company := CompanyInfo{Name: "Acme Trucking", Driver: "J. Rivera", Vehicle: "Unit 42"}
	doc, err := LogSheetPDF("trip-1", company, sampleDays())
	if err != nil {
		t.Fatalf("LogSheetPDF() error = %v", err)
	}
	if len(doc) == 0 {
		t.Fatal("expected a non-empty PDF document")
	}
	if !bytes.HasPrefix(doc, []byte("%PDF")) {
		t.Errorf("document does not start with a PDF header")
	}
}

func TestLogSheetPDF_MultipleLogDays(t *testing.T) {
	days := append(sampleDays(), domain.LogDay{Date: "2026-01-28", OffDutyHours: 24})
	company := CompanyInfo{Name: "Acme Trucking"}
	doc, err := LogSheetPDF("trip-1", company, days)
	if err != nil {
		t.Fatalf("LogSheetPDF() error = %v", err)
	}
	if len(doc) == 0 {
		t.Fatal("expected a non-empty PDF document")
	}
}

func TestTripWorkbook_WritesSummaryAndLogSheets(t *testing.T) {
	plan := domain.PersistencePlan{
		TripID:         "trip-1",
		TotalMiles:     280,
		DrivingHours:   5.1,
		TotalTripHours: 7,
		Stops: []domain.Stop{
			{Type: domain.StopPickup, Location: domain.GeoPoint{City: "Chicago", State: "IL"}},
			{Type: domain.StopDropoff, Location: domain.GeoPoint{City: "St Louis", State: "MO"}},
		},
		LogDays: []domain.LogDayRecord{
			{
				Date: "2026-01-27", DrivingHours: 5.1, OnDutyHours: 2, OffDutyHours: 16.9,
				Segments: []domain.DutySegmentRecord{
					{Start: time.Date(2026, 1, 27, 6, 0, 0, 0, time.UTC), End: time.Date(2026, 1, 27, 7, 0, 0, 0, time.UTC), Status: domain.OnDuty, City: "Chicago", State: "IL", Remark: "Pickup - loading and inspection"},
				},
			},
		},
	}

	doc, err := TripWorkbook(plan)
	if err != nil {
		t.Fatalf("TripWorkbook() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("failed to reopen generated workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	wantSheets := map[string]bool{"Summary": false, "Log - 2026-01-27": false}
	for _, s := range sheets {
		if _, ok := wantSheets[s]; ok {
			wantSheets[s] = true
		}
	}
	for name, found := range wantSheets {
		if !found {
			t.Errorf("expected sheet %q, got sheets %v", name, sheets)
		}
	}

	tripID, err := f.GetCellValue("Summary", "B2")
	if err != nil {
		t.Fatalf("GetCellValue: %v", err)
	}
	if tripID != "trip-1" {
		t.Errorf("Summary!B2 = %q, want trip-1", tripID)
	}
}
