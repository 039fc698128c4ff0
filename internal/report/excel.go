package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/fleetops/hos-planner/pkg/domain"
)

func cellAddr(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// TripWorkbook renders a dispatcher-facing summary: one "Summary" sheet
// with trip totals and stops, plus one "Log - <date>" sheet per LogDay.
func TripWorkbook(plan domain.PersistencePlan) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2C3E50"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("build header style: %w", err)
	}

	writeSummarySheet(f, plan, headerStyle)
	for _, day := range plan.LogDays {
		writeLogDaySheet(f, day, headerStyle)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write trip workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, plan domain.PersistencePlan, headerStyle int) {
	sheet := "Summary"
	f.NewSheet(sheet)

	f.SetCellValue(sheet, "A1", "Trip Summary")
	f.SetCellStyle(sheet, "A1", "B1", headerStyle)

	row := 2
	setKV := func(label string, value any) {
		f.SetCellValue(sheet, cellAddr("A", row), label)
		f.SetCellValue(sheet, cellAddr("B", row), value)
		row++
	}
	setKV("Trip ID", plan.TripID)
	setKV("Total Miles", plan.TotalMiles)
	setKV("Driving Hours", plan.DrivingHours)
	setKV("Total Trip Hours", plan.TotalTripHours)
	setKV("Log Days", len(plan.LogDays))
	row++

	f.SetCellValue(sheet, cellAddr("A", row), "Stops")
	f.SetCellStyle(sheet, cellAddr("A", row), cellAddr("D", row), headerStyle)
	row++

	headers := []string{"Type", "City", "State", "Arrival", "Departure", "Cumulative Miles"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellAddr(string(rune('A'+i)), row), h)
	}
	f.SetCellStyle(sheet, cellAddr("A", row), cellAddr("F", row), headerStyle)
	row++

	for _, stop := range plan.Stops {
		f.SetCellValue(sheet, cellAddr("A", row), string(stop.Type))
		f.SetCellValue(sheet, cellAddr("B", row), stop.Location.City)
		f.SetCellValue(sheet, cellAddr("C", row), stop.Location.State)
		f.SetCellValue(sheet, cellAddr("D", row), stop.ScheduledArrival.Format("2006-01-02 15:04"))
		f.SetCellValue(sheet, cellAddr("E", row), stop.ScheduledDeparture.Format("2006-01-02 15:04"))
		f.SetCellValue(sheet, cellAddr("F", row), stop.CumulativeMiles)
		row++
	}
}

func writeLogDaySheet(f *excelize.File, day domain.LogDayRecord, headerStyle int) {
	sheet := "Log - " + day.Date
	f.NewSheet(sheet)

	headers := []string{"Start", "End", "Status", "City", "State", "Remark"}
	for i, h := range headers {
		f.SetCellValue(sheet, cellAddr(string(rune('A'+i)), 1), h)
	}
	f.SetCellStyle(sheet, "A1", "F1", headerStyle)

	row := 2
	for _, seg := range day.Segments {
		f.SetCellValue(sheet, cellAddr("A", row), seg.Start.Format("15:04"))
		f.SetCellValue(sheet, cellAddr("B", row), seg.End.Format("15:04"))
		f.SetCellValue(sheet, cellAddr("C", row), string(seg.Status))
		f.SetCellValue(sheet, cellAddr("D", row), seg.City)
		f.SetCellValue(sheet, cellAddr("E", row), seg.State)
		f.SetCellValue(sheet, cellAddr("F", row), seg.Remark)
		row++
	}

	row += 2
	f.SetCellValue(sheet, cellAddr("A", row), "Driving")
	f.SetCellValue(sheet, cellAddr("B", row), day.DrivingHours)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "On Duty")
	f.SetCellValue(sheet, cellAddr("B", row), day.OnDutyHours)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Off Duty")
	f.SetCellValue(sheet, cellAddr("B", row), day.OffDutyHours)
	row++
	f.SetCellValue(sheet, cellAddr("A", row), "Sleeper")
	f.SetCellValue(sheet, cellAddr("B", row), day.SleeperHours)
}
