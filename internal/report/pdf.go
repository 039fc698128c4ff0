// Package report renders a finished trip plan to the two formats a
// dispatcher and a driver actually need: a driver-facing paper log sheet
// (PDF, one section per LogDay) and a dispatcher-facing trip summary
// (Excel workbook).
package report

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/fleetops/hos-planner/pkg/domain"
)

var (
	headerColor    = &props.Color{Red: 44, Green: 62, Blue: 80}
	drivingColor   = &props.Color{Red: 231, Green: 76, Blue: 60}
	onDutyColor    = &props.Color{Red: 243, Green: 156, Blue: 18}
	offDutyColor   = &props.Color{Red: 127, Green: 140, Blue: 141}
	sleeperColor   = &props.Color{Red: 52, Green: 152, Blue: 219}
	lightGrayColor = &props.Color{Red: 236, Green: 240, Blue: 241}

	titleStyle = props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Center, Color: headerColor}
	h2Style    = props.Text{Size: 12, Style: fontstyle.Bold, Color: headerColor, Top: 3}
	smallStyle = props.Text{Size: 8, Color: offDutyColor}
	totalStyle = props.Text{Size: 9, Style: fontstyle.Bold}

	segmentHeaderStyle = &props.Cell{BackgroundColor: headerColor}
	segmentHeaderText  = props.Text{Size: 8, Style: fontstyle.Bold, Color: &props.Color{Red: 255, Green: 255, Blue: 255}, Align: align.Center}
	segmentCellStyle   = &props.Cell{BorderType: border.Bottom, BorderColor: lightGrayColor}
	segmentCellText    = props.Text{Size: 8, Align: align.Center}
)

// CompanyInfo identifies the carrier on every rendered page.
type CompanyInfo struct {
	Name    string
	Driver  string
	Vehicle string
}

// LogSheetPDF renders one FMCSA-style daily log section per LogDay in order,
// separating consecutive days with a line row. It does not force a page
// break between days; pages break only where the content overflows.
func LogSheetPDF(tripID string, company CompanyInfo, days []domain.LogDay) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber().
		WithLeftMargin(12).
		WithTopMargin(12).
		WithRightMargin(12).
		Build()

	m := maroto.New(cfg)

	for i, day := range days {
		if i > 0 {
			m.AddRow(3, line.NewCol(12))
		}
		addDayHeader(m, tripID, company, day)
		addSegmentTable(m, day)
		addTotalsRow(m, day)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render log sheet pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func addDayHeader(m core.Maroto, tripID string, company CompanyInfo, day domain.LogDay) {
	m.AddRow(12, text.NewCol(12, "Driver's Daily Log", titleStyle))
	m.AddRow(6,
		text.NewCol(4, fmt.Sprintf("Date: %s", day.Date), h2Style),
		text.NewCol(4, fmt.Sprintf("Driver: %s", company.Driver), smallStyle),
		text.NewCol(4, fmt.Sprintf("Vehicle: %s", company.Vehicle), smallStyle),
	)
	m.AddRow(5,
		text.NewCol(6, fmt.Sprintf("Carrier: %s", company.Name), smallStyle),
		text.NewCol(6, fmt.Sprintf("Trip: %s", tripID), smallStyle),
	)
	m.AddRow(4)
}

func addSegmentTable(m core.Maroto, day domain.LogDay) {
	m.AddRow(7,
		text.NewCol(3, "Start", segmentHeaderText).WithStyle(segmentHeaderStyle),
		text.NewCol(3, "End", segmentHeaderText).WithStyle(segmentHeaderStyle),
		text.NewCol(2, "Status", segmentHeaderText).WithStyle(segmentHeaderStyle),
		text.NewCol(2, "Location", segmentHeaderText).WithStyle(segmentHeaderStyle),
		text.NewCol(2, "Remark", segmentHeaderText).WithStyle(segmentHeaderStyle),
	)

	for _, seg := range day.Segments {
		m.AddRow(6,
			text.NewCol(3, seg.Start.Format("15:04"), segmentCellText).WithStyle(segmentCellStyle),
			text.NewCol(3, seg.End.Format("15:04"), segmentCellText).WithStyle(segmentCellStyle),
			text.NewCol(2, string(seg.Status), statusTextStyle(seg.Status)).WithStyle(segmentCellStyle),
			text.NewCol(2, fmt.Sprintf("%s, %s", seg.City, seg.State), segmentCellText).WithStyle(segmentCellStyle),
			text.NewCol(2, seg.Remark, segmentCellText).WithStyle(segmentCellStyle),
		)
	}
}

func addTotalsRow(m core.Maroto, day domain.LogDay) {
	m.AddRow(4)
	m.AddRow(6,
		text.NewCol(3, fmt.Sprintf("Driving: %.2fh", day.DrivingHours), totalStyle),
		text.NewCol(3, fmt.Sprintf("On Duty: %.2fh", day.OnDutyHours), totalStyle),
		text.NewCol(3, fmt.Sprintf("Off Duty: %.2fh", day.OffDutyHours), totalStyle),
		text.NewCol(3, fmt.Sprintf("Sleeper: %.2fh", day.SleeperHours), totalStyle),
	)
}

func statusTextStyle(s domain.DutyStatus) props.Text {
	style := segmentCellText
	switch s {
	case domain.Driving:
		style.Color = drivingColor
	case domain.OnDuty:
		style.Color = onDutyColor
	case domain.Sleeper:
		style.Color = sleeperColor
	default:
		style.Color = offDutyColor
	}
	return style
}
