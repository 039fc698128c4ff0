package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fleetops/hos-planner/internal/report"
	"github.com/fleetops/hos-planner/pkg/apperror"
	"github.com/fleetops/hos-planner/pkg/domain"
)

type tripFlags struct {
	origin         string
	pickup         string
	destination    string
	startTime      string
	cycleHours     float64
	speedMPH       float64
	includePickup  bool
	includeDropoff bool
	tripID         string
}

func (f tripFlags) toRequest() (domain.TripRequest, error) {
	start, err := time.Parse(time.RFC3339, f.startTime)
	if err != nil {
		return domain.TripRequest{}, fmt.Errorf("invalid --start-time %q: %w", f.startTime, err)
	}
	return domain.TripRequest{
		OriginQuery: f.origin, PickupQuery: f.pickup, DestinationQuery: f.destination,
		StartTime: start, CurrentCycleHours: f.cycleHours, AverageSpeedMPH: f.speedMPH,
		IncludePickup: f.includePickup, IncludeDropoff: f.includeDropoff,
	}, nil
}

func registerTripFlags(cmd *cobra.Command, f *tripFlags) {
	cmd.Flags().StringVar(&f.origin, "origin", "", "origin address or place name (required)")
	cmd.Flags().StringVar(&f.pickup, "pickup", "", "pickup address, if different from the origin")
	cmd.Flags().StringVar(&f.destination, "destination", "", "destination address or place name (required)")
	cmd.Flags().StringVar(&f.startTime, "start-time", time.Now().UTC().Format(time.RFC3339), "trip start time, RFC3339")
	cmd.Flags().Float64Var(&f.cycleHours, "cycle-hours", 0, "hours already used in the driver's 70-hour/8-day cycle")
	cmd.Flags().Float64Var(&f.speedMPH, "speed", 55, "assumed average driving speed, mph")
	cmd.Flags().BoolVar(&f.includePickup, "include-pickup", true, "insert a pickup duty segment")
	cmd.Flags().BoolVar(&f.includeDropoff, "include-dropoff", true, "insert a dropoff duty segment")
	cmd.MarkFlagRequired("origin")
	cmd.MarkFlagRequired("destination")
}

func newPlanCommand() *cobra.Command {
	var flags tripFlags
	var outputDir string
	var persist bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a trip and render its log sheets",
		Long: `plan runs the full pipeline for one trip: geocoding, stop and break
insertion, daily log construction, and compliance validation. On success it
writes a driver log sheet PDF and a dispatcher Excel workbook to
--output-dir, and persists the plan when --persist is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.toRequest()
			if err != nil {
				return err
			}
			tripID := flags.tripID
			if tripID == "" {
				tripID = uuid.NewString()
			}

			orch, err := newOrchestrator()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			result, err := orch.Plan(ctx, tripID, req)
			if err != nil {
				return describePlanError(err)
			}

			fmt.Printf("trip %s planned: %.1f miles, %.1f driving hours, %d log day(s)\n",
				tripID, result.Plan.TotalMiles, result.Plan.DrivingHours, len(result.Plan.LogDays))
			for _, w := range result.Findings.Warnings {
				fmt.Printf("warning: %s\n", w.Error())
			}

			if err := writeReports(tripID, result.Plan, outputDir); err != nil {
				return err
			}

			if persist {
				tripStore, db, err := newTripStore(ctx)
				if err != nil {
					return err
				}
				defer db.Close()
				if err := tripStore.Save(ctx, req, result.Plan); err != nil {
					return fmt.Errorf("failed to persist plan: %w", err)
				}
				fmt.Printf("trip %s persisted\n", tripID)
			}

			return nil
		},
	}

	registerTripFlags(cmd, &flags)
	cmd.Flags().StringVar(&flags.tripID, "trip-id", "", "trip ID to use (default: a generated UUID)")
	cmd.Flags().StringVar(&outputDir, "output-dir", ".", "directory to write the log sheet PDF and Excel workbook into")
	cmd.Flags().BoolVar(&persist, "persist", false, "save the plan to the configured database")

	return cmd
}

// writeReports renders the driver log sheet PDF and dispatcher Excel
// workbook for plan and writes them under dir.
func writeReports(tripID string, plan domain.PersistencePlan, dir string) error {
	company := report.CompanyInfo{Name: cfg.Report.CompanyName}

	pdf, err := report.LogSheetPDF(tripID, company, report.FromRecords(plan.LogDays))
	if err != nil {
		return fmt.Errorf("failed to render log sheet PDF: %w", err)
	}
	pdfPath := filepath.Join(dir, tripID+"-logsheet.pdf")
	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", pdfPath, err)
	}

	workbook, err := report.TripWorkbook(plan)
	if err != nil {
		return fmt.Errorf("failed to render trip workbook: %w", err)
	}
	xlsxPath := filepath.Join(dir, tripID+"-trip.xlsx")
	if err := os.WriteFile(xlsxPath, workbook, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", xlsxPath, err)
	}

	fmt.Printf("wrote %s and %s\n", pdfPath, xlsxPath)
	return nil
}

// describePlanError prints the compliance violations a failed plan carries,
// when the orchestrator rejected it on HOS grounds rather than a lower-level
// geocoding/routing failure.
func describePlanError(err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) && appErr.Code == apperror.CodeHOSViolation {
		if violations, ok := appErr.Details["violations"].([]string); ok {
			for _, v := range violations {
				fmt.Fprintln(os.Stderr, "violation:", v)
			}
		}
	}
	return err
}
