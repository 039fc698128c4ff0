package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	var flags tripFlags

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run the planning pipeline without writing reports or persisting",
		Long: `validate runs geocoding, stop insertion, and compliance checking for a
trip request and reports whether it passes, without writing any files or
touching the database. Useful for checking a request before committing to
a full plan run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.toRequest()
			if err != nil {
				return err
			}

			orch, err := newOrchestrator()
			if err != nil {
				return err
			}

			result, err := orch.Plan(cmd.Context(), "validate", req)
			if err != nil {
				return describePlanError(err)
			}

			fmt.Printf("valid: %.1f miles, %.1f driving hours, %d log day(s)\n",
				result.Plan.TotalMiles, result.Plan.DrivingHours, len(result.Plan.LogDays))
			for _, w := range result.Findings.Warnings {
				fmt.Printf("warning: %s\n", w.Error())
			}
			return nil
		},
	}

	registerTripFlags(cmd, &flags)
	return cmd
}
