package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fleetops/hos-planner/migrations"
	"github.com/fleetops/hos-planner/pkg/database"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run schema migrations against the configured database",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m *database.Migrator) error {
				return m.Up(cmd.Context())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recently applied migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m *database.Migrator) error {
				return m.Down(cmd.Context())
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the current migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd, func(m *database.Migrator) error {
				return m.Status(cmd.Context())
			})
		},
	})

	return cmd
}

func withMigrator(cmd *cobra.Command, fn func(*database.Migrator) error) error {
	ctx := cmd.Context()
	pool, err := dbPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator := database.NewMigrator(pool, migrations.FS, ".")
	if err := fn(migrator); err != nil {
		return fmt.Errorf("migration command failed: %w", err)
	}
	return nil
}
