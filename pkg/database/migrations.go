package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/fleetops/hos-planner/pkg/config"
	"github.com/fleetops/hos-planner/pkg/logger"
)

// Migrator drives goose schema migrations against an embedded SQL tree.
type Migrator struct {
	pool       *pgxpool.Pool
	migrations embed.FS
	dir        string
}

// NewMigrator creates a Migrator bound to the given embedded migration files.
func NewMigrator(pool *pgxpool.Pool, migrations embed.FS, dir string) *Migrator {
	return &Migrator{pool: pool, migrations: migrations, dir: dir}
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(m.pool)
	defer db.Close()

	goose.SetBaseFS(m.migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, m.dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Log.Info("migrations applied successfully")
	return nil
}

// Down rolls back the most recently applied migration.
func (m *Migrator) Down(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(m.pool)
	defer db.Close()

	goose.SetBaseFS(m.migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.DownContext(ctx, db, m.dir); err != nil {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	logger.Log.Info("migration rolled back successfully")
	return nil
}

// Status prints the current migration status.
func (m *Migrator) Status(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(m.pool)
	defer db.Close()

	goose.SetBaseFS(m.migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	return goose.StatusContext(ctx, db, m.dir)
}

// RunMigrations applies migrations if cfg.AutoMigrate is set.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, cfg config.DatabaseConfig, migrations embed.FS, dir string) error {
	if !cfg.AutoMigrate {
		logger.Log.Info("auto-migration is disabled")
		return nil
	}

	migrator := NewMigrator(pool, migrations, dir)
	return migrator.Up(ctx)
}
