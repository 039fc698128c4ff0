package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/fleetops/hos-planner/internal/geoprovider"
	"github.com/fleetops/hos-planner/internal/orchestrator"
	"github.com/fleetops/hos-planner/internal/store"
	"github.com/fleetops/hos-planner/pkg/cache"
	"github.com/fleetops/hos-planner/pkg/config"
	"github.com/fleetops/hos-planner/pkg/database"
	"github.com/fleetops/hos-planner/pkg/logger"
	"github.com/fleetops/hos-planner/pkg/metrics"
)

var (
	cfgFile string
	cfg     *config.Config
)

// NewRootCommand builds the hos-planner command tree: plan, validate, and
// migrate, sharing one loaded Config via PersistentPreRunE.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "hos-planner",
		Short: "FMCSA Part 395 trip planner",
		Long: `hos-planner plans property-carrying driver trips under the FMCSA Part 395
hours-of-service rules: it geocodes the route, inserts the required breaks,
rest periods and fuel stops, builds daily log sheets, and validates the
result before anything is persisted.

Examples:
  hos-planner plan --origin "Chicago, IL" --destination "Dallas, TX" --cycle-hours 12
  hos-planner validate --origin "Chicago, IL" --destination "Dallas, TX" --cycle-hours 65
  hos-planner migrate up`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var opts []config.LoaderOption
			if cfgFile != "" {
				opts = append(opts, config.WithConfigPaths(cfgFile))
			}
			loaded, err := config.NewLoader(opts...).Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg = loaded
			logger.InitWithConfig(logger.Config{
				Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output,
				FilePath: cfg.Log.FilePath, MaxSize: cfg.Log.MaxSize,
				MaxBackups: cfg.Log.MaxBackups, MaxAge: cfg.Log.MaxAge, Compress: cfg.Log.Compress,
			})
			if cfg.Metrics.Enabled {
				metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
			}
			return nil
		},
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a YAML configuration file")

	root.AddCommand(newPlanCommand())
	root.AddCommand(newValidateCommand())
	root.AddCommand(newMigrateCommand())

	return root
}

// newOrchestrator wires a fresh Orchestrator from the loaded Config: an
// HTTP-backed geo provider wrapped in the configured cache, over the
// configured HOS rule set.
func newOrchestrator() (*orchestrator.Orchestrator, error) {
	cacheStore, err := cache.New(cache.FromConfig(cfg.Cache))
	if err != nil {
		return nil, fmt.Errorf("failed to build cache: %w", err)
	}
	provider := geoprovider.NewHTTPProvider(cfg.GeoProvider)
	cached := geoprovider.NewCachedProvider(provider, cacheStore, cfg.Cache.GeocodeTTL, cfg.Cache.RouteTTL)
	return orchestrator.New(cached, cfg.Rules.ToRuleSet()), nil
}

// newTripStore connects to the configured database and returns a
// store.TripStore ready to persist plans.
func newTripStore(ctx context.Context) (*store.TripStore, *database.PostgresDB, error) {
	db, err := database.NewPostgresDB(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return store.New(db), db, nil
}

// dbPool opens a bare pgxpool.Pool for the migrate command, which talks to
// goose directly rather than through the DB interface.
func dbPool(ctx context.Context) (*pgxpool.Pool, error) {
	poolCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(poolCtx, fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password, cfg.Database.Host,
		cfg.Database.Port, cfg.Database.Database, cfg.Database.SSLMode,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to open connection pool: %w", err)
	}
	return pool, nil
}
