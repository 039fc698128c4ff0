// pkg/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/fleetops/hos-planner/pkg/domain"
)

// Config is the top-level configuration structure for the hos-planner
// service: ambient sections (app, log, metrics, database, cache,
// geo provider, report rendering) plus the HOS rule set itself.
type Config struct {
	App         AppConfig         `koanf:"app"`
	Log         LogConfig         `koanf:"log"`
	Metrics     MetricsConfig     `koanf:"metrics"`
	Database    DatabaseConfig    `koanf:"database"`
	Cache       CacheConfig       `koanf:"cache"`
	GeoProvider GeoProviderConfig `koanf:"geo_provider"`
	Report      ReportConfig      `koanf:"report"`
	Rules       RuleSetConfig     `koanf:"rules"`
}

// AppConfig holds general application identity settings.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
}

// LogConfig configures pkg/logger.
type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	Output     string `koanf:"output"`
	FilePath   string `koanf:"file_path"`
	MaxSize    int    `koanf:"max_size"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"`
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// DatabaseConfig configures the pgx-backed persistence adapter.
type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Database        string        `koanf:"database"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// CacheConfig configures pkg/cache, used by the geo-provider caching decorator.
type CacheConfig struct {
	Driver     string        `koanf:"driver"` // memory, redis
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	DB         int           `koanf:"db"`
	Password   string        `koanf:"password"`
	GeocodeTTL time.Duration `koanf:"geocode_ttl"`
	RouteTTL   time.Duration `koanf:"route_ttl"`
	MaxEntries int           `koanf:"max_entries"`
}

// Address returns the host:port pair for a Redis-backed cache.
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GeoProviderConfig configures the outbound geocoding/routing client.
type GeoProviderConfig struct {
	GeocodeBaseURL string        `koanf:"geocode_base_url"`
	RouteBaseURL   string        `koanf:"route_base_url"`
	UserAgent      string        `koanf:"user_agent"`
	GeocodeTimeout time.Duration `koanf:"geocode_timeout"`
	RouteTimeout   time.Duration `koanf:"route_timeout"`
}

// ReportConfig configures PDF/Excel rendering defaults.
type ReportConfig struct {
	CompanyName string `koanf:"company_name"`
	PageSize    string `koanf:"page_size"`
}

// RuleSetConfig mirrors domain.RuleSet with koanf tags so it can be
// populated from HOS_* environment variables and/or a YAML file.
type RuleSetConfig struct {
	MaxDrivingHours           float64 `koanf:"max_driving_hours"`
	MaxOnDutyWindowHours      float64 `koanf:"max_on_duty_window"`
	MaxCycleHours             float64 `koanf:"max_cycle_hours"`
	CycleDays                 int     `koanf:"cycle_days"`
	MinimumRestHours          float64 `koanf:"minimum_rest_hours"`
	BreakRequiredAfterHours   float64 `koanf:"break_required_after_hours"`
	BreakDurationMinutes      float64 `koanf:"break_duration_minutes"`
	FuelIntervalMiles         float64 `koanf:"fuel_interval_miles"`
	FuelStopDurationMinutes   float64 `koanf:"fuel_stop_duration_minutes"`
	PickupDurationHours       float64 `koanf:"pickup_duration_hours"`
	DropoffDurationHours      float64 `koanf:"dropoff_duration_hours"`
	MaxContinuousDrivingHours float64 `koanf:"max_continuous_driving_hours"`
	DefaultAverageSpeedMPH    float64 `koanf:"default_average_speed_mph"`
}

// ToRuleSet converts the loaded configuration into an immutable domain.RuleSet.
func (r RuleSetConfig) ToRuleSet() domain.RuleSet {
	return domain.RuleSet{
		MaxDrivingHours:           r.MaxDrivingHours,
		MaxOnDutyWindowHours:      r.MaxOnDutyWindowHours,
		MaxCycleHours:             r.MaxCycleHours,
		CycleDays:                 r.CycleDays,
		MinimumRestHours:          r.MinimumRestHours,
		BreakRequiredAfterHours:   r.BreakRequiredAfterHours,
		BreakDurationMinutes:      r.BreakDurationMinutes,
		FuelIntervalMiles:         r.FuelIntervalMiles,
		FuelStopDurationMinutes:   r.FuelStopDurationMinutes,
		PickupDurationHours:       r.PickupDurationHours,
		DropoffDurationHours:      r.DropoffDurationHours,
		MaxContinuousDrivingHours: r.MaxContinuousDrivingHours,
		DefaultAverageSpeedMPH:    r.DefaultAverageSpeedMPH,
	}
}

// Validate performs sanity checks on the loaded configuration.
func (c *Config) Validate() error {
	if c.Rules.MaxDrivingHours <= 0 {
		return fmt.Errorf("rules.max_driving_hours must be positive")
	}
	if c.Rules.MaxCycleHours <= 0 {
		return fmt.Errorf("rules.max_cycle_hours must be positive")
	}
	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("cache.driver must be memory or redis, got %q", c.Cache.Driver)
	}
	return nil
}
