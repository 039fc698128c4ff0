// pkg/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	appEnvPrefix    = "HOSPLANNER_"
	rulesEnvPrefix  = "HOS_"
	configEnvVar    = "CONFIG_PATH"
)

// Loader loads configuration from defaults, an optional YAML file, and
// environment variables, in that order of increasing priority.
type Loader struct {
	k           *koanf.Koanf
	configPaths []string
}

// NewLoader creates a new Loader with the default search paths.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		k: koanf.New("."),
		configPaths: []string{
			"config.yaml",
			"config/config.yaml",
			"/etc/hos-planner/config.yaml",
		},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigPaths overrides the list of YAML config file search paths.
func WithConfigPaths(paths ...string) LoaderOption {
	return func(l *Loader) { l.configPaths = paths }
}

// Load loads defaults, then the config file (if found), then environment
// variables (which take priority over both), then validates the result.
//
// Two environment prefixes are recognized: HOS_* overrides rule constants
// only (e.g. HOS_MAX_DRIVING_HOURS -> rules.max_driving_hours), and
// HOSPLANNER_* overrides every other ambient section.
func (l *Loader) Load() (*Config, error) {
	if err := l.loadDefaults(); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := l.loadConfigFile(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if err := l.loadEnv(rulesEnvPrefix, "rules."); err != nil {
		return nil, fmt.Errorf("failed to load HOS_* env: %w", err)
	}
	if err := l.loadEnv(appEnvPrefix, ""); err != nil {
		return nil, fmt.Errorf("failed to load HOSPLANNER_* env: %w", err)
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (l *Loader) loadDefaults() error {
	rs := defaultRuleSetConfig()

	defaults := map[string]any{
		"app.name":        "hos-planner",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"log.level":       "info",
		"log.format":      "json",
		"log.output":      "stdout",
		"log.max_size":    100,
		"log.max_backups": 3,
		"log.max_age":     7,
		"log.compress":    true,

		"metrics.enabled":   true,
		"metrics.port":      9090,
		"metrics.path":      "/metrics",
		"metrics.namespace": "hos_planner",

		"database.driver":             "postgres",
		"database.host":               "localhost",
		"database.port":               5432,
		"database.database":           "hos_planner",
		"database.username":           "postgres",
		"database.password":           "",
		"database.ssl_mode":           "disable",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  5 * time.Minute,
		"database.conn_max_idle_time": 5 * time.Minute,
		"database.auto_migrate":       true,

		"cache.driver":      "memory",
		"cache.host":        "localhost",
		"cache.port":        6379,
		"cache.db":          0,
		"cache.geocode_ttl": 7 * 24 * time.Hour,
		"cache.route_ttl":   1 * time.Hour,
		"cache.max_entries": 100000,

		"geo_provider.geocode_base_url": "https://nominatim.openstreetmap.org/search",
		"geo_provider.route_base_url":   "https://router.project-osrm.org/route/v1/driving",
		"geo_provider.user_agent":       "hos-planner/1.0 (+ops@fleetops.example)",
		"geo_provider.geocode_timeout":  10 * time.Second,
		"geo_provider.route_timeout":    30 * time.Second,

		"report.company_name": "FleetOps",
		"report.page_size":    "Letter",

		"rules.max_driving_hours":              rs.MaxDrivingHours,
		"rules.max_on_duty_window":              rs.MaxOnDutyWindowHours,
		"rules.max_cycle_hours":                 rs.MaxCycleHours,
		"rules.cycle_days":                      rs.CycleDays,
		"rules.minimum_rest_hours":               rs.MinimumRestHours,
		"rules.break_required_after_hours":       rs.BreakRequiredAfterHours,
		"rules.break_duration_minutes":           rs.BreakDurationMinutes,
		"rules.fuel_interval_miles":              rs.FuelIntervalMiles,
		"rules.fuel_stop_duration_minutes":       rs.FuelStopDurationMinutes,
		"rules.pickup_duration_hours":            rs.PickupDurationHours,
		"rules.dropoff_duration_hours":           rs.DropoffDurationHours,
		"rules.max_continuous_driving_hours":     rs.MaxContinuousDrivingHours,
		"rules.default_average_speed_mph":        rs.DefaultAverageSpeedMPH,
	}

	return l.k.Load(confmap.Provider(defaults, "."), nil)
}

func defaultRuleSetConfig() RuleSetConfig {
	return RuleSetConfig{
		MaxDrivingHours:           11,
		MaxOnDutyWindowHours:      14,
		MaxCycleHours:             70,
		CycleDays:                 8,
		MinimumRestHours:          10,
		BreakRequiredAfterHours:   8,
		BreakDurationMinutes:      30,
		FuelIntervalMiles:         1000,
		FuelStopDurationMinutes:   30,
		PickupDurationHours:       1,
		DropoffDurationHours:      1,
		MaxContinuousDrivingHours: 2,
		DefaultAverageSpeedMPH:    55,
	}
}

func (l *Loader) loadConfigFile() error {
	if configPath := os.Getenv(configEnvVar); configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return l.k.Load(file.Provider(configPath), yaml.Parser())
		}
	}

	for _, path := range l.configPaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		if _, err := os.Stat(absPath); err == nil {
			return l.k.Load(file.Provider(absPath), yaml.Parser())
		}
	}

	return fmt.Errorf("config file not found in paths: %v", l.configPaths)
}

// loadEnv loads environment variables under prefix into the koanf tree
// rooted at rootKey (e.g. HOS_MAX_DRIVING_HOURS -> rules.max_driving_hours).
// With no rootKey, the leading section name is split off the field name
// (e.g. HOSPLANNER_GEO_PROVIDER_USER_AGENT -> geo_provider.user_agent).
func (l *Loader) loadEnv(prefix, rootKey string) error {
	return l.k.Load(env.Provider(prefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, prefix))
		if rootKey != "" {
			return rootKey + key
		}
		for _, section := range []string{"app", "log", "metrics", "database", "cache", "geo_provider", "report"} {
			if strings.HasPrefix(key, section+"_") {
				return section + "." + strings.TrimPrefix(key, section+"_")
			}
		}
		return strings.ReplaceAll(key, "_", ".")
	}), nil)
}

// MustLoad loads configuration or panics.
func MustLoad(opts ...LoaderOption) *Config {
	cfg, err := NewLoader(opts...).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// Load loads configuration with the default search paths.
func Load() (*Config, error) {
	return NewLoader().Load()
}
