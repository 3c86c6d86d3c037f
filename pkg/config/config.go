package config

import (
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Supported values for database.driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the task manager.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr        string        `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port            string        `yaml:"port" env:"PORT" env-default:"8080"`
	Env             string        `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
	Version         string        `yaml:"-"` // Set at load time, not from config

	Database DatabaseConfig `yaml:"database"`

	// ExpiredTaskScheduler configures the background job that moves stale
	// tasks from one status to another.
	ExpiredTaskScheduler SchedulerConfig `yaml:"expired_task_scheduler"`

	Metrics MetricsConfig `yaml:"metrics"`
}

// DatabaseConfig selects the store and holds its connection settings.
type DatabaseConfig struct {
	Driver         string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"taskmanager"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"taskmanager"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`

	// SQLitePath is the database file used when Driver is "sqlite".
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"data/taskmanager.db"`

	// RunMigrations applies the embedded schema migrations at startup.
	// Defaults to true; see Load.
	RunMigrations bool `yaml:"run_migrations" env:"DB_RUN_MIGRATIONS"`
}

// SchedulerConfig holds the expired task scheduler settings.
type SchedulerConfig struct {
	// Enabled defaults to true; see Load.
	Enabled bool `yaml:"enabled" env:"EXPIRED_TASK_SCHEDULER_ENABLED"`

	// Delay is the pause between the end of one run and the start of the next.
	Delay time.Duration `yaml:"delay" env:"EXPIRED_TASK_SCHEDULER_DELAY" env-default:"1m"`

	// InitialDelay is the pause before the first run. Unset means Delay; an
	// explicit zero runs the job at startup.
	InitialDelay time.Duration `yaml:"initial_delay" env:"EXPIRED_TASK_SCHEDULER_INITIAL_DELAY"`

	// Expiration is how old a task's date_time must be before it expires.
	Expiration time.Duration `yaml:"expiration" env:"EXPIRED_TASK_SCHEDULER_EXPIRATION" env-default:"168h"`

	// UpdateLimit caps the number of tasks transitioned per run.
	UpdateLimit int `yaml:"update_limit" env:"EXPIRED_TASK_SCHEDULER_UPDATE_LIMIT" env-default:"100"`

	FromStatus string `yaml:"from_status" env:"EXPIRED_TASK_SCHEDULER_FROM_STATUS" env-default:"PENDING"`
	ToStatus   string `yaml:"to_status" env:"EXPIRED_TASK_SCHEDULER_TO_STATUS" env-default:"DONE"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled defaults to true; see Load.
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED"`
	Path    string `yaml:"path" env:"METRICS_PATH" env-default:"/metrics"`
}

// unsetInitialDelay marks initial_delay as not configured, so that an
// explicit zero can be told apart from a missing key.
const unsetInitialDelay time.Duration = -1

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
//
// cleanenv only applies env-default to zero-valued fields, so a boolean
// default of true would overwrite an explicit "false" from YAML. Boolean
// switches that default to on are therefore seeded here before reading.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
		Database: DatabaseConfig{
			RunMigrations: true,
		},
		ExpiredTaskScheduler: SchedulerConfig{
			Enabled:      true,
			InitialDelay: unsetInitialDelay,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if cfg.ExpiredTaskScheduler.InitialDelay == unsetInitialDelay {
		cfg.ExpiredTaskScheduler.InitialDelay = cfg.ExpiredTaskScheduler.Delay
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings that would otherwise fail late or silently.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case DriverPostgres:
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("database.sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported database.driver %q", c.Database.Driver))
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}

	if err := c.ExpiredTaskScheduler.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Validate checks the scheduler settings. A disabled scheduler is not checked.
func (s *SchedulerConfig) Validate() error {
	if !s.Enabled {
		return nil
	}

	var errs []error
	if s.Delay <= 0 {
		errs = append(errs, errors.New("expired_task_scheduler.delay must be positive"))
	}
	if s.InitialDelay < 0 {
		errs = append(errs, errors.New("expired_task_scheduler.initial_delay must not be negative"))
	}
	if s.Expiration <= 0 {
		errs = append(errs, errors.New("expired_task_scheduler.expiration must be positive"))
	}
	if s.UpdateLimit <= 0 {
		errs = append(errs, errors.New("expired_task_scheduler.update_limit must be positive"))
	}
	if s.FromStatus == "" || s.ToStatus == "" {
		errs = append(errs, errors.New("expired_task_scheduler.from_status and to_status are required"))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.BindAddr, c.Port)
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
