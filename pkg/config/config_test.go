package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var configEnvVars = []string{
	"BIND_ADDR", "PORT", "ENVIRONMENT", "SHUTDOWN_TIMEOUT",
	"DB_DRIVER", "PGHOST", "PGPORT", "PGUSER", "PGPASSWORD", "PGDATABASE",
	"PGMAX_CONNECTIONS", "PGSSLMODE", "SQLITE_PATH", "DB_RUN_MIGRATIONS",
	"EXPIRED_TASK_SCHEDULER_ENABLED", "EXPIRED_TASK_SCHEDULER_DELAY",
	"EXPIRED_TASK_SCHEDULER_INITIAL_DELAY", "EXPIRED_TASK_SCHEDULER_EXPIRATION",
	"EXPIRED_TASK_SCHEDULER_UPDATE_LIMIT", "EXPIRED_TASK_SCHEDULER_FROM_STATUS",
	"EXPIRED_TASK_SCHEDULER_TO_STATUS", "METRICS_ENABLED", "METRICS_PATH",
}

// withConfigFile writes content as config.yaml in a temp dir, switches into
// it, and clears every env var Load reads.
func withConfigFile(t *testing.T, content string) {
	t.Helper()

	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(content), 0o644))
	t.Chdir(tmpDir)

	for _, key := range configEnvVars {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Defaults(t *testing.T) {
	withConfigFile(t, "env: test\n")

	cfg, err := Load("test-version")
	require.NoError(t, err)

	assert.Equal(t, "test-version", cfg.Version)
	assert.Equal(t, "127.0.0.1", cfg.BindAddr)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.True(t, cfg.Database.RunMigrations)

	s := cfg.ExpiredTaskScheduler
	assert.True(t, s.Enabled)
	assert.Equal(t, time.Minute, s.Delay)
	assert.Equal(t, time.Minute, s.InitialDelay, "initial delay falls back to delay")
	assert.Equal(t, 168*time.Hour, s.Expiration)
	assert.Equal(t, 100, s.UpdateLimit)
	assert.Equal(t, "PENDING", s.FromStatus)
	assert.Equal(t, "DONE", s.ToStatus)

	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_ZeroInitialDelayIsKept(t *testing.T) {
	withConfigFile(t, "expired_task_scheduler:\n  delay: 5m\n  initial_delay: 0s\n")

	cfg, err := Load("test-version")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.ExpiredTaskScheduler.Delay)
	assert.Zero(t, cfg.ExpiredTaskScheduler.InitialDelay, "explicit zero means run at startup")
}

func TestLoad_FromYAML(t *testing.T) {
	fixture := map[string]any{
		"port": "9000",
		"database": map[string]any{
			"driver":         "sqlite",
			"sqlite_path":    "tasks.db",
			"run_migrations": false,
		},
		"expired_task_scheduler": map[string]any{
			"enabled":       false,
			"delay":         "30s",
			"initial_delay": "5s",
			"expiration":    "48h",
			"update_limit":  10,
			"from_status":   "OPEN",
			"to_status":     "EXPIRED",
		},
		"metrics": map[string]any{
			"enabled": false,
		},
	}
	content, err := yaml.Marshal(fixture)
	require.NoError(t, err)
	withConfigFile(t, string(content))

	cfg, err := Load("v1")
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "tasks.db", cfg.Database.SQLitePath)
	assert.False(t, cfg.Database.RunMigrations, "explicit false must survive defaults")

	s := cfg.ExpiredTaskScheduler
	assert.False(t, s.Enabled, "explicit false must survive defaults")
	assert.Equal(t, 30*time.Second, s.Delay)
	assert.Equal(t, 5*time.Second, s.InitialDelay)
	assert.Equal(t, 48*time.Hour, s.Expiration)
	assert.Equal(t, 10, s.UpdateLimit)
	assert.Equal(t, "OPEN", s.FromStatus)
	assert.Equal(t, "EXPIRED", s.ToStatus)

	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	withConfigFile(t, `
port: "8080"
env: "test"
database:
  host: "db.example.com"
  user: "testuser"
expired_task_scheduler:
  delay: 1m
  update_limit: 50
`)

	t.Setenv("PORT", "4443")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PGPASSWORD", "secret")
	t.Setenv("EXPIRED_TASK_SCHEDULER_UPDATE_LIMIT", "5")
	t.Setenv("EXPIRED_TASK_SCHEDULER_ENABLED", "false")

	cfg, err := Load("test-version")
	require.NoError(t, err)

	assert.Equal(t, "4443", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, 5, cfg.ExpiredTaskScheduler.UpdateLimit)
	assert.False(t, cfg.ExpiredTaskScheduler.Enabled)

	// YAML value used where no env var is set
	assert.Equal(t, "db.example.com", cfg.Database.Host)
	assert.Equal(t, "testuser", cfg.Database.User)
}

func TestLoad_PasswordNotReadFromYAML(t *testing.T) {
	withConfigFile(t, `
database:
  password: "from-yaml"
`)

	cfg, err := Load("v")
	require.NoError(t, err)
	assert.Empty(t, cfg.Database.Password)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config.yaml")
}

func TestLoad_InvalidScheduler(t *testing.T) {
	withConfigFile(t, `
expired_task_scheduler:
  update_limit: -1
`)

	_, err := Load("v")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update_limit must be positive")
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ShutdownTimeout: time.Second,
			Database:        DatabaseConfig{Driver: DriverPostgres},
			ExpiredTaskScheduler: SchedulerConfig{
				Enabled:     true,
				Delay:       time.Minute,
				Expiration:  time.Hour,
				UpdateLimit: 10,
				FromStatus:  "PENDING",
				ToStatus:    "DONE",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }, `unsupported database.driver "oracle"`},
		{"sqlite without path", func(c *Config) { c.Database.Driver = DriverSQLite }, "sqlite_path is required"},
		{"zero shutdown timeout", func(c *Config) { c.ShutdownTimeout = 0 }, "shutdown_timeout must be positive"},
		{"zero delay", func(c *Config) { c.ExpiredTaskScheduler.Delay = 0 }, "delay must be positive"},
		{"negative initial delay", func(c *Config) { c.ExpiredTaskScheduler.InitialDelay = -time.Second }, "initial_delay must not be negative"},
		{"zero expiration", func(c *Config) { c.ExpiredTaskScheduler.Expiration = 0 }, "expiration must be positive"},
		{"zero limit", func(c *Config) { c.ExpiredTaskScheduler.UpdateLimit = 0 }, "update_limit must be positive"},
		{"missing status", func(c *Config) { c.ExpiredTaskScheduler.ToStatus = "" }, "to_status are required"},
		{"disabled scheduler skips checks", func(c *Config) {
			c.ExpiredTaskScheduler = SchedulerConfig{Enabled: false}
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAddr(t *testing.T) {
	cfg := &Config{BindAddr: "0.0.0.0", Port: "8080"}
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestConnectionString(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "app",
		Password: "pw",
		Database: "tasks",
		SSLMode:  "disable",
	}
	assert.Equal(t, "host=localhost port=5432 user=app password=pw dbname=tasks sslmode=disable", db.ConnectionString())
}
