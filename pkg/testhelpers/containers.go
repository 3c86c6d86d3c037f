// Package testhelpers provides databases for store, repository, and service tests.
package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver for database/sql (migrations)
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/acme/taskmanager/pkg/database"
)

// PostgresImage is the server image used for integration tests.
const PostgresImage = "postgres:16-alpine"

// PostgresDB holds a shared PostgreSQL container with migrations applied.
type PostgresDB struct {
	Container testcontainers.Container
	DB        *database.DB
	ConnStr   string
}

var (
	sharedPostgresDB     *PostgresDB
	sharedPostgresDBOnce sync.Once
	sharedPostgresDBErr  error
)

// GetPostgresDB returns a shared PostgreSQL database for integration tests.
// The container is created once and reused across all tests in the run;
// call ResetPostgres at the start of a test that needs empty tables.
func GetPostgresDB(t *testing.T) *PostgresDB {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedPostgresDBOnce.Do(func() {
		sharedPostgresDB, sharedPostgresDBErr = setupPostgresDB()
	})

	if sharedPostgresDBErr != nil {
		t.Fatalf("Failed to setup test database: %v", sharedPostgresDBErr)
	}

	return sharedPostgresDB
}

func setupPostgresDB() (*PostgresDB, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        PostgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "taskmanager_test",
			"POSTGRES_USER":     "taskmanager",
			"POSTGRES_PASSWORD": "test_password",
		},
		// The server logs readiness twice: once for the init run, once for the real start.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start test container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://taskmanager:test_password@%s:%s/taskmanager_test?sslmode=disable",
		host, port.Port())

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            connStr,
		MaxConnections: 5,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}

	// golang-migrate needs database/sql and closes the handle it is given.
	sqlDB, err := sql.Open("pgx", connStr)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sql connection: %w", err)
	}

	if err := database.RunMigrations(sqlDB, database.DriverPostgres, zap.NewNop()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &PostgresDB{
		Container: container,
		DB:        db,
		ConnStr:   connStr,
	}, nil
}

// ResetPostgres empties all application tables and restarts their id sequences.
func ResetPostgres(t *testing.T, db *PostgresDB) {
	t.Helper()

	if _, err := db.DB.Exec(context.Background(), "TRUNCATE tasks, users RESTART IDENTITY CASCADE"); err != nil {
		t.Fatalf("failed to reset test database: %v", err)
	}
}
