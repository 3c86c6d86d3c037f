package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/acme/taskmanager/pkg/config"
	"github.com/acme/taskmanager/pkg/database"
	"github.com/acme/taskmanager/pkg/handlers"
	"github.com/acme/taskmanager/pkg/logging"
	"github.com/acme/taskmanager/pkg/metrics"
	"github.com/acme/taskmanager/pkg/middleware"
	"github.com/acme/taskmanager/pkg/models"
	"github.com/acme/taskmanager/pkg/repositories"
	"github.com/acme/taskmanager/pkg/services"
	"github.com/acme/taskmanager/pkg/store"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", logging.Error(err))
	}
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// storeHandle is an open store plus what the server needs around it.
type storeHandle struct {
	backend store.Backend
	ping    handlers.DBPinger
	close   func()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("driver", cfg.Database.Driver),
		zap.Bool("scheduler_enabled", cfg.ExpiredTaskScheduler.Enabled),
		zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
	)

	db, err := openStore(ctx, &cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.close()

	userRepo, err := repositories.NewUserRepository(db.backend)
	if err != nil {
		return err
	}
	taskRepo, err := repositories.NewTaskRepository(db.backend)
	if err != nil {
		return err
	}

	userService := services.NewUserService(userRepo, logger)
	taskService := services.NewTaskService(taskRepo, userRepo, logger)

	registry := metrics.NewRegistry()
	expiration := services.NewExpirationService(taskRepo, services.ExpirationConfig{
		Enabled:      cfg.ExpiredTaskScheduler.Enabled,
		Delay:        cfg.ExpiredTaskScheduler.Delay,
		InitialDelay: cfg.ExpiredTaskScheduler.InitialDelay,
		Expiration:   cfg.ExpiredTaskScheduler.Expiration,
		Limit:        cfg.ExpiredTaskScheduler.UpdateLimit,
		FromStatus:   models.TaskStatus(cfg.ExpiredTaskScheduler.FromStatus),
		ToStatus:     models.TaskStatus(cfg.ExpiredTaskScheduler.ToStatus),
	}, metrics.NewExpirationMetrics(registry), logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db.ping, logger).RegisterRoutes(mux)
	handlers.NewUsersHandler(userService, logger).RegisterRoutes(mux)
	handlers.NewTasksHandler(taskService, logger).RegisterRoutes(mux)
	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, metrics.Handler(registry))
	}

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: middleware.Recoverer(logger)(middleware.RequestLogger(logger)(mux)),
	}

	expiration.Start(ctx)
	defer expiration.Stop()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting taskmanager",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	expiration.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// openStore connects to the configured database and applies migrations when
// enabled.
func openStore(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*storeHandle, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		connStr := cfg.ConnectionString()
		logger.Info("Connecting to PostgreSQL",
			zap.String("dsn", logging.SanitizeConnectionString(connStr)))

		db, err := database.NewConnection(ctx, &database.Config{
			URL:            connStr,
			MaxConnections: cfg.MaxConnections,
		})
		if err != nil {
			return nil, err
		}

		if cfg.RunMigrations {
			migrateDB, err := sql.Open("pgx", connStr)
			if err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to open migration connection: %w", err)
			}
			if err := database.RunMigrations(migrateDB, database.DriverPostgres, logger); err != nil {
				db.Close()
				return nil, err
			}
		}

		return &storeHandle{
			backend: store.NewPostgresBackend(db.Pool),
			ping:    db.Ping,
			close:   db.Close,
		}, nil

	case config.DriverSQLite:
		logger.Info("Opening SQLite database", zap.String("path", cfg.SQLitePath))

		if cfg.RunMigrations {
			migrateDB, err := database.OpenSQLite(ctx, cfg.SQLitePath)
			if err != nil {
				return nil, err
			}
			if err := database.RunMigrations(migrateDB, database.DriverSQLite, logger); err != nil {
				return nil, err
			}
		}

		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}

		return &storeHandle{
			backend: store.NewSQLiteBackend(db),
			ping:    db.PingContext,
			close:   func() { _ = db.Close() },
		}, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}
