// Package server initializes and runs the application: database,
// migrations, object store, services and the HTTP surface, with graceful
// shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/webdeskhq/webdesk/internal/logging"
	"github.com/webdeskhq/webdesk/internal/server/api"
	"github.com/webdeskhq/webdesk/internal/server/api/handlers"
	"github.com/webdeskhq/webdesk/internal/server/config"
	"github.com/webdeskhq/webdesk/internal/server/objectstore"
	"github.com/webdeskhq/webdesk/internal/server/repositories/repomanager"
	"github.com/webdeskhq/webdesk/internal/server/services"
)

// App owns every long-lived dependency. All collaborators are built here
// and passed down explicitly; nothing is initialized lazily through
// globals.
type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *api.Server
}

// NewApp wires the full dependency graph: database (with migrations),
// object store, services and the HTTP server.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	store, err := objectstore.NewS3Store(ctx, objectstore.S3Config{
		AccessKey:    cfg.S3AccessKey,
		SecretKey:    cfg.S3SecretKey,
		Region:       cfg.S3Region,
		Bucket:       cfg.S3Bucket,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	storageService := services.NewStorageService(db, rm, store, logger)
	quotaService := services.NewQuotaService(db, rm)
	desktopService := services.NewDesktopService(db, rm)

	apiHandler := handlers.NewAPIHandler(storageService, quotaService, desktopService, logger, cfg.InlineLimitBytes)
	healthHandler := handlers.NewHealthHandler(db)

	srv := api.NewServer(cfg.EndpointAddrHTTP, []byte(cfg.SecretKey), apiHandler, healthHandler, logger)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

// Run serves HTTP until SIGINT/SIGTERM/SIGQUIT, then shuts down and
// closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddrHTTP)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "server stopped with error", "error", err.Error())
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "error closing database", "error", err.Error())
	}
}
