// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/webdeskhq/webdesk/internal/dbx"
	"github.com/webdeskhq/webdesk/internal/server/migrations"
	"github.com/webdeskhq/webdesk/internal/server/repositories/airequests"
	"github.com/webdeskhq/webdesk/internal/server/repositories/files"
	"github.com/webdeskhq/webdesk/internal/server/repositories/panels"
	"github.com/webdeskhq/webdesk/internal/server/repositories/users"
	"github.com/webdeskhq/webdesk/internal/server/repositories/workspaces"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository
// implementations and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) AIRequests(db dbx.DBTX) airequests.Repository {
	return airequests.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Workspaces(db dbx.DBTX) workspaces.Repository {
	return workspaces.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Panels(db dbx.DBTX) panels.Repository {
	return panels.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}
