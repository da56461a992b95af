package repomanager

import (
	"context"
	"database/sql"

	"github.com/webdeskhq/webdesk/internal/dbx"
	"github.com/webdeskhq/webdesk/internal/server/repositories/airequests"
	"github.com/webdeskhq/webdesk/internal/server/repositories/files"
	"github.com/webdeskhq/webdesk/internal/server/repositories/panels"
	"github.com/webdeskhq/webdesk/internal/server/repositories/users"
	"github.com/webdeskhq/webdesk/internal/server/repositories/workspaces"
)

// RepositoryManager vends repositories bound to a DBTX, so services can
// run the same repository code over a plain connection or inside a
// transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Files(db dbx.DBTX) files.Repository
	Users(db dbx.DBTX) users.Repository
	AIRequests(db dbx.DBTX) airequests.Repository
	Workspaces(db dbx.DBTX) workspaces.Repository
	Panels(db dbx.DBTX) panels.Repository
}
