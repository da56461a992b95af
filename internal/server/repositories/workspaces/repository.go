package workspaces

import (
	"context"

	"github.com/webdeskhq/webdesk/internal/server/models"
)

// Repository persists workspaces and exposes the count the workspace
// ceiling is checked against.
type Repository interface {
	Create(ctx context.Context, w *models.Workspace) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Workspace, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}
