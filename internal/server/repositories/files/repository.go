package files

import (
	"context"

	"github.com/webdeskhq/webdesk/internal/server/models"
)

// Repository persists file and folder metadata. Every read and write is
// scoped by owner id; a caller can never reach another user's records.
type Repository interface {
	Create(ctx context.Context, file *models.FileRecord) error
	Update(ctx context.Context, file *models.FileRecord) error
	GetByID(ctx context.Context, id, ownerID string) (*models.FileRecord, error)
	GetByPath(ctx context.Context, ownerID string, workspaceID *string, path string) (*models.FileRecord, error)
	ListByParent(ctx context.Context, ownerID string, parentID *string, workspaceID *string) ([]*models.FileRecord, error)
	ListRecent(ctx context.Context, ownerID string, limit int) ([]*models.FileRecord, error)
	Delete(ctx context.Context, id, ownerID string) error
	// SumSizes aggregates the byte size of all non-folder records the
	// owner has; the quota layer's usage snapshot.
	SumSizes(ctx context.Context, ownerID string) (int64, error)
	// RewritePathPrefix moves every descendant of oldPrefix under
	// newPrefix in one statement; used by cascading rename/move.
	RewritePathPrefix(ctx context.Context, ownerID string, workspaceID *string, oldPrefix, newPrefix string) (int64, error)
}
