package panels

import (
	"context"

	"github.com/webdeskhq/webdesk/internal/server/models"
)

// Repository tracks open panel sessions server-side so the free-tier
// panel ceiling is checked against persisted state, not a client-supplied
// count.
type Repository interface {
	Open(ctx context.Context, session *models.PanelSession) error
	Close(ctx context.Context, id, userID string) error
	CountOpen(ctx context.Context, userID string) (int64, error)
}
