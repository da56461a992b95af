package airequests

import (
	"context"
	"time"

	"github.com/webdeskhq/webdesk/internal/server/models"
)

// Repository appends assistant-request log rows and counts them for the
// day-bounded quota check.
type Repository interface {
	Create(ctx context.Context, entry *models.AIRequestLog) error
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
}
