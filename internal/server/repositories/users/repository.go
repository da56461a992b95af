package users

import (
	"context"

	"github.com/webdeskhq/webdesk/internal/server/models"
)

// Repository reads the account fields quota decisions depend on. Account
// creation and billing updates happen outside this service.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}
