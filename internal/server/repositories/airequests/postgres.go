package airequests

import (
	"context"
	"fmt"
	"time"

	"github.com/webdeskhq/webdesk/internal/dbx"
	"github.com/webdeskhq/webdesk/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, entry *models.AIRequestLog) error {
	query := `
		INSERT INTO ai_request_log (id, user_id, request_type, token_count, successful)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, entry.Type, entry.TokenCount, entry.Successful)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	query := `SELECT COUNT(*) FROM ai_request_log WHERE user_id = $1 AND created_at >= $2`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}
