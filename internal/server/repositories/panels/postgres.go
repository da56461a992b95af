package panels

import (
	"context"
	"fmt"

	"github.com/webdeskhq/webdesk/internal/common"
	"github.com/webdeskhq/webdesk/internal/dbx"
	"github.com/webdeskhq/webdesk/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Open(ctx context.Context, session *models.PanelSession) error {
	query := `
		INSERT INTO panel_sessions (id, user_id, panel_type)
		VALUES ($1, $2, $3)
		RETURNING opened_at
	`
	if err := r.db.QueryRowContext(ctx, query,
		session.ID, session.UserID, session.PanelType).Scan(&session.OpenedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Close(ctx context.Context, id, userID string) error {
	query := `DELETE FROM panel_sessions WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) CountOpen(ctx context.Context, userID string) (int64, error) {
	query := `SELECT COUNT(*) FROM panel_sessions WHERE user_id = $1`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}
