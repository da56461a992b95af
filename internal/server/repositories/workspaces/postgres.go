package workspaces

import (
	"context"
	"fmt"

	"github.com/webdeskhq/webdesk/internal/dbx"
	"github.com/webdeskhq/webdesk/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, w *models.Workspace) error {
	query := `
		INSERT INTO workspaces (id, owner_id, name)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`
	if err := r.db.QueryRowContext(ctx, query, w.ID, w.OwnerID, w.Name).Scan(&w.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Workspace, error) {
	query := `SELECT id, owner_id, name, created_at FROM workspaces
		WHERE owner_id = $1 ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select workspaces: %w", err)
	}
	defer rows.Close()

	var result []*models.Workspace
	for rows.Next() {
		w := &models.Workspace{}
		if err := rows.Scan(&w.ID, &w.OwnerID, &w.Name, &w.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	query := `SELECT COUNT(*) FROM workspaces WHERE owner_id = $1`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}
