package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/webdeskhq/webdesk/internal/common"
	"github.com/webdeskhq/webdesk/internal/dbx"
	"github.com/webdeskhq/webdesk/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, owner_id, workspace_id, parent_id, name, kind, size, path,
		content, storage_key, storage_url, is_public, created_at, updated_at`

func scanFile(row interface{ Scan(dest ...any) error }) (*models.FileRecord, error) {
	f := &models.FileRecord{}
	err := row.Scan(&f.ID, &f.OwnerID, &f.WorkspaceID, &f.ParentID, &f.Name, &f.Kind,
		&f.Size, &f.Path, &f.Content, &f.StorageKey, &f.StorageURL, &f.IsPublic,
		&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.FileRecord) error {
	query := `
		INSERT INTO files (id, owner_id, workspace_id, parent_id, name, kind, size, path,
			content, storage_key, storage_url, is_public)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.ID, file.OwnerID, file.WorkspaceID, file.ParentID, file.Name, file.Kind,
		file.Size, file.Path, file.Content, file.StorageKey, file.StorageURL, file.IsPublic,
	).Scan(&file.CreatedAt, &file.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, file *models.FileRecord) error {
	query := `
		UPDATE files SET
			parent_id = $3,
			name = $4,
			size = $5,
			path = $6,
			content = $7,
			storage_key = $8,
			storage_url = $9,
			is_public = $10,
			updated_at = now()
		WHERE id = $1 AND owner_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		file.ID, file.OwnerID, file.ParentID, file.Name, file.Size, file.Path,
		file.Content, file.StorageKey, file.StorageURL, file.IsPublic)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id, ownerID string) (*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE id = $1 AND owner_id = $2`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) GetByPath(ctx context.Context, ownerID string, workspaceID *string, path string) (*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE owner_id = $1 AND workspace_id IS NOT DISTINCT FROM $2 AND path = $3`
	f, err := scanFile(r.db.QueryRowContext(ctx, query, ownerID, workspaceID, path))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ListByParent(ctx context.Context, ownerID string, parentID *string, workspaceID *string) ([]*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE owner_id = $1 AND parent_id IS NOT DISTINCT FROM $2
			AND workspace_id IS NOT DISTINCT FROM $3
		ORDER BY kind DESC, name`
	rows, err := r.db.QueryContext(ctx, query, ownerID, parentID, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, ownerID string, limit int) ([]*models.FileRecord, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE owner_id = $1 AND kind = 'file'
		ORDER BY updated_at DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.FileRecord
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id, ownerID string) error {
	query := `DELETE FROM files WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, query, id, ownerID)
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

func (r *PostgresRepository) SumSizes(ctx context.Context, ownerID string) (int64, error) {
	query := `SELECT COALESCE(SUM(size), 0) FROM files WHERE owner_id = $1 AND kind = 'file'`
	var total int64
	if err := r.db.QueryRowContext(ctx, query, ownerID).Scan(&total); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return total, nil
}

func (r *PostgresRepository) RewritePathPrefix(ctx context.Context, ownerID string, workspaceID *string, oldPrefix, newPrefix string) (int64, error) {
	// Exact prefix comparison; LIKE would treat '_' and '%' in the old
	// path as wildcards and rewrite unrelated sibling trees.
	query := `
		UPDATE files
		SET path = $4 || substr(path, length($3) + 1), updated_at = now()
		WHERE owner_id = $1 AND workspace_id IS NOT DISTINCT FROM $2
			AND left(path, length($3) + 1) = $3 || '/'
	`
	res, err := r.db.ExecContext(ctx, query, ownerID, workspaceID, oldPrefix, newPrefix)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}
