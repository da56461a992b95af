package services

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/webdeskhq/webdesk/internal/common"
	"github.com/webdeskhq/webdesk/internal/dbx"
	"github.com/webdeskhq/webdesk/internal/logging"
	"github.com/webdeskhq/webdesk/internal/mimex"
	"github.com/webdeskhq/webdesk/internal/server/models"
	"github.com/webdeskhq/webdesk/internal/server/objectstore"
	"github.com/webdeskhq/webdesk/internal/server/repositories/repomanager"
)

// keyUnsafe matches every character that may not appear in an object-store
// key segment.
var keyUnsafe = regexp.MustCompile(`[^A-Za-z0-9.-]`)

// StorageService is the single point of truth for file content placement
// and retrieval, independent of where bytes physically live. It performs
// no quota checks; callers consult the QuotaService before any operation
// that grows usage.
type StorageService struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	store  objectstore.Store
	logger logging.Logger
	now    func() time.Time
}

// NewStorageService constructs a StorageService over the given database,
// repositories and object store.
func NewStorageService(db *sql.DB, rm repomanager.RepositoryManager, store objectstore.Store, logger logging.Logger) *StorageService {
	return &StorageService{db: db, rm: rm, store: store, logger: logger, now: time.Now}
}

// CreateFileParams carries the fields for a new inline file or folder.
type CreateFileParams struct {
	OwnerID     string
	WorkspaceID *string
	ParentID    *string
	Name        string
	Kind        models.FileKind
	Content     []byte
	IsPublic    bool
}

// CreateFile persists a new folder or a new file with inline content and
// returns the stored record.
func (s *StorageService) CreateFile(ctx context.Context, p CreateFileParams) (*models.FileRecord, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", common.ErrorInvalidOperation)
	}
	if p.Kind != models.KindFile && p.Kind != models.KindFolder {
		return nil, fmt.Errorf("%w: unknown kind %q", common.ErrorInvalidOperation, p.Kind)
	}
	if p.Kind == models.KindFolder && len(p.Content) > 0 {
		return nil, fmt.Errorf("%w: folders carry no content", common.ErrorInvalidOperation)
	}

	fileRepo := s.rm.Files(s.db)

	parentPath, err := s.parentPath(ctx, p.OwnerID, p.ParentID, p.WorkspaceID)
	if err != nil {
		return nil, err
	}

	rec := &models.FileRecord{
		ID:          uuid.New().String(),
		OwnerID:     p.OwnerID,
		WorkspaceID: p.WorkspaceID,
		ParentID:    p.ParentID,
		Name:        p.Name,
		Kind:        p.Kind,
		Path:        joinPath(parentPath, p.Name),
		IsPublic:    p.IsPublic,
	}
	if p.Kind == models.KindFile {
		rec.Content = p.Content
		rec.Size = int64(len(p.Content))
	}

	if err := fileRepo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("error creating file record: %w", err)
	}
	return rec, nil
}

// UpdateFile replaces a file's content with new inline bytes. A file that
// was stored externally becomes inline; its old object is removed
// best-effort after the metadata write.
func (s *StorageService) UpdateFile(ctx context.Context, ownerID, fileID string, content []byte) (*models.FileRecord, error) {
	fileRepo := s.rm.Files(s.db)

	rec, err := fileRepo.GetByID(ctx, fileID, ownerID)
	if err != nil {
		return nil, err
	}
	if rec.IsFolder() {
		return nil, fmt.Errorf("%w: folders have no content", common.ErrorInvalidOperation)
	}

	oldKey := ""
	if rec.StoredExternally() {
		oldKey = *rec.StorageKey
	}

	rec.Content = content
	rec.Size = int64(len(content))
	rec.StorageKey = nil
	rec.StorageURL = nil

	if err := fileRepo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("error updating file record: %w", err)
	}

	if oldKey != "" {
		if err := s.store.Delete(ctx, oldKey); err != nil {
			s.logger.Warn(ctx, "failed to delete replaced object", "key", oldKey, "error", err.Error())
		}
	}
	return rec, nil
}

// UploadExternal stores raw bytes in the object store under a per-user
// key and records the pointer in the metadata store. Either both the
// object and the record exist afterwards, or neither does: when the
// metadata write fails the freshly uploaded object is deleted before the
// failure propagates.
func (s *StorageService) UploadExternal(ctx context.Context, ownerID, fileName string, data []byte, parentID, workspaceID *string) (*models.FileRecord, error) {
	if strings.TrimSpace(fileName) == "" {
		return nil, fmt.Errorf("%w: file name must not be empty", common.ErrorInvalidOperation)
	}

	fileRepo := s.rm.Files(s.db)

	parentPath, err := s.parentPath(ctx, ownerID, parentID, workspaceID)
	if err != nil {
		return nil, err
	}

	key := s.storageKey(ownerID, fileName)
	contentType := mimex.TypeByName(fileName)

	url, err := s.store.Put(ctx, key, data, contentType)
	if err != nil {
		return nil, common.Upstream("object put", err)
	}

	rec := &models.FileRecord{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		WorkspaceID: workspaceID,
		ParentID:    parentID,
		Name:        fileName,
		Kind:        models.KindFile,
		Size:        int64(len(data)),
		Path:        joinPath(parentPath, fileName),
		StorageKey:  &key,
		StorageURL:  &url,
	}

	if err := fileRepo.Create(ctx, rec); err != nil {
		// compensate: the object must not outlive a failed metadata write
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Error(ctx, "failed to clean up orphaned object", "key", key, "error", delErr.Error())
		}
		return nil, fmt.Errorf("error creating file record: %w", err)
	}
	return rec, nil
}

// GetFile returns the metadata record for fileID, scoped by owner.
func (s *StorageService) GetFile(ctx context.Context, fileID, ownerID string) (*models.FileRecord, error) {
	return s.rm.Files(s.db).GetByID(ctx, fileID, ownerID)
}

// GetFileByPath resolves a record by its logical path within the owner's
// workspace scope.
func (s *StorageService) GetFileByPath(ctx context.Context, ownerID string, workspaceID *string, path string) (*models.FileRecord, error) {
	return s.rm.Files(s.db).GetByPath(ctx, ownerID, workspaceID, path)
}

// ListFolder returns the direct children of folderID.
func (s *StorageService) ListFolder(ctx context.Context, ownerID, folderID string, workspaceID *string) ([]*models.FileRecord, error) {
	return s.rm.Files(s.db).ListByParent(ctx, ownerID, &folderID, workspaceID)
}

// ListRoot returns the owner's records with no parent folder.
func (s *StorageService) ListRoot(ctx context.Context, ownerID string, workspaceID *string) ([]*models.FileRecord, error) {
	return s.rm.Files(s.db).ListByParent(ctx, ownerID, nil, workspaceID)
}

// ListRecent returns up to limit files ordered by most recent update.
func (s *StorageService) ListRecent(ctx context.Context, ownerID string, limit int) ([]*models.FileRecord, error) {
	return s.rm.Files(s.db).ListRecent(ctx, ownerID, limit)
}

// Download returns a file's content and MIME type regardless of where the
// bytes live: the external object wins over inline content.
func (s *StorageService) Download(ctx context.Context, fileID, ownerID string) ([]byte, string, error) {
	rec, err := s.rm.Files(s.db).GetByID(ctx, fileID, ownerID)
	if err != nil {
		return nil, "", err
	}
	if rec.IsFolder() {
		return nil, "", fmt.Errorf("%w: folders are not downloadable", common.ErrorInvalidOperation)
	}

	contentType := mimex.TypeByName(rec.Name)

	if rec.StoredExternally() {
		data, err := s.store.Get(ctx, *rec.StorageKey)
		if err != nil {
			return nil, "", common.Upstream("object get", err)
		}
		return data, contentType, nil
	}
	if rec.Content != nil {
		return rec.Content, contentType, nil
	}
	return nil, "", common.ErrorContentUnavailable
}

// Rename changes a record's name, recomputes its path, and rewrites the
// paths of all descendants in the same transaction.
func (s *StorageService) Rename(ctx context.Context, fileID, newName, ownerID string) (*models.FileRecord, error) {
	if strings.TrimSpace(newName) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", common.ErrorInvalidOperation)
	}

	rec, err := s.rm.Files(s.db).GetByID(ctx, fileID, ownerID)
	if err != nil {
		return nil, err
	}

	oldPath := rec.Path
	newPath := joinPath(parentOf(oldPath), newName)
	if newPath == oldPath {
		return rec, nil
	}

	rec.Name = newName
	rec.Path = newPath

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.rm.Files(tx)
		if err := repoTx.Update(ctx, rec); err != nil {
			return err
		}
		if rec.IsFolder() {
			if _, err := repoTx.RewritePathPrefix(ctx, ownerID, rec.WorkspaceID, oldPath, newPath); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error renaming file: %w", err)
	}
	return rec, nil
}

// Move reparents a record under targetFolderID (nil for root), recomputes
// its path, and rewrites descendant paths in the same transaction. Moving
// a folder into itself or one of its descendants is rejected.
func (s *StorageService) Move(ctx context.Context, fileID string, targetFolderID *string, ownerID string) (*models.FileRecord, error) {
	fileRepo := s.rm.Files(s.db)

	rec, err := fileRepo.GetByID(ctx, fileID, ownerID)
	if err != nil {
		return nil, err
	}

	targetPath, err := s.parentPath(ctx, ownerID, targetFolderID, rec.WorkspaceID)
	if err != nil {
		return nil, err
	}

	oldPath := rec.Path
	if rec.IsFolder() && (targetPath == oldPath || strings.HasPrefix(targetPath, oldPath+"/")) {
		return nil, fmt.Errorf("%w: cannot move a folder into itself", common.ErrorInvalidOperation)
	}

	newPath := joinPath(targetPath, rec.Name)
	rec.ParentID = targetFolderID
	rec.Path = newPath

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.rm.Files(tx)
		if err := repoTx.Update(ctx, rec); err != nil {
			return err
		}
		if rec.IsFolder() && newPath != oldPath {
			if _, err := repoTx.RewritePathPrefix(ctx, ownerID, rec.WorkspaceID, oldPath, newPath); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error moving file: %w", err)
	}
	return rec, nil
}

// Delete removes a record and, for externally stored files, its object.
// The object is deleted first so a billable blob can never be orphaned by
// a metadata-delete failure. Non-empty folders are rejected.
func (s *StorageService) Delete(ctx context.Context, fileID, ownerID string) error {
	fileRepo := s.rm.Files(s.db)

	rec, err := fileRepo.GetByID(ctx, fileID, ownerID)
	if err != nil {
		return err
	}

	if rec.IsFolder() {
		children, err := fileRepo.ListByParent(ctx, ownerID, &rec.ID, rec.WorkspaceID)
		if err != nil {
			return fmt.Errorf("error listing folder children: %w", err)
		}
		if len(children) > 0 {
			return fmt.Errorf("%w: folder is not empty", common.ErrorInvalidOperation)
		}
	}

	if rec.StoredExternally() {
		if err := s.store.Delete(ctx, *rec.StorageKey); err != nil {
			return common.Upstream("object delete", err)
		}
	}

	if err := fileRepo.Delete(ctx, fileID, ownerID); err != nil {
		return fmt.Errorf("error deleting file record: %w", err)
	}
	return nil
}

// UsageBytes returns the owner's aggregate stored bytes across all files.
func (s *StorageService) UsageBytes(ctx context.Context, ownerID string) (int64, error) {
	return s.rm.Files(s.db).SumSizes(ctx, ownerID)
}

// storageKey derives the per-user object key:
// users/<ownerID>/<unixMillis>_<sanitized name>. A millisecond collision
// for the same user and name overwrites rather than corrupts, which the
// object store tolerates.
func (s *StorageService) storageKey(ownerID, fileName string) string {
	return fmt.Sprintf("users/%s/%d_%s", ownerID, s.now().UnixMilli(), sanitizeName(fileName))
}

func sanitizeName(name string) string {
	return keyUnsafe.ReplaceAllString(name, "_")
}

// parentPath resolves the logical path of parentID, or "" for root.
func (s *StorageService) parentPath(ctx context.Context, ownerID string, parentID, workspaceID *string) (string, error) {
	if parentID == nil {
		return "", nil
	}
	parent, err := s.rm.Files(s.db).GetByID(ctx, *parentID, ownerID)
	if err != nil {
		return "", err
	}
	if !parent.IsFolder() {
		return "", fmt.Errorf("%w: parent is not a folder", common.ErrorInvalidOperation)
	}
	return parent.Path, nil
}

// joinPath appends name to a parent path, yielding "/<name>" at root.
func joinPath(parentPath, name string) string {
	if parentPath == "" || parentPath == "/" {
		return "/" + name
	}
	return parentPath + "/" + name
}

// parentOf strips the last path segment: "/a/b" -> "/a", "/a" -> "".
func parentOf(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return ""
	}
	return path[:idx]
}
