package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/webdeskhq/webdesk/internal/common"
	"github.com/webdeskhq/webdesk/internal/dbx"
	"github.com/webdeskhq/webdesk/internal/server/models"
	airequestsrepo "github.com/webdeskhq/webdesk/internal/server/repositories/airequests"
	filesrepo "github.com/webdeskhq/webdesk/internal/server/repositories/files"
	panelsrepo "github.com/webdeskhq/webdesk/internal/server/repositories/panels"
	usersrepo "github.com/webdeskhq/webdesk/internal/server/repositories/users"
	workspacesrepo "github.com/webdeskhq/webdesk/internal/server/repositories/workspaces"
)

// --- in-memory files repository ---

type rewriteCall struct {
	oldPrefix, newPrefix string
}

type fakeFilesRepo struct {
	records map[string]*models.FileRecord

	createErr  error
	updateErr  error
	getErr     error
	deleteErr  error
	sumErr     error
	rewriteErr error

	rewrites []rewriteCall
}

func newFakeFilesRepo() *fakeFilesRepo {
	return &fakeFilesRepo{records: make(map[string]*models.FileRecord)}
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.FileRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	now := time.Now()
	file.CreatedAt = now
	file.UpdatedAt = now
	cp := *file
	f.records[file.ID] = &cp
	return nil
}

func (f *fakeFilesRepo) Update(ctx context.Context, file *models.FileRecord) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	existing, ok := f.records[file.ID]
	if !ok || existing.OwnerID != file.OwnerID {
		return common.ErrorNotFound
	}
	file.UpdatedAt = time.Now()
	cp := *file
	f.records[file.ID] = &cp
	return nil
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, id, ownerID string) (*models.FileRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[id]
	if !ok || rec.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeFilesRepo) GetByPath(ctx context.Context, ownerID string, workspaceID *string, path string) (*models.FileRecord, error) {
	for _, rec := range f.records {
		if rec.OwnerID == ownerID && rec.Path == path && equalPtr(rec.WorkspaceID, workspaceID) {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeFilesRepo) ListByParent(ctx context.Context, ownerID string, parentID *string, workspaceID *string) ([]*models.FileRecord, error) {
	var result []*models.FileRecord
	for _, rec := range f.records {
		if rec.OwnerID == ownerID && equalPtr(rec.ParentID, parentID) && equalPtr(rec.WorkspaceID, workspaceID) {
			cp := *rec
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (f *fakeFilesRepo) ListRecent(ctx context.Context, ownerID string, limit int) ([]*models.FileRecord, error) {
	var result []*models.FileRecord
	for _, rec := range f.records {
		if rec.OwnerID == ownerID && rec.Kind == models.KindFile {
			cp := *rec
			result = append(result, &cp)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UpdatedAt.After(result[j].UpdatedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (f *fakeFilesRepo) Delete(ctx context.Context, id, ownerID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	rec, ok := f.records[id]
	if !ok || rec.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeFilesRepo) SumSizes(ctx context.Context, ownerID string) (int64, error) {
	if f.sumErr != nil {
		return 0, f.sumErr
	}
	var total int64
	for _, rec := range f.records {
		if rec.OwnerID == ownerID && rec.Kind == models.KindFile {
			total += rec.Size
		}
	}
	return total, nil
}

func (f *fakeFilesRepo) RewritePathPrefix(ctx context.Context, ownerID string, workspaceID *string, oldPrefix, newPrefix string) (int64, error) {
	if f.rewriteErr != nil {
		return 0, f.rewriteErr
	}
	f.rewrites = append(f.rewrites, rewriteCall{oldPrefix: oldPrefix, newPrefix: newPrefix})
	var n int64
	for _, rec := range f.records {
		if rec.OwnerID == ownerID && len(rec.Path) > len(oldPrefix) && rec.Path[:len(oldPrefix)+1] == oldPrefix+"/" {
			rec.Path = newPrefix + rec.Path[len(oldPrefix):]
			n++
		}
	}
	return n, nil
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// --- remaining fake repositories ---

type fakeUsersRepo struct {
	user *models.User
	err  error
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

type fakeAIRepo struct {
	count    int64
	countErr error

	created   []*models.AIRequestLog
	createErr error
	lastSince time.Time
}

func (f *fakeAIRepo) Create(ctx context.Context, entry *models.AIRequestLog) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, entry)
	return nil
}

func (f *fakeAIRepo) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	f.lastSince = since
	return f.count, nil
}

type fakeWorkspacesRepo struct {
	count   int64
	err     error
	created []*models.Workspace
}

func (f *fakeWorkspacesRepo) Create(ctx context.Context, w *models.Workspace) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, w)
	return nil
}

func (f *fakeWorkspacesRepo) ListByOwner(ctx context.Context, ownerID string) ([]*models.Workspace, error) {
	if f.err != nil {
		return nil, f.err
	}
	var result []*models.Workspace
	for _, w := range f.created {
		if w.OwnerID == ownerID {
			result = append(result, w)
		}
	}
	return result, nil
}
func (f *fakeWorkspacesRepo) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

type fakePanelsRepo struct {
	count  int64
	err    error
	opened []*models.PanelSession
	closed []string
}

func (f *fakePanelsRepo) Open(ctx context.Context, session *models.PanelSession) error {
	if f.err != nil {
		return f.err
	}
	f.opened = append(f.opened, session)
	return nil
}

func (f *fakePanelsRepo) Close(ctx context.Context, id, userID string) error {
	if f.err != nil {
		return f.err
	}
	f.closed = append(f.closed, id)
	return nil
}
func (f *fakePanelsRepo) CountOpen(ctx context.Context, userID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

// --- repository manager vending the fakes ---

type fakeRepoManager struct {
	files      *fakeFilesRepo
	users      *fakeUsersRepo
	airequests *fakeAIRepo
	workspaces *fakeWorkspacesRepo
	panels     *fakePanelsRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		files:      newFakeFilesRepo(),
		users:      &fakeUsersRepo{},
		airequests: &fakeAIRepo{},
		workspaces: &fakeWorkspacesRepo{},
		panels:     &fakePanelsRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository      { return m.files }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.users }
func (m *fakeRepoManager) AIRequests(db dbx.DBTX) airequestsrepo.Repository {
	return m.airequests
}
func (m *fakeRepoManager) Workspaces(db dbx.DBTX) workspacesrepo.Repository {
	return m.workspaces
}
func (m *fakeRepoManager) Panels(db dbx.DBTX) panelsrepo.Repository { return m.panels }

// --- in-memory object store ---

type fakeObjectStore struct {
	objects      map[string][]byte
	contentTypes map[string]string

	putErr    error
	getErr    error
	deleteErr error

	deleted []string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.objects[key] = append([]byte(nil), data...)
	f.contentTypes[key] = contentType
	return "https://store.test/" + key, nil
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return data, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}
