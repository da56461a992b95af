package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/webdeskhq/webdesk/internal/logging"
	"github.com/webdeskhq/webdesk/internal/server/api/middleware"
	"github.com/webdeskhq/webdesk/internal/server/models"
	"github.com/webdeskhq/webdesk/internal/server/services"
)

// fakeStorage implements Storage via function fields so each test wires
// only the calls it expects.
type fakeStorage struct {
	createFileFn     func(ctx context.Context, p services.CreateFileParams) (*models.FileRecord, error)
	updateFileFn     func(ctx context.Context, ownerID, fileID string, content []byte) (*models.FileRecord, error)
	uploadExternalFn func(ctx context.Context, ownerID, fileName string, data []byte, parentID, workspaceID *string) (*models.FileRecord, error)
	getFileFn        func(ctx context.Context, fileID, ownerID string) (*models.FileRecord, error)
	downloadFn       func(ctx context.Context, fileID, ownerID string) ([]byte, string, error)
	deleteFn         func(ctx context.Context, fileID, ownerID string) error
	renameFn         func(ctx context.Context, fileID, newName, ownerID string) (*models.FileRecord, error)
	moveFn           func(ctx context.Context, fileID string, targetFolderID *string, ownerID string) (*models.FileRecord, error)
	usageFn          func(ctx context.Context, ownerID string) (int64, error)

	createCalls int
	uploadCalls int
}

func (f *fakeStorage) CreateFile(ctx context.Context, p services.CreateFileParams) (*models.FileRecord, error) {
	f.createCalls++
	return f.createFileFn(ctx, p)
}

func (f *fakeStorage) UpdateFile(ctx context.Context, ownerID, fileID string, content []byte) (*models.FileRecord, error) {
	return f.updateFileFn(ctx, ownerID, fileID, content)
}

func (f *fakeStorage) UploadExternal(ctx context.Context, ownerID, fileName string, data []byte, parentID, workspaceID *string) (*models.FileRecord, error) {
	f.uploadCalls++
	return f.uploadExternalFn(ctx, ownerID, fileName, data, parentID, workspaceID)
}

func (f *fakeStorage) GetFile(ctx context.Context, fileID, ownerID string) (*models.FileRecord, error) {
	return f.getFileFn(ctx, fileID, ownerID)
}

func (f *fakeStorage) ListFolder(ctx context.Context, ownerID, folderID string, workspaceID *string) ([]*models.FileRecord, error) {
	return nil, nil
}

func (f *fakeStorage) ListRoot(ctx context.Context, ownerID string, workspaceID *string) ([]*models.FileRecord, error) {
	return nil, nil
}

func (f *fakeStorage) ListRecent(ctx context.Context, ownerID string, limit int) ([]*models.FileRecord, error) {
	return nil, nil
}

func (f *fakeStorage) Download(ctx context.Context, fileID, ownerID string) ([]byte, string, error) {
	return f.downloadFn(ctx, fileID, ownerID)
}

func (f *fakeStorage) Rename(ctx context.Context, fileID, newName, ownerID string) (*models.FileRecord, error) {
	return f.renameFn(ctx, fileID, newName, ownerID)
}

func (f *fakeStorage) Move(ctx context.Context, fileID string, targetFolderID *string, ownerID string) (*models.FileRecord, error) {
	return f.moveFn(ctx, fileID, targetFolderID, ownerID)
}

func (f *fakeStorage) Delete(ctx context.Context, fileID, ownerID string) error {
	return f.deleteFn(ctx, fileID, ownerID)
}

func (f *fakeStorage) UsageBytes(ctx context.Context, ownerID string) (int64, error) {
	return f.usageFn(ctx, ownerID)
}

// fakeQuota returns canned decisions per resource. When err is set it
// mirrors the real enforcer: the decision admits only under
// AdmitOnError, so tests can observe which policy a handler passed.
type fakeQuota struct {
	storage   services.Decision
	workspace services.Decision
	panel     services.Decision
	err       error

	storageCalls    int
	lastStorageAdd  int64
	workspacePolicy services.ErrorPolicy
	panelPolicy     services.ErrorPolicy
}

func (f *fakeQuota) CanUseStorage(ctx context.Context, userID string, additionalBytes int64, onError services.ErrorPolicy) (services.Decision, error) {
	f.storageCalls++
	f.lastStorageAdd = additionalBytes
	if f.err != nil {
		return services.Decision{Allowed: onError == services.AdmitOnError}, f.err
	}
	return f.storage, nil
}

func (f *fakeQuota) CanCreateWorkspace(ctx context.Context, userID string, onError services.ErrorPolicy) (services.Decision, error) {
	f.workspacePolicy = onError
	if f.err != nil {
		return services.Decision{Allowed: onError == services.AdmitOnError}, f.err
	}
	return f.workspace, nil
}

func (f *fakeQuota) CanOpenPanel(ctx context.Context, userID string, onError services.ErrorPolicy) (services.Decision, error) {
	f.panelPolicy = onError
	if f.err != nil {
		return services.Decision{Allowed: onError == services.AdmitOnError}, f.err
	}
	return f.panel, nil
}

type fakeDesktop struct {
	openFn   func(ctx context.Context, userID, panelType string) (*models.PanelSession, error)
	closeFn  func(ctx context.Context, id, userID string) error
	createFn func(ctx context.Context, ownerID, name string) (*models.Workspace, error)
	listFn   func(ctx context.Context, ownerID string) ([]*models.Workspace, error)
}

func (f *fakeDesktop) OpenPanel(ctx context.Context, userID, panelType string) (*models.PanelSession, error) {
	return f.openFn(ctx, userID, panelType)
}

func (f *fakeDesktop) ClosePanel(ctx context.Context, id, userID string) error {
	return f.closeFn(ctx, id, userID)
}

func (f *fakeDesktop) CreateWorkspace(ctx context.Context, ownerID, name string) (*models.Workspace, error) {
	return f.createFn(ctx, ownerID, name)
}

func (f *fakeDesktop) ListWorkspaces(ctx context.Context, ownerID string) ([]*models.Workspace, error) {
	return f.listFn(ctx, ownerID)
}

func allow() services.Decision {
	return services.Decision{Allowed: true}
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestHandler(st *fakeStorage, q *fakeQuota, d *fakeDesktop) *APIHandler {
	return NewAPIHandler(st, q, d, testLogger(), 1<<20)
}

// authedRequest builds a request carrying an authenticated user id and,
// for path-parameter routes, a chi route context.
func authedRequest(t *testing.T, method, target string, body io.Reader, params map[string]string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(method, target, body)
	ctx := middleware.WithUserID(r.Context(), "u1")

	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return r.WithContext(ctx)
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("error decoding error body: %v", err)
	}
	return body
}

func multipartBody(t *testing.T, fileName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatalf("error creating form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("error writing form file: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("error closing multipart writer: %v", err)
	}
	return buf, mw.FormDataContentType()
}
