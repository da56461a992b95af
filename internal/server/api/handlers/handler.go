// Package handlers translates JSON requests into storage and quota
// operations and typed failures back into the wire error body.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/webdeskhq/webdesk/internal/common"
	"github.com/webdeskhq/webdesk/internal/logging"
	"github.com/webdeskhq/webdesk/internal/server/models"
	"github.com/webdeskhq/webdesk/internal/server/services"
)

// Storage is the file gateway surface the handlers consume.
type Storage interface {
	CreateFile(ctx context.Context, p services.CreateFileParams) (*models.FileRecord, error)
	UpdateFile(ctx context.Context, ownerID, fileID string, content []byte) (*models.FileRecord, error)
	UploadExternal(ctx context.Context, ownerID, fileName string, data []byte, parentID, workspaceID *string) (*models.FileRecord, error)
	GetFile(ctx context.Context, fileID, ownerID string) (*models.FileRecord, error)
	ListFolder(ctx context.Context, ownerID, folderID string, workspaceID *string) ([]*models.FileRecord, error)
	ListRoot(ctx context.Context, ownerID string, workspaceID *string) ([]*models.FileRecord, error)
	ListRecent(ctx context.Context, ownerID string, limit int) ([]*models.FileRecord, error)
	Download(ctx context.Context, fileID, ownerID string) ([]byte, string, error)
	Rename(ctx context.Context, fileID, newName, ownerID string) (*models.FileRecord, error)
	Move(ctx context.Context, fileID string, targetFolderID *string, ownerID string) (*models.FileRecord, error)
	Delete(ctx context.Context, fileID, ownerID string) error
	UsageBytes(ctx context.Context, ownerID string) (int64, error)
}

// Quota is the admission-control surface the handlers consume.
type Quota interface {
	CanUseStorage(ctx context.Context, userID string, additionalBytes int64, onError services.ErrorPolicy) (services.Decision, error)
	CanCreateWorkspace(ctx context.Context, userID string, onError services.ErrorPolicy) (services.Decision, error)
	CanOpenPanel(ctx context.Context, userID string, onError services.ErrorPolicy) (services.Decision, error)
}

// Desktop persists panel sessions and workspaces.
type Desktop interface {
	OpenPanel(ctx context.Context, userID, panelType string) (*models.PanelSession, error)
	ClosePanel(ctx context.Context, id, userID string) error
	CreateWorkspace(ctx context.Context, ownerID, name string) (*models.Workspace, error)
	ListWorkspaces(ctx context.Context, ownerID string) ([]*models.Workspace, error)
}

// APIHandler serves the HTTP API on top of the storage, quota and
// desktop services.
type APIHandler struct {
	storage Storage
	quota   Quota
	desktop Desktop
	logger  logging.Logger

	// inlineLimitBytes routes upload bodies: at or below goes inline,
	// above goes to the object store.
	inlineLimitBytes int64
}

// NewAPIHandler constructs the API handler.
func NewAPIHandler(storage Storage, quota Quota, desktop Desktop, logger logging.Logger, inlineLimitBytes int64) *APIHandler {
	return &APIHandler{
		storage:          storage,
		quota:            quota,
		desktop:          desktop,
		logger:           logger,
		inlineLimitBytes: inlineLimitBytes,
	}
}

// errorBody is the wire shape of every failure response.
type errorBody struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError maps a service failure to its HTTP status and error body.
// Storage quota exhaustion gets 507, metered and session quotas 429, so
// the client can distinguish "buy more space" from "slow down or
// upgrade".
func (h *APIHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var qerr *common.QuotaError
	if errors.As(err, &qerr) {
		status := http.StatusTooManyRequests
		if qerr.Resource == common.QuotaStorage {
			status = http.StatusInsufficientStorage
		}
		writeJSON(w, status, errorBody{
			Message: qerr.Error(),
			Code:    "quota_" + string(qerr.Resource),
			Type:    "quota_exceeded",
		})
		return
	}

	switch {
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{
			Message: "not found", Code: "not_found", Type: "client",
		})
	case errors.Is(err, common.ErrorContentUnavailable):
		writeJSON(w, http.StatusNotFound, errorBody{
			Message: "file has no content", Code: "content_unavailable", Type: "client",
		})
	case errors.Is(err, common.ErrorInvalidOperation):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Message: err.Error(), Code: "invalid_operation", Type: "client",
		})
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{
			Message: "unauthorized", Code: "unauthorized", Type: "auth",
		})
	case errors.Is(err, common.ErrorUpstream):
		writeJSON(w, http.StatusBadGateway, errorBody{
			Message: "upstream storage failure", Code: "upstream_error", Type: "server",
		})
	default:
		h.logger.Error(r.Context(), "internal error", "path", r.URL.Path, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Message: "internal error", Code: "internal_error", Type: "server",
		})
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return common.ErrorInvalidOperation
	}
	return nil
}
