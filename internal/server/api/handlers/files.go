package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/webdeskhq/webdesk/internal/common"
	"github.com/webdeskhq/webdesk/internal/server/api/middleware"
	"github.com/webdeskhq/webdesk/internal/server/models"
	"github.com/webdeskhq/webdesk/internal/server/services"
)

// maxUploadBytes bounds a single multipart upload body.
const maxUploadBytes = 512 << 20

// recentDefaultLimit is the page size for the recent-files listing.
const recentDefaultLimit = 20

// fileResponse is the wire shape of a file record. Inline content is
// never included; clients fetch bytes through the download endpoint.
type fileResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Size        int64     `json:"size"`
	Path        string    `json:"path"`
	ParentID    *string   `json:"parent_id,omitempty"`
	WorkspaceID *string   `json:"workspace_id,omitempty"`
	StorageURL  *string   `json:"storage_url,omitempty"`
	IsPublic    bool      `json:"is_public"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toFileResponse(rec *models.FileRecord) fileResponse {
	return fileResponse{
		ID:          rec.ID,
		Name:        rec.Name,
		Kind:        string(rec.Kind),
		Size:        rec.Size,
		Path:        rec.Path,
		ParentID:    rec.ParentID,
		WorkspaceID: rec.WorkspaceID,
		StorageURL:  rec.StorageURL,
		IsPublic:    rec.IsPublic,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func toFileResponses(recs []*models.FileRecord) []fileResponse {
	result := make([]fileResponse, 0, len(recs))
	for _, rec := range recs {
		result = append(result, toFileResponse(rec))
	}
	return result
}

func ownerID(r *http.Request) (string, error) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		return "", common.ErrorUnauthorized
	}
	return id, nil
}

type saveFileRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	ParentID    *string `json:"parent_id"`
	WorkspaceID *string `json:"workspace_id"`
	Content     string  `json:"content"`
	IsPublic    bool    `json:"is_public"`
}

// SaveFile creates a folder or an inline file, or replaces an existing
// file's inline content when the body carries an id. New bytes are
// admitted against the storage quota before anything is written; an
// update is charged only the growth over the stored size.
func (h *APIHandler) SaveFile(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req saveFileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	content := []byte(req.Content)
	additional := int64(len(content))
	if req.ID != "" {
		existing, err := h.storage.GetFile(r.Context(), req.ID, owner)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		additional -= existing.Size
	}
	if additional > 0 {
		d, err := h.quota.CanUseStorage(r.Context(), owner, additional, services.RejectOnError)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if qerr := d.QuotaErr(); qerr != nil {
			h.writeError(w, r, qerr)
			return
		}
	}

	var rec *models.FileRecord
	if req.ID != "" {
		rec, err = h.storage.UpdateFile(r.Context(), owner, req.ID, content)
	} else {
		rec, err = h.storage.CreateFile(r.Context(), services.CreateFileParams{
			OwnerID:     owner,
			WorkspaceID: req.WorkspaceID,
			ParentID:    req.ParentID,
			Name:        req.Name,
			Kind:        models.FileKind(req.Kind),
			Content:     content,
			IsPublic:    req.IsPublic,
		})
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if req.ID != "" {
		status = http.StatusOK
	}
	writeJSON(w, status, toFileResponse(rec))
}

// UploadFile accepts a multipart upload, admits it against the storage
// quota, then places the bytes inline or in the object store depending
// on size.
func (h *APIHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, common.ErrorInvalidOperation)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, common.ErrorInvalidOperation)
		return
	}

	var parentID, workspaceID *string
	if v := r.FormValue("parent_id"); v != "" {
		parentID = &v
	}
	if v := r.FormValue("workspace_id"); v != "" {
		workspaceID = &v
	}

	d, err := h.quota.CanUseStorage(r.Context(), owner, int64(len(data)), services.RejectOnError)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if qerr := d.QuotaErr(); qerr != nil {
		h.writeError(w, r, qerr)
		return
	}

	var rec *models.FileRecord
	if int64(len(data)) <= h.inlineLimitBytes {
		rec, err = h.storage.CreateFile(r.Context(), services.CreateFileParams{
			OwnerID:     owner,
			WorkspaceID: workspaceID,
			ParentID:    parentID,
			Name:        header.Filename,
			Kind:        models.KindFile,
			Content:     data,
		})
	} else {
		rec, err = h.storage.UploadExternal(r.Context(), owner, header.Filename, data, parentID, workspaceID)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toFileResponse(rec))
}

// GetFile returns a single record's metadata.
func (h *APIHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rec, err := h.storage.GetFile(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(rec))
}

// DownloadFile streams a file's content with its inferred content type.
func (h *APIHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data, contentType, err := h.storage.Download(r.Context(), chi.URLParam(r, "id"), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ListFiles lists a folder's children, or the root listing when no
// parent query parameter is given.
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var workspaceID *string
	if v := r.URL.Query().Get("workspace"); v != "" {
		workspaceID = &v
	}

	var recs []*models.FileRecord
	if parent := r.URL.Query().Get("parent"); parent != "" {
		recs, err = h.storage.ListFolder(r.Context(), owner, parent, workspaceID)
	} else {
		recs, err = h.storage.ListRoot(r.Context(), owner, workspaceID)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponses(recs))
}

// ListRecent returns the most recently updated files.
func (h *APIHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	recs, err := h.storage.ListRecent(r.Context(), owner, recentDefaultLimit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponses(recs))
}

type renameRequest struct {
	Name string `json:"name"`
}

// RenameFile renames a record, cascading paths for folders.
func (h *APIHandler) RenameFile(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req renameRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	rec, err := h.storage.Rename(r.Context(), chi.URLParam(r, "id"), req.Name, owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(rec))
}

type moveRequest struct {
	TargetFolderID *string `json:"target_folder_id"`
}

// MoveFile reparents a record, cascading paths for folders.
func (h *APIHandler) MoveFile(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	rec, err := h.storage.Move(r.Context(), chi.URLParam(r, "id"), req.TargetFolderID, owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFileResponse(rec))
}

// DeleteFile removes a record and, for external files, its object.
func (h *APIHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.storage.Delete(r.Context(), chi.URLParam(r, "id"), owner); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
