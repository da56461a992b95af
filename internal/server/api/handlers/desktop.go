package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/webdeskhq/webdesk/internal/server/services"
)

type usageResponse struct {
	UsedBytes int64 `json:"used_bytes"`
}

// GetUsage returns the caller's aggregate stored bytes.
func (h *APIHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	used, err := h.storage.UsageBytes(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{UsedBytes: used})
}

type openPanelRequest struct {
	PanelType string `json:"panel_type"`
}

type panelResponse struct {
	ID        string    `json:"id"`
	PanelType string    `json:"panel_type"`
	OpenedAt  time.Time `json:"opened_at"`
}

// OpenPanel opens a panel session after admitting it against the panel
// ceiling. The panel gate is a UX limit, so a failed lookup admits
// rather than locking the desktop.
func (h *APIHandler) OpenPanel(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req openPanelRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.quota.CanOpenPanel(r.Context(), owner, services.AdmitOnError)
	if err != nil && !d.Allowed {
		h.writeError(w, r, err)
		return
	}
	if qerr := d.QuotaErr(); qerr != nil {
		h.writeError(w, r, qerr)
		return
	}

	session, err := h.desktop.OpenPanel(r.Context(), owner, req.PanelType)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, panelResponse{
		ID:        session.ID,
		PanelType: session.PanelType,
		OpenedAt:  session.OpenedAt,
	})
}

// ClosePanel closes one of the caller's panel sessions.
func (h *APIHandler) ClosePanel(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.desktop.ClosePanel(r.Context(), chi.URLParam(r, "id"), owner); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createWorkspaceRequest struct {
	Name string `json:"name"`
}

type workspaceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateWorkspace creates a workspace after admitting it against the
// workspace ceiling. Workspaces are a metered plan resource, so a failed
// count lookup rejects.
func (h *APIHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req createWorkspaceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	d, err := h.quota.CanCreateWorkspace(r.Context(), owner, services.RejectOnError)
	if err != nil && !d.Allowed {
		h.writeError(w, r, err)
		return
	}
	if qerr := d.QuotaErr(); qerr != nil {
		h.writeError(w, r, qerr)
		return
	}

	ws, err := h.desktop.CreateWorkspace(r.Context(), owner, req.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, workspaceResponse{ID: ws.ID, Name: ws.Name})
}

// ListWorkspaces returns the caller's workspaces.
func (h *APIHandler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	list, err := h.desktop.ListWorkspaces(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result := make([]workspaceResponse, 0, len(list))
	for _, ws := range list {
		result = append(result, workspaceResponse{ID: ws.ID, Name: ws.Name})
	}
	writeJSON(w, http.StatusOK, result)
}
