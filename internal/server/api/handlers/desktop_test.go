package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webdeskhq/webdesk/internal/common"
	"github.com/webdeskhq/webdesk/internal/server/models"
	"github.com/webdeskhq/webdesk/internal/server/services"
)

func TestGetUsage(t *testing.T) {
	st := &fakeStorage{
		usageFn: func(ctx context.Context, ownerID string) (int64, error) { return 12345, nil },
	}
	h := newTestHandler(st, &fakeQuota{}, &fakeDesktop{})

	rec := httptest.NewRecorder()
	h.GetUsage(rec, authedRequest(t, http.MethodGet, "/api/v1/usage", nil, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"used_bytes":12345}`, rec.Body.String())
}

func TestOpenPanel(t *testing.T) {
	d := &fakeDesktop{
		openFn: func(ctx context.Context, userID, panelType string) (*models.PanelSession, error) {
			return &models.PanelSession{ID: "p1", UserID: userID, PanelType: panelType, OpenedAt: time.Now()}, nil
		},
	}
	h := newTestHandler(&fakeStorage{}, &fakeQuota{panel: allow()}, d)

	body := strings.NewReader(`{"panel_type":"terminal"}`)
	rec := httptest.NewRecorder()
	h.OpenPanel(rec, authedRequest(t, http.MethodPost, "/api/v1/panels", body, nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestOpenPanelQuotaRejected(t *testing.T) {
	d := &fakeDesktop{
		openFn: func(ctx context.Context, userID, panelType string) (*models.PanelSession, error) {
			t.Fatal("panel must not open after a quota rejection")
			return nil, nil
		},
	}
	q := &fakeQuota{panel: services.Decision{
		Allowed: false, Resource: common.QuotaPanels, Used: 3, Requested: 1, Limit: 3,
	}}
	h := newTestHandler(&fakeStorage{}, q, d)

	body := strings.NewReader(`{"panel_type":"terminal"}`)
	rec := httptest.NewRecorder()
	h.OpenPanel(rec, authedRequest(t, http.MethodPost, "/api/v1/panels", body, nil))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	eb := decodeErrorBody(t, rec)
	assert.Equal(t, "quota_panels", eb.Code)
	assert.Equal(t, "quota_exceeded", eb.Type)
}

func TestClosePanel(t *testing.T) {
	d := &fakeDesktop{
		closeFn: func(ctx context.Context, id, userID string) error {
			assert.Equal(t, "p1", id)
			return nil
		},
	}
	h := newTestHandler(&fakeStorage{}, &fakeQuota{}, d)

	rec := httptest.NewRecorder()
	h.ClosePanel(rec, authedRequest(t, http.MethodDelete, "/api/v1/panels/p1", nil, map[string]string{"id": "p1"}))

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCreateWorkspace(t *testing.T) {
	d := &fakeDesktop{
		createFn: func(ctx context.Context, ownerID, name string) (*models.Workspace, error) {
			return &models.Workspace{ID: "w1", OwnerID: ownerID, Name: name}, nil
		},
	}
	h := newTestHandler(&fakeStorage{}, &fakeQuota{workspace: allow()}, d)

	body := strings.NewReader(`{"name":"Projects"}`)
	rec := httptest.NewRecorder()
	h.CreateWorkspace(rec, authedRequest(t, http.MethodPost, "/api/v1/workspaces", body, nil))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"w1","name":"Projects"}`, rec.Body.String())
}

func TestCreateWorkspaceQuotaRejected(t *testing.T) {
	q := &fakeQuota{workspace: services.Decision{
		Allowed: false, Resource: common.QuotaWorkspaces, Used: 1, Requested: 1, Limit: 1,
	}}
	h := newTestHandler(&fakeStorage{}, q, &fakeDesktop{})

	body := strings.NewReader(`{"name":"Second"}`)
	rec := httptest.NewRecorder()
	h.CreateWorkspace(rec, authedRequest(t, http.MethodPost, "/api/v1/workspaces", body, nil))

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	eb := decodeErrorBody(t, rec)
	assert.Equal(t, "quota_workspaces", eb.Code)
}

func TestCreateWorkspaceRejectsOnLookupFailure(t *testing.T) {
	d := &fakeDesktop{
		createFn: func(ctx context.Context, ownerID, name string) (*models.Workspace, error) {
			t.Fatal("workspace must not be created when the count lookup fails")
			return nil, nil
		},
	}
	q := &fakeQuota{err: common.ErrorInternal}
	h := newTestHandler(&fakeStorage{}, q, d)

	body := strings.NewReader(`{"name":"Second"}`)
	rec := httptest.NewRecorder()
	h.CreateWorkspace(rec, authedRequest(t, http.MethodPost, "/api/v1/workspaces", body, nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, services.RejectOnError, q.workspacePolicy)
}

func TestOpenPanelAdmitsOnLookupFailure(t *testing.T) {
	d := &fakeDesktop{
		openFn: func(ctx context.Context, userID, panelType string) (*models.PanelSession, error) {
			return &models.PanelSession{ID: "p1", UserID: userID, PanelType: panelType, OpenedAt: time.Now()}, nil
		},
	}
	q := &fakeQuota{err: common.ErrorInternal}
	h := newTestHandler(&fakeStorage{}, q, d)

	body := strings.NewReader(`{"panel_type":"terminal"}`)
	rec := httptest.NewRecorder()
	h.OpenPanel(rec, authedRequest(t, http.MethodPost, "/api/v1/panels", body, nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, services.AdmitOnError, q.panelPolicy)
}

func TestListWorkspaces(t *testing.T) {
	d := &fakeDesktop{
		listFn: func(ctx context.Context, ownerID string) ([]*models.Workspace, error) {
			return []*models.Workspace{{ID: "w1", Name: "Main"}}, nil
		},
	}
	h := newTestHandler(&fakeStorage{}, &fakeQuota{}, d)

	rec := httptest.NewRecorder()
	h.ListWorkspaces(rec, authedRequest(t, http.MethodGet, "/api/v1/workspaces", nil, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":"w1","name":"Main"}]`, rec.Body.String())
}
