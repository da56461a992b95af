package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/webdeskhq/webdesk/internal/common"
	"github.com/webdeskhq/webdesk/internal/server/models"
	"github.com/webdeskhq/webdesk/internal/server/repositories/repomanager"
)

// DesktopService persists the desktop surface state: open panel sessions
// and workspaces. Admission against plan ceilings happens in the caller
// before any of these writes.
type DesktopService struct {
	db *sql.DB
	rm repomanager.RepositoryManager
}

// NewDesktopService constructs a DesktopService over the given database
// and repository manager.
func NewDesktopService(db *sql.DB, rm repomanager.RepositoryManager) *DesktopService {
	return &DesktopService{db: db, rm: rm}
}

// OpenPanel records a new open panel session for the user.
func (s *DesktopService) OpenPanel(ctx context.Context, userID, panelType string) (*models.PanelSession, error) {
	if strings.TrimSpace(panelType) == "" {
		return nil, fmt.Errorf("%w: panel type must not be empty", common.ErrorInvalidOperation)
	}

	session := &models.PanelSession{
		ID:        uuid.New().String(),
		UserID:    userID,
		PanelType: panelType,
		OpenedAt:  time.Now(),
	}
	if err := s.rm.Panels(s.db).Open(ctx, session); err != nil {
		return nil, fmt.Errorf("error opening panel session: %w", err)
	}
	return session, nil
}

// ClosePanel removes the user's open panel session.
func (s *DesktopService) ClosePanel(ctx context.Context, id, userID string) error {
	if err := s.rm.Panels(s.db).Close(ctx, id, userID); err != nil {
		return err
	}
	return nil
}

// CreateWorkspace persists a new workspace for the owner.
func (s *DesktopService) CreateWorkspace(ctx context.Context, ownerID, name string) (*models.Workspace, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: workspace name must not be empty", common.ErrorInvalidOperation)
	}

	w := &models.Workspace{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Name:    name,
	}
	if err := s.rm.Workspaces(s.db).Create(ctx, w); err != nil {
		return nil, fmt.Errorf("error creating workspace: %w", err)
	}
	return w, nil
}

// ListWorkspaces returns the owner's workspaces.
func (s *DesktopService) ListWorkspaces(ctx context.Context, ownerID string) ([]*models.Workspace, error) {
	return s.rm.Workspaces(s.db).ListByOwner(ctx, ownerID)
}
