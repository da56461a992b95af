// Package services contains the server-side business logic: the storage
// gateway deciding where file content lives, and the quota enforcer
// performing admission control against the caller's effective plan.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/webdeskhq/webdesk/internal/common"
	"github.com/webdeskhq/webdesk/internal/server/models"
	"github.com/webdeskhq/webdesk/internal/server/plans"
	"github.com/webdeskhq/webdesk/internal/server/repositories/repomanager"
)

// ErrorPolicy says what an admission check decides when the underlying
// lookup fails. Metered, billable resources reject on error so a paid
// ceiling is never silently exceeded; best-effort UX gates admit on error
// so a transient outage does not lock users out.
type ErrorPolicy int

const (
	RejectOnError ErrorPolicy = iota
	AdmitOnError
)

// Decision is the outcome of one admission check, with enough data for
// the API layer to render a precise upgrade prompt.
type Decision struct {
	Allowed   bool
	Resource  common.QuotaResource
	Used      int64
	Requested int64
	// Limit is the effective ceiling, plans.Unlimited when the plan has none.
	Limit int64
}

// QuotaErr converts a rejecting decision into a *common.QuotaError;
// it returns nil for an admitting one.
func (d Decision) QuotaErr() error {
	if d.Allowed {
		return nil
	}
	return &common.QuotaError{
		Resource:  d.Resource,
		Used:      d.Used,
		Requested: d.Requested,
		Limit:     d.Limit,
	}
}

// QuotaService performs admission control for every resource-consuming
// action. Checks are stateless reads; the check-then-act sequence is not
// atomic with the subsequent write, which is an accepted bounded race for
// concurrent requests of the same user.
type QuotaService struct {
	db  *sql.DB
	rm  repomanager.RepositoryManager
	now func() time.Time
}

// NewQuotaService constructs a QuotaService over the given database and
// repository manager.
func NewQuotaService(db *sql.DB, rm repomanager.RepositoryManager) *QuotaService {
	return &QuotaService{db: db, rm: rm, now: time.Now}
}

// effectiveLimits resolves the user's plan, degrades lapsed paid plans to
// the free tier, and returns the matching limit table entry.
func (s *QuotaService) effectiveLimits(ctx context.Context, userID string) (plans.Limits, error) {
	user, err := s.rm.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return plans.Limits{}, fmt.Errorf("error loading user %s: %w", userID, err)
	}
	return plans.LimitsFor(plans.Effective(user.Plan, user.SubscriptionStatus)), nil
}

// errDecision applies the policy when a lookup failed: the error is still
// surfaced to the caller, the decision follows the policy.
func errDecision(policy ErrorPolicy, resource common.QuotaResource) Decision {
	return Decision{Allowed: policy == AdmitOnError, Resource: resource, Limit: plans.Unlimited}
}

// CanUseStorage admits additionalBytes of new content iff current usage
// plus the delta stays within the plan's storage ceiling.
func (s *QuotaService) CanUseStorage(ctx context.Context, userID string, additionalBytes int64, onError ErrorPolicy) (Decision, error) {
	limits, err := s.effectiveLimits(ctx, userID)
	if err != nil {
		return errDecision(onError, common.QuotaStorage), err
	}

	used, err := s.rm.Files(s.db).SumSizes(ctx, userID)
	if err != nil {
		return errDecision(onError, common.QuotaStorage), err
	}

	ceiling := limits.StorageBytes()
	d := Decision{
		Resource:  common.QuotaStorage,
		Used:      used,
		Requested: additionalBytes,
		Limit:     ceiling,
	}
	d.Allowed = ceiling == plans.Unlimited || used+additionalBytes <= ceiling
	return d, nil
}

// CanMakeAIRequest admits one more assistant call iff the count of logged
// requests since local midnight is below the daily ceiling.
func (s *QuotaService) CanMakeAIRequest(ctx context.Context, userID string, onError ErrorPolicy) (Decision, error) {
	limits, err := s.effectiveLimits(ctx, userID)
	if err != nil {
		return errDecision(onError, common.QuotaAIRequests), err
	}

	count, err := s.rm.AIRequests(s.db).CountSince(ctx, userID, startOfDay(s.now()))
	if err != nil {
		return errDecision(onError, common.QuotaAIRequests), err
	}

	d := Decision{
		Resource:  common.QuotaAIRequests,
		Used:      count,
		Requested: 1,
		Limit:     limits.AIRequestsPerDay,
	}
	d.Allowed = limits.AIRequestsPerDay == plans.Unlimited || count < limits.AIRequestsPerDay
	return d, nil
}

// RecordAIRequest appends one row to the assistant-request log.
func (s *QuotaService) RecordAIRequest(ctx context.Context, userID, requestType string, tokenCount int, successful bool) error {
	entry := &models.AIRequestLog{
		ID:         uuid.New().String(),
		UserID:     userID,
		Type:       requestType,
		TokenCount: tokenCount,
		Successful: successful,
	}
	if err := s.rm.AIRequests(s.db).Create(ctx, entry); err != nil {
		return fmt.Errorf("error recording ai request: %w", err)
	}
	return nil
}

// CanCreateWorkspace admits one more workspace iff the current count is
// below the plan ceiling.
func (s *QuotaService) CanCreateWorkspace(ctx context.Context, userID string, onError ErrorPolicy) (Decision, error) {
	limits, err := s.effectiveLimits(ctx, userID)
	if err != nil {
		return errDecision(onError, common.QuotaWorkspaces), err
	}

	count, err := s.rm.Workspaces(s.db).CountByOwner(ctx, userID)
	if err != nil {
		return errDecision(onError, common.QuotaWorkspaces), err
	}

	d := Decision{
		Resource:  common.QuotaWorkspaces,
		Used:      count,
		Requested: 1,
		Limit:     limits.MaxWorkspaces,
	}
	d.Allowed = limits.MaxWorkspaces == plans.Unlimited || count < limits.MaxWorkspaces
	return d, nil
}

// CanOpenPanel admits one more open panel iff the server-tracked count of
// the user's open panel sessions is below the plan ceiling.
func (s *QuotaService) CanOpenPanel(ctx context.Context, userID string, onError ErrorPolicy) (Decision, error) {
	limits, err := s.effectiveLimits(ctx, userID)
	if err != nil {
		return errDecision(onError, common.QuotaPanels), err
	}

	count, err := s.rm.Panels(s.db).CountOpen(ctx, userID)
	if err != nil {
		return errDecision(onError, common.QuotaPanels), err
	}

	d := Decision{
		Resource:  common.QuotaPanels,
		Used:      count,
		Requested: 1,
		Limit:     limits.MaxPanels,
	}
	d.Allowed = limits.MaxPanels == plans.Unlimited || count < limits.MaxPanels
	return d, nil
}

// startOfDay returns midnight of t's calendar day in t's location; the
// AI-request quota resets on this boundary.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
