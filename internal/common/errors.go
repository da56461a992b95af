// Package common defines shared sentinel errors and the structured quota
// error used across WebDesk server layers. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal         = errors.New("internal error")
	ErrorUnauthorized     = errors.New("unauthorized")
	ErrorInvalidOperation = errors.New("invalid operation")

	// Storage-specific errors.
	ErrorContentUnavailable = errors.New("content unavailable")
	ErrorUpstream           = errors.New("upstream failure")

	// Quota sentinel; concrete failures are *QuotaError values that match
	// this sentinel via errors.Is.
	ErrorQuotaExceeded = errors.New("quota exceeded")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// QuotaResource identifies which ceiling a quota decision was made against.
type QuotaResource string

const (
	QuotaStorage    QuotaResource = "storage"
	QuotaAIRequests QuotaResource = "ai_requests"
	QuotaWorkspaces QuotaResource = "workspaces"
	QuotaPanels     QuotaResource = "panels"
)

// QuotaError reports a rejected admission check with enough structure for
// the API layer to render a precise upgrade prompt.
type QuotaError struct {
	Resource  QuotaResource
	Used      int64
	Requested int64
	Limit     int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s quota exceeded: used %d, requested %d, limit %d",
		e.Resource, e.Used, e.Requested, e.Limit)
}

// Is lets errors.Is(err, ErrorQuotaExceeded) match any QuotaError.
func (e *QuotaError) Is(target error) bool {
	return target == ErrorQuotaExceeded
}

// Upstream wraps an object-store or metadata-store failure so it matches
// ErrorUpstream while preserving the cause for logging.
func Upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrorUpstream, op, err)
}
