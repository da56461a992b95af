package models

import "time"

// AIRequestLog records one assistant request for day-bounded quota
// counting. Rows are append-only.
type AIRequestLog struct {
	ID         string
	UserID     string
	Type       string
	TokenCount int
	Successful bool
	CreatedAt  time.Time
}
