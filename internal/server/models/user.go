package models

import "time"

// Subscription statuses as reported by the billing collaborator. Only
// ACTIVE and TRIALING keep a paid plan effective; anything else degrades
// the account to free-tier limits.
const (
	SubscriptionActive     = "ACTIVE"
	SubscriptionTrialing   = "TRIALING"
	SubscriptionPastDue    = "PAST_DUE"
	SubscriptionCanceled   = "CANCELED"
	SubscriptionIncomplete = "INCOMPLETE"
)

// User carries the account fields the storage core needs: identity plus
// the raw plan and subscription status used for quota decisions. Account
// management itself lives outside this service.
type User struct {
	ID                 string
	Email              string
	Plan               string
	SubscriptionStatus string
	CreatedAt          time.Time
}
