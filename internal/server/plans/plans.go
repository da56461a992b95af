// Package plans holds the static per-tier limit table and the effective-plan
// computation applied before every quota comparison.
package plans

import (
	"strings"

	"github.com/webdeskhq/webdesk/internal/server/models"
)

// Plan names the subscription tier a user is billed on.
type Plan string

const (
	Free    Plan = "FREE"
	Premium Plan = "PREMIUM"
	Team    Plan = "TEAM"
)

// Unlimited is the sentinel ceiling meaning "no limit".
const Unlimited int64 = -1

const bytesPerGB int64 = 1 << 30

// Limits is the static configuration for one tier. Ceilings of Unlimited
// always admit.
type Limits struct {
	// StorageGB caps aggregate stored bytes, in gigabytes.
	StorageGB int64
	// AIRequestsPerDay caps assistant calls per calendar day.
	AIRequestsPerDay int64
	// MaxWorkspaces caps the number of workspaces.
	MaxWorkspaces int64
	// MaxPanels caps concurrently open panels.
	MaxPanels int64
	// AdvancedFeatures gates premium-only panel types.
	AdvancedFeatures bool
}

var table = map[Plan]Limits{
	Free: {
		StorageGB:        1,
		AIRequestsPerDay: 50,
		MaxWorkspaces:    1,
		MaxPanels:        3,
		AdvancedFeatures: false,
	},
	Premium: {
		StorageGB:        50,
		AIRequestsPerDay: 1000,
		MaxWorkspaces:    10,
		MaxPanels:        Unlimited,
		AdvancedFeatures: true,
	},
	Team: {
		StorageGB:        Unlimited,
		AIRequestsPerDay: Unlimited,
		MaxWorkspaces:    Unlimited,
		MaxPanels:        Unlimited,
		AdvancedFeatures: true,
	},
}

// Parse maps a raw plan string to a known tier. Lookup is
// case-insensitive; unrecognized values fall back to Free.
func Parse(raw string) Plan {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(Premium):
		return Premium
	case string(Team):
		return Team
	default:
		return Free
	}
}

// LimitsFor returns the limit table entry for the plan.
func LimitsFor(p Plan) Limits {
	l, ok := table[p]
	if !ok {
		return table[Free]
	}
	return l
}

// StorageBytes converts the storage ceiling to bytes, preserving the
// Unlimited sentinel.
func (l Limits) StorageBytes() int64 {
	if l.StorageGB == Unlimited {
		return Unlimited
	}
	return l.StorageGB * bytesPerGB
}

// Effective degrades a paid plan to Free when the subscription is neither
// active nor trialing. A lapsed PREMIUM account is evaluated against FREE
// ceilings even though its stored plan field still reads PREMIUM.
func Effective(rawPlan, subscriptionStatus string) Plan {
	p := Parse(rawPlan)
	if p == Free {
		return Free
	}
	switch subscriptionStatus {
	case models.SubscriptionActive, models.SubscriptionTrialing:
		return p
	default:
		return Free
	}
}
