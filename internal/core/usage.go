package core

import (
	"math"
	"time"
)

type UsageStyle string

const (
	StyleRequestBased UsageStyle = "request-based"
	StyleUsageBased   UsageStyle = "usage-based"
)

// UsageEvent is one billed API call as reported by the events endpoint.
type UsageEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Model       string    `json:"model"`
	Tokens      int64     `json:"tokens"`
	Cost        float64   `json:"cost"`
	CostDisplay string    `json:"cost_display"`
	Kind        string    `json:"kind,omitempty"`
}

type RequestUsage struct {
	Used          int          `json:"used"`
	Limit         int          `json:"limit"`
	Percentage    int          `json:"percentage"`
	StandardUsed  int          `json:"standard_used"`
	StandardLimit int          `json:"standard_limit"`
	RecentEvents  []UsageEvent `json:"recent_events,omitempty"`
}

// Exhausted reports whether the premium quota is used up. A zero or
// Unlimited limit never exhausts.
func (r RequestUsage) Exhausted() bool {
	return IsPremiumExhausted(r.Used, r.Limit)
}

func IsPremiumExhausted(used, limit int) bool {
	if limit <= 0 || limit >= Unlimited {
		return false
	}
	return used >= limit
}

// Percentage rounds used/limit to a whole percent.
func Percentage(used, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Round(float64(used) / float64(limit) * 100))
}

type CostUsage struct {
	TodayCost    float64      `json:"today_cost"`
	TodayTokens  int64        `json:"today_tokens"`
	RecentEvents []UsageEvent `json:"recent_events"`
}

type TeamSpend struct {
	TeamID            int64  `json:"team_id"`
	TeamName          string `json:"team_name,omitempty"`
	SpendCents        int64  `json:"spend_cents"`
	MaxUserSpendCents int64  `json:"max_user_spend_cents"`
}

// CombinedUsage is the normalized usage record. Style selects which variant is
// primary: RequestBased is set whenever the quota endpoint answered, UsageBased
// is set for usage-based accounts and for accounts that overflowed their
// premium quota.
type CombinedUsage struct {
	Style        UsageStyle    `json:"style"`
	Model        BillingModel  `json:"billing_model"`
	Period       BillingPeriod `json:"period"`
	RequestBased *RequestUsage `json:"request_based,omitempty"`
	UsageBased   *CostUsage    `json:"usage_based,omitempty"`
	Team         *TeamSpend    `json:"team,omitempty"`
}

func (u CombinedUsage) RecentEvents() []UsageEvent {
	if u.UsageBased != nil {
		return u.UsageBased.RecentEvents
	}
	if u.RequestBased != nil {
		return u.RequestBased.RecentEvents
	}
	return nil
}
