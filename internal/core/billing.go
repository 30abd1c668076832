package core

import "strings"

type BillingModel string

const (
	BillingFree       BillingModel = "free"
	BillingPro        BillingModel = "pro"
	BillingBusiness   BillingModel = "business"
	BillingUsageBased BillingModel = "usage-based"
)

// Unlimited marks a quota the upstream does not cap.
const Unlimited = 999999

// QuotaLimits are the static per-model defaults, overridden by the per-account
// maximum reported by the usage endpoint.
type QuotaLimits struct {
	PremiumLimit  int `json:"premium_limit"`
	StandardLimit int `json:"standard_limit"`
}

var defaultLimits = map[BillingModel]QuotaLimits{
	BillingFree:       {PremiumLimit: 50, StandardLimit: 200},
	BillingPro:        {PremiumLimit: 500, StandardLimit: Unlimited},
	BillingBusiness:   {PremiumLimit: 500, StandardLimit: Unlimited},
	BillingUsageBased: {PremiumLimit: 500, StandardLimit: Unlimited},
}

func (m BillingModel) Limits() QuotaLimits {
	if l, ok := defaultLimits[m]; ok {
		return l
	}
	return defaultLimits[BillingFree]
}

func (m BillingModel) Valid() bool {
	_, ok := defaultLimits[m]
	return ok
}

func (m BillingModel) IsUsageBased() bool { return m == BillingUsageBased }

func (m BillingModel) Label() string {
	switch m {
	case BillingFree:
		return "Free"
	case BillingPro:
		return "Pro"
	case BillingBusiness:
		return "Business"
	case BillingUsageBased:
		return "Usage-based"
	}
	return string(m)
}

// ParseBillingModel accepts the config spellings ("usage_based", "Usage-Based", ...).
func ParseBillingModel(s string) (BillingModel, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "_", "-")
	m := BillingModel(norm)
	if m.Valid() {
		return m, true
	}
	return "", false
}
