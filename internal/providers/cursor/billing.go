package cursor

import (
	"context"
	"log"
	"strings"

	"github.com/janekbaraniewski/cursorusage/internal/core"
)

type profileResp struct {
	MembershipType           string `json:"membershipType"`
	IndividualMembershipType string `json:"individualMembershipType"`
	IsTeamMember             bool   `json:"isTeamMember"`
	TeamMembershipType       string `json:"teamMembershipType"`
	IsOnBillableAuto         bool   `json:"isOnBillableAuto"`
	SubscriptionStatus       string `json:"subscriptionStatus"`
}

// DetectBillingModel classifies the signed-in account. The result is cached
// on the session until logout; a failed profile fetch yields free and is not
// cached so the next cycle asks again.
func (c *Client) DetectBillingModel(ctx context.Context, session *core.Session) core.BillingModel {
	if m, ok := session.BillingModel(); ok {
		return m
	}

	gen := session.Generation()
	id, ok := session.Identity()
	if !ok {
		return core.BillingFree
	}

	var profile profileResp
	if err := c.get(ctx, id, profilePath, &profile); err != nil {
		log.Printf("[cursor] billing model detection failed, assuming free: %v", err)
		return core.BillingFree
	}

	m := classify(profile)
	if !session.SetBillingModel(gen, m) {
		log.Printf("[cursor] session changed during classification, not caching %s", m)
	}
	return m
}

func classify(p profileResp) core.BillingModel {
	if p.IsTeamMember {
		switch strings.ToLower(p.TeamMembershipType) {
		case "business", "enterprise":
			return core.BillingBusiness
		case "usage_based":
			return core.BillingUsageBased
		}
		if p.IsOnBillableAuto {
			return core.BillingUsageBased
		}
		return core.BillingPro
	}

	for _, membership := range []string{p.MembershipType, p.IndividualMembershipType} {
		switch strings.ToLower(strings.TrimSpace(membership)) {
		case "free", "free_trial":
			return core.BillingFree
		case "pro", "hobby":
			return core.BillingPro
		case "business", "enterprise":
			return core.BillingBusiness
		}
	}
	return core.BillingFree
}
