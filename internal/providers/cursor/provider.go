package cursor

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/janekbaraniewski/cursorusage/internal/core"
	"github.com/janekbaraniewski/cursorusage/internal/detect"
	"github.com/janekbaraniewski/cursorusage/internal/identity"
	"github.com/janekbaraniewski/cursorusage/internal/parsers"
)

// nearLimitPercent is the premium usage share at which a request-based
// account is reported as NEAR_LIMIT.
const nearLimitPercent = 90

// CredentialLocator finds the session credential. *detect.Locator
// implements it.
type CredentialLocator interface {
	Locate(ctx context.Context, allowAutoDetect bool) (detect.Found, bool)
}

// Provider runs full refresh cycles: authenticate, fetch quota, fetch events
// when needed, normalize. It implements core.UsageProvider.
type Provider struct {
	client  *Client
	locator CredentialLocator
}

var _ core.UsageProvider = (*Provider)(nil)

func New(client *Client, locator CredentialLocator) *Provider {
	return &Provider{client: client, locator: locator}
}

func (p *Provider) ID() string { return "cursor" }

func (p *Provider) Client() *Client { return p.client }

func (p *Provider) Fetch(ctx context.Context, session *core.Session, opts core.RefreshOptions) core.Snapshot {
	id, err := p.authenticate(ctx, session, opts)
	if err != nil {
		log.Printf("[cursor] authentication failed: %v", err)
		return core.NewErrorSnapshot("", err)
	}

	usage, err := p.client.FetchCombined(ctx, session, opts.ConfiguredModel)
	if err != nil {
		log.Printf("[cursor] usage fetch failed for %s: %v", id.AccountID, err)
		snap := core.NewErrorSnapshot(id.AccountID, err)
		if m, ok := session.BillingModel(); ok {
			snap.Model = m
		}
		return snap
	}

	return buildSnapshot(id.AccountID, usage)
}

// authenticate returns the session identity, locating and resolving the
// credential when the session has none yet.
func (p *Provider) authenticate(ctx context.Context, session *core.Session, opts core.RefreshOptions) (core.AccountIdentity, error) {
	if id, ok := session.Identity(); ok {
		return id, nil
	}

	gen := session.Generation()
	found, ok := p.locator.Locate(ctx, opts.AutoDetect)
	if !ok {
		if opts.AutoDetect {
			return core.AccountIdentity{}, core.NewError(core.KindDetectionFailure, "locate credential", core.ErrDetectionFailed)
		}
		return core.AccountIdentity{}, core.NewError(core.KindNotAuthenticated, "locate credential", core.ErrNotAuthenticated)
	}

	id, err := identity.Resolve(found.Credential)
	if err != nil {
		return core.AccountIdentity{}, err
	}
	if !session.SetIdentity(gen, id) {
		return core.AccountIdentity{}, core.NewError(core.KindNotAuthenticated, "locate credential",
			fmt.Errorf("session was logged out during lookup: %w", core.ErrNotAuthenticated))
	}
	log.Printf("[cursor] authenticated as %s via %s", id.AccountID, found.Source)
	return id, nil
}

func buildSnapshot(accountID string, usage core.CombinedUsage) core.Snapshot {
	snap := core.NewSnapshot(accountID)
	snap.Model = usage.Model
	snap.Usage = &usage
	snap.Status = core.StatusOK

	if req := usage.RequestBased; req != nil {
		used := float64(req.Used)
		limit := float64(req.Limit)
		remaining := max(limit-used, 0)
		snap.Metrics["premium_requests"] = core.Metric{
			Used: &used, Limit: &limit, Remaining: &remaining,
			Unit: "requests", Window: "billing-cycle",
		}
		stdUsed := float64(req.StandardUsed)
		std := core.Metric{Used: &stdUsed, Unit: "requests", Window: "billing-cycle"}
		if req.StandardLimit < core.Unlimited {
			stdLimit := float64(req.StandardLimit)
			std.Limit = &stdLimit
		}
		snap.Metrics["standard_requests"] = std

		if usage.Style == core.StyleRequestBased {
			switch {
			case req.Exhausted():
				snap.Status = core.StatusLimited
			case req.Percentage >= nearLimitPercent:
				snap.Status = core.StatusNearLimit
			}
		}
	}

	if cost := usage.UsageBased; cost != nil {
		todayCost := cost.TodayCost
		todayTokens := float64(cost.TodayTokens)
		snap.Metrics["today_cost"] = core.Metric{Used: &todayCost, Unit: "USD", Window: "1d"}
		snap.Metrics["today_tokens"] = core.Metric{Used: &todayTokens, Unit: "tokens", Window: "1d"}
	}

	if team := usage.Team; team != nil && team.MaxUserSpendCents > 0 {
		spent := float64(team.SpendCents) / 100
		maxSpend := float64(team.MaxUserSpendCents) / 100
		snap.Metrics["team_spend"] = core.Metric{Used: &spent, Limit: &maxSpend, Unit: "USD", Window: "billing-cycle"}
	}

	snap.Message = summarize(usage, time.Now())
	return snap
}

func summarize(usage core.CombinedUsage, now time.Time) string {
	label := usage.Model.Label()
	if usage.Style == core.StyleUsageBased && usage.UsageBased != nil {
		return fmt.Sprintf("%s: %s today across %d requests", label,
			parsers.FormatMoney(usage.UsageBased.TodayCost), len(usage.UsageBased.RecentEvents))
	}
	req := usage.RequestBased
	if req == nil {
		return label
	}
	msg := fmt.Sprintf("%s: %d/%d premium requests (%d%%), %d days left", label,
		req.Used, req.Limit, req.Percentage, usage.Period.DaysRemaining(now))
	if usage.UsageBased != nil {
		msg += fmt.Sprintf(", %s overage today", parsers.FormatMoney(usage.UsageBased.TodayCost))
	}
	return msg
}
