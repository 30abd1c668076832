package cursor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/janekbaraniewski/cursorusage/internal/core"
)

// premiumModel is the quota bucket counted against the premium allowance;
// every other bucket in the usage response is standard.
const premiumModel = "gpt-4"

const fallbackPremiumLimit = 50

type modelUsage struct {
	NumRequests      int  `json:"numRequests"`
	NumRequestsTotal int  `json:"numRequestsTotal"`
	NumTokens        int  `json:"numTokens"`
	MaxRequestUsage  *int `json:"maxRequestUsage"`
	MaxTokenUsage    *int `json:"maxTokenUsage"`
}

// quotaResp is the /api/usage payload: one modelUsage per model class keyed
// by class name, plus "startOfMonth".
type quotaResp struct {
	StartOfMonth string
	Models       map[string]modelUsage
}

func (q *quotaResp) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	q.Models = make(map[string]modelUsage, len(fields))
	for k, v := range fields {
		if k == "startOfMonth" {
			_ = json.Unmarshal(v, &q.StartOfMonth)
			continue
		}
		var mu modelUsage
		if err := json.Unmarshal(v, &mu); err != nil {
			return fmt.Errorf("model %q: %w", k, err)
		}
		q.Models[k] = mu
	}
	return nil
}

type teamsResp struct {
	Teams []team `json:"teams"`
}

type team struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Role               string `json:"role"`
	SubscriptionStatus string `json:"subscriptionStatus"`
}

type teamSpendReq struct {
	TeamID   int64 `json:"teamId"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

type memberSpend struct {
	UserID     int64  `json:"userId"`
	Email      string `json:"email"`
	SpendCents int64  `json:"spendCents"`
}

type teamSpendResp struct {
	TeamMemberSpend        []memberSpend `json:"teamMemberSpend"`
	MaxUserSpendCents      int64         `json:"maxUserSpendCents"`
	SubscriptionCycleStart string        `json:"subscriptionCycleStart"`
}

// pickTeam returns the first active team, else the first team.
func pickTeam(teams []team) (team, bool) {
	if len(teams) == 0 {
		return team{}, false
	}
	if t, ok := lo.Find(teams, func(t team) bool {
		return strings.EqualFold(t.SubscriptionStatus, "active")
	}); ok {
		return t, true
	}
	return teams[0], true
}

// requestUsage folds the quota buckets into premium and standard figures.
// The premium limit comes from the endpoint when it reports one, else from
// the billing model defaults.
func requestUsage(q quotaResp, model core.BillingModel) core.RequestUsage {
	defaults := model.Limits()

	premium := q.Models[premiumModel]
	limit := defaults.PremiumLimit
	if premium.MaxRequestUsage != nil && *premium.MaxRequestUsage > 0 {
		limit = *premium.MaxRequestUsage
	}
	if limit <= 0 {
		limit = fallbackPremiumLimit
	}

	names := lo.Without(lo.Keys(q.Models), premiumModel)
	sort.Strings(names)
	standardUsed := lo.SumBy(names, func(name string) int { return q.Models[name].NumRequests })
	standardLimit := defaults.StandardLimit
	for _, name := range names {
		if m := q.Models[name].MaxRequestUsage; m != nil && *m > 0 {
			standardLimit = *m
			break
		}
	}

	return core.RequestUsage{
		Used:          premium.NumRequests,
		Limit:         limit,
		Percentage:    core.Percentage(premium.NumRequests, limit),
		StandardUsed:  standardUsed,
		StandardLimit: standardLimit,
	}
}

// FetchCombined runs one usage fetch for the session's account. configured
// is only used as a label when the account cannot be classified.
//
// The quota call is fatal on failure. Events are fetched for usage-based
// accounts and for accounts whose premium quota is exhausted; their failure
// degrades the record instead of failing it.
func (c *Client) FetchCombined(ctx context.Context, session *core.Session, configured core.BillingModel) (core.CombinedUsage, error) {
	id, ok := session.Identity()
	if !ok {
		return core.CombinedUsage{}, core.NewError(core.KindNotAuthenticated, "fetch usage", core.ErrNotAuthenticated)
	}

	now := c.now()
	var (
		model core.BillingModel
		quota quotaResp
		teams teamsResp
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		model = c.DetectBillingModel(gctx, session)
		return nil
	})
	g.Go(func() error {
		return c.get(gctx, id, usagePath+"?user="+url.QueryEscape(id.AccountID), &quota)
	})
	g.Go(func() error {
		if err := c.post(gctx, id, teamsPath, nil, &teams); err != nil {
			log.Printf("[cursor] teams lookup failed: %v", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.CombinedUsage{}, err
	}

	if !model.Valid() {
		model = configured
	}
	activeTeam, hasTeam := pickTeam(teams.Teams)

	req := requestUsage(quota, model)
	usage := core.CombinedUsage{
		Style:        core.StyleRequestBased,
		Model:        model,
		Period:       core.CalendarMonth(now),
		RequestBased: &req,
	}
	if model.IsUsageBased() {
		usage.Style = core.StyleUsageBased
	}

	if model.IsUsageBased() || req.Exhausted() {
		events, err := c.fetchEvents(ctx, id, activeTeam.ID, core.Today(now))
		switch {
		case err == nil:
			cost := summarizeEvents(events)
			usage.UsageBased = &cost
			req.RecentEvents = events
		case model.IsUsageBased():
			log.Printf("[cursor] usage events unavailable, reporting zero usage: %v", err)
			cost := summarizeEvents(nil)
			usage.UsageBased = &cost
		default:
			log.Printf("[cursor] usage events unavailable, reporting requests only: %v", err)
		}
	}

	if hasTeam && (model == core.BillingBusiness || model.IsUsageBased()) {
		if spend, err := c.fetchTeamSpend(ctx, id, activeTeam); err != nil {
			log.Printf("[cursor] team spend unavailable: %v", err)
		} else {
			usage.Team = spend
		}
	}

	return usage, nil
}

func (c *Client) fetchTeamSpend(ctx context.Context, id core.AccountIdentity, t team) (*core.TeamSpend, error) {
	var resp teamSpendResp
	if err := c.post(ctx, id, teamSpendPath, teamSpendReq{TeamID: t.ID, Page: 1, PageSize: 100}, &resp); err != nil {
		return nil, err
	}
	return &core.TeamSpend{
		TeamID:            t.ID,
		TeamName:          t.Name,
		SpendCents:        lo.SumBy(resp.TeamMemberSpend, func(m memberSpend) int64 { return m.SpendCents }),
		MaxUserSpendCents: resp.MaxUserSpendCents,
	}, nil
}
