package cursor

import (
	"context"
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/janekbaraniewski/cursorusage/internal/core"
	"github.com/janekbaraniewski/cursorusage/internal/parsers"
)

const eventsPageSize = 100

type usageEventsReq struct {
	TeamID    int64  `json:"teamId,omitempty"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Page      int    `json:"page"`
	PageSize  int    `json:"pageSize"`
}

// usageEventsResp may be "{}" when the window holds no events.
type usageEventsResp struct {
	TotalUsageEventsCount parsers.FlexInt `json:"totalUsageEventsCount"`
	UsageEventsDisplay    []usageEvent    `json:"usageEventsDisplay"`
}

type usageEvent struct {
	Timestamp       json.RawMessage `json:"timestamp"`
	Model           string          `json:"model"`
	Kind            string          `json:"kind"`
	UsageBasedCosts json.RawMessage `json:"usageBasedCosts"`
	TokenUsage      *tokenUsage     `json:"tokenUsage"`
}

type tokenUsage struct {
	InputTokens      parsers.FlexInt `json:"inputTokens"`
	OutputTokens     parsers.FlexInt `json:"outputTokens"`
	CacheWriteTokens parsers.FlexInt `json:"cacheWriteTokens"`
	CacheReadTokens  parsers.FlexInt `json:"cacheReadTokens"`
	TotalCents       float64         `json:"totalCents"`
}

func (t *tokenUsage) total() int64 {
	if t == nil {
		return 0
	}
	return int64(t.InputTokens + t.OutputTokens + t.CacheWriteTokens + t.CacheReadTokens)
}

// fetchEvents returns the usage events in window, newest first.
func (c *Client) fetchEvents(ctx context.Context, id core.AccountIdentity, teamID int64, window core.BillingPeriod) ([]core.UsageEvent, error) {
	req := usageEventsReq{
		TeamID:    teamID,
		StartDate: strconv.FormatInt(window.Start.UnixMilli(), 10),
		EndDate:   strconv.FormatInt(window.End.UnixMilli(), 10),
		Page:      1,
		PageSize:  eventsPageSize,
	}
	var resp usageEventsResp
	if err := c.post(ctx, id, usageEventPath, req, &resp); err != nil {
		return nil, err
	}

	events := lo.Map(resp.UsageEventsDisplay, func(e usageEvent, _ int) core.UsageEvent {
		cost, display := ParseCost(e.UsageBasedCosts)
		return core.UsageEvent{
			Timestamp:   parsers.ParseTimestamp(strings.Trim(string(e.Timestamp), `"`)),
			Model:       e.Model,
			Tokens:      e.TokenUsage.total(),
			Cost:        cost,
			CostDisplay: display,
			Kind:        e.Kind,
		}
	})
	slices.SortStableFunc(events, func(a, b core.UsageEvent) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return events, nil
}

// summarizeEvents totals cost (rounded to cents) and tokens across events.
func summarizeEvents(events []core.UsageEvent) core.CostUsage {
	if events == nil {
		events = []core.UsageEvent{}
	}
	return core.CostUsage{
		TodayCost:    math.Round(lo.SumBy(events, func(e core.UsageEvent) float64 { return e.Cost })*100) / 100,
		TodayTokens:  lo.SumBy(events, func(e core.UsageEvent) int64 { return e.Tokens }),
		RecentEvents: events,
	}
}
