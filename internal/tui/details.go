package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/janekbaraniewski/cursorusage/internal/config"
	"github.com/janekbaraniewski/cursorusage/internal/core"
	"github.com/janekbaraniewski/cursorusage/internal/parsers"
)

const maxDetailEvents = 10

// Details renders the multi-line usage panel: billing period, premium and
// standard requests, today's usage-based spend, recent events and team spend.
func Details(snap core.Snapshot, ui config.UIConfig, width int, now time.Time) string {
	if width < 40 {
		width = 40
	}
	inner := width - 4

	var sb strings.Builder
	sb.WriteString(renderDetailHeader(snap))
	sb.WriteString("\n")

	u := snap.Usage
	if u == nil {
		if snap.Message != "" {
			sb.WriteString("\n" + labelStyle.Render(snap.Message) + "\n")
		}
		return detailCardStyle.Width(width - 2).Render(strings.TrimRight(sb.String(), "\n"))
	}

	if label := u.Period.Label(); label != "" {
		sb.WriteString(kv("Period", fmt.Sprintf("%s · %d days left", label, u.Period.DaysRemaining(now))))
	}

	if req := u.RequestBased; req != nil {
		sb.WriteString("\n" + sectionHeaderStyle.Render("Requests") + "\n")
		gaugeW := max(inner-24, 10)
		sb.WriteString(kv("Premium", fmt.Sprintf("%d / %s", req.Used, limitText(req.Limit))))
		sb.WriteString("  " + RenderUsageGauge(float64(req.Percentage), gaugeW, ui.WarnThreshold, ui.CritThreshold) + "\n")
		sb.WriteString(kv("Standard", fmt.Sprintf("%d / %s", req.StandardUsed, limitText(req.StandardLimit))))
		if req.Exhausted() {
			sb.WriteString("  " + lipgloss.NewStyle().Foreground(colorCrit).Render("Premium quota exhausted, usage-based pricing applies") + "\n")
		}
	}

	if cost := u.UsageBased; cost != nil {
		sb.WriteString("\n" + sectionHeaderStyle.Render("Today") + "\n")
		sb.WriteString(kv("Cost", metricValueStyle.Render(parsers.FormatMoney(cost.TodayCost))))
		sb.WriteString(kv("Tokens", formatTokens(cost.TodayTokens)))
		sb.WriteString(kv("Requests", strconv.Itoa(len(cost.RecentEvents))))
	}

	if events := u.RecentEvents(); len(events) > 0 {
		sb.WriteString("\n" + sectionHeaderStyle.Render("Recent events") + "\n")
		sb.WriteString(renderEvents(events, inner))
	}

	if team := u.Team; team != nil {
		sb.WriteString("\n" + sectionHeaderStyle.Render("Team") + "\n")
		name := team.TeamName
		if name == "" {
			name = strconv.FormatInt(team.TeamID, 10)
		}
		sb.WriteString(kv("Name", name))
		sb.WriteString(kv("Spend", parsers.FormatMoney(float64(team.SpendCents)/100)))
		if team.MaxUserSpendCents > 0 {
			sb.WriteString(kv("Per-user cap", parsers.FormatMoney(float64(team.MaxUserSpendCents)/100)))
		}
	}

	if !snap.Timestamp.IsZero() {
		sb.WriteString("\n" + dimStyle.Render("Updated "+snap.Timestamp.Format("15:04:05")) + "\n")
	}

	return detailCardStyle.Width(width - 2).Render(strings.TrimRight(sb.String(), "\n"))
}

func renderDetailHeader(snap core.Snapshot) string {
	parts := []string{headerStyle.Render("Cursor"), StatusPill(snap.Status)}
	if snap.Model != "" {
		parts = append(parts, metaTagStyle.Render(snap.Model.Label()))
	}
	if snap.AccountID != "" {
		parts = append(parts, dimStyle.Render(snap.AccountID))
	}
	return strings.Join(parts, " ")
}

func renderEvents(events []core.UsageEvent, width int) string {
	modelW := max(width-30, 8)
	var sb strings.Builder
	for i, e := range events {
		if i == maxDetailEvents {
			sb.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more", len(events)-maxDetailEvents)) + "\n")
			break
		}
		model := ansi.Truncate(e.Model, modelW, "…")
		sb.WriteString(fmt.Sprintf("  %s  %s %s %s\n",
			dimStyle.Render(e.Timestamp.Local().Format("15:04")),
			valueStyle.Render(padRight(model, modelW)),
			labelStyle.Render(fmt.Sprintf("%8s", formatTokens(e.Tokens))),
			tealStyle.Render(fmt.Sprintf("%9s", e.CostDisplay)),
		))
	}
	return sb.String()
}

func kv(label, value string) string {
	return "  " + labelStyle.Render(padRight(label, 13)) + valueStyle.Render(value) + "\n"
}

func padRight(s string, w int) string {
	if pad := w - ansi.StringWidth(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

func limitText(limit int) string {
	if limit >= core.Unlimited {
		return "unlimited"
	}
	return strconv.Itoa(limit)
}

func formatTokens(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}
