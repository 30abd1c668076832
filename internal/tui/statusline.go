package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/janekbaraniewski/cursorusage/internal/config"
	"github.com/janekbaraniewski/cursorusage/internal/core"
	"github.com/janekbaraniewski/cursorusage/internal/parsers"
)

// StatusLine renders snap as a plain one-line string for status bars
// (tmux, waybar, polybar).
func StatusLine(snap core.Snapshot, mode config.DisplayMode) string {
	return StatusIcon(snap.Status) + " " + statusText(snap, mode)
}

// RenderStatusLine is StatusLine colored by status and cut to width
// terminal cells. A width of zero or less disables truncation.
func RenderStatusLine(snap core.Snapshot, mode config.DisplayMode, ui config.UIConfig, width int) string {
	color := StatusColor(snap.Status)
	if req := requestUsage(snap); req != nil && snap.Usage.Style == core.StyleRequestBased {
		color = usageColor(float64(req.Percentage), ui.WarnThreshold, ui.CritThreshold)
	}
	line := lipgloss.NewStyle().Foreground(color).Render(StatusIcon(snap.Status)) + " " +
		valueStyle.Render(statusText(snap, mode))
	if width > 0 && ansi.StringWidth(line) > width {
		line = ansi.Truncate(line, width, "…")
	}
	return line
}

func statusText(snap core.Snapshot, mode config.DisplayMode) string {
	u := snap.Usage
	if u == nil {
		switch snap.Status {
		case core.StatusAuth:
			return "Cursor: sign in"
		case core.StatusError:
			return "Cursor: unavailable"
		default:
			return "Cursor: …"
		}
	}

	if u.Style == core.StyleUsageBased {
		cost := core.CostUsage{}
		if u.UsageBased != nil {
			cost = *u.UsageBased
		}
		return fmt.Sprintf("%s today (%d req)", parsers.FormatMoney(cost.TodayCost), len(cost.RecentEvents))
	}

	req := u.RequestBased
	if req == nil {
		return u.Model.Label()
	}
	text := requestsText(*req, mode)
	if u.UsageBased != nil {
		text += " +" + parsers.FormatMoney(u.UsageBased.TodayCost)
	}
	return text
}

func requestsText(req core.RequestUsage, mode config.DisplayMode) string {
	limit := strconv.Itoa(req.Limit)
	if req.Limit >= core.Unlimited {
		limit = "∞"
	}
	counts := fmt.Sprintf("%d/%s", req.Used, limit)
	pct := fmt.Sprintf("%d%%", req.Percentage)

	switch mode {
	case config.DisplayRequests:
		return counts
	case config.DisplayPercentage:
		return pct
	default:
		return counts + " (" + pct + ")"
	}
}

func requestUsage(snap core.Snapshot) *core.RequestUsage {
	if snap.Usage == nil {
		return nil
	}
	return snap.Usage.RequestBased
}
