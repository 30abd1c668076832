package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"

	"github.com/janekbaraniewski/cursorusage/internal/config"
	"github.com/janekbaraniewski/cursorusage/internal/core"
)

func requestSnapshot(used, limit int) core.Snapshot {
	snap := core.NewSnapshot("user_01")
	snap.Status = core.StatusOK
	snap.Model = core.BillingPro
	snap.Usage = &core.CombinedUsage{
		Style: core.StyleRequestBased,
		Model: core.BillingPro,
		RequestBased: &core.RequestUsage{
			Used: used, Limit: limit, Percentage: core.Percentage(used, limit),
			StandardLimit: core.Unlimited,
		},
	}
	return snap
}

func TestStatusLine_DisplayModes(t *testing.T) {
	snap := requestSnapshot(123, 500)
	tests := []struct {
		mode config.DisplayMode
		want string
	}{
		{config.DisplayRequests, "● 123/500"},
		{config.DisplayPercentage, "● 25%"},
		{config.DisplayBoth, "● 123/500 (25%)"},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			if got := StatusLine(snap, tt.mode); got != tt.want {
				t.Errorf("StatusLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusLine_UsageBased(t *testing.T) {
	snap := core.NewSnapshot("user_01")
	snap.Status = core.StatusOK
	snap.Usage = &core.CombinedUsage{
		Style: core.StyleUsageBased,
		UsageBased: &core.CostUsage{
			TodayCost:    1.5,
			RecentEvents: make([]core.UsageEvent, 3),
		},
	}
	if got := StatusLine(snap, config.DisplayBoth); got != "● $1.50 today (3 req)" {
		t.Errorf("StatusLine() = %q", got)
	}
}

func TestStatusLine_Overflow(t *testing.T) {
	snap := requestSnapshot(500, 500)
	snap.Status = core.StatusLimited
	snap.Usage.UsageBased = &core.CostUsage{TodayCost: 0.42}
	if got := StatusLine(snap, config.DisplayRequests); got != "◌ 500/500 +$0.42" {
		t.Errorf("StatusLine() = %q", got)
	}
}

func TestStatusLine_Failures(t *testing.T) {
	tests := []struct {
		status core.Status
		want   string
	}{
		{core.StatusAuth, "◈ Cursor: sign in"},
		{core.StatusError, "✗ Cursor: unavailable"},
		{core.StatusUnknown, "· Cursor: …"},
	}
	for _, tt := range tests {
		snap := core.Snapshot{Status: tt.status}
		if got := StatusLine(snap, config.DisplayBoth); got != tt.want {
			t.Errorf("StatusLine(%s) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestRenderStatusLine_Truncates(t *testing.T) {
	snap := requestSnapshot(123, 500)
	ui := config.DefaultConfig().UI

	full := RenderStatusLine(snap, config.DisplayBoth, ui, 0)
	if !strings.Contains(ansi.Strip(full), "123/500 (25%)") {
		t.Fatalf("unexpected full line %q", ansi.Strip(full))
	}

	cut := RenderStatusLine(snap, config.DisplayBoth, ui, 8)
	if w := ansi.StringWidth(cut); w > 8 {
		t.Errorf("width = %d, want <= 8", w)
	}
	if !strings.HasSuffix(ansi.Strip(cut), "…") {
		t.Errorf("truncated line %q lacks ellipsis", ansi.Strip(cut))
	}
}
