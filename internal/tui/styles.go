package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/janekbaraniewski/cursorusage/internal/core"
)

// ─── Color Palette (Catppuccin Mocha) ───────────────────────────────────────

var (
	colorMantle   = lipgloss.Color("#181825") // deeper bg
	colorSurface0 = lipgloss.Color("#313244") // card bg
	colorSurface1 = lipgloss.Color("#45475A") // lighter surface
	colorText     = lipgloss.Color("#CDD6F4") // primary text
	colorSubtext  = lipgloss.Color("#A6ADC8") // secondary text
	colorDim      = lipgloss.Color("#585B70") // muted, borders

	colorAccent   = lipgloss.Color("#CBA6F7") // mauve
	colorBlue     = lipgloss.Color("#89B4FA") // section headers
	colorSapphire = lipgloss.Color("#74C7EC")
	colorGreen    = lipgloss.Color("#A6E3A1")
	colorYellow   = lipgloss.Color("#F9E2AF")
	colorRed      = lipgloss.Color("#F38BA8")
	colorPeach    = lipgloss.Color("#FAB387")
	colorTeal     = lipgloss.Color("#94E2D5")
	colorLavender = lipgloss.Color("#B4BEFE") // titles

	colorOK      = colorGreen
	colorWarn    = colorYellow
	colorCrit    = colorRed
	colorAuth    = colorPeach
	colorUnknown = colorDim
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorLavender)

	sectionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(colorBlue)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(colorSapphire).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorSubtext)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorText)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	tealStyle = lipgloss.NewStyle().
			Foreground(colorTeal)

	gaugeTrackStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	metricValueStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	detailCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Padding(0, 1)

	statusPillOKStyle = lipgloss.NewStyle().
				Foreground(colorMantle).
				Background(colorGreen).
				Bold(true).
				Padding(0, 1)

	statusPillWarnStyle = lipgloss.NewStyle().
				Foreground(colorMantle).
				Background(colorYellow).
				Bold(true).
				Padding(0, 1)

	statusPillCritStyle = lipgloss.NewStyle().
				Foreground(colorMantle).
				Background(colorRed).
				Bold(true).
				Padding(0, 1)

	statusPillAuthStyle = lipgloss.NewStyle().
				Foreground(colorMantle).
				Background(colorPeach).
				Bold(true).
				Padding(0, 1)

	statusPillDimStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Background(colorSurface1).
				Padding(0, 1)

	metaTagStyle = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Background(colorSurface0).
			Padding(0, 1)
)

// ─── Status Helpers ─────────────────────────────────────────────────────────

// StatusColor returns the accent color for a given status.
func StatusColor(s core.Status) lipgloss.Color {
	switch s {
	case core.StatusOK:
		return colorOK
	case core.StatusNearLimit:
		return colorWarn
	case core.StatusLimited, core.StatusError:
		return colorCrit
	case core.StatusAuth:
		return colorAuth
	default:
		return colorUnknown
	}
}

// StatusIcon returns a compact icon for a status.
func StatusIcon(s core.Status) string {
	switch s {
	case core.StatusOK:
		return "●"
	case core.StatusNearLimit:
		return "◐"
	case core.StatusLimited:
		return "◌"
	case core.StatusAuth:
		return "◈"
	case core.StatusError:
		return "✗"
	default:
		return "·"
	}
}

// StatusPill returns a filled pill-style badge for the details header.
func StatusPill(s core.Status) string {
	switch s {
	case core.StatusOK:
		return statusPillOKStyle.Render("OK")
	case core.StatusNearLimit:
		return statusPillWarnStyle.Render("NEAR LIMIT")
	case core.StatusLimited:
		return statusPillCritStyle.Render("LIMITED")
	case core.StatusAuth:
		return statusPillAuthStyle.Render("SIGN IN")
	case core.StatusError:
		return statusPillCritStyle.Render("ERROR")
	default:
		return statusPillDimStyle.Render("…")
	}
}
