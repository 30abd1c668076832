package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// usageColor picks the gauge color for a used share. Thresholds are used
// fractions (0.75 = warn at 75% used).
func usageColor(usedPercent, warnThresh, critThresh float64) lipgloss.Color {
	switch {
	case usedPercent >= critThresh*100:
		return colorCrit
	case usedPercent >= warnThresh*100:
		return colorWarn
	default:
		return colorOK
	}
}

// RenderUsageGauge produces a text gauge that fills from left to right as
// usage increases (0=empty, 100=full). A negative percent renders a dimmed
// track with "N/A".
func RenderUsageGauge(usedPercent float64, width int, warnThresh, critThresh float64) string {
	if width < 5 {
		width = 5
	}

	if usedPercent < 0 {
		return gaugeTrackStyle.Render(strings.Repeat("─", width)) + dimStyle.Render(" N/A")
	}
	label := usedPercent
	if usedPercent > 100 {
		usedPercent = 100
	}

	filled := int(usedPercent / 100 * float64(width))
	empty := width - filled

	color := usageColor(usedPercent, warnThresh, critThresh)
	filledStyle := lipgloss.NewStyle().Foreground(color)
	trackStyle := lipgloss.NewStyle().Foreground(colorSurface1)

	bar := filledStyle.Render(strings.Repeat("━", filled)) +
		trackStyle.Render(strings.Repeat("━", empty))

	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)
	return fmt.Sprintf("%s %s", bar, pctStyle.Render(fmt.Sprintf("%5.1f%%", label)))
}
