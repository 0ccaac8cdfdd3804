package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jackchuka/gitfx/internal/model"
)

// ANSI 256 color palette
var (
	colorCleanGreen = lipgloss.Color("71")
	colorDirtyAmber = lipgloss.Color("179")
	colorDangerRed  = lipgloss.Color("167")

	colorCyan = lipgloss.Color("73")
	colorGold = lipgloss.Color("220")

	colorFg  = lipgloss.Color("253")
	colorDim = lipgloss.Color("242")

	colorSelBg    = lipgloss.Color("238")
	colorSelFg    = lipgloss.Color("255")
	colorRowAlt   = lipgloss.Color("234")
	colorTableHdr = lipgloss.Color("245")
)

// Left-border accent: flash bright/off, then fade out
var glowBorderColors = []lipgloss.Color{
	lipgloss.Color("46"),  // on
	lipgloss.Color("236"), // off
	lipgloss.Color("46"),  // on
	lipgloss.Color("236"), // off
	lipgloss.Color("46"),  // on
	lipgloss.Color("34"),  // fade
	lipgloss.Color("28"),  // fade
	lipgloss.Color("23"),  // fade
	lipgloss.Color("236"), // gone
}

// Braille spinner frames
var spinnerFrames = []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}

const (
	iconClean  = "○"
	iconDirty  = "●"
	iconAhead  = "↑"
	iconBehind = "↓"
	iconBolt   = "⚡"
	iconStar   = "★"
	iconError  = "⚠"
)

var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleRepoName = lipgloss.NewStyle().Foreground(colorFg).Bold(true)
	styleBranch   = lipgloss.NewStyle().Foreground(colorCyan)
	styleAhead    = lipgloss.NewStyle().Foreground(colorDirtyAmber)
	styleBehind   = lipgloss.NewStyle().Foreground(colorDangerRed)
	styleCleanTxt = lipgloss.NewStyle().Foreground(colorCleanGreen)
	styleAmber    = lipgloss.NewStyle().Foreground(colorDirtyAmber)
	styleTableHdr = lipgloss.NewStyle().Foreground(colorTableHdr).Bold(true)

	styleKey       = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	styleActiveTab = lipgloss.NewStyle().Foreground(colorCyan).Bold(true).Underline(true)

	styleToastBox = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			Padding(0, 1)
)

// toastLook picks the border color and icon for an effect kind.
func toastLook(kind model.EffectKind) (lipgloss.Color, string) {
	switch kind {
	case model.KindSuccess:
		return colorGold, iconStar + " "
	case model.KindError:
		return colorDangerRed, iconError + " "
	default:
		return colorCyan, iconBolt + " "
	}
}

func renderSpinner(frame int) string {
	f := spinnerFrames[frame%len(spinnerFrames)]
	return lipgloss.NewStyle().Foreground(colorCyan).Render(f)
}

func truncateWithEllipsis(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	if maxWidth <= 1 {
		return "…"
	}
	runes := []rune(s)
	for i := len(runes) - 1; i >= 0; i-- {
		candidate := string(runes[:i]) + "…"
		if lipgloss.Width(candidate) <= maxWidth {
			return candidate
		}
	}
	return "…"
}

func padRight(s string, width int) string {
	w := lipgloss.Width(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}
