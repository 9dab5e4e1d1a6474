package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the visual style for the review screen.
type Theme struct {
	Title         lipgloss.Style
	Subtle        lipgloss.Style
	Bold          lipgloss.Style
	BorderedBox   lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusWarning lipgloss.Style
	StatusError   lipgloss.Style
	Primary       lipgloss.Color
	Border        lipgloss.Color
	Muted         lipgloss.Color
}

// DefaultTheme is the default theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#7c3aed"),
	Border:  lipgloss.Color("#404040"),
	Muted:   lipgloss.Color("#737373"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")),
	Subtle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Bold: lipgloss.NewStyle().
		Bold(true),
	BorderedBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),
	StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981")),
	StatusWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b")),
	StatusError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
}

// Top-level category icons, matched on the part before " > ".
var categoryIcons = map[string]string{
	"Shopping":          "🛍️",
	"Food & Drink":      "🍕",
	"Transport":         "🚗",
	"Subscriptions":     "📱",
	"Bills & Utilities": "💡",
	"Cash & ATM":        "🏧",
	"Transfers":         "🔁",
	"Fees":              "🧾",
	"Travel":            "✈️",
	"Healthcare":        "💊",
}

// CategoryIcon returns an icon for a category path.
func CategoryIcon(category string) string {
	top, _, _ := strings.Cut(category, " > ")
	if icon, ok := categoryIcons[top]; ok {
		return icon
	}
	return "📦"
}
