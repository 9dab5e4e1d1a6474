package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := m.theme.Title.Render(fmt.Sprintf("🌶️  Classification review  %s",
		m.theme.Subtle.Render(fmt.Sprintf("filter: %s · %d/%d", m.filter, len(m.visible), len(m.items)))))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.table.View(),
		m.renderDetail(),
		m.help.View(m.keymap),
	)
}

func (m Model) renderDetail() string {
	item, ok := m.Selected()
	if !ok {
		return m.theme.BorderedBox.Width(max(m.width-4, 20)).Render(m.theme.Subtle.Render("No items match this filter"))
	}

	var b strings.Builder
	if item.Failed() {
		fmt.Fprintf(&b, "%s  %s\n", m.theme.Bold.Render(item.TransactionID), m.theme.StatusError.Render(item.Error))
		return m.theme.BorderedBox.Width(max(m.width-4, 20)).Render(strings.TrimRight(b.String(), "\n"))
	}

	result := item.Result
	fmt.Fprintf(&b, "%s  %s %s\n",
		m.theme.Bold.Render(result.TransactionID),
		result.Category,
		m.confidenceStyle(result.Confidence).Render(fmt.Sprintf("%.2f", result.Confidence)))

	for _, reason := range result.Why {
		fmt.Fprintf(&b, "  • %s\n", reason)
	}
	if len(result.Alternatives) > 0 {
		alts := make([]string, 0, len(result.Alternatives))
		for _, alt := range result.Alternatives {
			alts = append(alts, fmt.Sprintf("%s %.2f", alt.Category, alt.Confidence))
		}
		b.WriteString(m.theme.Subtle.Render("Alternatives: " + strings.Join(alts, ", ")))
	}

	return m.theme.BorderedBox.Width(max(m.width-4, 20)).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) confidenceStyle(confidence float64) lipgloss.Style {
	switch {
	case confidence >= 0.7:
		return m.theme.StatusSuccess
	case confidence >= m.config.LowConfidence:
		return m.theme.StatusWarning
	default:
		return m.theme.StatusError
	}
}
