package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spicecat/internal/model"
)

func reviewItems() []model.BulkItem {
	return []model.BulkItem{
		{Index: 0, TransactionID: "t1", Result: &model.ClassificationResult{
			TransactionID: "t1", Category: "Shopping > Online Marketplace", Confidence: 0.96,
			Why: []string{"Matched alias 'AMZN' → Amazon"},
		}},
		{Index: 1, TransactionID: "t2", Error: "classification failed"},
		{Index: 2, TransactionID: "t3", Result: &model.ClassificationResult{
			TransactionID: "t3", Category: "Transport > Rideshare", Confidence: 0.3,
			Why:          []string{"MCC 4121 aligns with Transport > Rideshare"},
			Alternatives: []model.Alternative{{Category: "Food & Drink > Coffee Shop", Confidence: 0.14}},
		}},
		{Index: 3, TransactionID: "t4", Result: &model.ClassificationResult{
			TransactionID: "t4", Category: model.Uncategorized, Confidence: 0.5, Why: []string{"No strong signals"},
		}},
	}
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestFilterCycle(t *testing.T) {
	m := NewModel(reviewItems())
	assert.Equal(t, FilterAll, m.Filter())
	assert.Equal(t, 4, m.VisibleCount())

	want := []struct {
		filter  Filter
		visible int
		first   string
	}{
		{FilterFailed, 1, "t2"},
		{FilterLowConfidence, 1, "t3"},
		{FilterUncategorized, 1, "t4"},
		{FilterAll, 4, "t1"},
	}
	for _, w := range want {
		m = update(t, m, keyMsg("f"))
		assert.Equal(t, w.filter, m.Filter())
		assert.Equal(t, w.visible, m.VisibleCount(), w.filter.String())
		selected, ok := m.Selected()
		require.True(t, ok)
		assert.Equal(t, w.first, selected.TransactionID)
	}
}

func TestNavigationAndDetail(t *testing.T) {
	m := NewModel(reviewItems(), WithSize(120, 40))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})

	selected, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "t3", selected.TransactionID)

	view := m.View()
	assert.Contains(t, view, "MCC 4121 aligns with Transport > Rideshare")
	assert.Contains(t, view, "Food & Drink > Coffee Shop 0.14")
	assert.Contains(t, view, "filter: all")
}

func TestLowConfidenceOption(t *testing.T) {
	m := NewModel(reviewItems(), WithLowConfidence(0.6))
	m = update(t, m, keyMsg("f"))
	m = update(t, m, keyMsg("f"))
	assert.Equal(t, FilterLowConfidence, m.Filter())
	assert.Equal(t, 2, m.VisibleCount())
}

func TestQuit(t *testing.T) {
	m := NewModel(reviewItems())
	next, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestResize(t *testing.T) {
	m := NewModel(reviewItems())
	m = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Equal(t, 60, m.width)
	assert.NotEmpty(t, m.View())
}

func TestCategoryIcon(t *testing.T) {
	assert.Equal(t, "🚗", CategoryIcon("Transport > Rideshare"))
	assert.Equal(t, "📦", CategoryIcon(model.Uncategorized))
}

func TestRunRequiresItems(t *testing.T) {
	assert.Error(t, Run(context.Background(), nil))
}
