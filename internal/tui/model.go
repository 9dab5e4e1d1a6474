// Package tui implements an interactive terminal viewer for bulk
// classification results.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/spicecat/internal/model"
)

// Filter selects which items the table shows.
type Filter int

const (
	FilterAll Filter = iota
	FilterFailed
	FilterLowConfidence
	FilterUncategorized
	filterCount
)

func (f Filter) String() string {
	switch f {
	case FilterFailed:
		return "failed"
	case FilterLowConfidence:
		return "low confidence"
	case FilterUncategorized:
		return "uncategorized"
	default:
		return "all"
	}
}

// detailHeight is the number of rows reserved below the table.
const detailHeight = 12

// Model holds the review screen state.
type Model struct {
	theme    Theme
	keymap   KeyMap
	help     help.Model
	table    table.Model
	items    []model.BulkItem
	visible  []int // Indices into items shown by the table
	config   Config
	filter   Filter
	width    int
	height   int
	quitting bool
}

// NewModel builds a review model over items.
func NewModel(items []model.BulkItem, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	t := table.New(
		table.WithColumns(columns(cfg.Width)),
		table.WithFocused(true),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(cfg.Theme.Border).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#fafafa")).
		Background(cfg.Theme.Primary)
	t.SetStyles(styles)

	m := Model{
		theme:  cfg.Theme,
		keymap: DefaultKeyMap(),
		help:   help.New(),
		table:  t,
		items:  items,
		config: cfg,
		width:  cfg.Width,
		height: cfg.Height,
	}
	m.resize()
	m.applyFilter()
	return m
}

func columns(width int) []table.Column {
	category := max(width-50, 20)
	return []table.Column{
		{Title: "#", Width: 5},
		{Title: "Transaction", Width: 16},
		{Title: "Category", Width: category},
		{Title: "Conf.", Width: 6},
		{Title: "Status", Width: 10},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keymap.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keymap.Filter):
			m.filter = (m.filter + 1) % filterCount
			m.applyFilter()
			return m, nil
		case key.Matches(msg, m.keymap.ToggleHelp):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) resize() {
	m.table.SetColumns(columns(m.width))
	m.table.SetWidth(m.width)
	m.table.SetHeight(max(m.height-detailHeight, 3))
	m.help.Width = m.width
}

func (m *Model) applyFilter() {
	m.visible = make([]int, 0, len(m.items))
	rows := make([]table.Row, 0, len(m.items))
	for i, item := range m.items {
		if !m.matches(item) {
			continue
		}
		m.visible = append(m.visible, i)
		rows = append(rows, m.row(item))
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
}

func (m Model) matches(item model.BulkItem) bool {
	switch m.filter {
	case FilterFailed:
		return item.Failed()
	case FilterLowConfidence:
		return !item.Failed() && item.Result.Confidence < m.config.LowConfidence
	case FilterUncategorized:
		return !item.Failed() && item.Result.Category == model.Uncategorized
	default:
		return true
	}
}

func (m Model) row(item model.BulkItem) table.Row {
	if item.Failed() {
		return table.Row{fmt.Sprint(item.Index), item.TransactionID, "", "", "failed"}
	}
	status := "ok"
	if item.Result.Confidence < m.config.LowConfidence {
		status = "low"
	}
	return table.Row{
		fmt.Sprint(item.Index),
		item.TransactionID,
		CategoryIcon(item.Result.Category) + " " + item.Result.Category,
		fmt.Sprintf("%.2f", item.Result.Confidence),
		status,
	}
}

// Selected returns the item under the cursor.
func (m Model) Selected() (model.BulkItem, bool) {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.visible) {
		return model.BulkItem{}, false
	}
	return m.items[m.visible[cursor]], true
}

// Filter returns the active filter.
func (m Model) Filter() Filter {
	return m.filter
}

// VisibleCount returns the number of items the filter lets through.
func (m Model) VisibleCount() int {
	return len(m.visible)
}
