package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/rinde/internal/ledger"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/tui/themes"
)

// EntriesTableModel lists ledger entries.
type EntriesTableModel struct {
	theme   themes.Theme
	title   string
	entries []model.Entry
	table   table.Model
	width   int
	height  int
}

// NewEntriesTable creates an entries table.
func NewEntriesTable(title string, theme themes.Theme) EntriesTableModel {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(false)
	s.Selected = theme.Selected
	t.SetStyles(s)

	m := EntriesTableModel{
		theme:  theme,
		title:  title,
		table:  t,
		width:  80,
		height: 14,
	}
	m.updateColumnWidths()
	return m
}

// SetEntries replaces the rows.
func (m EntriesTableModel) SetEntries(entries []model.Entry) EntriesTableModel {
	m.entries = entries
	m.table.SetRows(m.buildRows())
	if m.table.Cursor() >= len(entries) {
		m.table.SetCursor(max(0, len(entries)-1))
	}
	return m
}

// Entries returns the rows shown.
func (m EntriesTableModel) Entries() []model.Entry {
	return m.entries
}

// Focus makes the table react to navigation keys.
func (m EntriesTableModel) Focus() EntriesTableModel {
	m.table.Focus()
	return m
}

// Blur stops the table from reacting to keys.
func (m EntriesTableModel) Blur() EntriesTableModel {
	m.table.Blur()
	return m
}

// Update handles messages.
func (m EntriesTableModel) Update(msg tea.Msg) (EntriesTableModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "enter" && m.table.Focused() {
		i := m.table.Cursor()
		if i >= 0 && i < len(m.entries) {
			return m, emit(EntrySelectedMsg{Entry: m.entries[i], Index: i})
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the table with a header.
func (m EntriesTableModel) View() string {
	status := fmt.Sprintf("%d movimientos", len(m.entries))
	header := lipgloss.JoinHorizontal(
		lipgloss.Bottom,
		m.theme.Bold.Render(m.title),
		"  ",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render(status),
	)

	if len(m.entries) == 0 {
		empty := lipgloss.NewStyle().Foreground(m.theme.Muted).Italic(true).Render("Sin movimientos para mostrar")
		return lipgloss.JoinVertical(lipgloss.Left, header, "", empty)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, m.table.View())
}

func (m EntriesTableModel) buildRows() []table.Row {
	cols := m.table.Columns()
	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		rows = append(rows, table.Row{
			Truncate(e.Description, cols[0].Width),
			e.Type.Label(),
			Truncate(e.Subtype, cols[2].Width),
			fmt.Sprintf("%*s", cols[3].Width, ledger.FormatCLP(e.Amount)),
			e.Date.Dashed(),
		})
	}
	return rows
}

// Resize updates the component size.
func (m EntriesTableModel) Resize(width, height int) EntriesTableModel {
	m.width = width
	m.height = height
	// Header line plus the table's column header and its border.
	m.table.SetHeight(max(1, height-3))
	m.updateColumnWidths()
	m.table.SetRows(m.buildRows())
	return m
}

// updateColumnWidths spreads the available width over the columns.
func (m *EntriesTableModel) updateColumnWidths() {
	available := max(m.width-12, 60)

	m.table.SetColumns([]table.Column{
		{Title: "Descripción", Width: max(16, int(float64(available)*0.34))},
		{Title: "Tipo", Width: max(9, int(float64(available)*0.14))},
		{Title: "Subtipo", Width: max(12, int(float64(available)*0.18))},
		{Title: "Monto", Width: max(12, int(float64(available)*0.16))},
		{Title: "Fecha", Width: max(10, int(float64(available)*0.14))},
	})
}

// Truncate shortens s to n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return strings.TrimRight(string(runes[:n-1]), " ") + "…"
}
