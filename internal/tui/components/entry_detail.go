package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/rinde/internal/ledger"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/tui/themes"
)

var detailBack = key.NewBinding(
	key.WithKeys("esc", "enter"),
	key.WithHelp("esc", "volver"),
)

// EntryDetailModel shows every field of one entry.
type EntryDetailModel struct {
	theme  themes.Theme
	entry  model.Entry
	width  int
	height int
}

// NewEntryDetailModel creates a detail view for e.
func NewEntryDetailModel(e model.Entry, theme themes.Theme) EntryDetailModel {
	return EntryDetailModel{
		theme: theme,
		entry: e,
		width: 60,
	}
}

// Entry returns the entry shown.
func (m EntryDetailModel) Entry() model.Entry {
	return m.entry
}

// Update handles messages.
func (m EntryDetailModel) Update(msg tea.Msg) (EntryDetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Resize(msg.Width, msg.Height)
	case tea.KeyMsg:
		if key.Matches(msg, detailBack) {
			return m, emit(DetailClosedMsg{})
		}
	}
	return m, nil
}

// View renders the detail box.
func (m EntryDetailModel) View() string {
	labelStyle := m.theme.Bold.
		Width(14).
		Align(lipgloss.Right)

	amountStyle := m.theme.StatusSuccess
	if m.entry.Type.IsOutflow() {
		amountStyle = m.theme.StatusError
	}

	rows := []struct {
		label string
		value string
	}{
		{"Fecha: ", m.entry.Date.Display()},
		{"Tipo: ", m.entry.Type.Label()},
		{"Subtipo: ", m.entry.Subtype},
		{"Monto: ", amountStyle.Render(ledger.FormatCLP(m.entry.Amount))},
	}

	lines := make([]string, 0, len(rows)+3)
	for _, r := range rows {
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(r.label), m.theme.Normal.Render(r.value)))
	}

	desc := strings.TrimSpace(m.entry.Description)
	if desc == "" {
		desc = "Sin descripción"
	}
	lines = append(lines,
		"",
		m.theme.Normal.Width(max(m.width-8, 20)).Render(desc),
		"",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("esc para volver"),
	)

	return m.theme.RoundedBox.
		Width(max(m.width-4, 30)).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			m.theme.Title.Render("Detalle del movimiento"),
			strings.Join(lines, "\n"),
		))
}

// Resize updates the component dimensions.
func (m *EntryDetailModel) Resize(width, height int) {
	m.width = min(width, 72)
	m.height = height
}
