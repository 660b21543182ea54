package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/rinde/internal/ledger"
	"github.com/Veraticus/rinde/internal/tui/themes"
)

const cardWidth = 18

// SummaryModel renders the dashboard cards.
type SummaryModel struct {
	theme       themes.Theme
	progressBar progress.Model
	summary     ledger.Summary
	width       int
	compact     bool
}

// NewSummaryModel creates the summary cards.
func NewSummaryModel(theme themes.Theme) SummaryModel {
	prog := progress.New(progress.WithDefaultGradient())
	prog.ShowPercentage = false
	prog.Width = 5*cardWidth + 8

	return SummaryModel{
		theme:       theme,
		progressBar: prog,
	}
}

// SetSummary replaces the figures shown.
func (m SummaryModel) SetSummary(s ledger.Summary) SummaryModel {
	m.summary = s
	return m
}

// Summary returns the figures shown.
func (m SummaryModel) Summary() ledger.Summary {
	return m.summary
}

// Update handles messages.
func (m SummaryModel) Update(msg tea.Msg) (SummaryModel, tea.Cmd) {
	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.compact = msg.Width < 5*(cardWidth+4)
		m.progressBar.Width = min(max(m.width-4, 10), 5*cardWidth+8)
	}
	return m, nil
}

type card struct {
	title string
	style lipgloss.Style
	value int64
}

func (m SummaryModel) cards() []card {
	return []card{
		{title: "Balance", value: m.summary.Balance, style: m.balanceStyle()},
		{title: "Ahorros", value: m.summary.Savings, style: m.theme.StatusInfo},
		{title: "Deuda Total", value: m.summary.NetDebt, style: m.theme.StatusWarning},
		{title: "Ingresos", value: m.summary.Income, style: m.theme.StatusSuccess},
		{title: "Egresos", value: m.summary.Expense, style: m.theme.StatusError},
	}
}

func (m SummaryModel) balanceStyle() lipgloss.Style {
	if m.summary.Balance < 0 {
		return m.theme.StatusError
	}
	return m.theme.StatusSuccess
}

// View renders the cards followed by how much of the income was spent.
func (m SummaryModel) View() string {
	if m.compact {
		return m.renderCompact()
	}

	box := m.theme.RoundedBox.Padding(0, 1).Width(cardWidth)
	cards := make([]string, 0, 5)
	for _, c := range m.cards() {
		cards = append(cards, box.Render(lipgloss.JoinVertical(
			lipgloss.Left,
			lipgloss.NewStyle().Foreground(m.theme.Muted).Render(c.title),
			c.style.Render(ledger.FormatCLP(c.value)),
		)))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cards...),
		m.renderSpent(),
	)
}

func (m SummaryModel) renderCompact() string {
	lines := make([]string, 0, 5)
	for _, c := range m.cards() {
		lines = append(lines, fmt.Sprintf("%-12s %s", c.title+":", c.style.Render(ledger.FormatCLP(c.value))))
	}
	return m.theme.Box.Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderSpent shows expenses as a share of income.
func (m SummaryModel) renderSpent() string {
	if m.summary.Income <= 0 {
		return ""
	}
	ratio := float64(m.summary.Expense) / float64(m.summary.Income)
	label := fmt.Sprintf(" %.0f%% de los ingresos gastado", ratio*100)
	return m.progressBar.ViewAs(min(ratio, 1)) +
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render(label)
}
