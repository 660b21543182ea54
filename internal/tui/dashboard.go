package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/rinde/internal/ledger"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/tui/components"
	"github.com/Veraticus/rinde/internal/tui/themes"
)

const monthFieldID = "month"

type dashFocus int

const (
	dashTable dashFocus = iota
	dashMonth
	dashSearch
)

// dashboardScreen shows the month's figures and entries.
type dashboardScreen struct {
	theme    themes.Theme
	keys     KeyMap
	today    func() model.Date
	detail   *components.EntryDetailModel
	search   textinput.Model
	month    components.AutocompleteModel
	summary  components.SummaryModel
	table    components.EntriesTableModel
	all      []model.Entry
	selected time.Month
	category ledger.Category
	focus    dashFocus
	width    int
	height   int
	loaded   bool
}

func newDashboardScreen(theme themes.Theme, keys KeyMap, today func() model.Date) dashboardScreen {
	current := today().Month
	value, _ := model.MonthOption(int(current))

	search := textinput.New()
	search.Placeholder = "Descripción, tipo o fecha"
	search.Prompt = ""
	search.Width = 28

	s := dashboardScreen{
		theme:    theme,
		keys:     keys,
		today:    today,
		search:   search,
		selected: current,
		month: components.NewAutocompleteModel(components.AutocompleteConfig{
			ID:          monthFieldID,
			Placeholder: "Selecciona un mes",
			Options:     model.MonthOptions,
			Value:       []model.Option{value},
			Width:       18,
			Clearable:   true,
		}, theme),
		summary: components.NewSummaryModel(theme),
		table:   components.NewEntriesTable("Movimientos", theme),
	}
	s.table = s.table.Focus()
	return s
}

// setEntries replaces the full entry list.
func (s dashboardScreen) setEntries(all []model.Entry) dashboardScreen {
	s.all = all
	s.loaded = true
	s.recompute()
	return s
}

// monthEntries returns the entries of the selected month in the current year.
func (s dashboardScreen) monthEntries() []model.Entry {
	return ledger.FilterByMonth(s.all, s.selected, s.today().Year)
}

func (s *dashboardScreen) recompute() {
	month := s.monthEntries()
	s.summary = s.summary.SetSummary(ledger.Summarize(month, s.all))
	s.table = s.table.SetEntries(ledger.FilterBySearchAndCategory(month, s.all, s.search.Value(), s.category))
}

func (s dashboardScreen) capturing() bool {
	return s.detail == nil && s.focus != dashTable
}

func (s dashboardScreen) resize(width, height int) dashboardScreen {
	s.width, s.height = width, height
	s.summary, _ = s.summary.Update(tea.WindowSizeMsg{Width: width, Height: height})
	// Title, filters, categories and the summary cards sit above the table.
	s.table = s.table.Resize(width, max(6, height-14))
	if s.detail != nil {
		s.detail.Resize(width, height)
	}
	return s
}

func (s dashboardScreen) setFocus(f dashFocus) (dashboardScreen, tea.Cmd) {
	var cmds []tea.Cmd
	if s.focus == dashMonth && f != dashMonth {
		var cmd tea.Cmd
		s.month, cmd = s.month.Blur()
		cmds = append(cmds, cmd)
	}
	s.search.Blur()
	s.table = s.table.Blur()

	s.focus = f
	switch f {
	case dashMonth:
		var cmd tea.Cmd
		s.month, cmd = s.month.Focus()
		cmds = append(cmds, cmd)
	case dashSearch:
		cmds = append(cmds, s.search.Focus())
	case dashTable:
		s.table = s.table.Focus()
	}
	return s, tea.Batch(cmds...)
}

func (s dashboardScreen) Update(msg tea.Msg) (dashboardScreen, tea.Cmd) {
	switch msg := msg.(type) {
	case components.AutocompleteChangedMsg:
		if msg.ID != monthFieldID {
			return s, nil
		}
		if len(msg.Selection) == 0 {
			s.selected = s.today().Month
			current, _ := model.MonthOption(int(s.selected))
			s.month = s.month.SetValue([]model.Option{current})
		} else {
			s.selected = time.Month(msg.Selection[0].ID)
		}
		s.recompute()
		return s, nil

	case components.BlurMsg:
		if msg.ID == monthFieldID && s.focus == dashMonth {
			return s.setFocus(dashTable)
		}
		return s, nil

	case components.EntrySelectedMsg:
		detail := components.NewEntryDetailModel(msg.Entry, s.theme)
		detail.Resize(s.width, s.height)
		s.detail = &detail
		return s, nil

	case components.DetailClosedMsg:
		s.detail = nil
		return s, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		s.month, cmd = s.month.Update(msg)
		if s.month.Focused() && s.focus != dashMonth {
			s.focus = dashMonth
			s.search.Blur()
			s.table = s.table.Blur()
		}
		return s, cmd

	case tea.KeyMsg:
		if s.detail != nil {
			var cmd tea.Cmd
			*s.detail, cmd = s.detail.Update(msg)
			return s, cmd
		}
		return s.handleKey(msg)
	}
	return s, nil
}

func (s dashboardScreen) handleKey(msg tea.KeyMsg) (dashboardScreen, tea.Cmd) {
	if key.Matches(msg, s.keys.NextField) {
		return s.setFocus((s.focus + 1) % 3)
	}
	if key.Matches(msg, s.keys.PrevField) {
		return s.setFocus((s.focus + 2) % 3)
	}

	switch s.focus {
	case dashSearch:
		if msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter {
			return s.setFocus(dashTable)
		}
		before := s.search.Value()
		var cmd tea.Cmd
		s.search, cmd = s.search.Update(msg)
		if s.search.Value() != before {
			s.recompute()
		}
		return s, cmd

	case dashMonth:
		if msg.Type == tea.KeyEsc && !s.month.IsOpen() {
			return s.setFocus(dashTable)
		}
		var cmd tea.Cmd
		s.month, cmd = s.month.Update(msg)
		return s, cmd
	}

	switch {
	case key.Matches(msg, s.keys.Search):
		return s.setFocus(dashSearch)
	case key.Matches(msg, s.keys.Month):
		return s.setFocus(dashMonth)
	case key.Matches(msg, s.keys.Refresh):
		return s, send(refreshRequestedMsg{})
	case key.Matches(msg, s.keys.AllEntries):
		return s.setCategory(ledger.CategoryNone), nil
	case key.Matches(msg, s.keys.Savings):
		return s.setCategory(ledger.CategorySavings), nil
	case key.Matches(msg, s.keys.Debt):
		return s.setCategory(ledger.CategoryDebt), nil
	case key.Matches(msg, s.keys.Income):
		return s.setCategory(ledger.CategoryIncome), nil
	case key.Matches(msg, s.keys.Expense):
		return s.setCategory(ledger.CategoryExpense), nil
	}

	var cmd tea.Cmd
	s.table, cmd = s.table.Update(msg)
	return s, cmd
}

func (s dashboardScreen) setCategory(c ledger.Category) dashboardScreen {
	s.category = c
	s.recompute()
	return s
}

// place tells the widgets where they are drawn.
func (s dashboardScreen) place(origin point) dashboardScreen {
	_, monthAt := s.render()
	at := origin.add(monthAt.x, monthAt.y)
	s.month = s.month.SetPosition(at.x, at.y)
	return s
}

func (s dashboardScreen) View() string {
	view, _ := s.render()
	return view
}

// render draws the screen and reports where the month field starts.
func (s dashboardScreen) render() (string, point) {
	muted := lipgloss.NewStyle().Foreground(s.theme.Muted)

	var c column
	c.add(s.theme.Title.Render(fmt.Sprintf("Resumen Financiero %d", s.today().Year)))

	monthLabel := s.theme.Bold.Render("Mes ")
	searchLabel := s.theme.Bold.Render("Buscar ")
	if s.focus == dashSearch {
		searchLabel = lipgloss.NewStyle().Foreground(s.theme.Primary).Bold(true).Render("Buscar ")
	}
	filters := lipgloss.JoinHorizontal(lipgloss.Top,
		monthLabel,
		s.month.View(),
		"   ",
		searchLabel,
		s.search.View(),
	)
	top := c.add(filters)
	monthAt := point{x: lipgloss.Width(monthLabel), y: top}

	c.add(s.renderCategories())
	c.add("")

	if !s.loaded {
		c.add(muted.Italic(true).Render("Cargando movimientos..."))
		return c.String(), monthAt
	}

	c.add(s.summary.View())
	if s.detail != nil {
		c.add(s.detail.View())
	} else {
		c.add(s.table.View())
	}
	return c.String(), monthAt
}

func (s dashboardScreen) renderCategories() string {
	items := []struct {
		binding  key.Binding
		label    string
		category ledger.Category
	}{
		{s.keys.AllEntries, "Todos", ledger.CategoryNone},
		{s.keys.Savings, "Ahorros", ledger.CategorySavings},
		{s.keys.Debt, "Deudas", ledger.CategoryDebt},
		{s.keys.Income, "Ingresos", ledger.CategoryIncome},
		{s.keys.Expense, "Egresos", ledger.CategoryExpense},
	}

	parts := make([]string, 0, len(items))
	for _, it := range items {
		text := fmt.Sprintf("%s %s", it.binding.Help().Key, it.label)
		if it.category == s.category {
			parts = append(parts, s.theme.ActiveTab.Padding(0, 1).Render(text))
		} else {
			parts = append(parts, s.theme.Tab.Padding(0, 1).Render(text))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
