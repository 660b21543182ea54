package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/rinde/internal/ledger"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/service"
	"github.com/Veraticus/rinde/internal/tui/components"
	"github.com/Veraticus/rinde/internal/tui/themes"
)

const (
	rangeFieldID    = "range"
	subtypesFieldID = "subtypes"
	maxSubtypeRows  = 8
)

type reportField int

const (
	reportRange reportField = iota
	reportSubtypes
	reportResults
	reportFieldCount
)

// reportScreen totals the entries of a date range, optionally for some subtypes only.
type reportScreen struct {
	theme     themes.Theme
	keys      KeyMap
	today     func() model.Date
	rng       components.DatePickerModel
	subtypes  components.AutocompleteModel
	summary   components.SummaryModel
	all       []model.Entry
	start     model.Date
	end       model.Date
	focus     reportField
	canExport bool
	exporting bool
}

func newReportScreen(theme themes.Theme, keys KeyMap, today func() model.Date, canExport bool) reportScreen {
	now := today()
	start := now.FirstOfMonth()

	return reportScreen{
		theme:     theme,
		keys:      keys,
		today:     today,
		start:     start,
		end:       now,
		focus:     reportResults,
		canExport: canExport,
		rng: components.NewDatePickerModel(components.DatePickerConfig{
			ID:          rangeFieldID,
			Placeholder: "Selecciona un rango",
			Value:       start.String() + " to " + now.String(),
			Range:       true,
			Today:       today,
		}, theme),
		subtypes: components.NewAutocompleteModel(components.AutocompleteConfig{
			ID:          subtypesFieldID,
			Placeholder: "Todos los subtipos",
			Options:     model.SubtypeOptions,
			Width:       40,
			Multi:       true,
			Clearable:   true,
		}, theme),
		summary: components.NewSummaryModel(theme),
	}
}

func (s reportScreen) setEntries(all []model.Entry) reportScreen {
	s.all = all
	s.summary = s.summary.SetSummary(s.report("", time.Time{}).Summary)
	return s
}

// report builds the report for the chosen range and subtypes.
func (s reportScreen) report(owner string, now time.Time) service.LedgerReport {
	entries := ledger.FilterBySubtypes(s.all, s.subtypes.Selection())
	return service.NewLedgerReport(owner, service.DateRange{Start: s.start, End: s.end}, entries, now)
}

func (s reportScreen) capturing() bool {
	return s.focus != reportResults
}

func (s reportScreen) resize(width, height int) reportScreen {
	s.summary, _ = s.summary.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return s
}

func (s reportScreen) setFocus(f reportField) (reportScreen, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	switch s.focus {
	case reportRange:
		s.rng, cmd = s.rng.Blur()
		cmds = append(cmds, cmd)
	case reportSubtypes:
		s.subtypes, cmd = s.subtypes.Blur()
		cmds = append(cmds, cmd)
	}

	s.focus = (f + reportFieldCount) % reportFieldCount
	switch s.focus {
	case reportRange:
		s.rng, cmd = s.rng.Focus()
		cmds = append(cmds, cmd)
	case reportSubtypes:
		s.subtypes, cmd = s.subtypes.Focus()
		cmds = append(cmds, cmd)
	}
	return s, tea.Batch(cmds...)
}

func (s reportScreen) Update(msg tea.Msg) (reportScreen, tea.Cmd) {
	switch msg := msg.(type) {
	case components.DateRangeMsg:
		if msg.ID != rangeFieldID {
			return s, nil
		}
		s.start, s.end = msg.Start, msg.End
		return s.setEntries(s.all), nil

	case components.AutocompleteChangedMsg:
		if msg.ID != subtypesFieldID {
			return s, nil
		}
		return s.setEntries(s.all), nil

	case components.BlurMsg:
		if msg.ID == rangeFieldID && s.focus == reportRange {
			return s.setFocus(reportSubtypes)
		}
		return s, nil

	case tea.MouseMsg:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		s.rng, cmd = s.rng.Update(msg)
		cmds = append(cmds, cmd)
		s.subtypes, cmd = s.subtypes.Update(msg)
		cmds = append(cmds, cmd)
		switch {
		case s.rng.Focused():
			s.focus = reportRange
		case s.subtypes.Focused():
			s.focus = reportSubtypes
		}
		return s, tea.Batch(cmds...)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s reportScreen) handleKey(msg tea.KeyMsg) (reportScreen, tea.Cmd) {
	switch {
	case key.Matches(msg, s.keys.NextField):
		return s.setFocus(s.focus + 1)
	case key.Matches(msg, s.keys.PrevField):
		return s.setFocus(s.focus - 1)
	case msg.String() == "ctrl+e", s.focus == reportResults && key.Matches(msg, s.keys.Export):
		return s.requestExport()
	}

	var cmd tea.Cmd
	switch s.focus {
	case reportRange:
		if msg.Type == tea.KeyEsc && !s.rng.IsOpen() {
			return s.setFocus(reportResults)
		}
		s.rng, cmd = s.rng.Update(msg)
	case reportSubtypes:
		if msg.Type == tea.KeyEsc && !s.subtypes.IsOpen() {
			return s.setFocus(reportResults)
		}
		s.subtypes, cmd = s.subtypes.Update(msg)
	}
	return s, cmd
}

func (s reportScreen) requestExport() (reportScreen, tea.Cmd) {
	if !s.canExport || s.exporting {
		return s, nil
	}
	s.exporting = true
	return s, send(exportRequestedMsg{})
}

// exported is called when the export finished.
func (s reportScreen) exported() reportScreen {
	s.exporting = false
	return s
}

// place tells the widgets where they are drawn.
func (s reportScreen) place(origin point) reportScreen {
	_, rangeAt, subtypesAt := s.render()
	at := origin.add(rangeAt.x, rangeAt.y)
	s.rng = s.rng.SetPosition(at.x, at.y)
	at = origin.add(subtypesAt.x, subtypesAt.y)
	s.subtypes = s.subtypes.SetPosition(at.x, at.y)
	return s
}

func (s reportScreen) View() string {
	view, _, _ := s.render()
	return view
}

func (s reportScreen) render() (string, point, point) {
	muted := lipgloss.NewStyle().Foreground(s.theme.Muted)
	label := func(text string, f reportField) string {
		style := s.theme.Bold.Width(10)
		if s.focus == f {
			style = style.Foreground(s.theme.Primary)
		}
		return style.Render(text)
	}

	var c column
	c.add(s.theme.Title.Render("Reporte"))

	rangeLabel := label("Rango", reportRange)
	top := c.add(lipgloss.JoinHorizontal(lipgloss.Top, rangeLabel, s.rng.View()))
	rangeAt := point{x: lipgloss.Width(rangeLabel), y: top}

	subtypesLabel := label("Subtipos", reportSubtypes)
	top = c.add(lipgloss.JoinHorizontal(lipgloss.Top, subtypesLabel, s.subtypes.View()))
	subtypesAt := point{x: lipgloss.Width(subtypesLabel), y: top}
	c.add("")

	report := s.report("", time.Time{})
	c.add(s.summary.View())
	c.add(s.renderSubtypes(report.BySubtype))
	c.add("")

	switch {
	case s.exporting:
		c.add(s.theme.StatusPending.Render("Exportando a Google Sheets..."))
	case s.canExport:
		c.add(muted.Render(fmt.Sprintf("%d movimientos · x para exportar a Google Sheets", len(report.Entries))))
	default:
		c.add(muted.Render(fmt.Sprintf("%d movimientos · exportación a Sheets no configurada", len(report.Entries))))
	}
	return c.String(), rangeAt, subtypesAt
}

func (s reportScreen) renderSubtypes(totals []ledger.SubtypeTotal) string {
	if len(totals) == 0 {
		return s.theme.StatusPending.Render("Sin movimientos en el rango")
	}

	lines := []string{s.theme.Bold.Render(fmt.Sprintf("%-20s %-12s %6s %14s", "Subtipo", "Tipo", "Cant.", "Total"))}
	for i, t := range totals {
		if i == maxSubtypeRows {
			lines = append(lines, lipgloss.NewStyle().Foreground(s.theme.Muted).Render(
				fmt.Sprintf("… y %d más", len(totals)-maxSubtypeRows)))
			break
		}
		lines = append(lines, fmt.Sprintf("%-20s %-12s %6d %14s",
			components.Truncate(t.Subtype, 20), t.Type.Label(), t.Count, ledger.FormatCLP(t.Amount)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
