package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/rinde/internal/gateway"
	"github.com/Veraticus/rinde/internal/ledger"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/tui/components"
	"github.com/Veraticus/rinde/internal/tui/themes"
)

const (
	subtypeFieldID  = "subtype"
	dateFieldID     = "date"
	maxAmountDigits = 12
)

type formField int

const (
	formTabs formField = iota
	formAmount
	formDate
	formSubtype
	formDescription
	formSubmit
	formFieldCount
)

// subtypeLabels names the subtype field for each tab.
var subtypeLabels = map[model.EntryType]string{
	model.TypeIncome:  "Tipo de Ingreso",
	model.TypeExpense: "Tipo de Gasto",
	model.TypeDebt:    "Tipo de Deuda",
	model.TypeSavings: "Tipo de Ahorro",
}

// formScreen records a new entry.
type formScreen struct {
	theme       themes.Theme
	keys        KeyMap
	today       func() model.Date
	subtype     components.AutocompleteModel
	date        components.DatePickerModel
	description textinput.Model
	amount      string
	tabSpans    [][2]int
	origin      point
	tabsRow     int
	buttonRow   int
	tab         int
	focus       formField
	submitted   bool
	busy        bool
}

func newFormScreen(theme themes.Theme, keys KeyMap, today func() model.Date) formScreen {
	description := textinput.New()
	description.Prompt = ""
	description.Width = 48
	description.CharLimit = 200

	s := formScreen{
		theme:       theme,
		keys:        keys,
		today:       today,
		description: description,
		focus:       formAmount,
		subtype: components.NewAutocompleteModel(components.AutocompleteConfig{
			ID:            subtypeFieldID,
			Placeholder:   "Selecciona una opción...",
			NoOptionsText: "No se encontraron resultados",
			Clearable:     true,
		}, theme),
		date: components.NewDatePickerModel(components.DatePickerConfig{
			ID:    dateFieldID,
			Today: today,
		}, theme),
	}
	return s.setTab(0)
}

func (s formScreen) entryType() model.EntryType {
	return model.EntryTypes[s.tab]
}

// setTab switches the entry type. The subtype is cleared and its options narrowed.
func (s formScreen) setTab(i int) formScreen {
	n := len(model.EntryTypes)
	s.tab = ((i % n) + n) % n
	s.subtype = s.subtype.SetOptions(model.SubtypesFor(s.entryType())).SetValue(nil)
	s.description.Placeholder = "Descripción del " + strings.ToLower(s.entryType().Label())
	return s.syncErrors()
}

// draft returns the entry as currently typed.
func (s formScreen) draft() gateway.NewEntry {
	n := gateway.NewEntry{
		Type:        s.entryType(),
		Amount:      s.amount,
		Date:        s.date.Selected(),
		Description: s.description.Value(),
	}
	if opt, ok := s.subtype.Selected(); ok {
		n.Subtype = opt.Value
		if n.Type == model.TypeDebt && opt.Value == model.SubtypeDebtPayment {
			n.Type = model.TypeDebtPayment
		}
	}
	return n
}

// fieldErrors returns the problems to show. Nothing is flagged before the first submit.
func (s formScreen) fieldErrors() gateway.ValidationErrors {
	if !s.submitted {
		return nil
	}
	errs, _ := s.draft().Validate().(gateway.ValidationErrors)
	return errs
}

func (s formScreen) syncErrors() formScreen {
	errs := s.fieldErrors()
	_, subtypeErr := errs[gateway.FieldSubtype]
	_, dateErr := errs[gateway.FieldDate]
	s.subtype = s.subtype.SetError(subtypeErr)
	s.date = s.date.SetError(dateErr)
	return s
}

func (s formScreen) capturing() bool {
	return s.focus != formTabs && s.focus != formSubmit
}

func (s formScreen) setFocus(f formField) (formScreen, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	switch s.focus {
	case formSubtype:
		s.subtype, cmd = s.subtype.Blur()
		cmds = append(cmds, cmd)
	case formDate:
		s.date, cmd = s.date.Blur()
		cmds = append(cmds, cmd)
	case formDescription:
		s.description.Blur()
	}

	s.focus = (f + formFieldCount) % formFieldCount
	switch s.focus {
	case formSubtype:
		s.subtype, cmd = s.subtype.Focus()
		cmds = append(cmds, cmd)
	case formDate:
		s.date, cmd = s.date.Focus()
		cmds = append(cmds, cmd)
	case formDescription:
		cmds = append(cmds, s.description.Focus())
	}
	return s, tea.Batch(cmds...)
}

func (s formScreen) Update(msg tea.Msg) (formScreen, tea.Cmd) {
	switch msg := msg.(type) {
	case components.AutocompleteChangedMsg, components.DateChangedMsg:
		return s.syncErrors(), nil

	case components.BlurMsg:
		switch {
		case msg.ID == subtypeFieldID && s.focus == formSubtype,
			msg.ID == dateFieldID && s.focus == formDate:
			return s.setFocus(s.focus + 1)
		}
		return s, nil

	case tea.MouseMsg:
		return s.handleMouse(msg)

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s formScreen) handleKey(msg tea.KeyMsg) (formScreen, tea.Cmd) {
	switch {
	case key.Matches(msg, s.keys.Submit):
		return s.submit()
	case key.Matches(msg, s.keys.NextField):
		return s.setFocus(s.focus + 1)
	case key.Matches(msg, s.keys.PrevField):
		return s.setFocus(s.focus - 1)
	}

	var cmd tea.Cmd
	switch s.focus {
	case formTabs:
		switch msg.String() {
		case "left", "h":
			return s.setTab(s.tab - 1), nil
		case "right", "l":
			return s.setTab(s.tab + 1), nil
		case "enter", "down":
			return s.setFocus(formAmount)
		}

	case formAmount:
		switch msg.Type {
		case tea.KeyEnter:
			return s.setFocus(formDate)
		case tea.KeyBackspace:
			if s.amount != "" {
				s.amount = s.amount[:len(s.amount)-1]
			}
		case tea.KeyRunes:
			for _, r := range msg.Runes {
				if unicode.IsDigit(r) && len(s.amount) < maxAmountDigits {
					s.amount += string(r)
				}
			}
		}
		return s.syncErrors(), nil

	case formDate:
		s.date, cmd = s.date.Update(msg)
		return s, cmd

	case formSubtype:
		s.subtype, cmd = s.subtype.Update(msg)
		return s, cmd

	case formDescription:
		if msg.Type == tea.KeyEnter {
			return s.setFocus(formSubmit)
		}
		s.description, cmd = s.description.Update(msg)
		return s.syncErrors(), cmd

	case formSubmit:
		if msg.Type == tea.KeyEnter {
			return s.submit()
		}
	}
	return s, nil
}

func (s formScreen) handleMouse(msg tea.MouseMsg) (formScreen, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	s.subtype, cmd = s.subtype.Update(msg)
	cmds = append(cmds, cmd)
	s.date, cmd = s.date.Update(msg)
	cmds = append(cmds, cmd)

	switch {
	case s.subtype.Focused() && s.focus != formSubtype:
		s.focus = formSubtype
		s.description.Blur()
	case s.date.Focused() && s.focus != formDate:
		s.focus = formDate
		s.description.Blur()
	}

	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return s, tea.Batch(cmds...)
	}
	col, row := msg.X-s.origin.x, msg.Y-s.origin.y
	switch row {
	case s.tabsRow:
		for i, span := range s.tabSpans {
			if col >= span[0] && col < span[1] {
				s = s.setTab(i)
				break
			}
		}
	case s.buttonRow:
		var submitCmd tea.Cmd
		s, submitCmd = s.submit()
		cmds = append(cmds, submitCmd)
	}
	return s, tea.Batch(cmds...)
}

// submit validates the draft and hands it to the application.
func (s formScreen) submit() (formScreen, tea.Cmd) {
	if s.busy {
		return s, nil
	}
	s.submitted = true
	s = s.syncErrors()

	errs := s.fieldErrors()
	if len(errs) > 0 {
		for _, f := range []struct {
			name  string
			field formField
		}{
			{gateway.FieldAmount, formAmount},
			{gateway.FieldDate, formDate},
			{gateway.FieldSubtype, formSubtype},
			{gateway.FieldDescription, formDescription},
		} {
			if _, bad := errs[f.name]; bad {
				return s.setFocus(f.field)
			}
		}
		return s, nil
	}

	s.busy = true
	return s, send(submitEntryMsg{entry: s.draft()})
}

// done clears the form after the request finished, whatever its outcome.
func (s formScreen) done() (formScreen, tea.Cmd) {
	s.busy = false
	s.submitted = false
	s.amount = ""
	s.description.Reset()
	s.subtype = s.subtype.SetValue(nil)
	s.date = s.date.SetValue("")
	s = s.syncErrors()
	return s.setFocus(formAmount)
}

// place tells the widgets where they are drawn.
func (s formScreen) place(origin point) formScreen {
	_, l := s.render()
	s.origin = origin
	s.tabsRow = l.tabsRow
	s.buttonRow = l.buttonRow
	s.tabSpans = l.tabSpans
	at := origin.add(0, l.dateRow)
	s.date = s.date.SetPosition(at.x, at.y)
	at = origin.add(0, l.subtypeRow)
	s.subtype = s.subtype.SetPosition(at.x, at.y)
	return s
}

type formLayout struct {
	tabSpans   [][2]int
	tabsRow    int
	dateRow    int
	subtypeRow int
	buttonRow  int
}

func (s formScreen) View() string {
	view, _ := s.render()
	return view
}

func (s formScreen) render() (string, formLayout) {
	var l formLayout
	errs := s.fieldErrors()
	errStyle := lipgloss.NewStyle().Foreground(s.theme.Error)
	muted := lipgloss.NewStyle().Foreground(s.theme.Muted)

	label := func(text string, f formField) string {
		if s.focus == f {
			return lipgloss.NewStyle().Foreground(s.theme.Primary).Bold(true).Render(text)
		}
		return s.theme.Bold.Render(text)
	}
	errLine := func(field string) string {
		if _, bad := errs[field]; bad {
			return errStyle.Render(gateway.MsgRequired)
		}
		return " "
	}

	var c column
	c.add(s.theme.Title.Render("Control Financiero"))

	tabs, spans := s.renderTabs()
	l.tabsRow = c.add(tabs)
	l.tabSpans = spans
	c.add("")

	amount := ledger.FormatAmountInput(s.amount)
	if amount == "" {
		amount = muted.Render("$ 0")
	}
	if s.focus == formAmount {
		amount += lipgloss.NewStyle().Reverse(true).Render(" ")
	}
	c.add(label("Monto", formAmount))
	c.add(amount)
	c.add(errLine(gateway.FieldAmount))

	c.add(label("Fecha", formDate))
	l.dateRow = c.add(s.date.View())

	c.add(label(subtypeLabels[s.entryType()], formSubtype))
	l.subtypeRow = c.add(s.subtype.View())

	c.add(label("Descripción", formDescription))
	c.add(s.description.View())
	c.add(errLine(gateway.FieldDescription))

	l.buttonRow = c.add(s.renderButton())
	return c.String(), l
}

// renderTabs draws the type tabs and returns the columns each one covers.
func (s formScreen) renderTabs() (string, [][2]int) {
	parts := make([]string, 0, len(model.EntryTypes))
	spans := make([][2]int, 0, len(model.EntryTypes))
	x := 0
	for i, t := range model.EntryTypes {
		text := themes.GetTypeIcon(t.Label()) + " " + t.Label()
		style := s.theme.Tab
		if i == s.tab {
			style = s.theme.ActiveTab
		}
		if s.focus == formTabs && i == s.tab {
			style = style.Underline(true)
		}
		rendered := style.Render(text)
		w := lipgloss.Width(rendered)
		spans = append(spans, [2]int{x, x + w})
		x += w
		parts = append(parts, rendered)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...), spans
}

func (s formScreen) renderButton() string {
	label := "+ Registrar " + strings.TrimSuffix(s.entryType().Label(), "s")
	switch {
	case s.busy:
		return lipgloss.NewStyle().Foreground(s.theme.Muted).Render("Registrando...")
	case s.focus == formSubmit:
		return s.theme.Button.Render(label)
	default:
		return s.theme.Button.Background(s.theme.Border).Render(label)
	}
}
