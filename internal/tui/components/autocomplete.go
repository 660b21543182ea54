package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"

	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/tui/themes"
)

const (
	defaultAutocompletePlaceholder = "Escribe algo..."
	defaultNoOptionsText           = "No hay opciones disponibles"
	requiredText                   = "Este campo es obligatorio"
	maxVisibleOptions              = 6
	defaultFieldWidth              = 32
)

// AutocompleteConfig configures an AutocompleteModel.
type AutocompleteConfig struct {
	ID            string
	Placeholder   string
	NoOptionsText string
	Options       []model.Option
	Value         []model.Option
	Width         int
	Multi         bool
	Clearable     bool
	Error         bool
}

// AutocompleteModel is a searchable select with single and multi modes.
// It is controlled: the parent owns the value and is told about changes
// through AutocompleteChangedMsg and BlurMsg.
type AutocompleteModel struct {
	theme     themes.Theme
	keys      WidgetKeyMap
	input     textinput.Model
	id        string
	noOptions string
	options   []model.Option
	visible   []model.Option
	selection []model.Option
	cursor    int
	offset    int
	chip      int
	x         int
	y         int
	width     int
	multi     bool
	clearable bool
	errored   bool
	open      bool
	focused   bool
}

// NewAutocompleteModel creates an autocomplete from cfg.
func NewAutocompleteModel(cfg AutocompleteConfig, theme themes.Theme) AutocompleteModel {
	placeholder := cfg.Placeholder
	if placeholder == "" {
		placeholder = defaultAutocompletePlaceholder
	}
	noOptions := cfg.NoOptionsText
	if noOptions == "" {
		noOptions = defaultNoOptionsText
	}
	width := cfg.Width
	if width <= 0 {
		width = defaultFieldWidth
	}

	input := textinput.New()
	input.Placeholder = placeholder
	input.Prompt = ""
	input.CharLimit = 64
	input.Width = width

	m := AutocompleteModel{
		theme:     theme,
		keys:      DefaultWidgetKeyMap(),
		input:     input,
		id:        cfg.ID,
		noOptions: noOptions,
		options:   append([]model.Option(nil), cfg.Options...),
		chip:      -1,
		width:     width,
		multi:     cfg.Multi,
		clearable: cfg.Clearable,
		errored:   cfg.Error,
	}
	m.visible = m.options
	return m.SetValue(cfg.Value)
}

// Init implements tea.Model.
func (m AutocompleteModel) Init() tea.Cmd {
	return nil
}

// ID returns the name used to tag emitted messages.
func (m AutocompleteModel) ID() string {
	return m.id
}

// Selection returns a copy of the current selection.
func (m AutocompleteModel) Selection() []model.Option {
	return append([]model.Option(nil), m.selection...)
}

// Selected returns the selected option in single mode.
func (m AutocompleteModel) Selected() (model.Option, bool) {
	if len(m.selection) == 0 {
		return model.Option{}, false
	}
	return m.selection[0], true
}

// Query returns the text in the input.
func (m AutocompleteModel) Query() string {
	return m.input.Value()
}

// VisibleOptions returns the options left after filtering.
func (m AutocompleteModel) VisibleOptions() []model.Option {
	return append([]model.Option(nil), m.visible...)
}

// IsOpen reports whether the dropdown is shown.
func (m AutocompleteModel) IsOpen() bool {
	return m.open
}

// Focused reports whether the widget has keyboard focus.
func (m AutocompleteModel) Focused() bool {
	return m.focused
}

// SetValue replaces the selection with an external value. In single mode the
// input shows the label of the selected option, discarding any typed text.
func (m AutocompleteModel) SetValue(value []model.Option) AutocompleteModel {
	if !m.multi && len(value) > 1 {
		value = value[:1]
	}
	m.selection = append([]model.Option(nil), value...)
	m.chip = -1
	if !m.multi {
		if len(m.selection) > 0 {
			m.input.SetValue(m.selection[0].Label())
		} else {
			m.input.SetValue("")
		}
		m.input.CursorEnd()
	}
	return m
}

// SetOptions replaces the option list and shows all of it.
func (m AutocompleteModel) SetOptions(options []model.Option) AutocompleteModel {
	m.options = append([]model.Option(nil), options...)
	m.visible = m.options
	m.cursor, m.offset = 0, 0
	return m
}

// SetError toggles the required-field error state.
func (m AutocompleteModel) SetError(errored bool) AutocompleteModel {
	m.errored = errored
	return m
}

// SetPosition records where the parent rendered the widget, for mouse hit tests.
func (m AutocompleteModel) SetPosition(x, y int) AutocompleteModel {
	m.x, m.y = x, y
	return m
}

// Focus gives the widget keyboard focus.
func (m AutocompleteModel) Focus() (AutocompleteModel, tea.Cmd) {
	m.focused = true
	cmd := m.input.Focus()
	return m, cmd
}

// Blur removes focus and closes the dropdown. A BlurMsg is emitted only if
// the widget was active.
func (m AutocompleteModel) Blur() (AutocompleteModel, tea.Cmd) {
	if !m.focused && !m.open {
		return m, nil
	}
	return m.dismiss()
}

// dismiss closes the widget and emits one BlurMsg whether or not it was active.
func (m AutocompleteModel) dismiss() (AutocompleteModel, tea.Cmd) {
	m.open = false
	m.focused = false
	m.chip = -1
	m.input.Blur()
	return m, emit(BlurMsg{ID: m.id})
}

// Update handles messages.
func (m AutocompleteModel) Update(msg tea.Msg) (AutocompleteModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		return m.handleMouse(msg)
	}

	return m, nil
}

func (m AutocompleteModel) handleKey(msg tea.KeyMsg) (AutocompleteModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.open = false
		m.chip = -1
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.open && m.cursor > 0 {
			m.cursor--
			m.scroll()
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if !m.open {
			m.open = true
			return m, nil
		}
		if m.cursor < len(m.visible)-1 {
			m.cursor++
			m.scroll()
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if !m.open {
			m.open = true
			return m, nil
		}
		if m.cursor < len(m.visible) {
			return m.selectOption(m.visible[m.cursor])
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		if m.clearable {
			return m.clear()
		}
		return m, nil
	}

	if m.multi && m.input.Value() == "" && len(m.selection) > 0 {
		switch {
		case key.Matches(msg, m.keys.Left):
			if m.chip < 0 {
				m.chip = len(m.selection) - 1
			} else if m.chip > 0 {
				m.chip--
			}
			return m, nil

		case key.Matches(msg, m.keys.Right):
			if m.chip >= 0 {
				m.chip++
				if m.chip >= len(m.selection) {
					m.chip = -1
				}
			}
			return m, nil

		case key.Matches(msg, m.keys.Delete):
			if m.chip >= 0 {
				return m.removeChip(m.chip)
			}
			return m, nil

		case key.Matches(msg, m.keys.Backspace):
			i := m.chip
			if i < 0 {
				i = len(m.selection) - 1
			}
			return m.removeChip(i)
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.chip = -1
		m.filter(m.input.Value())
		m.open = true
	}
	return m, cmd
}

func (m AutocompleteModel) handleMouse(msg tea.MouseMsg) (AutocompleteModel, tea.Cmd) {
	row, col := msg.Y-m.y, msg.X-m.x
	if !m.contains(row, col) {
		return m.dismiss()
	}

	var cmd tea.Cmd
	if !m.focused {
		m, cmd = m.Focus()
	}

	if row == 0 {
		return m.clickField(col, cmd)
	}

	top := m.dropdownTop()
	if !m.open || row < top {
		return m, cmd
	}
	i := m.offset + row - top
	if i < len(m.visible) {
		m.cursor = i
		next, selCmd := m.selectOption(m.visible[i])
		return next, tea.Batch(cmd, selCmd)
	}
	return m, cmd
}

func (m AutocompleteModel) clickField(col int, focusCmd tea.Cmd) (AutocompleteModel, tea.Cmd) {
	width := lipgloss.Width(m.renderField())
	switch {
	case col == width-1:
		m.open = !m.open
		return m, focusCmd
	case m.showClear() && col == width-3:
		next, cmd := m.clear()
		return next, tea.Batch(focusCmd, cmd)
	}

	if m.multi {
		pos := 0
		for i, chip := range m.renderChips() {
			w := lipgloss.Width(chip)
			if col >= pos+w-3 && col < pos+w-1 {
				next, cmd := m.removeChip(i)
				return next, tea.Batch(focusCmd, cmd)
			}
			pos += w + 1
		}
	}

	m.open = true
	return m, focusCmd
}

// contains reports whether a point relative to the widget's origin falls on it.
func (m AutocompleteModel) contains(row, col int) bool {
	if row < 0 || col < 0 {
		return false
	}
	view := m.View()
	return row < lipgloss.Height(view) && col < lipgloss.Width(view)
}

func (m AutocompleteModel) selectOption(opt model.Option) (AutocompleteModel, tea.Cmd) {
	if m.multi {
		if i := m.indexOf(opt); i >= 0 {
			m.selection = append(m.selection[:i:i], m.selection[i+1:]...)
		} else {
			m.selection = append(m.selection, opt)
		}
		return m, emit(AutocompleteChangedMsg{ID: m.id, Selection: m.Selection()})
	}

	m.selection = []model.Option{opt}
	m.input.SetValue(opt.Label())
	m.input.CursorEnd()
	m.open = false
	return m, tea.Sequence(
		emit(AutocompleteChangedMsg{ID: m.id, Selection: m.Selection()}),
		emit(BlurMsg{ID: m.id}),
	)
}

func (m AutocompleteModel) removeChip(i int) (AutocompleteModel, tea.Cmd) {
	if i < 0 || i >= len(m.selection) {
		return m, nil
	}
	m.selection = append(m.selection[:i:i], m.selection[i+1:]...)
	m.chip = -1
	m.focused = true
	focusCmd := m.input.Focus()
	return m, tea.Batch(
		focusCmd,
		emit(AutocompleteChangedMsg{ID: m.id, Selection: m.Selection()}),
	)
}

func (m AutocompleteModel) clear() (AutocompleteModel, tea.Cmd) {
	m.selection = nil
	m.chip = -1
	m.input.SetValue("")
	m.visible = m.options
	m.cursor, m.offset = 0, 0
	return m, emit(AutocompleteChangedMsg{ID: m.id, Cleared: true})
}

func (m AutocompleteModel) indexOf(opt model.Option) int {
	for i, s := range m.selection {
		if s.Key() == opt.Key() {
			return i
		}
	}
	return -1
}

func (m *AutocompleteModel) filter(query string) {
	m.cursor, m.offset = 0, 0
	if strings.TrimSpace(query) == "" {
		m.visible = m.options
		return
	}
	fold := cases.Fold()
	needle := fold.String(query)
	m.visible = nil
	for _, opt := range m.options {
		if strings.Contains(fold.String(opt.Label()), needle) {
			m.visible = append(m.visible, opt)
		}
	}
}

func (m *AutocompleteModel) scroll() {
	switch {
	case m.cursor < m.offset:
		m.offset = m.cursor
	case m.cursor >= m.offset+maxVisibleOptions:
		m.offset = m.cursor - maxVisibleOptions + 1
	}
}

func (m AutocompleteModel) showClear() bool {
	return m.clearable && len(m.selection) > 0
}

func (m AutocompleteModel) dropdownTop() int {
	if m.errored {
		return 2
	}
	return 1
}

// View renders the field, the error line and the dropdown.
func (m AutocompleteModel) View() string {
	lines := []string{m.renderField()}
	if m.errored {
		lines = append(lines, m.theme.StatusError.Render(requiredText))
	}
	if m.open {
		lines = append(lines, m.renderDropdown()...)
	}
	return strings.Join(lines, "\n")
}

func (m AutocompleteModel) renderChips() []string {
	chips := make([]string, 0, len(m.selection))
	for i, opt := range m.selection {
		style := m.theme.Selected
		if i == m.chip {
			style = m.theme.Highlighted
		}
		chips = append(chips, style.Render(fmt.Sprintf(" %s × ", Truncate(opt.Label(), 18))))
	}
	return chips
}

func (m AutocompleteModel) renderField() string {
	var parts []string
	if m.multi {
		parts = append(parts, m.renderChips()...)
	}
	parts = append(parts, m.input.View())

	field := strings.Join(parts, " ")
	if m.errored {
		field = lipgloss.NewStyle().Foreground(m.theme.Error).Render(field)
	}

	clearMark := " "
	if m.showClear() {
		clearMark = "✕"
	}
	chevron := "▾"
	if m.open {
		chevron = "▴"
	}
	muted := lipgloss.NewStyle().Foreground(m.theme.Muted)
	return field + " " + muted.Render(clearMark) + " " + muted.Render(chevron)
}

func (m AutocompleteModel) renderDropdown() []string {
	if len(m.visible) == 0 {
		return []string{m.theme.StatusPending.Render("  " + m.noOptions)}
	}

	end := min(m.offset+maxVisibleOptions, len(m.visible))
	rows := make([]string, 0, end-m.offset)
	for i := m.offset; i < end; i++ {
		opt := m.visible[i]
		mark := " "
		if m.indexOf(opt) >= 0 {
			mark = "✓"
		}
		text := fmt.Sprintf(" %-*s %s ", m.width-3, Truncate(opt.Label(), m.width-3), mark)
		style := m.theme.Normal
		if i == m.cursor {
			style = m.theme.Selected
		}
		rows = append(rows, style.Render(text))
	}
	return rows
}
