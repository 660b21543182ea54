package components

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/tui/themes"
)

const (
	defaultDatePlaceholder = "Selecciona una fecha"
	rangeSeparator         = " to "
	rangeDisplaySeparator  = " - "
	maskedDateLen          = 10
	calendarCellWidth      = 4
	calendarWidth          = 7 * calendarCellWidth
)

var (
	monthNames = [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	weekdayNames = [...]string{"Dom", "Lun", "Mar", "Mié", "Jue", "Vie", "Sáb"}
)

// InputMethod tells how a date was entered.
type InputMethod string

// Input methods.
const (
	InputCalendar InputMethod = "calendar"
	InputManual   InputMethod = "manual"
)

// DateDetails is the structured payload of DateDetailedMsg. Single mode fills
// Date and Formatted; range mode fills Start, End and their formatted forms.
type DateDetails struct {
	Date           model.Date
	Start          model.Date
	End            model.Date
	Formatted      string
	FormattedStart string
	FormattedEnd   string
	DisplayValue   string
	Input          InputMethod
	IsComplete     bool
}

// DayCell is one cell of the calendar grid. Day is zero for leading blanks.
type DayCell struct {
	Day        int
	Today      bool
	Selected   bool
	RangeStart bool
	RangeEnd   bool
	InRange    bool
}

// DatePickerConfig configures a DatePickerModel.
type DatePickerConfig struct {
	Today       func() model.Date
	ID          string
	Placeholder string
	Value       string
	Range       bool
	Error       bool
}

// DatePickerModel is a controlled date field with a popup calendar, in single
// date or date range mode.
type DatePickerModel struct {
	theme     themes.Theme
	today     func() model.Date
	keys      WidgetKeyMap
	input     textinput.Model
	id        string
	visible   model.Date
	selected  model.Date
	start     model.Date
	end       model.Date
	cursor    model.Date
	x         int
	y         int
	rangeMode bool
	errored   bool
	open      bool
	focused   bool
}

// NewDatePickerModel creates a date picker from cfg.
func NewDatePickerModel(cfg DatePickerConfig, theme themes.Theme) DatePickerModel {
	placeholder := cfg.Placeholder
	if placeholder == "" {
		placeholder = defaultDatePlaceholder
	}
	today := cfg.Today
	if today == nil {
		today = model.Today
	}

	input := textinput.New()
	input.Placeholder = placeholder
	input.Prompt = ""
	input.Width = 2*maskedDateLen + len(rangeDisplaySeparator)

	m := DatePickerModel{
		theme:     theme,
		today:     today,
		keys:      DefaultWidgetKeyMap(),
		input:     input,
		id:        cfg.ID,
		rangeMode: cfg.Range,
		errored:   cfg.Error,
	}
	m.reset()
	return m.SetValue(cfg.Value)
}

// Init implements tea.Model.
func (m DatePickerModel) Init() tea.Cmd {
	return nil
}

// ID returns the name used to tag emitted messages.
func (m DatePickerModel) ID() string {
	return m.id
}

// Text returns what the field shows.
func (m DatePickerModel) Text() string {
	return m.input.Value()
}

// VisibleMonth returns the first day of the calendar page shown.
func (m DatePickerModel) VisibleMonth() model.Date {
	return m.visible
}

// Selected returns the single-mode selection.
func (m DatePickerModel) Selected() model.Date {
	return m.selected
}

// Range returns the range-mode selection. End is zero while only the start is picked.
func (m DatePickerModel) Range() (start, end model.Date) {
	return m.start, m.end
}

// IsOpen reports whether the calendar is shown.
func (m DatePickerModel) IsOpen() bool {
	return m.open
}

// Focused reports whether the field has keyboard focus.
func (m DatePickerModel) Focused() bool {
	return m.focused
}

// SetError toggles the required-field error state.
func (m DatePickerModel) SetError(errored bool) DatePickerModel {
	m.errored = errored
	return m
}

// SetPosition records where the parent rendered the widget, for mouse hit tests.
func (m DatePickerModel) SetPosition(x, y int) DatePickerModel {
	m.x, m.y = x, y
	return m
}

// SetValue rehydrates the widget from an external value: "start to end" in
// range mode, an ISO date otherwise. An empty value resets the widget; an
// unparseable one is logged and also resets it.
func (m DatePickerModel) SetValue(value string) DatePickerModel {
	m.reset()
	value = strings.TrimSpace(value)
	if value == "" {
		return m
	}

	if m.rangeMode {
		startRaw, endRaw, ok := strings.Cut(value, rangeSeparator)
		if !ok {
			slog.Warn("Ignoring date range without separator", "picker", m.id, "value", value)
			return m
		}
		start, errStart := model.ParseDate(startRaw)
		end, errEnd := model.ParseDate(endRaw)
		if errStart != nil || errEnd != nil {
			slog.Warn("Ignoring unparseable date range", "picker", m.id, "value", value)
			return m
		}
		m.start, m.end = start, end
		m.visible = start.FirstOfMonth()
		m.cursor = start
		m.setText(rangeDisplay(start, end))
		return m
	}

	date, err := model.ParseDate(value)
	if err != nil {
		slog.Warn("Ignoring unparseable date", "picker", m.id, "value", value, "error", err)
		return m
	}
	m.selected = date
	m.visible = date.FirstOfMonth()
	m.cursor = date
	m.setText(date.Display())
	return m
}

// Focus gives the field keyboard focus.
func (m DatePickerModel) Focus() (DatePickerModel, tea.Cmd) {
	m.focused = true
	cmd := m.input.Focus()
	return m, cmd
}

// Blur removes focus and closes the calendar. A BlurMsg is emitted only if
// the widget was active.
func (m DatePickerModel) Blur() (DatePickerModel, tea.Cmd) {
	if !m.focused && !m.open {
		return m, nil
	}
	m.open = false
	m.focused = false
	m.input.Blur()
	return m, emit(BlurMsg{ID: m.id})
}

// Update handles messages.
func (m DatePickerModel) Update(msg tea.Msg) (DatePickerModel, tea.Cmd) {
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

func (m DatePickerModel) handleKey(msg tea.KeyMsg) (DatePickerModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.open = false
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if !m.open {
			m.open = true
			return m, nil
		}
		return m.pick(m.cursor, InputCalendar)

	case key.Matches(msg, m.keys.PrevYear):
		m.navigate(-1, true)
		return m, nil
	case key.Matches(msg, m.keys.NextYear):
		m.navigate(1, true)
		return m, nil
	case key.Matches(msg, m.keys.PrevMonth):
		m.navigate(-1, false)
		return m, nil
	case key.Matches(msg, m.keys.NextMonth):
		m.navigate(1, false)
		return m, nil

	case key.Matches(msg, m.keys.Backspace):
		if m.rangeMode && !m.end.IsZero() {
			// A completed range is edited as a whole.
			m.start, m.end = model.Date{}, model.Date{}
			m.setText("")
			return m, nil
		}
		digits := m.typedDigits()
		if len(digits) > 0 {
			digits = digits[:len(digits)-1]
		}
		m.setText(MaskDate(digits))
		return m, nil
	}

	if m.open {
		switch {
		case key.Matches(msg, m.keys.Left):
			m.moveCursor(-1)
			return m, nil
		case key.Matches(msg, m.keys.Right):
			m.moveCursor(1)
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.moveCursor(-7)
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.moveCursor(7)
			return m, nil
		}
	} else if key.Matches(msg, m.keys.Down) {
		m.open = true
		return m, nil
	}

	if msg.Type != tea.KeyRunes {
		return m, nil
	}
	var cmds []tea.Cmd
	for _, r := range msg.Runes {
		if !unicode.IsDigit(r) {
			continue
		}
		var cmd tea.Cmd
		m, cmd = m.typeDigit(r)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// typeDigit appends a digit to the masked text and applies it once the text
// holds a full date.
func (m DatePickerModel) typeDigit(r rune) (DatePickerModel, tea.Cmd) {
	digits := m.typedDigits()
	if len(digits) >= 8 {
		if !m.rangeMode {
			return m, nil
		}
		// The start is already in; the next digit begins the end date.
		digits = ""
	}
	masked := MaskDate(digits + string(r))
	m.setText(masked)
	if len(masked) != maskedDateLen {
		return m, nil
	}

	date, err := model.ParseDisplayDate(masked)
	if err != nil {
		slog.Debug("Typed date does not exist", "picker", m.id, "text", masked)
		return m, nil
	}
	return m.pick(date, InputManual)
}

// typedDigits returns the digits of the field text, or none when the field
// shows a complete range.
func (m DatePickerModel) typedDigits() string {
	text := m.input.Value()
	if strings.Contains(text, rangeDisplaySeparator) {
		return ""
	}
	var b strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MaskDate formats up to eight digits as DD/MM/YYYY, inserting the
// separators as soon as the digits reach them.
func MaskDate(digits string) string {
	if len(digits) > 8 {
		digits = digits[:8]
	}
	switch {
	case len(digits) <= 2:
		return digits
	case len(digits) <= 4:
		return digits[:2] + "/" + digits[2:]
	default:
		return digits[:2] + "/" + digits[2:4] + "/" + digits[4:]
	}
}

// pick applies a chosen day. Calendar picks that complete a value close the
// calendar and blur; manual entry keeps the field as it is.
func (m DatePickerModel) pick(day model.Date, method InputMethod) (DatePickerModel, tea.Cmd) {
	m.cursor = day

	if m.rangeMode {
		if m.start.IsZero() || !m.end.IsZero() {
			m.start = day
			m.end = model.Date{}
			if method == InputManual {
				m.visible = day.FirstOfMonth()
			}
			return m, nil
		}

		start, end := m.start, day
		if day.Before(m.start) {
			start, end = day, m.start
		}
		m.start, m.end = start, end
		display := rangeDisplay(start, end)
		m.setText(display)
		if method == InputManual {
			m.visible = start.FirstOfMonth()
		}

		value := start.String() + rangeSeparator + end.String()
		cmds := []tea.Cmd{
			emit(DateRangeMsg{ID: m.id, Start: start, End: end}),
			emit(DateChangedMsg{ID: m.id, Value: value}),
			emit(DateDetailedMsg{ID: m.id, Value: value, Details: DateDetails{
				Start:          start,
				End:            end,
				FormattedStart: start.String(),
				FormattedEnd:   end.String(),
				IsComplete:     true,
				DisplayValue:   display,
				Input:          method,
			}}),
		}
		if method == InputCalendar {
			m.open = false
			cmds = append(cmds, emit(BlurMsg{ID: m.id}))
		}
		return m, tea.Sequence(cmds...)
	}

	m.selected = day
	m.visible = day.FirstOfMonth()
	m.setText(day.Display())

	value := day.String()
	cmds := []tea.Cmd{
		emit(DateChangedMsg{ID: m.id, Value: value}),
		emit(DateDetailedMsg{ID: m.id, Value: value, Details: DateDetails{
			Date:         day,
			Formatted:    value,
			IsComplete:   true,
			DisplayValue: day.Display(),
			Input:        method,
		}}),
	}
	if method == InputCalendar {
		m.open = false
		cmds = append(cmds, emit(BlurMsg{ID: m.id}))
	}
	return m, tea.Sequence(cmds...)
}

// navigate moves the visible month by one month, or by a year when byYear is set.
func (m *DatePickerModel) navigate(step int, byYear bool) {
	if byYear {
		step *= 12
	}
	m.visible = m.visible.AddMonths(step)
	m.cursor = m.cursor.AddMonths(step)
	if m.cursor.Year != m.visible.Year || m.cursor.Month != m.visible.Month {
		m.cursor = m.visible
	}
}

func (m *DatePickerModel) moveCursor(days int) {
	m.cursor = addDays(m.cursor, days)
	m.visible = m.cursor.FirstOfMonth()
}

func (m *DatePickerModel) reset() {
	today := m.today()
	m.selected = model.Date{}
	m.start = model.Date{}
	m.end = model.Date{}
	m.visible = today.FirstOfMonth()
	m.cursor = today
	m.setText("")
}

func (m *DatePickerModel) setText(s string) {
	m.input.SetValue(s)
	m.input.CursorEnd()
}

func addDays(d model.Date, n int) model.Date {
	return model.DateOf(d.Time().AddDate(0, 0, n))
}

func rangeDisplay(start, end model.Date) string {
	return start.Display() + rangeDisplaySeparator + end.Display()
}

// Grid lays out the visible month: one blank cell per weekday before the
// first of the month, Sunday first, then one cell per day.
func (m DatePickerModel) Grid(today model.Date) []DayCell {
	first := m.visible.FirstOfMonth()
	lead := int(first.Weekday())
	days := model.DaysInMonth(first.Year, first.Month)

	cells := make([]DayCell, lead, lead+days)
	for day := 1; day <= days; day++ {
		d := model.Date{Year: first.Year, Month: first.Month, Day: day}
		cells = append(cells, DayCell{
			Day:        day,
			Today:      d == today,
			Selected:   !m.rangeMode && d == m.selected,
			RangeStart: !m.start.IsZero() && d == m.start,
			RangeEnd:   !m.end.IsZero() && d == m.end,
			InRange: !m.start.IsZero() && !m.end.IsZero() &&
				d.Compare(m.start) >= 0 && d.Compare(m.end) <= 0,
		})
	}
	return cells
}

func (m DatePickerModel) handleMouse(msg tea.MouseMsg) (DatePickerModel, tea.Cmd) {
	row, col := msg.Y-m.y, msg.X-m.x

	if row == 0 && col >= 0 && col < lipgloss.Width(m.renderField()) {
		var cmd tea.Cmd
		if !m.focused {
			m, cmd = m.Focus()
		}
		m.open = !m.open
		return m, cmd
	}

	top := m.calendarTop()
	if row > 0 && row < top && col >= 0 && col < max(lipgloss.Width(m.renderField()), lipgloss.Width(requiredText)) {
		// The error line belongs to the field.
		return m, nil
	}
	r := row - top
	if !m.open || r < 0 || r >= 2+m.weeks() || col < 0 || col >= calendarWidth {
		return m.Blur()
	}

	switch {
	case r == 0 && col < calendarCellWidth:
		m.navigate(-1, msg.Ctrl)
	case r == 0 && col >= calendarWidth-calendarCellWidth:
		m.navigate(1, msg.Ctrl)
	case r >= 2:
		i := (r-2)*7 + col/calendarCellWidth
		grid := m.Grid(m.today())
		if i < len(grid) && grid[i].Day > 0 {
			day := model.Date{Year: m.visible.Year, Month: m.visible.Month, Day: grid[i].Day}
			return m.pick(day, InputCalendar)
		}
	}
	return m, nil
}

func (m DatePickerModel) weeks() int {
	n := len(m.Grid(model.Date{}))
	return (n + 6) / 7
}

func (m DatePickerModel) calendarTop() int {
	if m.errored {
		return 2
	}
	return 1
}

// View renders the field, the error line and the calendar.
func (m DatePickerModel) View() string {
	lines := []string{m.renderField()}
	if m.errored {
		lines = append(lines, m.theme.StatusError.Render(requiredText))
	}
	if m.open {
		lines = append(lines, m.renderCalendar()...)
	}
	return strings.Join(lines, "\n")
}

func (m DatePickerModel) renderField() string {
	icon := lipgloss.NewStyle().Foreground(m.theme.Muted).Render("◷ ")
	field := m.input.View()
	if m.errored {
		field = lipgloss.NewStyle().Foreground(m.theme.Error).Render(field)
	}
	return icon + field
}

func (m DatePickerModel) renderCalendar() []string {
	title := fmt.Sprintf("%s %d", monthNames[m.visible.Month-1], m.visible.Year)
	nav := lipgloss.NewStyle().Foreground(m.theme.Primary)
	header := nav.Render(" ‹  ") +
		m.theme.Bold.Width(calendarWidth-2*calendarCellWidth).Align(lipgloss.Center).Render(title) +
		nav.Render("  › ")

	var names strings.Builder
	for _, n := range weekdayNames {
		names.WriteString(fmt.Sprintf("%-*s", calendarCellWidth, n))
	}
	lines := []string{header, lipgloss.NewStyle().Foreground(m.theme.Muted).Render(names.String())}

	grid := m.Grid(m.today())
	for week := 0; week*7 < len(grid); week++ {
		var b strings.Builder
		for i := week * 7; i < min((week+1)*7, len(grid)); i++ {
			b.WriteString(m.renderDay(grid[i]))
		}
		lines = append(lines, b.String())
	}
	return lines
}

func (m DatePickerModel) renderDay(c DayCell) string {
	if c.Day == 0 {
		return strings.Repeat(" ", calendarCellWidth)
	}

	style := m.theme.Normal
	switch {
	case c.Selected, c.RangeStart, c.RangeEnd:
		style = m.theme.Selected
	case c.InRange:
		style = m.theme.Highlighted
	case c.Today:
		style = m.theme.Bold.Underline(true)
	}
	if m.open && c.Day == m.cursor.Day && m.cursor.Month == m.visible.Month && m.cursor.Year == m.visible.Year {
		style = style.Reverse(true)
	}
	return style.Render(fmt.Sprintf("%3d", c.Day)) + " "
}
