package components

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/rinde/internal/model"
)

// AutocompleteChangedMsg reports a new selection. In single mode Selection
// holds at most one option; an empty Selection means nothing is selected.
type AutocompleteChangedMsg struct {
	ID        string
	Selection []model.Option
	Cleared   bool
}

// BlurMsg is sent when a widget loses focus through an outside interaction
// or a completed pick.
type BlurMsg struct {
	ID string
}

// DateChangedMsg carries the ISO value of a date picker: a single date, or
// "start to end" in range mode.
type DateChangedMsg struct {
	ID    string
	Value string
}

// DateDetailedMsg carries the same value as DateChangedMsg plus the parsed dates.
type DateDetailedMsg struct {
	ID      string
	Value   string
	Details DateDetails
}

// DateRangeMsg is sent in range mode when both ends are picked.
type DateRangeMsg struct {
	ID    string
	Start model.Date
	End   model.Date
}

// EntrySelectedMsg is sent when a row of the entries table is chosen.
type EntrySelectedMsg struct {
	Entry model.Entry
	Index int
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// DetailClosedMsg is sent when the entry detail view is dismissed.
type DetailClosedMsg struct{}
