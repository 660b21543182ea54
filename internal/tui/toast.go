package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/rinde/internal/tui/themes"
)

const (
	toastShort = 2 * time.Second
	toastLong  = 3 * time.Second
	maxToasts  = 3
)

type toastKind int

const (
	toastSuccess toastKind = iota
	toastError
	toastInfo
)

type toast struct {
	title       string
	description string
	id          int
	kind        toastKind
}

// toastStack holds the notifications on screen, oldest first.
type toastStack struct {
	items  []toast
	nextID int
}

// push shows a toast and schedules its removal.
func (s *toastStack) push(kind toastKind, title, description string, d time.Duration) tea.Cmd {
	s.nextID++
	id := s.nextID
	s.items = append(s.items, toast{id: id, kind: kind, title: title, description: description})
	if len(s.items) > maxToasts {
		s.items = s.items[len(s.items)-maxToasts:]
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (s *toastStack) expire(id int) {
	for i, t := range s.items {
		if t.id == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return
		}
	}
}

func (s toastStack) titles() []string {
	out := make([]string, 0, len(s.items))
	for _, t := range s.items {
		out = append(out, t.title)
	}
	return out
}

func (s toastStack) view(theme themes.Theme) string {
	if len(s.items) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(s.items))
	for _, t := range s.items {
		color, style := theme.Info, theme.StatusInfo
		switch t.kind {
		case toastSuccess:
			color, style = theme.Success, theme.StatusSuccess
		case toastError:
			color, style = theme.Error, theme.StatusError
		}

		body := style.Render(t.title)
		if t.description != "" {
			body = lipgloss.JoinVertical(lipgloss.Left, body, theme.Normal.Render(t.description))
		}
		rendered = append(rendered, theme.Toast.BorderForeground(color).Render(body))
	}
	return lipgloss.JoinVertical(lipgloss.Right, rendered...)
}
