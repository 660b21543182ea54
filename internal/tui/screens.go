package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/rinde/internal/gateway"
)

// Screen identifies the page being shown.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenDashboard
	ScreenForm
	ScreenReport
	ScreenHelp
)

func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "Iniciar sesión"
	case ScreenDashboard:
		return "Resumen"
	case ScreenForm:
		return "Registrar"
	case ScreenReport:
		return "Reporte"
	case ScreenHelp:
		return "Ayuda"
	}
	return ""
}

// Requests from the screens to the application.
type loginRequestedMsg struct {
	email    string
	password string
}

type submitEntryMsg struct {
	entry gateway.NewEntry
}

type refreshRequestedMsg struct{}

type exportRequestedMsg struct{}

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
