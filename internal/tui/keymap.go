package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	NextField key.Binding
	PrevField key.Binding
	Dashboard key.Binding
	NewEntry  key.Binding
	Report    key.Binding

	// Dashboard
	Search      key.Binding
	Month       key.Binding
	Refresh     key.Binding
	AllEntries  key.Binding
	Savings     key.Binding
	Debt        key.Binding
	Income      key.Binding
	Expense     key.Binding
	CloseDetail key.Binding

	// Forms
	Submit key.Binding
	Export key.Binding

	// Application
	Logout    key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "siguiente campo"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("Shift+Tab", "campo anterior"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("f1", "1"),
			key.WithHelp("F1/1", "resumen"),
		),
		NewEntry: key.NewBinding(
			key.WithKeys("f2", "2", "n"),
			key.WithHelp("F2/n", "registrar"),
		),
		Report: key.NewBinding(
			key.WithKeys("f3", "3", "p"),
			key.WithHelp("F3/p", "reporte"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "buscar"),
		),
		Month: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mes"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "actualizar"),
		),
		AllEntries: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "todos"),
		),
		Savings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "ahorros"),
		),
		Debt: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "deudas"),
		),
		Income: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "ingresos"),
		),
		Expense: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "egresos"),
		),
		CloseDetail: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "volver"),
		),

		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("Ctrl+S", "enviar"),
		),
		Export: key.NewBinding(
			key.WithKeys("x", "ctrl+e"),
			key.WithHelp("x/Ctrl+E", "exportar a Sheets"),
		),

		Logout: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("Ctrl+O", "cerrar sesión"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "ayuda"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "salir"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "salir"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Dashboard, k.NewEntry, k.Report, k.Help, k.Logout, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Dashboard, k.NewEntry, k.Report, k.NextField, k.PrevField},
		{k.Search, k.Month, k.Refresh, k.CloseDetail},
		{k.AllEntries, k.Savings, k.Debt, k.Income, k.Expense},
		{k.Submit, k.Export},
		{k.Help, k.Logout, k.Quit, k.ForceQuit},
	}
}
