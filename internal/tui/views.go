package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.screen == ScreenHelp {
		return m.renderHelp()
	}

	var body string
	switch m.screen {
	case ScreenLogin:
		body = m.renderLogin()
	case ScreenDashboard:
		body = m.dashboard.View()
	case ScreenForm:
		body = m.form.View()
	case ScreenReport:
		body = m.report.View()
	}

	if toasts := m.toasts.view(m.theme); toasts != "" {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, "  ", toasts)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		"",
		lipgloss.NewStyle().PaddingLeft(contentLeft).Render(body),
		m.renderStatusBar(),
	)
}

// renderLogin centers the login box below the header.
func (m Model) renderLogin() string {
	box := m.login.View()
	pad := max((m.width-2*contentLeft-lipgloss.Width(box))/2, 0)
	return lipgloss.NewStyle().PaddingLeft(pad).Render(box)
}

// renderHeader renders the one-line title bar with the screen tabs.
func (m Model) renderHeader() string {
	brand := lipgloss.NewStyle().Foreground(m.theme.Primary).Bold(true).Render(" Rinde ")
	if m.screen == ScreenLogin {
		return brand
	}

	tabs := []struct {
		key    string
		screen Screen
	}{
		{"F1", ScreenDashboard},
		{"F2", ScreenForm},
		{"F3", ScreenReport},
	}
	parts := []string{brand}
	for _, t := range tabs {
		label := fmt.Sprintf("%s %s", t.key, t.screen)
		if t.screen == m.screen {
			parts = append(parts, m.theme.ActiveTab.Padding(0, 1).Render(label))
		} else {
			parts = append(parts, m.theme.Tab.Padding(0, 1).Render(label))
		}
	}
	left := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	right := ""
	if m.config.Identity != nil {
		right = lipgloss.NewStyle().Foreground(m.theme.Muted).Render(m.config.Identity.Email() + " ")
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return lipgloss.NewStyle().MaxWidth(max(m.width, 1)).Render(left + strings.Repeat(" ", gap) + right)
}

// renderStatusBar renders the bottom status bar.
func (m Model) renderStatusBar() string {
	left := m.theme.StatusInfo.Render(" " + m.screen.String() + " ")
	right := lipgloss.NewStyle().Foreground(m.theme.Muted).Render("? Ayuda ")

	h := m.help
	h.Width = max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 10)
	center := h.ShortHelpView(m.keymap.ShortHelp())

	spacing := max(m.width-lipgloss.Width(left)-lipgloss.Width(center)-lipgloss.Width(right), 1)
	status := left + " " + center + strings.Repeat(" ", spacing-1) + right

	return m.theme.Normal.
		Background(m.theme.Border).
		Width(max(m.width, 1)).
		MaxWidth(max(m.width, 1)).
		Render(status)
}

// renderHelp renders the help screen.
func (m Model) renderHelp() string {
	title := m.theme.Title.Render("Rinde - Ayuda")

	sections := []struct {
		title string
		items []string
	}{
		{
			"Pantallas",
			[]string{
				"F1 / 1      Resumen",
				"F2 / n      Registrar movimiento",
				"F3 / p      Reporte",
				"Tab         Siguiente campo",
			},
		},
		{
			"Resumen",
			[]string{
				"m           Elegir mes",
				"/           Buscar",
				"b s d i e   Todos, ahorros, deudas, ingresos, egresos",
				"r           Actualizar",
				"Enter       Ver detalle",
			},
		},
		{
			"Campos",
			[]string{
				"↑/↓ Enter   Abrir y elegir opción",
				"Ctrl+X      Limpiar selección",
				"[ ]         Mes anterior o siguiente",
				"{ }         Año anterior o siguiente",
				"Ctrl+S      Registrar",
				"x           Exportar reporte",
			},
		},
		{
			"Aplicación",
			[]string{
				"Ctrl+O      Cerrar sesión",
				"q           Salir",
				"Ctrl+C      Salir siempre",
			},
		},
	}

	var content []string
	for _, section := range sections {
		content = append(content, m.theme.Subtitle.Render(section.title))

		for _, item := range section.items {
			parts := strings.SplitN(item, "  ", 2)
			if len(parts) == 2 {
				line := fmt.Sprintf("  %-12s %s",
					lipgloss.NewStyle().Foreground(m.theme.Primary).Render(parts[0]),
					m.theme.Normal.Render(strings.TrimSpace(parts[1])),
				)
				content = append(content, line)
			}
		}
		content = append(content, "")
	}

	footer := lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Presiona ? o Esc para volver")

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		m.theme.BorderedBox.
			Width(64).
			Render(
				lipgloss.JoinVertical(
					lipgloss.Left,
					title,
					lipgloss.JoinVertical(lipgloss.Left, content...),
					footer,
				),
			),
	)
}
