package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/rinde/internal/gateway"
	"github.com/Veraticus/rinde/internal/tui/themes"
)

type loginField int

const (
	loginEmail loginField = iota
	loginPassword
	loginSubmit
	loginFieldCount
)

// loginScreen asks for the credentials.
type loginScreen struct {
	theme     themes.Theme
	keys      KeyMap
	email     textinput.Model
	password  textinput.Model
	focus     loginField
	submitted bool
	busy      bool
}

func newLoginScreen(theme themes.Theme, keys KeyMap) loginScreen {
	email := textinput.New()
	email.Placeholder = "ejemplo@correo.com"
	email.Prompt = ""
	email.Width = 32
	email.CharLimit = 254

	password := textinput.New()
	password.Placeholder = "••••••••"
	password.Prompt = ""
	password.Width = 32
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginScreen{
		theme:    theme,
		keys:     keys,
		email:    email,
		password: password,
	}
}

// reset clears the form and focuses the email field.
func (s loginScreen) reset() (loginScreen, tea.Cmd) {
	s.email.Reset()
	s.password.Reset()
	s.submitted = false
	s.busy = false
	return s.focusField(loginEmail)
}

func (s loginScreen) focusField(f loginField) (loginScreen, tea.Cmd) {
	s.focus = f
	s.email.Blur()
	s.password.Blur()

	var cmd tea.Cmd
	switch f {
	case loginEmail:
		cmd = s.email.Focus()
	case loginPassword:
		cmd = s.password.Focus()
	}
	return s, cmd
}

// capturing reports whether typed characters belong to an input.
func (s loginScreen) capturing() bool {
	return s.focus != loginSubmit
}

func (s loginScreen) emailMissing() bool {
	return s.submitted && strings.TrimSpace(s.email.Value()) == ""
}

func (s loginScreen) passwordMissing() bool {
	return s.submitted && s.password.Value() == ""
}

func (s loginScreen) Update(msg tea.Msg) (loginScreen, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch {
	case key.Matches(keyMsg, s.keys.NextField), keyMsg.Type == tea.KeyDown:
		return s.focusField((s.focus + 1) % loginFieldCount)
	case key.Matches(keyMsg, s.keys.PrevField), keyMsg.Type == tea.KeyUp:
		return s.focusField((s.focus + loginFieldCount - 1) % loginFieldCount)
	case keyMsg.Type == tea.KeyEnter:
		if s.focus == loginEmail {
			return s.focusField(loginPassword)
		}
		return s.submit()
	}

	var cmd tea.Cmd
	switch s.focus {
	case loginEmail:
		s.email, cmd = s.email.Update(msg)
	case loginPassword:
		s.password, cmd = s.password.Update(msg)
	}
	return s, cmd
}

// submit checks the required fields and asks the application to log in.
func (s loginScreen) submit() (loginScreen, tea.Cmd) {
	if s.busy {
		return s, nil
	}
	s.submitted = true
	if s.emailMissing() {
		return s.focusField(loginEmail)
	}
	if s.passwordMissing() {
		return s.focusField(loginPassword)
	}

	s.busy = true
	return s, send(loginRequestedMsg{
		email:    strings.ToLower(strings.TrimSpace(s.email.Value())),
		password: s.password.Value(),
	})
}

// done is called when the login request comes back.
func (s loginScreen) done() loginScreen {
	s.busy = false
	s.password.Reset()
	return s
}

func (s loginScreen) View() string {
	muted := lipgloss.NewStyle().Foreground(s.theme.Muted)
	errStyle := lipgloss.NewStyle().Foreground(s.theme.Error)

	field := func(label string, input textinput.Model, focused, missing bool) string {
		border := s.theme.Border
		switch {
		case missing:
			border = s.theme.Error
		case focused:
			border = s.theme.Primary
		}
		box := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1).
			Width(36).
			Render(input.View())

		hint := " "
		if missing {
			hint = errStyle.Render(gateway.MsgRequired)
		}
		return lipgloss.JoinVertical(lipgloss.Left, s.theme.Bold.Render(label), box, hint)
	}

	button := s.theme.Button.Render("Iniciar Sesión →")
	if s.focus != loginSubmit {
		button = s.theme.Button.Background(s.theme.Border).Render("Iniciar Sesión →")
	}
	if s.busy {
		button = muted.Render("Ingresando...")
	}

	var c column
	c.add(s.theme.Title.Render("Rinde"))
	c.add(muted.Render("Ingresa tus credenciales para continuar"))
	c.add("")
	c.add(field("Correo electrónico", s.email, s.focus == loginEmail, s.emailMissing()))
	c.add(field("Contraseña", s.password, s.focus == loginPassword, s.passwordMissing()))
	c.add(button)
	c.add("")
	c.add(muted.Render("Gestión financiera simplificada"))
	return s.theme.RoundedBox.Render(c.String())
}
