package tui

import (
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/service"
	"github.com/Veraticus/rinde/internal/tui/themes"
)

// Where screen content starts on the terminal.
const (
	contentTop  = 2
	contentLeft = 2
)

// Model holds the main TUI state.
type Model struct {
	theme     themes.Theme
	config    Config
	keymap    KeyMap
	help      help.Model
	login     loginScreen
	dashboard dashboardScreen
	form      formScreen
	report    reportScreen
	toasts    toastStack
	entries   []model.Entry
	screen    Screen
	previous  Screen
	width     int
	height    int
	quitting  bool
}

// New creates the application model from options.
func New(opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newModel(cfg)
}

// newModel creates a new model with the given configuration.
func newModel(cfg Config) Model {
	keys := DefaultKeyMap()
	m := Model{
		config:    cfg,
		theme:     cfg.Theme,
		keymap:    keys,
		help:      help.New(),
		login:     newLoginScreen(cfg.Theme, keys),
		dashboard: newDashboardScreen(cfg.Theme, keys, cfg.Today),
		form:      newFormScreen(cfg.Theme, keys, cfg.Today),
		report:    newReportScreen(cfg.Theme, keys, cfg.Today, cfg.Reports != nil),
		screen:    ScreenLogin,
		width:     cfg.Width,
		height:    cfg.Height,
	}
	if cfg.Identity != nil && cfg.Identity.Authenticated() {
		m.screen = ScreenDashboard
	}
	m.login, _ = m.login.focusField(loginEmail)
	m.resize()
	return m.placeWidgets()
}

// Screen returns the page being shown.
func (m Model) Screen() Screen {
	return m.screen
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
	}

	if m.screen == ScreenLogin {
		cmds = append(cmds, m.takeNotice(), textinput.Blink)
	} else {
		cmds = append(cmds, m.fetchEntries())
	}

	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	return m.placeWidgets(), cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, next, cmd := m.handleGlobalKeys(msg); handled {
			return next, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case loginRequestedMsg:
		return m, m.requestLogin(msg.email, msg.password)

	case loginResultMsg:
		m.login = m.login.done()
		if msg.err != nil {
			slog.Warn("Login failed", "error", msg.err)
			return m, m.toasts.push(toastError, "Error al iniciar sesión", "", toastShort)
		}
		slog.Info("Logged in", "email", msg.user.Email)
		m.screen = ScreenDashboard
		return m, m.fetchEntries()

	case logoutResultMsg:
		if msg.err != nil && !errors.Is(msg.err, common.ErrSessionExpired) {
			slog.Warn("Logout failed on the backend", "error", msg.err)
		}
		return m.enterLogin()

	case refreshRequestedMsg:
		return m, m.fetchEntries()

	case entriesLoadedMsg:
		if msg.err != nil {
			return m.backendFailed(msg.err, "No se pudieron cargar los movimientos")
		}
		m.entries = msg.entries
		m.dashboard = m.dashboard.setEntries(msg.entries)
		m.report = m.report.setEntries(msg.entries)
		return m, nil

	case submitEntryMsg:
		return m, m.postEntry(msg.entry)

	case entryCreatedMsg:
		var formCmd tea.Cmd
		m.form, formCmd = m.form.done()
		if msg.err != nil {
			if sessionEnded(msg.err) {
				return m.enterLogin()
			}
			slog.Warn("Entry not recorded", "error", msg.err)
			return m, tea.Batch(formCmd, m.toasts.push(toastError, "No se pudo registrar", "", toastShort))
		}
		return m, tea.Batch(
			formCmd,
			m.toasts.push(toastSuccess, "Registrado Exitosamente", "", toastShort),
			m.fetchEntries(),
		)

	case exportRequestedMsg:
		if m.config.Reports == nil {
			m.report = m.report.exported()
			return m, nil
		}
		return m, m.exportReport(m.currentReport())

	case reportExportedMsg:
		m.report = m.report.exported()
		if msg.err != nil {
			slog.Warn("Report export failed", "error", msg.err)
			return m, m.toasts.push(toastError, "No se pudo exportar el reporte", "", toastShort)
		}
		return m, m.toasts.push(toastSuccess, "Reporte exportado", "", toastShort)

	case noticeMsg:
		return m, m.toasts.push(toastError, msg.notice.Title, msg.notice.Description, toastLong)

	case toastExpiredMsg:
		m.toasts.expire(msg.id)
		return m, nil
	}

	return m.delegate(msg)
}

// delegate passes a message to the active screen.
func (m Model) delegate(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case ScreenLogin:
		m.login, cmd = m.login.Update(msg)
	case ScreenDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ScreenForm:
		m.form, cmd = m.form.Update(msg)
	case ScreenReport:
		m.report, cmd = m.report.Update(msg)
	}
	return m, cmd
}

// handleGlobalKeys handles keys that work on every screen.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return true, m, tea.Quit
	}

	if m.screen == ScreenHelp {
		if key.Matches(msg, m.keymap.Help, m.keymap.Quit) || msg.Type == tea.KeyEsc {
			m.screen = m.previous
		}
		return true, m, nil
	}

	if m.screen == ScreenLogin {
		if !m.login.capturing() && key.Matches(msg, m.keymap.Quit) {
			m.quitting = true
			return true, m, tea.Quit
		}
		return false, m, nil
	}

	if key.Matches(msg, m.keymap.Logout) {
		return true, m, m.requestLogout()
	}

	// Function keys work even while typing.
	switch msg.Type {
	case tea.KeyF1:
		next, cmd := m.switchTo(ScreenDashboard)
		return true, next, cmd
	case tea.KeyF2:
		next, cmd := m.switchTo(ScreenForm)
		return true, next, cmd
	case tea.KeyF3:
		next, cmd := m.switchTo(ScreenReport)
		return true, next, cmd
	}

	if m.capturing() {
		return false, m, nil
	}

	var target Screen
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return true, m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.previous = m.screen
		m.screen = ScreenHelp
		return true, m, nil
	case key.Matches(msg, m.keymap.Dashboard):
		target = ScreenDashboard
	case key.Matches(msg, m.keymap.NewEntry):
		target = ScreenForm
	case key.Matches(msg, m.keymap.Report):
		target = ScreenReport
	default:
		return false, m, nil
	}
	next, cmd := m.switchTo(target)
	return true, next, cmd
}

// capturing reports whether the active screen wants plain keys for typing.
func (m Model) capturing() bool {
	switch m.screen {
	case ScreenLogin:
		return m.login.capturing()
	case ScreenDashboard:
		return m.dashboard.capturing()
	case ScreenForm:
		return m.form.capturing()
	case ScreenReport:
		return m.report.capturing()
	}
	return false
}

func (m Model) switchTo(s Screen) (Model, tea.Cmd) {
	if m.screen == s {
		return m, nil
	}
	m.screen = s
	if s == ScreenDashboard {
		// The dashboard refetches every time it is shown.
		return m, m.fetchEntries()
	}
	return m, nil
}

// enterLogin shows the login screen and picks up any pending notice.
func (m Model) enterLogin() (Model, tea.Cmd) {
	m.screen = ScreenLogin
	m.entries = nil
	m.dashboard = newDashboardScreen(m.theme, m.keymap, m.config.Today)
	m.form = newFormScreen(m.theme, m.keymap, m.config.Today)
	m.report = newReportScreen(m.theme, m.keymap, m.config.Today, m.config.Reports != nil)
	m.resize()

	var cmd tea.Cmd
	m.login, cmd = m.login.reset()
	return m, tea.Batch(cmd, m.takeNotice())
}

// backendFailed reacts to a failed request. An ended session goes back to login.
func (m Model) backendFailed(err error, message string) (Model, tea.Cmd) {
	if sessionEnded(err) {
		return m.enterLogin()
	}
	slog.Warn("Backend request failed", "error", err)
	return m, m.toasts.push(toastError, message, "", toastShort)
}

func sessionEnded(err error) bool {
	return errors.Is(err, common.ErrSessionExpired) || errors.Is(err, common.ErrNotAuthenticated)
}

func (m Model) currentReport() service.LedgerReport {
	owner := ""
	if m.config.Identity != nil {
		owner = m.config.Identity.Email()
	}
	return m.report.report(owner, m.config.Now())
}

// resize adjusts screen sizes to the terminal.
func (m *Model) resize() {
	width := max(m.width-2*contentLeft, 40)
	height := max(m.height-contentTop-2, 10)
	m.help.Width = m.width
	m.dashboard = m.dashboard.resize(width, height)
	m.report = m.report.resize(width, height)
}

// placeWidgets tells the screen widgets where they are drawn.
func (m Model) placeWidgets() Model {
	origin := point{x: contentLeft, y: contentTop}
	switch m.screen {
	case ScreenDashboard:
		m.dashboard = m.dashboard.place(origin)
	case ScreenForm:
		m.form = m.form.place(origin)
	case ScreenReport:
		m.report = m.report.place(origin)
	}
	return m
}
