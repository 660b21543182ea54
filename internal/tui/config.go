package tui

import (
	"context"
	"time"

	"github.com/Veraticus/rinde/internal/gateway"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/notice"
	"github.com/Veraticus/rinde/internal/service"
	"github.com/Veraticus/rinde/internal/tui/themes"
)

// Backend is the part of the API client the screens use.
type Backend interface {
	Login(ctx context.Context, email, password string) (model.User, error)
	Logout(ctx context.Context) error
	ListEntries(ctx context.Context) ([]model.Entry, error)
	CreateEntry(ctx context.Context, n gateway.NewEntry) error
}

// Identity reports who is logged in.
type Identity interface {
	Authenticated() bool
	Email() string
}

// Notices hands over messages posted while another screen was active.
type Notices interface {
	Take() (notice.Notice, bool)
}

// Config holds TUI configuration.
type Config struct {
	Theme          themes.Theme
	Backend        Backend
	Identity       Identity
	Notices        Notices
	Reports        service.ReportWriter
	Today          func() model.Date
	Now            func() time.Time
	RequestTimeout time.Duration
	Width          int
	Height         int
	MouseSupport   bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:          themes.Default,
		Today:          model.Today,
		Now:            time.Now,
		RequestTimeout: 15 * time.Second,
		Width:          100,
		Height:         32,
		MouseSupport:   true,
	}
}

// WithBackend sets the API client and the session it acts for.
func WithBackend(backend Backend, identity Identity) Option {
	return func(c *Config) {
		c.Backend = backend
		c.Identity = identity
	}
}

// WithNotices sets where the login screen picks up pending notices.
func WithNotices(n Notices) Option {
	return func(c *Config) {
		c.Notices = n
	}
}

// WithReportWriter enables exporting reports.
func WithReportWriter(w service.ReportWriter) Option {
	return func(c *Config) {
		c.Reports = w
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithClock replaces the clock used for the current month and report timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
		c.Today = func() model.Date { return model.DateOf(now()) }
	}
}

// WithRequestTimeout bounds every backend call.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

// WithMouse turns mouse support on or off.
func WithMouse(enabled bool) Option {
	return func(c *Config) {
		c.MouseSupport = enabled
	}
}
