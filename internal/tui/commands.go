package tui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/rinde/internal/gateway"
	"github.com/Veraticus/rinde/internal/service"
)

// requestLogin authenticates against the backend.
func (m Model) requestLogin(email, password string) tea.Cmd {
	backend, timeout := m.config.Backend, m.config.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		user, err := backend.Login(ctx, email, password)
		return loginResultMsg{user: user, err: err}
	}
}

// requestLogout ends the session on the backend and locally.
func (m Model) requestLogout() tea.Cmd {
	backend, timeout := m.config.Backend, m.config.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return logoutResultMsg{err: backend.Logout(ctx)}
	}
}

// fetchEntries fetches every entry. Nothing orders concurrent fetches: the last
// answer to arrive replaces the entries.
func (m Model) fetchEntries() tea.Cmd {
	backend, timeout := m.config.Backend, m.config.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		entries, err := backend.ListEntries(ctx)
		return entriesLoadedMsg{entries: entries, err: err}
	}
}

// postEntry records a new entry.
func (m Model) postEntry(n gateway.NewEntry) tea.Cmd {
	backend, timeout := m.config.Backend, m.config.RequestTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		return entryCreatedMsg{err: backend.CreateEntry(ctx, n)}
	}
}

// exportReport hands the report to the configured writer.
func (m Model) exportReport(report service.LedgerReport) tea.Cmd {
	writer := m.config.Reports
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 4*m.config.RequestTimeout)
		defer cancel()

		slog.Info("Exporting report", "entries", len(report.Entries))
		return reportExportedMsg{err: writer.Write(ctx, report)}
	}
}

// takeNotice picks up a pending notice, if any.
func (m Model) takeNotice() tea.Cmd {
	notices := m.config.Notices
	if notices == nil {
		return nil
	}
	return func() tea.Msg {
		if n, ok := notices.Take(); ok {
			return noticeMsg{notice: n}
		}
		return nil
	}
}
