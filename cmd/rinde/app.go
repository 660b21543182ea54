package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/config"
	"github.com/Veraticus/rinde/internal/gateway"
	"github.com/Veraticus/rinde/internal/notice"
	"github.com/Veraticus/rinde/internal/service"
	"github.com/Veraticus/rinde/internal/session"
	"github.com/Veraticus/rinde/internal/sheets"
	"github.com/Veraticus/rinde/internal/storage"
)

// errNoSession is returned by commands that need a logged-in user.
var errNoSession = common.NewUserError("No hay una sesión activa. Ejecute: rinde login", common.ErrNotAuthenticated)

// app is the wired client stack: local store, session and API client.
type app struct {
	store   *storage.SQLiteStorage
	session *session.Session
	client  *gateway.Client
	notices notice.Consumer
}

// openApp opens the local store and restores the saved session.
func (e *env) openApp(ctx context.Context) (*app, error) {
	store, err := storage.Open(ctx, e.cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	sess := session.New(store)
	if err := sess.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	producer, consumer := notice.New()
	client := gateway.NewClient(e.cfg.BaseURL, sess, producer,
		gateway.WithTimeout(e.cfg.Timeout),
		gateway.WithLogger(slog.Default()),
	)

	return &app{
		store:   store,
		session: sess,
		client:  client,
		notices: consumer,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close storage", "error", err)
	}
}

// requireSession fails unless a user is logged in.
func (a *app) requireSession() error {
	if !a.session.Authenticated() {
		return errNoSession
	}
	return nil
}

// sessionError replaces an expired session with the message telling the user
// to log in again.
func sessionError(err error) error {
	if errors.Is(err, common.ErrSessionExpired) {
		return common.NewUserError(notice.SessionExpired.Title+". "+notice.SessionExpired.Description, err)
	}
	return err
}

// reportWriter returns the Sheets writer, or nil when Sheets is not configured.
func (e *env) reportWriter(ctx context.Context) (service.ReportWriter, error) {
	cfg, err := config.LoadSheetsConfig(e.v)
	if errors.Is(err, common.ErrMissingConfig) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	w, err := sheets.NewWriter(ctx, *cfg, slog.Default())
	if err != nil {
		return nil, err
	}
	return w, nil
}

// tokenFile is where the Sheets OAuth2 token is cached.
func (e *env) tokenFile() string {
	return filepath.Join(filepath.Dir(e.cfg.StoragePath), "sheets-token.json")
}
