// Package session holds the authenticated user and access token and persists
// them between runs.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/service"
)

// Keys used in the store.
const (
	KeyToken   = "token"
	KeyUser    = "user"
	KeyCookies = "cookies"
)

// Session is the client's view of who is logged in. It is safe for concurrent use.
type Session struct {
	store service.KeyValueStore
	jar   *persistentJar
	now   func() time.Time
	user  *model.User
	token string
	mu    sync.RWMutex
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the clock used to judge token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New returns an empty session persisted in store. Call Load to restore a saved one.
func New(store service.KeyValueStore, opts ...Option) *Session {
	s := &Session{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.jar = newPersistentJar(store)
	return s
}

// Load restores the saved token, user and cookies. A malformed saved user is
// logged and treated as absent.
func (s *Session) Load(ctx context.Context) error {
	token, err := s.store.Get(ctx, KeyToken)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("failed to load token: %w", err)
	}

	var user *model.User
	raw, err := s.store.Get(ctx, KeyUser)
	switch {
	case errors.Is(err, common.ErrNotFound):
	case err != nil:
		return fmt.Errorf("failed to load user: %w", err)
	default:
		var u model.User
		if jsonErr := json.Unmarshal([]byte(raw), &u); jsonErr != nil {
			slog.Warn("Ignoring malformed saved user", "error", jsonErr)
		} else {
			user = &u
		}
	}

	if err := s.jar.load(ctx); err != nil {
		slog.Warn("Ignoring saved cookies", "error", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()
	return nil
}

// Save records a successful login.
func (s *Session) Save(ctx context.Context, token string, user model.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.store.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	if err := s.store.Set(ctx, KeyUser, string(raw)); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()
	return nil
}

// SetToken replaces the access token after a refresh.
func (s *Session) SetToken(ctx context.Context, token string) error {
	if err := s.store.Set(ctx, KeyToken, token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return nil
}

// Clear forgets everything, in memory and in the store.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	s.jar.reset()

	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Token returns the access token, or "".
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the logged-in user.
func (s *Session) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// Email returns the logged-in user's email, or "".
func (s *Session) Email() string {
	u, _ := s.User()
	return u.Email
}

// Authenticated reports whether there is a token that has not visibly expired.
func (s *Session) Authenticated() bool {
	if s.Token() == "" {
		return false
	}
	return !s.Expired()
}

// TokenExpiry reads the exp claim of the access token. The signature is not verified.
func (s *Session) TokenExpiry() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		slog.Debug("Access token is not a readable JWT", "error", err)
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the token carries an expiry that has passed.
func (s *Session) Expired() bool {
	exp, ok := s.TokenExpiry()
	return ok && !s.now().Before(exp)
}

// CookieJar returns the jar that keeps the refresh cookie across runs.
func (s *Session) CookieJar() http.CookieJar {
	return s.jar
}
