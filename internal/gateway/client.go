// Package gateway talks to the Rinde REST backend on behalf of the session.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/notice"
	"github.com/Veraticus/rinde/internal/session"
)

const (
	defaultTimeout = 15 * time.Second
	maxBodySize    = 10 << 20
)

// errUnauthorized is a 401 before the caller decides what it means.
var errUnauthorized = errors.New("unauthorized")

// Client is the backend API client. Requests carry the session's bearer token
// and cookies. A 401 on an authenticated request ends the session.
type Client struct {
	http    *http.Client
	session *session.Session
	notices notice.Producer
	logger  *slog.Logger
	baseURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its Jar is replaced by the session's.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient returns a client for the backend at baseURL.
func NewClient(baseURL string, sess *session.Session, notices notice.Producer, opts ...ClientOption) *Client {
	c := &Client{
		http:    &http.Client{Timeout: defaultTimeout},
		session: sess,
		notices: notices,
		logger:  slog.Default(),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http.Jar = sess.CookieJar()
	return c
}

// Session returns the session the client acts for.
func (c *Client) Session() *session.Session {
	return c.session
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User        *model.User `json:"user"`
	Message     string      `json:"message"`
	AccessToken string      `json:"accessToken"`
}

// Login authenticates and saves the session.
func (c *Client) Login(ctx context.Context, email, password string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/login", loginRequest{Email: email, Password: password}, &resp, false)
	if err != nil {
		return model.User{}, err
	}
	if resp.AccessToken == "" {
		return model.User{}, fmt.Errorf("login: response carried no access token")
	}

	user := model.User{Email: email}
	if resp.User != nil {
		user = *resp.User
		if user.Email == "" {
			user.Email = email
		}
	}

	if err := c.session.Save(ctx, resp.AccessToken, user); err != nil {
		return model.User{}, err
	}
	c.logger.Info("Logged in", "email", user.Email)
	return user, nil
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// Refresh trades the refresh cookie for a new access token.
func (c *Client) Refresh(ctx context.Context) error {
	var resp refreshResponse
	if err := c.do(ctx, http.MethodPost, "/refresh", nil, &resp, false); err != nil {
		return err
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("refresh: response carried no access token")
	}
	return c.session.SetToken(ctx, resp.AccessToken)
}

type logoutRequest struct {
	Email string `json:"email"`
}

// Logout ends the session on the backend. A 401 gets one refresh and one retry.
// The local session is cleared whatever the outcome.
func (c *Client) Logout(ctx context.Context) error {
	defer func() {
		if err := c.session.Clear(ctx); err != nil {
			c.logger.Error("Failed to clear session", "error", err)
		}
	}()

	body := logoutRequest{Email: c.session.Email()}
	err := c.do(ctx, http.MethodPost, "/logout", body, nil, true)
	if !errors.Is(err, errUnauthorized) {
		return err
	}

	if refreshErr := c.Refresh(ctx); refreshErr != nil {
		c.logger.Warn("Refresh before logout failed", "error", refreshErr)
		return fmt.Errorf("%w: %w", ErrSessionExpired, refreshErr)
	}

	err = c.do(ctx, http.MethodPost, "/logout", body, nil, true)
	if errors.Is(err, errUnauthorized) {
		return ErrSessionExpired
	}
	return err
}

type listResponse struct {
	Message string            `json:"message"`
	Result  []json.RawMessage `json:"result"`
}

// ListEntries fetches every entry of the logged-in user. Records that cannot
// be normalized are logged and dropped.
func (c *Client) ListEntries(ctx context.Context) ([]model.Entry, error) {
	email := c.session.Email()
	if email == "" {
		return nil, common.ErrNotAuthenticated
	}

	var resp listResponse
	if err := c.authed(ctx, http.MethodGet, "/get-bills/"+url.PathEscape(email), nil, &resp); err != nil {
		return nil, err
	}

	entries := make([]model.Entry, 0, len(resp.Result))
	for i, raw := range resp.Result {
		var w model.WireEntry
		if err := json.Unmarshal(raw, &w); err != nil {
			c.logger.Warn("Dropping undecodable entry", "index", i, "error", err)
			continue
		}
		e, err := model.NormalizeEntry(w)
		if err != nil {
			c.logger.Warn("Dropping malformed entry", "index", i, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

type createResponse struct {
	Result  json.RawMessage `json:"result"`
	Message string          `json:"message"`
}

// CreateEntry validates and records a new entry.
func (c *Client) CreateEntry(ctx context.Context, n NewEntry) error {
	email := c.session.Email()
	if email == "" {
		return common.ErrNotAuthenticated
	}

	entry, err := n.Entry()
	if err != nil {
		return err
	}

	req := newCreateBillRequest(email, entry)
	var resp createResponse
	if err := c.authed(ctx, http.MethodPost, "/create-bill", req, &resp); err != nil {
		return err
	}
	c.logger.Debug("Entry created", "entry", req.String(), "message", resp.Message)
	return nil
}

// authed sends an authenticated request and turns a 401 into the end of the session.
func (c *Client) authed(ctx context.Context, method, path string, body, out any) error {
	err := c.do(ctx, method, path, body, out, true)
	if !errors.Is(err, errUnauthorized) {
		return err
	}

	c.logger.Warn("Session rejected by backend", "method", method, "path", path)
	if clearErr := c.session.Clear(ctx); clearErr != nil {
		c.logger.Error("Failed to clear session", "error", clearErr)
	}
	c.notices.Post(notice.SessionExpired)
	return ErrSessionExpired
}

type errorBody struct {
	Message string `json:"message"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, auth bool) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s %s: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if auth {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("Backend request",
		"request_id", requestID,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%s %s: failed to read response: %w", method, path, err)
	}

	if auth && resp.StatusCode == http.StatusUnauthorized {
		return errUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil {
			apiErr.Message = eb.Message
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s %s: failed to decode response: %w", method, path, err)
	}
	return nil
}
