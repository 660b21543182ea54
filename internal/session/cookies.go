package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/service"
)

const jarWriteTimeout = 5 * time.Second

type storedCookie struct {
	Expires  time.Time `json:"expires,omitempty"`
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HTTPOnly bool      `json:"http_only,omitempty"`
}

func (c storedCookie) expired(now time.Time) bool {
	return !c.Expires.IsZero() && !now.Before(c.Expires)
}

// persistentJar is an in-memory cookie jar whose contents are mirrored into the
// key-value store so the refresh cookie outlives the process.
type persistentJar struct {
	store service.KeyValueStore
	inner *cookiejar.Jar
	saved []storedCookie
	mu    sync.Mutex
}

func newPersistentJar(store service.KeyValueStore) *persistentJar {
	j := &persistentJar{store: store}
	j.inner = newInnerJar()
	return j
}

func newInnerJar() *cookiejar.Jar {
	// cookiejar.New only fails for a bad PublicSuffixList, and we pass none.
	jar, _ := cookiejar.New(nil)
	return jar
}

// SetCookies implements http.CookieJar.
func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.inner.SetCookies(u, cookies)

	now := time.Now()
	origin := (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
	for _, c := range cookies {
		j.saved = removeCookie(j.saved, origin, c.Name)
		if c.MaxAge < 0 || c.Value == "" {
			continue
		}
		sc := storedCookie{
			URL:      origin,
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		}
		if c.MaxAge > 0 {
			sc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if sc.expired(now) {
			continue
		}
		j.saved = append(j.saved, sc)
	}

	ctx, cancel := context.WithTimeout(context.Background(), jarWriteTimeout)
	defer cancel()
	if err := j.persistLocked(ctx); err != nil {
		slog.Warn("Failed to persist cookies", "error", err)
	}
}

// Cookies implements http.CookieJar.
func (j *persistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

func (j *persistentJar) load(ctx context.Context) error {
	raw, err := j.store.Get(ctx, KeyCookies)
	if errors.Is(err, common.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cookies: %w", err)
	}

	var saved []storedCookie
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		return fmt.Errorf("failed to decode cookies: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	j.inner = newInnerJar()
	j.saved = j.saved[:0]
	for _, sc := range saved {
		if sc.expired(now) {
			continue
		}
		u, err := url.Parse(sc.URL)
		if err != nil {
			continue
		}
		j.inner.SetCookies(u, []*http.Cookie{{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			Expires:  sc.Expires,
			Secure:   sc.Secure,
			HttpOnly: sc.HTTPOnly,
		}})
		j.saved = append(j.saved, sc)
	}
	return nil
}

func (j *persistentJar) reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner = newInnerJar()
	j.saved = nil
}

func (j *persistentJar) persistLocked(ctx context.Context) error {
	if len(j.saved) == 0 {
		return j.store.Delete(ctx, KeyCookies)
	}
	raw, err := json.Marshal(j.saved)
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}
	return j.store.Set(ctx, KeyCookies, string(raw))
}

func removeCookie(list []storedCookie, origin, name string) []storedCookie {
	out := list[:0]
	for _, c := range list {
		if c.URL == origin && c.Name == name {
			continue
		}
		out = append(out, c)
	}
	return out
}
