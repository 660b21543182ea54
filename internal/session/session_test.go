package session

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/storage"
)

func newStore(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": "ana@rinde.cl",
		"exp":   exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	s := New(store)
	require.NoError(t, s.Load(ctx))
	assert.False(t, s.Authenticated())

	user := model.User{Email: "ana@rinde.cl", Name: "Ana"}
	require.NoError(t, s.Save(ctx, "tok-1", user))

	restored := New(store)
	require.NoError(t, restored.Load(ctx))
	assert.Equal(t, "tok-1", restored.Token())
	got, ok := restored.User()
	require.True(t, ok)
	assert.Equal(t, "ana@rinde.cl", got.Email)
	assert.Equal(t, "ana@rinde.cl", restored.Email())
	assert.True(t, restored.Authenticated())

	require.NoError(t, restored.SetToken(ctx, "tok-2"))
	v, err := store.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", v)

	require.NoError(t, restored.Clear(ctx))
	assert.Empty(t, restored.Token())
	_, ok = restored.User()
	assert.False(t, ok)

	keys, err := store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLoad_MalformedUserIsAbsent(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.Set(ctx, KeyToken, "tok"))
	require.NoError(t, store.Set(ctx, KeyUser, "{not json"))

	s := New(store)
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, "tok", s.Token())
	_, ok := s.User()
	assert.False(t, ok)
}

func TestTokenExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	s := New(newStore(t), WithClock(func() time.Time { return now }))

	require.NoError(t, s.Save(ctx, signedToken(t, now.Add(time.Hour)), model.User{Email: "a@b.cl"}))
	exp, ok := s.TokenExpiry()
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Hour).Unix(), exp.Unix())
	assert.False(t, s.Expired())
	assert.True(t, s.Authenticated())

	require.NoError(t, s.SetToken(ctx, signedToken(t, now.Add(-time.Minute))))
	assert.True(t, s.Expired())
	assert.False(t, s.Authenticated())

	// Opaque tokens have no readable expiry and are trusted until the backend says otherwise.
	require.NoError(t, s.SetToken(ctx, "opaque"))
	_, ok = s.TokenExpiry()
	assert.False(t, ok)
	assert.True(t, s.Authenticated())
}

func TestCookieJarPersists(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	u, err := url.Parse("http://127.0.0.1:3000/refresh")
	require.NoError(t, err)

	s := New(store)
	s.CookieJar().SetCookies(u, []*http.Cookie{{Name: "jwt", Value: "refresh-me", Path: "/", MaxAge: 3600}})
	require.Len(t, s.CookieJar().Cookies(u), 1)

	restored := New(store)
	require.NoError(t, restored.Load(ctx))
	cookies := restored.CookieJar().Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, "jwt", cookies[0].Name)
	assert.Equal(t, "refresh-me", cookies[0].Value)

	// The backend clears the cookie on logout.
	restored.CookieJar().SetCookies(u, []*http.Cookie{{Name: "jwt", Value: "", Path: "/", MaxAge: -1}})
	assert.Empty(t, restored.CookieJar().Cookies(u))
	_, err = store.Get(ctx, KeyCookies)
	assert.Error(t, err)
}

func TestClearResetsCookies(t *testing.T) {
	ctx := context.Background()
	u, _ := url.Parse("http://localhost:3000/")
	s := New(newStore(t))
	s.CookieJar().SetCookies(u, []*http.Cookie{{Name: "jwt", Value: "x", Path: "/"}})

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.CookieJar().Cookies(u))
}
