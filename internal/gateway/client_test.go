package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/gateway/gatewaytest"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/notice"
	"github.com/Veraticus/rinde/internal/session"
	"github.com/Veraticus/rinde/internal/storage"
)

type harness struct {
	backend *gatewaytest.Server
	store   *storage.SQLiteStorage
	session *session.Session
	client  *Client
	notices notice.Consumer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	backend := gatewaytest.New()
	t.Cleanup(backend.Close)
	backend.AddUser("ana@rinde.cl", "secreto", "Ana")

	store, err := storage.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sess := session.New(store)
	producer, consumer := notice.New()
	client := NewClient(backend.URL, sess, producer, WithTimeout(5*time.Second))

	return &harness{
		backend: backend,
		store:   store,
		session: sess,
		client:  client,
		notices: consumer,
	}
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	_, err := h.client.Login(context.Background(), "ana@rinde.cl", "secreto")
	require.NoError(t, err)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	user, err := h.client.Login(context.Background(), "  ANA@Rinde.cl ", "secreto")
	require.NoError(t, err)
	assert.Equal(t, "ana@rinde.cl", user.Email)
	assert.Equal(t, "Ana", user.Name)
	assert.True(t, h.session.Authenticated())

	token, err := h.store.Get(context.Background(), session.KeyToken)
	require.NoError(t, err)
	assert.Equal(t, h.session.Token(), token)

	exp, ok := h.session.TokenExpiry()
	require.True(t, ok)
	assert.True(t, exp.After(time.Now()))
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.Login(context.Background(), "ana@rinde.cl", "nope")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Credenciales inválidas", apiErr.Message)

	assert.False(t, h.session.Authenticated())
	_, ok := h.notices.Take()
	assert.False(t, ok, "a failed login is not an expired session")
}

func TestListEntries(t *testing.T) {
	h := newHarness(t)
	h.backend.SeedBills("ana@rinde.cl",
		model.WireEntry{Description: "sueldo", Type: "Ingresos", Subtype: "Sueldo", Date: "2024-01-31", Amount: 900000},
		model.WireEntry{Description: "cuota", Type: "PagoDeuda", Date: "2024-01-05", Amount: 40000},
		model.WireEntry{Description: "roto", Type: "Ingresos", Date: "31/01/2024", Amount: 1},
		model.WireEntry{Description: "raro", Type: "Regalos", Date: "2024-01-05", Amount: 1},
	)
	h.login(t)

	entries, err := h.client.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.TypeIncome, entries[0].Type)
	assert.Equal(t, model.TypeDebtPayment, entries[1].Type)

	for _, c := range h.backend.Calls() {
		assert.NotEmpty(t, c.RequestID, c.Path)
	}
}

func TestListEntries_DropsUndecodableRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"ok","result":[
			{"description":"sueldo","type":"Ingresos","subtype":"Sueldo","date":"2024-01-31","amount":1000},
			{"description":"vacío","type":"Egresos","subtype":"Farmacia","date":"2024-01-10","amount":""},
			{"description":"objeto","type":"Egresos","subtype":"Farmacia","date":"2024-01-11","amount":{"v":1}}
		]}`))
	}))
	t.Cleanup(srv.Close)

	h := newHarness(t)
	require.NoError(t, h.session.Save(context.Background(), "opaque-token", model.User{Email: "ana@rinde.cl"}))
	producer, _ := notice.New()
	client := NewClient(srv.URL, h.session, producer)

	entries, err := client.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sueldo", entries[0].Description)
	assert.Equal(t, int64(1000), entries[0].Amount)
}

func TestListEntries_NotLoggedIn(t *testing.T) {
	h := newHarness(t)
	_, err := h.client.ListEntries(context.Background())
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
	assert.Zero(t, h.backend.CallsTo("/get-bills/ana@rinde.cl"))
}

func TestListEntries_UnauthorizedEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.backend.RevokeAccessTokens()

	_, err := h.client.ListEntries(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)

	assert.False(t, h.session.Authenticated())
	keys, err := h.store.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)

	n, ok := h.notices.Take()
	require.True(t, ok)
	assert.Equal(t, notice.SessionExpired, n)

	_, ok = h.notices.Take()
	assert.False(t, ok)
}

func TestCreateEntry(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	date, err := model.ParseDate("2024-03-15")
	require.NoError(t, err)

	err = h.client.CreateEntry(context.Background(), NewEntry{
		Type:        model.TypeDebtPayment,
		Subtype:     model.SubtypeDebtPayment,
		Amount:      "$ 12.500",
		Date:        date,
		Description: "  cuota marzo ",
	})
	require.NoError(t, err)

	bills := h.backend.Bills("ana@rinde.cl")
	require.Len(t, bills, 1)
	assert.Equal(t, model.WireEntry{
		Description: "cuota marzo",
		Type:        "Egresos",
		Subtype:     "Pago Deuda",
		Date:        "2024-03-15",
		Amount:      12500,
	}, bills[0])

	entries, err := h.client.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.TypeDebtPayment, entries[0].Type)
}

func TestCreateEntry_Invalid(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	err := h.client.CreateEntry(context.Background(), NewEntry{Type: model.TypeIncome, Amount: "abc"})
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, MsgRequired, verrs[FieldAmount])
	assert.Equal(t, MsgRequired, verrs[FieldSubtype])
	assert.Equal(t, MsgRequired, verrs[FieldDate])
	assert.Equal(t, MsgRequired, verrs[FieldDescription])
	assert.NotContains(t, verrs, FieldType)
	assert.Zero(t, h.backend.CallsTo("/create-bill"))
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	require.NoError(t, h.client.Logout(context.Background()))
	assert.False(t, h.session.Authenticated())
	assert.Equal(t, 1, h.backend.CallsTo("/logout"))
	assert.Zero(t, h.backend.CallsTo("/refresh"))
}

func TestLogout_RefreshesOnceAndRetries(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	oldToken := h.session.Token()
	h.backend.RevokeAccessTokens()

	require.NoError(t, h.client.Logout(context.Background()))

	assert.Equal(t, 2, h.backend.CallsTo("/logout"))
	assert.Equal(t, 1, h.backend.CallsTo("/refresh"))

	var logoutAuth []string
	for _, c := range h.backend.Calls() {
		if c.Path == "/logout" {
			logoutAuth = append(logoutAuth, c.Authorization)
		}
	}
	require.Len(t, logoutAuth, 2)
	assert.Equal(t, "Bearer "+oldToken, logoutAuth[0])
	assert.NotEqual(t, logoutAuth[0], logoutAuth[1])

	assert.False(t, h.session.Authenticated())
	_, ok := h.notices.Take()
	assert.False(t, ok)
}

func TestLogout_RefreshFails(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	h.backend.RevokeAccessTokens()
	// Losing the cookie makes the refresh fail.
	h.session.CookieJar().SetCookies(mustURL(t, h.backend.URL), []*http.Cookie{{Name: "jwt", Path: "/", MaxAge: -1}})

	err := h.client.Logout(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 1, h.backend.CallsTo("/logout"))
	assert.Equal(t, 1, h.backend.CallsTo("/refresh"))
	assert.False(t, h.session.Authenticated())
}

func TestRefreshSurvivesRestart(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	// A new process restores the cookie from the store.
	restored := session.New(h.store)
	require.NoError(t, restored.Load(context.Background()))
	producer, _ := notice.New()
	client := NewClient(h.backend.URL, restored, producer)

	before := restored.Token()
	time.Sleep(1100 * time.Millisecond) // tokens carry second-resolution iat/exp
	require.NoError(t, client.Refresh(context.Background()))
	assert.NotEqual(t, before, restored.Token())
}

func TestTransportError(t *testing.T) {
	h := newHarness(t)
	h.backend.Close()

	_, err := h.client.Login(context.Background(), "ana@rinde.cl", "secreto")
	require.Error(t, err)
	assert.Zero(t, StatusOf(err))
	assert.False(t, errors.Is(err, ErrSessionExpired))
}
