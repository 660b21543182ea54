package tui

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/gateway"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/notice"
	"github.com/Veraticus/rinde/internal/service"
	"github.com/Veraticus/rinde/internal/tui/tuitest"
)

var testNow = time.Date(2024, time.March, 20, 12, 0, 0, 0, time.Local)

func testClock() time.Time { return testNow }

func day(y int, m time.Month, d int) model.Date {
	return model.Date{Year: y, Month: m, Day: d}
}

func fixtureEntries() []model.Entry {
	return []model.Entry{
		{Date: day(2024, 3, 5), Description: "Sueldo marzo", Type: model.TypeIncome, Subtype: "Sueldo", Amount: 900000},
		{Date: day(2024, 3, 10), Description: "Remedios", Type: model.TypeExpense, Subtype: "Farmacia", Amount: 45000},
		{Date: day(2024, 3, 12), Description: "Deposito", Type: model.TypeSavings, Subtype: "Ahorros", Amount: 100000},
		{Date: day(2024, 2, 14), Description: "Regalo", Type: model.TypeExpense, Subtype: "Compra", Amount: 30000},
		{Date: day(2024, 1, 20), Description: "Credito auto", Type: model.TypeDebt, Subtype: "Crédito", Amount: 2000000},
		{Date: day(2024, 3, 15), Description: "Cuota auto", Type: model.TypeDebtPayment, Subtype: "Pago Deuda", Amount: 150000},
	}
}

// fakeBackend stands in for the gateway client and its session.
type fakeBackend struct {
	notices   notice.Producer
	loginErr  error
	listErr   error
	createErr error
	email     string
	entries   []model.Entry
	created   []gateway.NewEntry
	logins    []string
	logouts   int
	mu        sync.Mutex
	authed    bool
}

func newFakeBackend(notices notice.Producer) *fakeBackend {
	return &fakeBackend{notices: notices, entries: fixtureEntries()}
}

func (f *fakeBackend) Login(_ context.Context, email, password string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins = append(f.logins, email)
	if f.loginErr != nil {
		return model.User{}, f.loginErr
	}
	if password == "" {
		return model.User{}, errors.New("empty password")
	}
	f.authed = true
	f.email = email
	return model.User{Email: email}, nil
}

func (f *fakeBackend) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	f.authed = false
	f.email = ""
	return nil
}

func (f *fakeBackend) ListEntries(context.Context) ([]model.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if errors.Is(f.listErr, common.ErrSessionExpired) {
		f.authed = false
		f.notices.Post(notice.SessionExpired)
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Entry(nil), f.entries...), nil
}

func (f *fakeBackend) CreateEntry(_ context.Context, n gateway.NewEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	e, err := n.Entry()
	if err != nil {
		return err
	}
	f.created = append(f.created, n)
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeBackend) Authenticated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authed
}

func (f *fakeBackend) Email() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.email
}

func (f *fakeBackend) signIn(email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authed = true
	f.email = email
}

func (f *fakeBackend) set(fn func(*fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// fakeWriter records exported reports.
type fakeWriter struct {
	err     error
	reports []service.LedgerReport
	mu      sync.Mutex
}

func (w *fakeWriter) Write(_ context.Context, r service.LedgerReport) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.reports = append(w.reports, r)
	return nil
}

type testApp struct {
	*tuitest.Driver
	backend  *fakeBackend
	producer notice.Producer
}

func newTestApp(t *testing.T, signedIn bool, opts ...Option) *testApp {
	t.Helper()

	producer, consumer := notice.New()
	backend := newFakeBackend(producer)
	if signedIn {
		backend.signIn("ana@example.com")
	}

	base := []Option{
		WithBackend(backend, backend),
		WithNotices(consumer),
		WithClock(testClock),
		WithSize(120, 48),
	}
	return &testApp{
		Driver:   tuitest.NewDriver(New(append(base, opts...)...)),
		backend:  backend,
		producer: producer,
	}
}

func (a *testApp) model(t *testing.T) Model {
	t.Helper()
	m, ok := a.Model.(Model)
	require.True(t, ok, "model has type %T", a.Model)
	return m
}

func (a *testApp) key(names ...string) *testApp {
	for _, n := range names {
		a.Send(tuitest.Key(n))
	}
	return a
}

func (a *testApp) typeText(text string) *testApp {
	a.SendAll(tuitest.Type(text))
	return a
}
