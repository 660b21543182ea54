package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/gateway/gatewaytest"
	"github.com/Veraticus/rinde/internal/model"
)

const (
	testEmail    = "ana@example.com"
	testPassword = "secreto"
)

// harness runs rinde commands against a fake backend, sharing one local store.
type harness struct {
	t       *testing.T
	server  *gatewaytest.Server
	dir     string
	cfgFile string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	srv := gatewaytest.New()
	t.Cleanup(srv.Close)
	srv.AddUser(testEmail, testPassword, "Ana")
	srv.SeedBills(testEmail,
		model.WireEntry{Description: "Sueldo marzo", Type: model.WireIncome, Subtype: "Sueldo", Date: "2024-03-05", Amount: 900000},
		model.WireEntry{Description: "Remedios", Type: model.WireExpense, Subtype: "Farmacia", Date: "2024-03-10", Amount: 45000},
		model.WireEntry{Description: "Regalo", Type: model.WireExpense, Subtype: "Compra", Date: "2024-02-14", Amount: 30000},
		model.WireEntry{Description: "Credito auto", Type: model.WireDebt, Subtype: "Crédito", Date: "2024-01-20", Amount: 2000000},
	)

	for _, key := range []string{
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_CLIENT_ID",
		"GOOGLE_SHEETS_CLIENT_SECRET", "GOOGLE_SHEETS_REFRESH_TOKEN", "GOOGLE_SHEETS_SPREADSHEET_ID",
	} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	yaml := fmt.Sprintf(`api:
  base_url: %s
  timeout: 5s
storage:
  path: %s
logging:
  file: %s
  level: error
`, srv.URL, filepath.Join(dir, "rinde.db"), filepath.Join(dir, "rinde.log"))
	require.NoError(t, os.WriteFile(cfgFile, []byte(yaml), 0o600))

	prev := now
	now = func() time.Time { return time.Date(2024, time.March, 20, 12, 0, 0, 0, time.Local) }
	t.Cleanup(func() { now = prev })

	return &harness{t: t, server: srv, dir: dir, cfgFile: cfgFile}
}

// run executes one command line with stdin as its input.
func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()

	var out, errOut bytes.Buffer
	e := newEnv(strings.NewReader(stdin), -1, nil)
	root := newRootCmd(e)
	root.SetArgs(append([]string{"--config", h.cfgFile}, args...))
	root.SetOut(&out)
	root.SetErr(&errOut)

	err := root.ExecuteContext(context.Background())
	e.closeLog()
	return out.String(), err
}

func (h *harness) login() {
	h.t.Helper()
	_, err := h.run(testPassword+"\n", "login", "--email", testEmail)
	require.NoError(h.t, err)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "version")
	require.NoError(t, err)
	assert.Equal(t, "rinde dev\n", out)
}

func TestLogin(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("Ana@Example.com\n"+testPassword+"\n", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Sesión iniciada como Ana (ana@example.com)")
	assert.Equal(t, 1, h.server.CallsTo("/login"))
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("otra\n", "login", "--email", testEmail)
	require.Error(t, err)
	assert.Equal(t, "Error al iniciar sesión", common.UserMessage(err, ""))
}

func TestLoginRequiresPassword(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("\n", "login", "--email", testEmail)
	require.Error(t, err)
	assert.Equal(t, "Correo y contraseña son obligatorios", common.UserMessage(err, ""))
	assert.Zero(t, h.server.CallsTo("/login"))
}

func TestCommandsRequireSession(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{
		{"summary"},
		{"list"},
		{"add", "--type", "egresos", "--subtype", "Farmacia", "--amount", "100", "--description", "x"},
	} {
		t.Run(args[0], func(t *testing.T) {
			_, err := h.run("", args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrNotAuthenticated)
		})
	}
}

func TestSummary(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, "Marzo 2024")
	assert.Contains(t, out, "$855.000") // balance
	assert.Contains(t, out, "$2.000.000")
	assert.Contains(t, out, "Farmacia")
	assert.NotContains(t, out, "Compra")

	out, err = h.run("", "summary", "--month", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Febrero 2024")
	assert.Contains(t, out, "Compra")
}

func TestSummaryInvalidMonth(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "summary", "--month", "13")
	require.Error(t, err)
	assert.Equal(t, "Mes inválido: 13", common.UserMessage(err, ""))
}

func TestList(t *testing.T) {
	h := newHarness(t)
	h.login()

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "current month",
			args:     []string{"list"},
			contains: []string{"Sueldo marzo", "Remedios", "2 movimientos"},
			excludes: []string{"Regalo", "Credito auto"},
		},
		{
			name:     "search",
			args:     []string{"list", "--search", "REME"},
			contains: []string{"Remedios"},
			excludes: []string{"Sueldo marzo"},
		},
		{
			name:     "debt spans every month",
			args:     []string{"list", "--category", "deudas"},
			contains: []string{"Credito auto", "20-01-2024"},
			excludes: []string{"Remedios"},
		},
		{
			name:     "other month",
			args:     []string{"list", "--month", "2", "--year", "2024"},
			contains: []string{"Regalo"},
			excludes: []string{"Remedios"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.run("", tt.args...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestListUnknownCategory(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "list", "--category", "viajes")
	require.Error(t, err)
	assert.Contains(t, common.UserMessage(err, ""), "Categoría desconocida")
}

func TestAdd(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "add",
		"--type", "egresos",
		"--subtype", "Farmacia",
		"--amount", "$ 12.500",
		"--date", "15/03/2024",
		"--description", "Vitaminas")
	require.NoError(t, err)
	assert.Contains(t, out, "Registrado Exitosamente")
	assert.Contains(t, out, "$12.500")

	bills := h.server.Bills(testEmail)
	last := bills[len(bills)-1]
	assert.Equal(t, "Vitaminas", last.Description)
	assert.Equal(t, model.WireExpense, last.Type)
	assert.Equal(t, "Farmacia", last.Subtype)
	assert.Equal(t, "2024-03-15", last.Date)
	assert.Equal(t, model.Amount(12500), last.Amount)
}

func TestAddDefaultsToToday(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("", "add", "--type", "ahorros", "--subtype", "Ahorros", "--amount", "5000", "--description", "Alcancía")
	require.NoError(t, err)

	bills := h.server.Bills(testEmail)
	assert.Equal(t, "2024-03-20", bills[len(bills)-1].Date)
}

func TestAddValidation(t *testing.T) {
	h := newHarness(t)
	h.login()

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "unknown type",
			args: []string{"--type", "viaje", "--subtype", "x", "--amount", "1", "--description", "x"},
			want: "Tipo desconocido",
		},
		{
			name: "bad date",
			args: []string{"--type", "egresos", "--subtype", "x", "--amount", "1", "--date", "31/02/2024", "--description", "x"},
			want: "Fecha inválida",
		},
		{
			name: "amount without digits",
			args: []string{"--type", "egresos", "--subtype", "x", "--amount", "abc", "--description", "x"},
			want: "Datos incompletos",
		},
	}

	before := len(h.server.Bills(testEmail))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run("", append([]string{"add"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, common.UserMessage(err, ""), tt.want)
		})
	}
	assert.Len(t, h.server.Bills(testEmail), before)
}

func TestExpiredSession(t *testing.T) {
	h := newHarness(t)
	h.login()
	h.server.RevokeAccessTokens()

	_, err := h.run("", "summary")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrSessionExpired)
	assert.Equal(t, "Sesión expirada. Por favor inicie sesión nuevamente", common.UserMessage(err, ""))

	// The rejected session was cleared locally.
	_, err = h.run("", "list")
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.login()

	out, err := h.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Sesión cerrada")
	assert.Equal(t, 1, h.server.CallsTo("/logout"))

	out, err = h.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "No hay una sesión activa")

	_, err = h.run("", "summary")
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
}

func TestExportSheetsNotConfigured(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, err := h.run("", "export-sheets")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
	assert.Contains(t, common.UserMessage(err, ""), "rinde sheets-auth")
}

func TestExportSheetsBadRange(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "export-sheets", "--from", "20/03/2024", "--to", "2024-03-01")
	require.Error(t, err)
	assert.Equal(t, "La fecha final es anterior a la inicial", common.UserMessage(err, ""))
}

func TestSheetsAuthRequiresCredentials(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "sheets-auth")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestInvalidConfig(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "--api-url", "ftp://nope", "version")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
