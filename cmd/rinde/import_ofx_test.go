package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/model"
)

const statementHeader = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>SPA
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>CLP
<BANKACCTFROM>
<BANKID>001
<ACCTID>55501234
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240301120000[0:GMT]
<DTEND>20240331120000[0:GMT]
`

const statementFooter = `</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>100000
<DTASOF>20240331120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func stmtTrn(kind, posted, amount, fitID, name string) string {
	return fmt.Sprintf("<STMTTRN>\n<TRNTYPE>%s\n<DTPOSTED>%s120000[0:GMT]\n<TRNAMT>%s\n<FITID>%s\n<NAME>%s\n</STMTTRN>\n",
		kind, posted, amount, fitID, name)
}

func writeStatement(t *testing.T, dir, name string, trns ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	body := statementHeader + strings.Join(trns, "") + statementFooter
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func writeStatements(t *testing.T, dir string) {
	t.Helper()
	writeStatement(t, dir, "marzo-1.ofx",
		stmtTrn("DEBIT", "20240311", "-18990", "F1", "Libreria Nacional"),
		stmtTrn("CREDIT", "20240312", "250000", "F2", "Transferencia Pedro"),
	)
	writeStatement(t, dir, "marzo-2.ofx",
		stmtTrn("CREDIT", "20240312", "250000", "F2", "Transferencia Pedro"),
		stmtTrn("DEBIT", "20240318", "-7500.60", "F3", "Cafe Central"),
	)
}

func TestImportOFXDryRun(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	writeStatements(t, dir)
	before := len(h.server.Bills(testEmail))

	out, err := h.run("", "import-ofx", "--dry-run", filepath.Join(dir, "*.ofx"))
	require.NoError(t, err)

	assert.Contains(t, out, "Libreria Nacional")
	assert.Contains(t, out, "Transferencia Pedro")
	assert.Contains(t, out, "Cafe Central")
	assert.Contains(t, out, "$7.501")
	assert.Contains(t, out, "3 movimientos")
	assert.Contains(t, out, "Simulación")
	assert.Len(t, h.server.Bills(testEmail), before)
	assert.Zero(t, h.server.CallsTo("/create-bill"))
}

func TestImportOFX(t *testing.T) {
	h := newHarness(t)
	h.login()
	dir := t.TempDir()
	writeStatements(t, dir)
	before := len(h.server.Bills(testEmail))

	out, err := h.run("", "import-ofx", filepath.Join(dir, "marzo-1.ofx"), filepath.Join(dir, "marzo-2.ofx"))
	require.NoError(t, err)
	assert.Contains(t, out, "3 movimientos registrados")

	bills := h.server.Bills(testEmail)
	require.Len(t, bills, before+3)

	imported := make(map[string]model.WireEntry)
	for _, b := range bills[before:] {
		imported[b.Description] = b
	}
	assert.Equal(t, model.WireExpense, imported["Libreria Nacional"].Type)
	assert.Equal(t, model.SubtypeOther, imported["Libreria Nacional"].Subtype)
	assert.Equal(t, model.Amount(18990), imported["Libreria Nacional"].Amount)
	assert.Equal(t, model.WireIncome, imported["Transferencia Pedro"].Type)
	assert.Equal(t, "2024-03-12", imported["Transferencia Pedro"].Date)
	assert.Equal(t, model.Amount(7501), imported["Cafe Central"].Amount)
}

func TestImportOFXRequiresSession(t *testing.T) {
	h := newHarness(t)
	dir := t.TempDir()
	writeStatements(t, dir)

	_, err := h.run("", "import-ofx", filepath.Join(dir, "*.ofx"))
	assert.ErrorIs(t, err, common.ErrNotAuthenticated)
}

func TestImportOFXNoFiles(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("", "import-ofx", filepath.Join(t.TempDir(), "*.ofx"))
	require.Error(t, err)
	assert.Equal(t, "No se encontraron archivos para importar", common.UserMessage(err, ""))
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeStatement(t, dir, "a.ofx")
	b := writeStatement(t, dir, "b.qfx")

	files, err := expandFiles([]string{filepath.Join(dir, "*.ofx"), a, b, filepath.Join(dir, "missing.ofx")})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, files)

	_, err = expandFiles([]string{"[invalid"})
	assert.Error(t, err)
}
