package ofx

import (
	"context"
	"strings"
	"testing"

	"github.com/aclindsa/ofxgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/rinde/internal/gateway"
	"github.com/Veraticus/rinde/internal/model"
)

const sampleBankOFX = `OFXHEADER:100
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
<LANGUAGE>ENG
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
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25500
<FITID>2024011501
<NAME>COMPRA NACIONAL FARMACIA AHUMADA
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-125000.00
<FITID>2024012001
<NAME>Jumbo Las Condes
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>950000.40
<FITID>2024012501
<NAME>ABONO
<MEMO>Remuneraciones enero
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>950000.40
<FITID>2024012501
<NAME>ABONO
<MEMO>Remuneraciones enero
</STMTTRN>
<STMTTRN>
<TRNTYPE>FEE
<DTPOSTED>20240130120000[0:GMT]
<TRNAMT>0.00
<FITID>2024013001
<NAME>COMISION
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>799500.40
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
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
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>CLP
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45990
<FITID>CC2024011001
<NAME>MERCADOPAGO*FALABELLA
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-9990
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-55980
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseFile(t *testing.T) {
	tests := []struct {
		name          string
		ofxData       string
		expectedCount int
		expectedError bool
	}{
		{
			name:          "bank statement",
			ofxData:       sampleBankOFX,
			expectedCount: 3,
		},
		{
			name:          "credit card statement",
			ofxData:       sampleCreditCardOFX,
			expectedCount: 2,
		},
		{
			name:          "invalid OFX data",
			ofxData:       "not valid OFX",
			expectedError: true,
		},
		{
			name:          "empty OFX",
			ofxData:       "",
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := NewParser().ParseFile(context.Background(), strings.NewReader(tt.ofxData))

			if tt.expectedError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, records, tt.expectedCount)
		})
	}
}

func TestParseBankTransactions(t *testing.T) {
	records, err := NewParser().ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, Record{
		FitID:   "2024011501",
		Account: "1234567890",
		Entry: gateway.NewEntry{
			Date:        model.Date{Year: 2024, Month: 1, Day: 15},
			Type:        model.TypeExpense,
			Subtype:     model.SubtypeOther,
			Amount:      "25500",
			Description: "FARMACIA AHUMADA",
		},
	}, records[0])

	assert.Equal(t, "Jumbo Las Condes", records[1].Entry.Description)
	assert.Equal(t, "125000", records[1].Entry.Amount)

	// Credits are income; the generic name gives way to the memo.
	salary := records[2]
	assert.Equal(t, model.TypeIncome, salary.Entry.Type)
	assert.Equal(t, "950000", salary.Entry.Amount)
	assert.Equal(t, "Remuneraciones enero", salary.Entry.Description)
	assert.Equal(t, model.Date{Year: 2024, Month: 1, Day: 25}, salary.Entry.Date)

	for _, r := range records {
		assert.NoError(t, r.Entry.Validate())
	}
}

func TestParseCreditCardTransactions(t *testing.T) {
	records, err := NewParser().ParseFile(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "CC2024011001", records[0].FitID)
	assert.Equal(t, "4111111111111111", records[0].Account)
	assert.Equal(t, "MERCADOPAGO*FALABELLA", records[0].Entry.Description)
	assert.Equal(t, "45990", records[0].Entry.Amount)

	assert.Equal(t, "NETFLIX.COM", records[1].Entry.Description)
	assert.Equal(t, "9990", records[1].Entry.Amount)
	assert.Equal(t, model.TypeExpense, records[1].Entry.Type)
}

func TestParseFileCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser().ParseFile(ctx, strings.NewReader(sampleBankOFX))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPreprocessOFX(t *testing.T) {
	p := NewParser()

	out := p.preprocessOFX("\n\n  <OFX>\n<SEVERITY>Info</SEVERITY>\n<CODE\n</OFX>")
	assert.True(t, strings.HasPrefix(out, "<OFX>"))
	assert.Contains(t, out, "<SEVERITY>INFO</SEVERITY>")
	assert.Contains(t, out, "<CODE>")
}

func TestExtractDescription(t *testing.T) {
	parser := NewParser()

	tests := []struct {
		name     string
		tx       ofxgo.Transaction
		expected string
	}{
		{
			name:     "remove POS prefix",
			tx:       ofxgo.Transaction{Name: "POS PURCHASE STARBUCKS"},
			expected: "STARBUCKS",
		},
		{
			name:     "remove Spanish purchase prefix",
			tx:       ofxgo.Transaction{Name: "Compra Nacional COPEC"},
			expected: "COPEC",
		},
		{
			name:     "remove date stamp",
			tx:       ofxgo.Transaction{Name: "12/03 UBER TRIP"},
			expected: "UBER TRIP",
		},
		{
			name:     "keep clean name",
			tx:       ofxgo.Transaction{Name: "NETFLIX.COM"},
			expected: "NETFLIX.COM",
		},
		{
			name:     "trim whitespace",
			tx:       ofxgo.Transaction{Name: "  LIDER  "},
			expected: "LIDER",
		},
		{
			name:     "payee wins",
			tx:       ofxgo.Transaction{Name: "PAGO", Payee: &ofxgo.Payee{Name: "Enel Distribucion"}},
			expected: "Enel Distribucion",
		},
		{
			name:     "memo replaces generic name",
			tx:       ofxgo.Transaction{Name: "TRANSFERENCIA", Memo: "Arriendo marzo"},
			expected: "Arriendo marzo",
		},
		{
			name:     "fallback to the transaction type",
			tx:       ofxgo.Transaction{TrnType: ofxgo.TrnTypeATM},
			expected: "Movimiento ATM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parser.extractDescription(tt.tx))
		})
	}
}

func TestAccounts(t *testing.T) {
	parser := NewParser()

	accounts, err := parser.Accounts(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"1234567890"}, accounts)

	accounts, err = parser.Accounts(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	assert.Equal(t, []string{"4111111111111111"}, accounts)
}
