// Package ofx reads bank and credit-card statements in OFX/QFX format and
// turns their transactions into ledger entries ready to be recorded.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/rinde/internal/gateway"
	"github.com/Veraticus/rinde/internal/model"
)

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// An opening tag alone on its line with the closing bracket missing.
	tagFixRegex = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Record is one statement transaction converted to an entry.
type Record struct {
	FitID   string
	Account string
	Entry   gateway.NewEntry
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be INFO, WARN or ERROR.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	return tagFixRegex.ReplaceAllString(content, "$1>")
}

func (p *Parser) parse(ctx context.Context, reader io.Reader) (*ofxgo.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file. Credits become income and debits become
// expenses, both with the "Otros" subtype. A transaction repeated in the file
// under the same FITID is kept once.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]Record, error) {
	resp, err := p.parse(ctx, reader)
	if err != nil {
		return nil, err
	}

	var records []Record
	seen := make(map[string]bool)
	add := func(list *ofxgo.TransactionList, account string) {
		if list == nil {
			return
		}
		for _, tx := range list.Transactions {
			r, ok := p.convertTransaction(tx, account)
			if !ok {
				continue
			}
			key := account + "/" + r.FitID
			if r.FitID != "" && seen[key] {
				slog.Debug("Skipping repeated OFX transaction", "fitid", r.FitID, "account", account)
				continue
			}
			seen[key] = true
			records = append(records, r)
		}
	}

	var bankStmts, ccStmts int
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			add(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID))
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			add(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID))
		}
	}

	slog.Info("Parsed OFX file",
		"entries", len(records),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return records, nil
}

// convertTransaction converts an OFX transaction. Zero amounts are dropped.
func (p *Parser) convertTransaction(tx ofxgo.Transaction, account string) (Record, bool) {
	value, _ := tx.TrnAmt.Float64()
	amount := int64(math.Round(math.Abs(value)))
	if amount == 0 {
		slog.Debug("Skipping OFX transaction without amount", "fitid", tx.FiTID)
		return Record{}, false
	}

	typ := model.TypeExpense
	if value > 0 {
		typ = model.TypeIncome
	}

	return Record{
		FitID:   string(tx.FiTID),
		Account: account,
		Entry: gateway.NewEntry{
			Date:        model.DateOf(tx.DtPosted.Time),
			Type:        typ,
			Subtype:     model.SubtypeOther,
			Amount:      fmt.Sprintf("%d", amount),
			Description: p.extractDescription(tx),
		},
	}, true
}

// extractDescription tries to get a clean payee name from OFX data.
func (p *Parser) extractDescription(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && (name == "" || isGenericDescription(name)) {
		name = strings.TrimSpace(string(tx.Memo))
	}

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"COMPRA NACIONAL ",
		"COMPRA INTERNACIONAL ",
		"PAGO AUTOMATICO ",
		"TRASPASO A ",
		"TRASPASO DE ",
	}
	upper := strings.ToUpper(name)
	for _, prefix := range prefixes {
		if strings.HasPrefix(upper, prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "DD/MM " stamps.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	if name == "" {
		return fmt.Sprintf("Movimiento %v", tx.TrnType)
	}
	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE",
		"CARGO", "ABONO", "COMPRA", "PAGO", "TRANSFERENCIA":
		return true
	}
	return false
}

// Accounts returns the account IDs found in the file, sorted.
func (p *Parser) Accounts(ctx context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(ctx, reader)
	if err != nil {
		return nil, err
	}

	accountMap := make(map[string]bool)
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankAcctFrom.AcctID != "" {
			accountMap[string(stmt.BankAcctFrom.AcctID)] = true
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.CCAcctFrom.AcctID != "" {
			accountMap[string(stmt.CCAcctFrom.AcctID)] = true
		}
	}

	accounts := make([]string, 0, len(accountMap))
	for acct := range accountMap {
		accounts = append(accounts, acct)
	}
	sort.Strings(accounts)
	return accounts, nil
}
