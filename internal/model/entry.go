// Package model defines the core domain types of the ledger.
package model

import (
	"errors"
	"fmt"
	"strings"
)

// EntryType is the category of a ledger entry.
type EntryType string

const (
	// TypeIncome is money received.
	TypeIncome EntryType = "income"
	// TypeExpense is money spent.
	TypeExpense EntryType = "expense"
	// TypeSavings is money set aside.
	TypeSavings EntryType = "savings"
	// TypeDebt is debt taken on.
	TypeDebt EntryType = "debt"
	// TypeDebtPayment is a payment against recorded debt. It is an outflow and
	// is listed with expenses.
	TypeDebtPayment EntryType = "debt_payment"
)

// Wire tags used by the backend.
const (
	WireIncome      = "Ingresos"
	WireExpense     = "Egresos"
	WireSavings     = "Ahorros"
	WireDebt        = "Deudas"
	WireDebtPayment = "PagoDeuda"
)

// Subtype labels with special meaning in the aggregates.
const (
	SubtypeDebtPayment = "Pago Deuda"
	SubtypeSavings     = "Ahorros"
	SubtypeOther       = "Otros"
)

// ErrInvalidEntry marks a record that could not be turned into an Entry.
var ErrInvalidEntry = errors.New("invalid entry")

// EntryTypes lists the four user-facing entry types in tab order.
var EntryTypes = []EntryType{TypeIncome, TypeExpense, TypeDebt, TypeSavings}

// Label returns the Spanish label shown for the type.
func (t EntryType) Label() string {
	switch t {
	case TypeIncome:
		return WireIncome
	case TypeExpense:
		return WireExpense
	case TypeSavings:
		return WireSavings
	case TypeDebt:
		return WireDebt
	case TypeDebtPayment:
		return SubtypeDebtPayment
	}
	return string(t)
}

// IsOutflow reports whether the type reduces the balance.
func (t EntryType) IsOutflow() bool {
	return t == TypeExpense || t == TypeDebtPayment || t == TypeSavings
}

// ParseEntryType accepts either a wire tag or the Go-side name.
func ParseEntryType(s string) (EntryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ingresos", "income":
		return TypeIncome, nil
	case "egresos", "expense":
		return TypeExpense, nil
	case "ahorros", "ahorro", "savings":
		return TypeSavings, nil
	case "deudas", "debt":
		return TypeDebt, nil
	case "pagodeuda", "debt_payment":
		return TypeDebtPayment, nil
	}
	return "", fmt.Errorf("%w: unknown type %q", ErrInvalidEntry, s)
}

// Entry is one recorded financial transaction. Amounts are whole pesos.
type Entry struct {
	Date        Date
	Description string
	Type        EntryType
	Subtype     string
	Amount      int64
}

// WireEntry is the JSON shape of an entry as the backend stores it.
type WireEntry struct {
	Description string `json:"description"`
	Type        string `json:"type"`
	Subtype     string `json:"subtype"`
	Date        string `json:"date"`
	Amount      Amount `json:"amount"`
}

// NormalizeEntry turns a backend record into an Entry. Both representations of
// a debt payment become TypeDebtPayment.
func NormalizeEntry(w WireEntry) (Entry, error) {
	date, err := ParseDate(w.Date)
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if w.Amount < 0 {
		return Entry{}, fmt.Errorf("%w: negative amount %d", ErrInvalidEntry, w.Amount)
	}

	var typ EntryType
	switch w.Type {
	case WireIncome:
		typ = TypeIncome
	case WireExpense:
		typ = TypeExpense
		if w.Subtype == SubtypeDebtPayment {
			typ = TypeDebtPayment
		}
	case WireSavings:
		typ = TypeSavings
	case WireDebt:
		typ = TypeDebt
	case WireDebtPayment:
		typ = TypeDebtPayment
	default:
		return Entry{}, fmt.Errorf("%w: unknown type %q", ErrInvalidEntry, w.Type)
	}

	subtype := w.Subtype
	if typ == TypeDebtPayment && subtype == "" {
		subtype = SubtypeDebtPayment
	}

	return Entry{
		Description: w.Description,
		Type:        typ,
		Subtype:     subtype,
		Amount:      int64(w.Amount),
		Date:        date,
	}, nil
}

// Wire converts the entry back to the backend representation.
func (e Entry) Wire() WireEntry {
	w := WireEntry{
		Description: e.Description,
		Type:        e.Type.Label(),
		Subtype:     e.Subtype,
		Amount:      Amount(e.Amount),
		Date:        e.Date.String(),
	}
	if e.Type == TypeDebtPayment {
		w.Type = WireExpense
		w.Subtype = SubtypeDebtPayment
	}
	return w
}
