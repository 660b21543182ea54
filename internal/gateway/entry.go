package gateway

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Veraticus/rinde/internal/ledger"
	"github.com/Veraticus/rinde/internal/model"
)

// Form field names used in validation errors.
const (
	FieldType        = "type"
	FieldSubtype     = "subtype"
	FieldAmount      = "amount"
	FieldDate        = "date"
	FieldDescription = "description"
)

// MsgRequired is shown under a required field left empty.
const MsgRequired = "Este campo es obligatorio"

// ValidationErrors maps a field name to the problem with it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "invalid entry: " + strings.Join(parts, ", ")
}

// NewEntry is an entry as typed into the form, before it is sent.
type NewEntry struct {
	Date        model.Date
	Type        model.EntryType
	Subtype     string
	Amount      string // raw text; every non-digit is dropped
	Description string
}

// Validate checks that every field is present.
func (n NewEntry) Validate() error {
	errs := ValidationErrors{}
	if n.Type == "" {
		errs[FieldType] = MsgRequired
	}
	if strings.TrimSpace(n.Subtype) == "" {
		errs[FieldSubtype] = MsgRequired
	}
	if _, ok := ledger.ParseAmount(n.Amount); !ok {
		errs[FieldAmount] = MsgRequired
	}
	if n.Date.IsZero() {
		errs[FieldDate] = MsgRequired
	}
	if strings.TrimSpace(n.Description) == "" {
		errs[FieldDescription] = MsgRequired
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Entry converts a valid form into a ledger entry.
func (n NewEntry) Entry() (model.Entry, error) {
	if err := n.Validate(); err != nil {
		return model.Entry{}, err
	}
	amount, _ := ledger.ParseAmount(n.Amount)
	return model.Entry{
		Date:        n.Date,
		Description: strings.TrimSpace(n.Description),
		Type:        n.Type,
		Subtype:     strings.TrimSpace(n.Subtype),
		Amount:      amount,
	}, nil
}

// createBillRequest is the body of POST /create-bill.
type createBillRequest struct {
	Email       string `json:"email"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Subtype     string `json:"subtype"`
	Amount      int64  `json:"amount"`
}

func newCreateBillRequest(email string, e model.Entry) createBillRequest {
	w := e.Wire()
	return createBillRequest{
		Email:       email,
		Type:        w.Type,
		Amount:      int64(w.Amount),
		Date:        w.Date,
		Description: w.Description,
		Subtype:     w.Subtype,
	}
}

func (r createBillRequest) String() string {
	return fmt.Sprintf("%s/%s %d %s", r.Type, r.Subtype, r.Amount, r.Date)
}
