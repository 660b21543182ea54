package ledger

import (
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/Veraticus/rinde/internal/model"
)

// Category restricts the entries listed on the dashboard.
type Category string

// Dashboard category filters.
const (
	CategoryNone    Category = ""
	CategoryIncome  Category = "income"
	CategoryExpense Category = "expense"
	CategorySavings Category = "savings"
	CategoryDebt    Category = "debt"
)

// ParseCategory accepts the Go names and the Spanish labels. The empty string means no restriction.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "balance", "todos":
		return CategoryNone, true
	case "income", "ingresos":
		return CategoryIncome, true
	case "expense", "egresos":
		return CategoryExpense, true
	case "savings", "ahorros":
		return CategorySavings, true
	case "debt", "deudas", "deuda":
		return CategoryDebt, true
	}
	return CategoryNone, false
}

// Matches reports whether an entry belongs to the category.
func (c Category) Matches(e model.Entry) bool {
	switch c {
	case CategoryNone:
		return true
	case CategoryIncome:
		return e.Type == model.TypeIncome
	case CategoryExpense:
		return e.Type == model.TypeExpense || e.Type == model.TypeDebtPayment
	case CategorySavings:
		return e.Type == model.TypeSavings
	case CategoryDebt:
		return e.Type == model.TypeDebt || e.Type == model.TypeDebtPayment
	}
	return false
}

// FilterByMonth keeps the entries dated in the given month and year, preserving order.
func FilterByMonth(entries []model.Entry, month time.Month, year int) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Date.IsZero() {
			slog.Warn("Skipping entry without a date", "description", e.Description, "type", e.Type)
			continue
		}
		if e.Date.Month == month && e.Date.Year == year {
			out = append(out, e)
		}
	}
	return out
}

// FilterBySearchAndCategory applies the dashboard search box and category filter.
// The debt category works over all entries because debt is cumulative; every other
// category works over the month's entries.
func FilterBySearchAndCategory(month, all []model.Entry, search string, category Category) []model.Entry {
	source := month
	if category == CategoryDebt {
		source = all
	}

	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(search))

	out := make([]model.Entry, 0, len(source))
	for _, e := range source {
		if !category.Matches(e) {
			continue
		}
		if needle != "" && !matchesSearch(fold, e, needle) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesSearch(fold cases.Caser, e model.Entry, needle string) bool {
	fields := []string{e.Description, e.Wire().Type, e.Type.Label(), e.Date.String()}
	for _, f := range fields {
		if strings.Contains(fold.String(f), needle) {
			return true
		}
	}
	return false
}

// FilterByRange keeps entries dated between start and end inclusive.
// A zero bound leaves that side open.
func FilterByRange(entries []model.Entry, start, end model.Date) []model.Entry {
	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Date.IsZero() {
			continue
		}
		if !start.IsZero() && e.Date.Before(start) {
			continue
		}
		if !end.IsZero() && e.Date.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterBySubtypes keeps entries whose subtype matches one of the options.
// An empty option list keeps everything.
func FilterBySubtypes(entries []model.Entry, options []model.Option) []model.Entry {
	if len(options) == 0 {
		return entries
	}

	type groupKey struct{ group, subtype string }
	wanted := make(map[groupKey]bool, len(options))
	for _, o := range options {
		wanted[groupKey{o.Group, o.Value}] = true
	}

	out := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		groups := []string{e.Type.Label(), ""}
		if e.Type == model.TypeDebtPayment {
			// Payments are offered under the debt subtypes but stored as expenses.
			groups = []string{model.WireDebt, model.WireExpense, ""}
		}
		for _, g := range groups {
			if wanted[groupKey{g, e.Subtype}] {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
