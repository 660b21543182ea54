// Package ledger computes the dashboard figures from a set of ledger entries.
// Every function here is pure and order-independent.
package ledger

import (
	"sort"

	"github.com/Veraticus/rinde/internal/model"
)

// Summary holds the five figures shown on the dashboard.
type Summary struct {
	Balance int64
	Savings int64
	NetDebt int64
	Income  int64
	Expense int64
}

// SubtypeTotal is the sum of one subtype within one entry type.
type SubtypeTotal struct {
	Type    model.EntryType
	Subtype string
	Amount  int64
	Count   int
}

// TotalIncome sums income entries.
func TotalIncome(entries []model.Entry) int64 {
	var total int64
	for _, e := range entries {
		if e.Type == model.TypeIncome {
			total += e.Amount
		}
	}
	return total
}

// TotalExpense sums every outflow: expenses, debt payments and savings.
func TotalExpense(entries []model.Entry) int64 {
	var total int64
	for _, e := range entries {
		if e.Type.IsOutflow() {
			total += e.Amount
		}
	}
	return total
}

// TotalSavings sums savings entries and expenses tagged with the savings subtype.
func TotalSavings(entries []model.Entry) int64 {
	var total int64
	for _, e := range entries {
		if isSavings(e) {
			total += e.Amount
		}
	}
	return total
}

// Balance is income minus every outflow. It may be negative.
func Balance(entries []model.Entry) int64 {
	return TotalIncome(entries) - TotalExpense(entries)
}

// NetDebt is recorded debt minus payments made against it. It is not clamped at zero.
func NetDebt(entries []model.Entry) int64 {
	var gross, paid int64
	for _, e := range entries {
		switch {
		case e.Type == model.TypeDebt && e.Subtype != model.SubtypeDebtPayment:
			gross += e.Amount
		case e.Type == model.TypeDebtPayment:
			paid += e.Amount
		}
	}
	return gross - paid
}

// Summarize computes the dashboard figures. Net debt is cumulative, so it is taken
// over all entries while the rest come from the month's entries.
func Summarize(month, all []model.Entry) Summary {
	return Summary{
		Balance: Balance(month),
		Savings: TotalSavings(month),
		NetDebt: NetDebt(all),
		Income:  TotalIncome(month),
		Expense: TotalExpense(month),
	}
}

// BySubtype groups entries by type and subtype, largest total first.
func BySubtype(entries []model.Entry) []SubtypeTotal {
	type key struct {
		typ     model.EntryType
		subtype string
	}

	index := make(map[key]int)
	var out []SubtypeTotal
	for _, e := range entries {
		k := key{typ: e.Type, subtype: e.Subtype}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, SubtypeTotal{Type: e.Type, Subtype: e.Subtype})
		}
		out[i].Amount += e.Amount
		out[i].Count++
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount != out[j].Amount {
			return out[i].Amount > out[j].Amount
		}
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].Subtype < out[j].Subtype
	})
	return out
}

func isSavings(e model.Entry) bool {
	return e.Type == model.TypeSavings ||
		(e.Type == model.TypeExpense && e.Subtype == model.SubtypeSavings)
}
