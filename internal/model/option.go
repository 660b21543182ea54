package model

// Option is a choice shown in a dropdown.
type Option struct {
	Value string // display label
	Group string // optional category tag
	ID    int
}

// Key identifies the option for selection membership.
func (o Option) Key() int {
	return o.ID
}

// Label returns the text shown for the option.
func (o Option) Label() string {
	return o.Value
}

// SubtypeOptions is the catalog of entry subtypes grouped by entry type.
var SubtypeOptions = []Option{
	{ID: 1, Value: "Sueldo", Group: WireIncome},
	{ID: 2, Value: "Bono", Group: WireIncome},
	{ID: 3, Value: "Inversiones", Group: WireIncome},
	{ID: 4, Value: SubtypeOther, Group: WireIncome},
	{ID: 5, Value: "Farmacia", Group: WireExpense},
	{ID: 6, Value: "Bencina", Group: WireExpense},
	{ID: 7, Value: "Compra", Group: WireExpense},
	{ID: 8, Value: "Gimnasio", Group: WireExpense},
	{ID: 9, Value: SubtypeOther, Group: WireExpense},
	{ID: 10, Value: "Tarjeta Crédito", Group: WireDebt},
	{ID: 11, Value: "Prestamo", Group: WireDebt},
	{ID: 12, Value: "Crédito", Group: WireDebt},
	{ID: 13, Value: SubtypeDebtPayment, Group: WireDebt},
	{ID: 14, Value: SubtypeOther, Group: WireDebt},
	{ID: 15, Value: SubtypeSavings, Group: WireSavings},
}

// SubtypesFor returns the subtype options offered for an entry type.
func SubtypesFor(t EntryType) []Option {
	group := t.Label()
	if t == TypeDebtPayment {
		group = WireDebt
	}
	var out []Option
	for _, opt := range SubtypeOptions {
		if opt.Group == group {
			out = append(out, opt)
		}
	}
	return out
}

// MonthOptions lists the months of the year; the ID is the month number.
var MonthOptions = []Option{
	{ID: 1, Value: "Enero"},
	{ID: 2, Value: "Febrero"},
	{ID: 3, Value: "Marzo"},
	{ID: 4, Value: "Abril"},
	{ID: 5, Value: "Mayo"},
	{ID: 6, Value: "Junio"},
	{ID: 7, Value: "Julio"},
	{ID: 8, Value: "Agosto"},
	{ID: 9, Value: "Septiembre"},
	{ID: 10, Value: "Octubre"},
	{ID: 11, Value: "Noviembre"},
	{ID: 12, Value: "Diciembre"},
}

// MonthOption returns the option for month m (1-12).
func MonthOption(m int) (Option, bool) {
	if m < 1 || m > len(MonthOptions) {
		return Option{}, false
	}
	return MonthOptions[m-1], true
}
