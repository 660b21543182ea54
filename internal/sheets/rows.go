package sheets

import (
	"sort"
	"time"

	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/service"
)

// Row indexes of the fixed part of the report, used by the formatting requests.
const (
	titleRow         = 0
	totalsHeaderRow  = 3
	totalsRows       = 5
	subtypeHeaderRow = totalsHeaderRow + totalsRows + 3
)

// reportValues lays out a report as sheet rows: a title, the five totals,
// the per-subtype totals and then every entry, newest first. Amounts are
// written as numbers so the sheet can format and sum them.
func reportValues(r service.LedgerReport, loc *time.Location) [][]any {
	values := make([][]any, 0, subtypeHeaderRow+len(r.BySubtype)+len(r.Entries)+4)

	values = append(values,
		[]any{"Reporte Rinde", rangeLabel(r.DateRange)},
		[]any{"Generado", r.GeneratedAt.In(loc).Format("02-01-2006 15:04"), r.Owner},
		[]any{},
		[]any{"Resumen"},
		[]any{"Balance", r.Summary.Balance},
		[]any{"Ahorros", r.Summary.Savings},
		[]any{"Deuda Total", r.Summary.NetDebt},
		[]any{"Ingresos", r.Summary.Income},
		[]any{"Egresos", r.Summary.Expense},
		[]any{},
		[]any{"Por subtipo"},
		[]any{"Tipo", "Subtipo", "Cantidad", "Monto"},
	)
	for _, st := range r.BySubtype {
		values = append(values, []any{st.Type.Label(), st.Subtype, st.Count, st.Amount})
	}

	values = append(values,
		[]any{},
		[]any{"Movimientos"},
		[]any{"Fecha", "Tipo", "Subtipo", "Monto", "Descripción"},
	)

	entries := append([]model.Entry(nil), r.Entries...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	for _, e := range entries {
		values = append(values, []any{e.Date.String(), e.Type.Label(), e.Subtype, e.Amount, e.Description})
	}

	return values
}

func rangeLabel(r service.DateRange) string {
	switch {
	case r.Start.IsZero() && r.End.IsZero():
		return "Todo el período"
	case r.Start.IsZero():
		return "hasta " + r.End.Display()
	case r.End.IsZero():
		return "desde " + r.Start.Display()
	}
	return r.Start.Display() + " - " + r.End.Display()
}
