package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Veraticus/rinde/internal/ledger"
	"github.com/Veraticus/rinde/internal/model"
)

// amountColumn is right aligned in every table below.
const amountColumn = 3

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtleStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			if col == amountColumn {
				return TableCellStyle.Align(lipgloss.Right)
			}
			return TableCellStyle
		})
}

// RenderEntries renders entries as a table in the order given.
func RenderEntries(entries []model.Entry) string {
	if len(entries) == 0 {
		return SubtleStyle.Render("Sin movimientos para mostrar")
	}

	t := newTable("Fecha", "Tipo", "Subtipo", "Monto", "Descripción")
	for _, e := range entries {
		t.Row(e.Date.Dashed(), e.Type.Label(), e.Subtype, ledger.FormatCLP(e.Amount), e.Description)
	}
	return t.Render() + "\n" + SubtleStyle.Render(fmt.Sprintf("%d movimientos", len(entries)))
}

// RenderSummary renders the five dashboard totals in a box.
func RenderSummary(title string, s ledger.Summary) string {
	balance := SuccessStyle
	if s.Balance < 0 {
		balance = ErrorStyle
	}

	rows := []struct {
		label string
		style lipgloss.Style
		value int64
	}{
		{"Balance", balance.Inherit(BoldStyle), s.Balance},
		{"Ahorros", InfoStyle, s.Savings},
		{"Deuda Total", WarningStyle, s.NetDebt},
		{"Ingresos", SuccessStyle, s.Income},
		{"Egresos", ErrorStyle, s.Expense},
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		label := SubtleStyle.Render(fmt.Sprintf("%-12s", r.label))
		lines = append(lines, label+" "+r.style.Render(fmt.Sprintf("%14s", ledger.FormatCLP(r.value))))
	}
	return RenderBox(title, strings.Join(lines, "\n"))
}

// RenderSubtypes renders per-subtype totals.
func RenderSubtypes(totals []ledger.SubtypeTotal) string {
	if len(totals) == 0 {
		return ""
	}
	t := newTable("Tipo", "Subtipo", "Cantidad", "Monto")
	for _, st := range totals {
		t.Row(st.Type.Label(), st.Subtype, fmt.Sprint(st.Count), ledger.FormatCLP(st.Amount))
	}
	return SubtitleStyle.Render("Por subtipo") + "\n" + t.Render()
}
