// Package main runs the terminal interface against an in-process fake backend
// seeded with demo data.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Veraticus/rinde/internal/gateway"
	"github.com/Veraticus/rinde/internal/gateway/gatewaytest"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/notice"
	"github.com/Veraticus/rinde/internal/session"
	"github.com/Veraticus/rinde/internal/sheets"
	"github.com/Veraticus/rinde/internal/storage"
	"github.com/Veraticus/rinde/internal/tui"
)

const (
	demoEmail    = "demo@rinde.cl"
	demoPassword = "demo"
)

type demoEntry struct {
	description string
	typ         string
	subtype     string
	day         int
	amount      int64
}

// monthly repeats in each of the last three months.
var monthly = []demoEntry{
	{"Sueldo", model.WireIncome, "Sueldo", 5, 1450000},
	{"Arriendo departamento", model.WireExpense, "Arriendo", 6, 520000},
	{"Supermercado Lider", model.WireExpense, "Supermercado", 9, 138500},
	{"Farmacia Cruz Verde", model.WireExpense, "Farmacia", 12, 23990},
	{"Cuenta de luz", model.WireExpense, "Servicios", 14, 41200},
	{"Cuota crédito auto", model.WireExpense, model.SubtypeDebtPayment, 15, 189000},
	{"Depósito a plazo", model.WireSavings, "Ahorros", 20, 150000},
}

func demoBills(today model.Date) []model.WireEntry {
	bills := []model.WireEntry{
		{Description: "Crédito automotriz", Type: model.WireDebt, Subtype: "Crédito", Date: today.AddMonths(-4).FirstOfMonth().String(), Amount: 6800000},
		{Description: "Bono anual", Type: model.WireIncome, Subtype: "Bono", Date: today.AddMonths(-1).FirstOfMonth().String(), Amount: 300000},
	}
	for back := 2; back >= 0; back-- {
		month := today.AddMonths(-back).FirstOfMonth()
		for _, e := range monthly {
			d, err := model.NewDate(month.Year, month.Month, min(e.day, model.DaysInMonth(month.Year, month.Month)))
			if err != nil || d.After(today) {
				continue
			}
			bills = append(bills, model.WireEntry{
				Description: e.description,
				Type:        e.typ,
				Subtype:     e.subtype,
				Date:        d.String(),
				Amount:      model.Amount(e.amount),
			})
		}
	}
	return bills
}

func run(ctx context.Context) error {
	// Logs would corrupt the alternate screen.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	srv := gatewaytest.New(gatewaytest.WithAccessTTL(time.Hour))
	defer srv.Close()
	srv.AddUser(demoEmail, demoPassword, "Demo")
	srv.SeedBills(demoEmail, demoBills(model.Today())...)

	store, err := storage.Open(ctx, ":memory:")
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sess := session.New(store)
	producer, consumer := notice.New()
	client := gateway.NewClient(srv.URL, sess, producer)

	if _, err := client.Login(ctx, demoEmail, demoPassword); err != nil {
		return fmt.Errorf("demo login failed: %w", err)
	}

	return tui.Run(ctx,
		tui.WithBackend(client, sess),
		tui.WithNotices(consumer),
		tui.WithReportWriter(sheets.NewMockWriter()),
		tui.WithSize(120, 40),
	)
}

func main() {
	if err := run(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
