package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rinde/internal/cli"
	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/gateway"
	"github.com/Veraticus/rinde/internal/ledger"
	"github.com/Veraticus/rinde/internal/model"
)

// now is replaced in tests.
var now = time.Now

func addMonthFlags(cmd *cobra.Command) {
	cmd.Flags().Int("month", 0, "month 1-12 (default: current month)")
	cmd.Flags().Int("year", 0, "year (default: current year)")
}

// monthFlags resolves --month and --year against the current date.
func monthFlags(cmd *cobra.Command) (time.Month, int, error) {
	today := model.DateOf(now())
	month, _ := cmd.Flags().GetInt("month")
	year, _ := cmd.Flags().GetInt("year")

	if month == 0 {
		month = int(today.Month)
	}
	if year == 0 {
		year = today.Year
	}
	if month < 1 || month > 12 {
		return 0, 0, common.NewUserError(fmt.Sprintf("Mes inválido: %d", month), nil)
	}
	return time.Month(month), year, nil
}

func monthTitle(month time.Month, year int) string {
	opt, _ := model.MonthOption(int(month))
	return fmt.Sprintf("%s %d", opt.Value, year)
}

// fetchEntries lists the user's entries within the request timeout.
func (e *env) fetchEntries(ctx context.Context, a *app) ([]model.Entry, error) {
	if err := a.requireSession(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	entries, err := a.client.ListEntries(ctx)
	if err != nil {
		return nil, sessionError(err)
	}
	return entries, nil
}

func summaryCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show the month's balance, savings, debt, income and expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			month, year, err := monthFlags(cmd)
			if err != nil {
				return err
			}

			a, err := e.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			all, err := e.fetchEntries(cmd.Context(), a)
			if err != nil {
				return err
			}

			inMonth := ledger.FilterByMonth(all, month, year)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.RenderSummary(monthTitle(month, year), ledger.Summarize(inMonth, all)))
			if totals := cli.RenderSubtypes(ledger.BySubtype(inMonth)); totals != "" {
				fmt.Fprintln(out, totals)
			}
			return nil
		},
	}
	addMonthFlags(cmd)
	return cmd
}

func listCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the month's entries",
		Long: `List the month's entries, optionally narrowed by a search text and a category.
The debt category lists debts and payments from every month.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			month, year, err := monthFlags(cmd)
			if err != nil {
				return err
			}
			search, _ := cmd.Flags().GetString("search")
			rawCategory, _ := cmd.Flags().GetString("category")
			category, ok := ledger.ParseCategory(rawCategory)
			if !ok {
				return common.NewUserError(fmt.Sprintf("Categoría desconocida: %q", rawCategory), nil)
			}

			a, err := e.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			all, err := e.fetchEntries(cmd.Context(), a)
			if err != nil {
				return err
			}

			inMonth := ledger.FilterByMonth(all, month, year)
			shown := ledger.FilterBySearchAndCategory(inMonth, all, search, category)
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderEntries(shown))
			return nil
		},
	}
	addMonthFlags(cmd)
	cmd.Flags().StringP("search", "s", "", "text to look for in description, type or date")
	cmd.Flags().StringP("category", "c", "", "income, expense, savings or debt")
	return cmd
}

func addCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new entry",
		Example: `  rinde add --type egresos --subtype Farmacia --amount 12500 --description "Remedios"
  rinde add --type ingresos --subtype Sueldo --amount '$ 900.000' --date 05/03/2024 --description "Sueldo marzo"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := newEntryFromFlags(cmd)
			if err != nil {
				return err
			}

			a, err := e.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireSession(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.Timeout)
			defer cancel()
			if err := a.client.CreateEntry(ctx, n); err != nil {
				return common.NewUserError("No se pudo registrar", sessionError(err))
			}

			entry, _ := n.Entry()
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Registrado Exitosamente: %s %s %s",
				entry.Type.Label(), entry.Subtype, ledger.FormatCLP(entry.Amount))))
			return nil
		},
	}

	cmd.Flags().StringP("type", "t", "", "income, expense, debt, debt_payment or savings (Spanish labels work too)")
	cmd.Flags().String("subtype", "", "subtype, e.g. Sueldo or Farmacia")
	cmd.Flags().StringP("amount", "a", "", "amount in pesos; non-digits are ignored")
	cmd.Flags().StringP("date", "d", "", "date as DD/MM/YYYY or YYYY-MM-DD (default: today)")
	cmd.Flags().String("description", "", "description")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("subtype")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

// newEntryFromFlags builds and validates the entry described by the add flags.
func newEntryFromFlags(cmd *cobra.Command) (gateway.NewEntry, error) {
	rawType, _ := cmd.Flags().GetString("type")
	subtype, _ := cmd.Flags().GetString("subtype")
	amount, _ := cmd.Flags().GetString("amount")
	rawDate, _ := cmd.Flags().GetString("date")
	description, _ := cmd.Flags().GetString("description")

	typ, err := model.ParseEntryType(rawType)
	if err != nil {
		return gateway.NewEntry{}, common.NewUserError(fmt.Sprintf("Tipo desconocido: %q", rawType), err)
	}

	date := model.DateOf(now())
	if strings.TrimSpace(rawDate) != "" {
		if date, err = parseDateFlag(rawDate); err != nil {
			return gateway.NewEntry{}, common.NewUserError(fmt.Sprintf("Fecha inválida: %q", rawDate), err)
		}
	}

	n := gateway.NewEntry{
		Date:        date,
		Type:        typ,
		Subtype:     subtype,
		Amount:      amount,
		Description: description,
	}
	if err := n.Validate(); err != nil {
		return gateway.NewEntry{}, common.NewUserError("Datos incompletos", err)
	}
	return n, nil
}

// parseDateFlag accepts the form's DD/MM/YYYY and ISO dates.
func parseDateFlag(s string) (model.Date, error) {
	if strings.Contains(s, "/") {
		return model.ParseDisplayDate(s)
	}
	return model.ParseDate(s)
}
