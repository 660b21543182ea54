package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rinde/internal/cli"
	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/service"
	"github.com/Veraticus/rinde/internal/sheets"
)

// exportTimeoutFactor stretches the request timeout for the Sheets export.
const exportTimeoutFactor = 4

func exportSheetsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-sheets",
		Short: "Export a ledger report to Google Sheets",
		Long: `Export the totals, per-subtype totals and entries of a date range to the
"Reporte" sheet of the configured spreadsheet. The range defaults to the
current month up to today.`,
		Args: cobra.NoArgs,
		RunE: e.runExportSheets,
	}

	cmd.Flags().String("from", "", "first day, DD/MM/YYYY or YYYY-MM-DD (default: first of the month)")
	cmd.Flags().String("to", "", "last day, DD/MM/YYYY or YYYY-MM-DD (default: today)")

	return cmd
}

// reportRange resolves --from and --to.
func reportRange(cmd *cobra.Command) (service.DateRange, error) {
	today := model.DateOf(now())
	r := service.DateRange{Start: today.FirstOfMonth(), End: today}

	for _, f := range []struct {
		dst  *model.Date
		name string
	}{{&r.Start, "from"}, {&r.End, "to"}} {
		raw, _ := cmd.Flags().GetString(f.name)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		d, err := parseDateFlag(raw)
		if err != nil {
			return service.DateRange{}, common.NewUserError(fmt.Sprintf("Fecha inválida en --%s: %q", f.name, raw), err)
		}
		*f.dst = d
	}

	if r.End.Before(r.Start) {
		return service.DateRange{}, common.NewUserError("La fecha final es anterior a la inicial", nil)
	}
	return r, nil
}

func (e *env) runExportSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	r, err := reportRange(cmd)
	if err != nil {
		return err
	}

	writer, err := e.reportWriter(ctx)
	if err != nil {
		return err
	}
	if writer == nil {
		return common.NewUserError("Google Sheets no está configurado. Ejecute: rinde sheets-auth", common.ErrMissingConfig)
	}

	a, err := e.openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	all, err := e.fetchEntries(ctx, a)
	if err != nil {
		return err
	}

	report := service.NewLedgerReport(a.session.Email(), r, all, now())

	ctx, cancel := context.WithTimeout(ctx, exportTimeoutFactor*e.cfg.Timeout)
	defer cancel()
	if err := writer.Write(ctx, report); err != nil {
		return common.NewUserError("No se pudo exportar el reporte", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Reporte exportado: %d movimientos", len(report.Entries))))
	return nil
}

func sheetsAuthCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets-auth",
		Short: "Authorize Google Sheets access",
		Long: `Authorize rinde to write to Google Sheets using OAuth2.

This command opens the Google consent page, waits for the redirect on a local
port and prints the refresh token to put in your config file as
sheets.refresh_token. The token is also cached next to the local database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientID := e.v.GetString("sheets.client_id")
			clientSecret := e.v.GetString("sheets.client_secret")
			if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
				clientID = flagID
			}
			if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
				clientSecret = flagSecret
			}
			if clientID == "" || clientSecret == "" {
				return common.NewUserError("Faltan sheets.client_id y sheets.client_secret en la configuración", common.ErrMissingConfig)
			}

			out := cmd.OutOrStdout()
			listen, _ := cmd.Flags().GetString("listen")
			token, err := sheets.GetOrCreateToken(cmd.Context(), sheets.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    e.tokenFile(),
				ListenAddr:   listen,
			}, func(url string) {
				fmt.Fprintln(out, cli.FormatInfo("Abra este enlace en su navegador para autorizar el acceso:"))
				fmt.Fprintln(out, url)
			})
			if err != nil {
				return fmt.Errorf("failed to authorize Google Sheets: %w", err)
			}

			fmt.Fprintln(out, cli.FormatSuccess("Acceso a Google Sheets autorizado"))
			fmt.Fprintln(out, cli.RenderBox("Agregue a su configuración", "sheets:\n  refresh_token: "+token.RefreshToken))
			return nil
		},
	}

	cmd.Flags().String("client-id", "", "OAuth2 client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 client secret (overrides config)")
	cmd.Flags().String("listen", "localhost:8080", "address for the OAuth2 redirect")

	return cmd
}
