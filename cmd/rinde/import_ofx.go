package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/rinde/internal/cli"
	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/model"
	"github.com/Veraticus/rinde/internal/ofx"
)

func importOFXCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import entries from OFX/QFX bank statements",
		Long: `Import the movements of OFX or QFX statements exported from your bank.
Credits are recorded as income and debits as expenses, both with subtype "Otros".

Examples:
  # Import a single file
  rinde import-ofx ~/Descargas/cartola_marzo.ofx

  # Import every statement in a directory
  rinde import-ofx ~/Descargas/*.ofx

  # Preview without recording anything
  rinde import-ofx --dry-run ~/Descargas/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: e.runImportOFX,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "show the entries without recording them")

	return cmd
}

// expandFiles resolves glob patterns, keeping plain paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				slog.Warn("No files found matching pattern", "pattern", pattern)
				continue
			}
			matches = []string{pattern}
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	return files, nil
}

// readStatements parses every file, dropping movements already seen in an earlier file.
func readStatements(ctx context.Context, files []string) ([]ofx.Record, error) {
	parser := ofx.NewParser()
	seen := make(map[string]bool)
	var records []ofx.Record

	for _, path := range files {
		f, err := os.Open(path) //nolint:gosec // paths come from the command line
		if err != nil {
			slog.Error("Failed to open file", "file", path, "error", err)
			continue
		}
		parsed, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}

		added := 0
		for _, r := range parsed {
			key := r.Account + "/" + r.FitID
			if r.FitID != "" && seen[key] {
				continue
			}
			seen[key] = true
			records = append(records, r)
			added++
		}
		slog.Info("Processed file",
			"file", filepath.Base(path),
			"movements_found", len(parsed),
			"added", added,
			"duplicates", len(parsed)-added)
	}
	return records, nil
}

func (e *env) runImportOFX(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	out := cmd.OutOrStdout()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return common.NewUserError("No se encontraron archivos para importar", nil)
	}

	records, err := readStatements(ctx, files)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No se encontraron movimientos"))
		return nil
	}

	if dryRun {
		entries := make([]model.Entry, 0, len(records))
		for _, r := range records {
			if entry, err := r.Entry.Entry(); err == nil {
				entries = append(entries, entry)
			}
		}
		fmt.Fprintln(out, cli.RenderEntries(entries))
		fmt.Fprintln(out, cli.FormatInfo("Simulación: no se registró ningún movimiento"))
		return nil
	}

	a, err := e.openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireSession(); err != nil {
		return err
	}

	created, failed, err := e.postRecords(ctx, a, records, cmd.ErrOrStderr())
	if err != nil {
		return sessionError(err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%d movimientos registrados", created)))
	if failed > 0 {
		fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d movimientos no se pudieron registrar", failed)))
	}
	return nil
}

// postRecords creates the entries with bounded concurrency. A single failed
// entry is counted and skipped; an expired session or cancellation stops the import.
func (e *env) postRecords(ctx context.Context, a *app, records []ofx.Record, progress io.Writer) (int64, int64, error) {
	var created, failed atomic.Int64

	if e.interrupts != nil {
		e.interrupts.SetProgress(func() string {
			return fmt.Sprintf("%d de %d movimientos registrados", created.Load(), len(records))
		})
		defer e.interrupts.SetProgress(nil)
	}

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetWriter(progress),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[green][bold]Registrando movimientos...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(progress)
		}),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.ImportConcurrency)

	for _, r := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(gctx, e.cfg.Timeout)
			defer cancel()

			err := a.client.CreateEntry(reqCtx, r.Entry)
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, common.ErrSessionExpired), gctx.Err() != nil:
				return err
			default:
				failed.Add(1)
				slog.Warn("Failed to record movement", "fitid", r.FitID, "account", r.Account, "error", err)
			}
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return created.Load(), failed.Load(), err
}
