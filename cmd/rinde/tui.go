package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rinde/internal/tui"
	"github.com/Veraticus/rinde/internal/tui/themes"
)

func tuiCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "tui",
		Short:       "Open the terminal interface",
		Long:        `Open the terminal interface: dashboard, entry form and reports. This is also what rinde runs without a subcommand.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationLogToFile: "true"},
		RunE:        e.runTUI,
	}

	cmd.Flags().String("theme", "", "color theme (default, catppuccin-mocha)")
	cmd.Flags().Bool("no-mouse", false, "disable mouse support")
	_ = e.v.BindPFlag("tui.theme", cmd.Flags().Lookup("theme"))

	return cmd
}

func (e *env) runTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := e.openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []tui.Option{
		tui.WithBackend(a.client, a.session),
		tui.WithNotices(a.notices),
		tui.WithTheme(themes.GetTheme(e.v.GetString("tui.theme"))),
		tui.WithRequestTimeout(e.cfg.Timeout),
	}
	if noMouse, _ := cmd.Flags().GetBool("no-mouse"); noMouse {
		opts = append(opts, tui.WithMouse(false))
	}

	writer, err := e.reportWriter(ctx)
	switch {
	case err != nil:
		slog.Warn("Sheets export disabled", "error", err)
	case writer != nil:
		opts = append(opts, tui.WithReportWriter(writer))
	}

	slog.Info("Starting TUI", "api", e.cfg.BaseURL, "authenticated", a.session.Authenticated())
	return tui.Run(ctx, opts...)
}
