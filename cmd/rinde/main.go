// Command rinde is the terminal client for the Rinde personal ledger.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/rinde/internal/cli"
	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/config"
)

var version = "dev"

// annotationLogToFile marks commands that own the terminal, so logs go to the log file.
const annotationLogToFile = "rinde/log-to-file"

// env is the state shared by every command of one invocation.
type env struct {
	v          *viper.Viper
	cfg        *config.Config
	interrupts *cli.InterruptHandler
	in         io.Reader
	logFile    *os.File
	cfgFile    string
	stdinFd    int
}

func newEnv(in io.Reader, stdinFd int, interrupts *cli.InterruptHandler) *env {
	return &env{
		v:          viper.New(),
		in:         in,
		stdinFd:    stdinFd,
		interrupts: interrupts,
	}
}

func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rinde",
		Short: "Personal ledger for incomes, expenses, debts and savings",
		Long: `rinde keeps track of your incomes, expenses, debts and savings against the
Rinde backend. Run it without a subcommand to open the terminal interface.`,
		Annotations:       map[string]string{annotationLogToFile: "true"},
		PersistentPreRunE: e.initConfig,
		RunE:              e.runTUI,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&e.cfgFile, "config", "", "config file (default: $HOME/.config/rinde/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("api-url", "", "Rinde backend URL")

	_ = e.v.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = e.v.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
	_ = e.v.BindPFlag(config.KeyAPIBaseURL, rootCmd.PersistentFlags().Lookup("api-url"))

	rootCmd.AddCommand(loginCmd(e))
	rootCmd.AddCommand(logoutCmd(e))
	rootCmd.AddCommand(tuiCmd(e))
	rootCmd.AddCommand(summaryCmd(e))
	rootCmd.AddCommand(listCmd(e))
	rootCmd.AddCommand(addCmd(e))
	rootCmd.AddCommand(importOFXCmd(e))
	rootCmd.AddCommand(exportSheetsCmd(e))
	rootCmd.AddCommand(sheetsAuthCmd(e))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx, stop := interrupts.HandleInterrupts(context.Background())

	e := newEnv(os.Stdin, int(os.Stdin.Fd()), interrupts)
	err := newRootCmd(e).ExecuteContext(ctx)
	e.closeLog()
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(common.UserMessage(err, err.Error())))
		os.Exit(1)
	}
}

func (e *env) initConfig(cmd *cobra.Command, _ []string) error {
	// A missing .env is fine; a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	v := e.v
	if e.cfgFile != "" {
		v.SetConfigFile(e.cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		v.AddConfigPath(filepath.Join(home, ".config", "rinde"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("RINDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	config.SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	e.cfg = cfg

	if err := e.setupLogging(cmd); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

// setupLogging sends logs to stderr, or to the log file for commands that take
// over the terminal.
func (e *env) setupLogging(cmd *cobra.Command) error {
	var w io.Writer = os.Stderr
	if cmd.Annotations[annotationLogToFile] != "" {
		f, err := common.OpenLogFile(e.cfg.LogFile)
		if err != nil {
			return err
		}
		e.logFile = f
		w = f
	}

	common.SetupLogger(w, common.ParseLevel(e.cfg.LogLevel), e.cfg.LogFormat)
	return nil
}

func (e *env) closeLog() {
	if e.logFile != nil {
		_ = e.logFile.Close()
		e.logFile = nil
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rinde %s\n", version)
		},
	}
}
