package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/rinde/internal/cli"
	"github.com/Veraticus/rinde/internal/common"
	"github.com/Veraticus/rinde/internal/gateway"
)

func loginCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the Rinde backend",
		Long: `Log in with your email and password. The session is saved locally and
reused by every other command until it expires or you log out.`,
		Args: cobra.NoArgs,
		RunE: e.runLogin,
	}

	cmd.Flags().String("email", "", "account email (asked for when omitted)")

	return cmd
}

func (e *env) runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	reader := cli.NewLineReader(e.in, cmd.ErrOrStderr())

	email, _ := cmd.Flags().GetString("email")
	if strings.TrimSpace(email) == "" {
		var err error
		if email, err = reader.Ask(ctx, "Correo"); err != nil {
			return err
		}
	}
	password, err := reader.AskSecret(ctx, "Contraseña", e.stdinFd)
	if err != nil {
		return err
	}

	if strings.TrimSpace(email) == "" || password == "" {
		return common.NewUserError("Correo y contraseña son obligatorios", nil)
	}

	a, err := e.openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.client.Login(ctx, email, password)
	if err != nil {
		if gateway.StatusOf(err) != 0 {
			return common.NewUserError("Error al iniciar sesión", err)
		}
		return err
	}

	name := user.Email
	if user.Name != "" {
		name = fmt.Sprintf("%s (%s)", user.Name, user.Email)
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Sesión iniciada como "+name))
	return nil
}

func logoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := e.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if !a.session.Authenticated() {
				fmt.Fprintln(out, cli.FormatInfo("No hay una sesión activa"))
				return nil
			}

			// The local session is gone even when the backend call fails.
			if err := a.client.Logout(ctx); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatWarning("El servidor no confirmó el cierre de sesión: "+err.Error()))
			}
			fmt.Fprintln(out, cli.FormatSuccess("Sesión cerrada"))
			return nil
		},
	}
}
