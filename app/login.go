package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/models"
)

// ErrNotSuperAdmin is returned when a non super admin signs in.
var ErrNotSuperAdmin = backend.Refused("this console is for super admins only")

func newLoginCmd(opts *options) *cobra.Command {
	var mobile string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for the following commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}

			password, err := readPassword(cmd)
			if err != nil {
				return err
			}

			user, err := client.Login(cmd.Context(), backend.Credentials{Mobile: mobile, Password: password})
			if err != nil {
				return err
			}

			if user.Role != models.RoleSuperAdmin {
				_ = client.Logout(cmd.Context())
				return ErrNotSuperAdmin
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", user.Name, user.Role.Label())

			return nil
		},
	}

	cmd.Flags().StringVarP(&mobile, "mobile", "m", "", "mobile number")
	_ = cmd.MarkFlagRequired("mobile")

	return cmd
}

// readPassword reads without echo from a terminal, otherwise the first line of input.
func readPassword(cmd *cobra.Command) (string, error) {
	in := cmd.InOrStdin()

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), "Password: ")

		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())

		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}

		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("read password: %w", err)
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the backend and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}

			if err = client.Logout(cmd.Context()); err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "backend logout failed: %s\n", backend.Message(err))
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Signed out")

			return nil
		},
	}
}
