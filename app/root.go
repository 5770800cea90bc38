// Package app implements the churchadmin commands.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/config"
	"github.com/churchadmin/churchadmin/internal/confirm"
	"github.com/churchadmin/churchadmin/internal/logger"
	"github.com/churchadmin/churchadmin/internal/session"
)

// options are the persistent flags shared by every command.
type options struct {
	configPath  string
	sessionPath string
	logLevel    string
	yes         bool
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "churchadmin",
		Short: "ChurchAdmin is the super admin console of the church management backend",
		Long: `ChurchAdmin is the super admin console of the church management backend.
It manages member accounts, roles and permissions, departments and shows the audit log,
either from the web dashboard ("churchadmin start") or from this command line.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return config.LoadDotEnv()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "directory holding main.toml (default: environment only, ./etc/ for start)")
	flags.StringVar(&opts.sessionPath, "session", "", "session file (default: user config dir)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level of the command line client")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "answer yes to every confirmation")

	rootCmd.AddCommand(
		newStartCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newUsersCmd(opts),
		newRolesCmd(opts),
		newDepartmentsCmd(opts),
		newAuditLogsCmd(opts),
	)

	return rootCmd
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCmd()

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
	}

	return err
}

func printError(w io.Writer, err error) {
	if backend.IsUnauthorized(err) {
		_, _ = fmt.Fprintln(w, "Error: not signed in or the session expired. Run \"churchadmin login\" first.")
		return
	}

	_, _ = fmt.Fprintf(w, "Error: %s\n", backend.Message(err))
}

// initLogger sets up console logging for the command line client.
func (o *options) initLogger() error {
	return logger.Init(logger.Log{
		LogLevel:    o.logLevel,
		AppName:     "churchadmin",
		ServiceName: "churchadmin-cli",
		Console:     logger.Console{Enabled: true, UseConsoleWriter: true},
	})
}

func (o *options) backendConfig() (config.Backend, error) {
	if o.configPath == "" {
		return config.ReadBackend()
	}

	cfg, err := config.ReadConfig(o.configPath)
	if err != nil {
		return config.Backend{}, err
	}

	return cfg.Backend, nil
}

func (o *options) store() (*session.FileStore, error) {
	path := o.sessionPath
	if path == "" {
		var err error
		if path, err = session.DefaultPath(); err != nil {
			return nil, err
		}
	}

	return session.NewFileStore(path), nil
}

// client returns a backend client bound to the session file.
func (o *options) client(cmd *cobra.Command) (*backend.Client, error) {
	if err := o.initLogger(); err != nil {
		return nil, err
	}

	cfg, err := o.backendConfig()
	if err != nil {
		return nil, err
	}

	store, err := o.store()
	if err != nil {
		return nil, err
	}

	factory := backend.NewFactory(cfg, backend.WithUnauthorizedHandler(func() {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "The backend ended this session; the local session file was cleared.")
	}))

	return factory.For(store), nil
}

// confirmer asks on the terminal unless --yes was given.
func (o *options) confirmer(cmd *cobra.Command) confirm.Confirmer {
	if o.yes {
		return confirm.Always
	}

	return confirm.NewPrompt(cmd.InOrStdin(), cmd.ErrOrStderr())
}
