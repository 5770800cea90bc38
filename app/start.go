package app

import (
	"github.com/spf13/cobra"

	"github.com/churchadmin/churchadmin/internal/config"
	"github.com/churchadmin/churchadmin/internal/daemon"
	"github.com/churchadmin/churchadmin/internal/logger"
)

func newStartCmd(opts *options) *cobra.Command {
	var (
		devMode      bool
		browseStatic bool
	)

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the ChurchAdmin web dashboard",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				path = "./etc/"
			}

			cfg, err := config.ReadConfig(path)
			if err != nil {
				return err
			}

			if devMode {
				cfg.DevMode = true
			}

			if browseStatic {
				cfg.Webserver.BrowseStatic = true
			}

			if err = logger.Init(cfg.Log); err != nil {
				return err
			}

			d, err := daemon.New(&cfg)
			if err != nil {
				return err
			}

			return d.Start()
		},
	}

	startCmd.Flags().BoolVar(&devMode, "dev", false, "Enable dev mode")
	startCmd.Flags().BoolVar(
		&browseStatic,
		"browse",
		false,
		"Enable static file browsing (for development purposes only)",
	)

	return startCmd
}
