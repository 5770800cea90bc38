// Package daemon wires the dashboard's database, sessions and backend client together.
package daemon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/config"
	"github.com/churchadmin/churchadmin/internal/db/controller/backendserver"
	"github.com/churchadmin/churchadmin/internal/web"
	websess "github.com/churchadmin/churchadmin/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start serves the dashboard until SIGINT or SIGTERM.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}

	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}

	sessions := websess.New(SessionStorage(cfg), cfg.Webserver.Session.ExpiryTime)

	// a url saved from the settings page wins over the configured one
	backendCfg := cfg.Backend

	backendCfg.URL, err = backendserver.EffectiveURL(context.Background(), db, cfg.Backend.URL)
	if err != nil {
		return nil, err
	}

	factory := backend.NewFactory(backendCfg, backend.WithUnauthorizedHandler(func() {
		log.Info().Msg("backend rejected a session token, operator must sign in again")
	}))

	log.Info().Str("backend", backendCfg.URL).Int("port", cfg.Webserver.Port).Msg("dashboard configured")

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, factory, sessions),
	}, nil
}
