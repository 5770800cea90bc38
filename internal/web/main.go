// Package web runs the super admin dashboard.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/config"
	accesslog "github.com/churchadmin/churchadmin/internal/logger/adapter/fiber"
	"github.com/churchadmin/churchadmin/internal/web/handler"
	"github.com/churchadmin/churchadmin/internal/web/handler/admin/auditlog"
	"github.com/churchadmin/churchadmin/internal/web/handler/admin/department"
	"github.com/churchadmin/churchadmin/internal/web/handler/admin/role"
	"github.com/churchadmin/churchadmin/internal/web/handler/admin/user"
	"github.com/churchadmin/churchadmin/internal/web/handler/login"
	"github.com/churchadmin/churchadmin/internal/web/handler/logout"
	"github.com/churchadmin/churchadmin/internal/web/handler/settings/backendserver"
	authmw "github.com/churchadmin/churchadmin/internal/web/middleware/auth"
	websess "github.com/churchadmin/churchadmin/internal/web/session"
)

// CheckAlivePath answers load balancer health checks.
const CheckAlivePath = "/checkalive"

// MetricsPath exposes the prometheus metrics.
const MetricsPath = "/metrics"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	env          *handler.Env
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan error, 1)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			doneFiber <- err
			return
		}

		doneFiber <- nil
	}()

	return <-doneFiber // wait for fiber to stop
}

// WaitShutdown waits for SIGINT or SIGTERM and stops the server gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	if err := s.env.Sessions.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close session storage")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

// Alive reports whether the service accepts traffic.
func (s *Service) Alive() bool {
	return s.alive.Load()
}

// New creates the dashboard with every handler registered.
func New(cfg *config.Config, db *gorm.DB, factory *backend.Factory, sessions *websess.Manager) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	httpFS := http.FS(templateEmbedFS{embeddedTemplates})
	templateEngine := html.NewFileSystem(httpFS, ".gohtml")

	// in debug mode, use local filesystem for templates
	if cfg.DevMode {
		templateEngine = html.New("./internal/web/templates", ".gohtml")
		templateEngine.ShouldReload = true

		log.Warn().Msg("debug mode enabled: using local filesystem for templates")
	}

	templateEngine.AddFunc("add", func(a, b int) int {
		return a + b
	})

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			Views:          templateEngine,
			ErrorHandler:   handler.ErrorHandler,
		},
	)

	service := &Service{
		cfg: cfg,
		App: app,
		env: &handler.Env{Cfg: cfg, DB: db, Factory: factory, Sessions: sessions},
	}
	service.alive.Store(true)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: handler.LocalRequestID,
	}))

	var quiet []string
	if cfg.Log.DisableCheckAlive {
		quiet = []string{CheckAlivePath, MetricsPath}
	}

	app.Use(accesslog.New(accesslog.Config{
		Log:          cfg.Log,
		SkipPaths:    quiet,
		RequestIDKey: handler.LocalRequestID,
		OperatorKey:  handler.LocalOperator,
	}))

	app.Get(CheckAlivePath, func(c *fiber.Ctx) error {
		if !service.Alive() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// serve embedded static files
	app.Use("/static",
		filesystem.New(
			filesystem.Config{
				Root:       http.FS(embeddedStaticFiles),
				PathPrefix: "static",
				Browse:     cfg.Webserver.BrowseStatic,
			},
		),
	)

	app.Use(authmw.New(sessions, factory))

	services := []handler.Service{
		&login.Service{},
		&logout.Service{},
		&user.Service{},
		&role.Service{},
		&department.Service{},
		&auditlog.Service{},
		&backendserver.Service{},
	}

	for _, svc := range services {
		if err := svc.Init(app, service.env); err != nil {
			log.Fatal().Err(err).Msg("failed to init handler")
		}
	}

	app.Get(handler.RootPath, func(c *fiber.Ctx) error {
		return c.Redirect(user.Path)
	})

	return service
}
