// Package fiber writes the dashboard access log: one zerolog line per request
// with the request id and the signed-in operator.
package fiber

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/churchadmin/churchadmin/internal/logger"
)

// HeaderResponseTime carries the handling time of a request.
const HeaderResponseTime = "X-Response-Time"

// Config configures the access log.
type Config struct {
	// Log selects the access log outputs: the rotated access file and, when
	// EnableAccessLogToConsole is set, the console.
	Log logger.Log

	// SkipPaths are served but never logged.
	SkipPaths []string

	// RequestIDKey is the fiber.Locals key of the request id.
	RequestIDKey string

	// OperatorKey is the fiber.Locals key of the signed-in operator's mobile.
	OperatorKey string
}

// New returns the access log middleware. Errors from later handlers go
// through the app error handler first so the logged status is the one sent.
func New(cfg Config) fiber.Handler {
	access := newAccessLogger(cfg.Log)

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()

		chainErr := c.Next()
		if chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
				c.Set(fiber.HeaderCacheControl, "no-store")
			}
		}

		elapsed := time.Since(start)
		c.Set(HeaderResponseTime, elapsed.String())

		if _, ok := skip[c.Path()]; ok {
			return nil
		}

		ev := access.Log().
			Str("ip", c.IP()).
			Str("method", c.Method()).
			Str("path", requestPath(c)).
			Int("status", c.Response().StatusCode()).
			Dur("duration", elapsed).
			Bytes("host", c.Request().Host()).
			Str("user_agent", c.Get(fiber.HeaderUserAgent)).
			Str("referer", c.Get(fiber.HeaderReferer))

		if fwd := c.Get(fiber.HeaderXForwardedFor); fwd != "" {
			ev.Str("forwarded_for", fwd)
		}

		localStr(ev, c, cfg.RequestIDKey, "request_id")
		localStr(ev, c, cfg.OperatorKey, "operator")

		if chainErr != nil {
			ev.Err(chainErr)
		}

		ev.Send()

		return nil
	}
}

// requestPath is the path as sent by the client plus its query. fasthttp
// collapses duplicate slashes in routing, the log keeps them.
func requestPath(c *fiber.Ctx) string {
	p := c.Path()
	if q := c.Request().URI().QueryString(); len(q) > 0 {
		p += "?" + string(q)
	}

	return p
}

func localStr(ev *zerolog.Event, c *fiber.Ctx, key, field string) {
	if key == "" {
		return
	}

	if v, ok := c.Locals(key).(string); ok && v != "" {
		ev.Str(field, v)
	}
}

// newAccessLogger builds a logger that writes every line regardless of the
// global level. Without outputs it discards.
func newAccessLogger(cfg logger.Log) zerolog.Logger {
	var writers []io.Writer

	if cfg.File.Enabled {
		if fw := newRollingAccessFile(cfg); fw != nil {
			writers = append(writers, fw)
		}
	}

	if cfg.Console.Enabled && cfg.EnableAccessLogToConsole {
		if cfg.Console.UseConsoleWriter {
			writers = append(writers, zerolog.ConsoleWriter{
				Out:          os.Stdout,
				TimeFormat:   zerolog.TimeFieldFormat,
				PartsExclude: []string{zerolog.LevelFieldName},
			})
		} else {
			writers = append(writers, os.Stdout)
		}
	}

	if len(writers) == 0 {
		return zerolog.Nop()
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Logger().
		Level(zerolog.NoLevel)
}

func newRollingAccessFile(cfg logger.Log) io.Writer {
	if cfg.File.Path != "" {
		if err := os.MkdirAll(cfg.File.Path, 0o750); err != nil {
			log.Error().Err(err).Str("path", cfg.File.Path).Msg("can't create access log directory")

			return nil
		}
	}

	return logger.NewRollingFile(cfg.File.Path, cfg.File.Access())
}
