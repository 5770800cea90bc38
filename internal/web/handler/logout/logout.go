// Package logout ends the operator's backend session.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/web/handler"
	"github.com/churchadmin/churchadmin/internal/web/handler/login"
	websess "github.com/churchadmin/churchadmin/internal/web/session"
)

// Path is the logout route.
const Path = handler.RootPath + "logout"

// Service is the logout handler service.
type Service struct {
	env *handler.Env
}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if app == nil || env == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.env = env

	// logout route (outside auth middleware protection)
	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout tells the backend, forgets the session and clears the cookie.
// The local session is dropped even when the backend call fails.
func (s *Service) Logout(c *fiber.Ctx) error {
	if sessionID := c.Cookies(websess.CookieName); sessionID != "" {
		client := s.env.Factory.For(s.env.Sessions.Store(sessionID))

		if err := client.Logout(c.UserContext()); err != nil {
			backend.LogError(err).Msg("backend logout failed")
		}
	}

	handler.ClearSessionCookie(c)

	return c.Redirect(login.Path)
}
