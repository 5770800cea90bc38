package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	appauth "github.com/churchadmin/churchadmin/internal/auth"
	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/web/handler"
	websess "github.com/churchadmin/churchadmin/internal/web/session"
)

const (
	// LoginPath is the path of the login page.
	LoginPath = "/login"
	// LogoutPath is the path of the logout action.
	LogoutPath = "/logout"
)

var publicPrefixes = []string{"/static", LogoutPath, "/checkalive", "/metrics"}

// New creates the session middleware.
func New(sessions *websess.Manager, factory *backend.Factory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IsPublic(c) {
			return c.Next()
		}

		isLoginPage := IsLoginPage(c)
		store := sessions.Store(c.Cookies(websess.CookieName))

		user := store.User()
		if store.Token() == "" || user == nil {
			if isLoginPage {
				return c.Next()
			}

			return c.Redirect(LoginPath)
		}

		if isLoginPage {
			return c.Redirect(appauth.Home(user.Role))
		}

		c.Locals(handler.LocalClient, factory.For(store))
		c.Locals(appauth.LocalUser, user)
		c.Locals(handler.LocalOperator, user.Mobile)

		return c.Next()
	}
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Path()), LoginPath)
}

// IsPublic checks if the current request needs no session.
func IsPublic(c *fiber.Ctx) bool {
	p := strings.ToLower(c.Path())

	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}

	return false
}
