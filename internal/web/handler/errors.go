package handler

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/churchadmin/churchadmin/internal/backend"
	websess "github.com/churchadmin/churchadmin/internal/web/session"
)

// Status maps err to the HTTP status shown to the operator.
func Status(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}

	switch backend.KindOf(err) {
	case backend.KindUnauthorized:
		return http.StatusUnauthorized
	case backend.KindValidation:
		return http.StatusUnprocessableEntity
	case backend.KindNotFound:
		return http.StatusNotFound
	case backend.KindForbidden:
		return http.StatusForbidden
	case backend.KindTimeout:
		return http.StatusGatewayTimeout
	case backend.KindCanceled:
		return http.StatusRequestTimeout
	case backend.KindNetwork, backend.KindServer:
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

// Fail hands unauthorized errors to the error handler and renders the rest
// through render with the matching status.
func Fail(err error, render func(status int, message string) error) error {
	if backend.IsUnauthorized(err) {
		return err
	}

	return render(Status(err), ErrorText(err))
}

// ErrorHandler is the application wide fiber error handler. An invalidated
// backend session sends the browser back to the login page.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := Status(err)

	if status == http.StatusUnauthorized {
		ClearSessionCookie(c)

		return c.Redirect(LoginPath)
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}

	message := ErrorText(err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		message = fe.Message
	}

	if renderErr := c.Status(status).Render(ErrorTemplate, fiber.Map{
		"Status":  status,
		"Message": message,
	}, BaseLayout); renderErr != nil {
		return c.Status(status).SendString(message)
	}

	return nil
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     websess.CookieName,
		Value:    "",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
