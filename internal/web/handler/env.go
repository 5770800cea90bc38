package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/config"
	"github.com/churchadmin/churchadmin/internal/confirm"
	websess "github.com/churchadmin/churchadmin/internal/web/session"
)

// ErrNoClient is returned when a console route runs without the session middleware.
var ErrNoClient = errors.New("no backend client on request")

// Env holds what the handlers share.
type Env struct {
	Cfg      *config.Config
	DB       *gorm.DB
	Factory  *backend.Factory
	Sessions *websess.Manager
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, env *Env) error
}

// Client returns the backend client bound to the request's session.
func Client(c *fiber.Ctx) (*backend.Client, error) {
	client, ok := c.Locals(LocalClient).(*backend.Client)
	if !ok || client == nil {
		return nil, ErrNoClient
	}

	return client, nil
}

// Confirmer approves a prompt when the submitted form carries confirm=yes.
func Confirmer(c *fiber.Ctx) confirm.Confirmer {
	ok := c.FormValue(ConfirmField) == "yes"

	return confirm.Func(func(context.Context, string) bool { return ok })
}

// ErrorText is the message shown to the operator for err.
func ErrorText(err error) string {
	if msg := backend.Message(err); msg != "" {
		return msg
	}

	return "Something went wrong, please try again"
}
