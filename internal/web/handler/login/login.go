// Package login signs operators into the console with their backend credentials.
package login

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/churchadmin/churchadmin/internal/auth"
	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/models"
	"github.com/churchadmin/churchadmin/internal/web/handler"
	websess "github.com/churchadmin/churchadmin/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = handler.LoginPath

	// Template is the login page template.
	Template = "login"
)

var (
	// ErrInvalidFormData is shown when the login form is incomplete.
	ErrInvalidFormData = errors.New("mobile number and password are required")

	// ErrNotSuperAdmin is shown when a non super admin signs in.
	ErrNotSuperAdmin = errors.New("this console is for super admins only")

	// ErrInternalServerError is shown when the session cannot be created.
	ErrInternalServerError = errors.New("internal server error")
)

type form struct {
	Mobile   string `form:"mobile"   validate:"required"`
	Password string `form:"password" validate:"required"` //nolint:gosec
}

// Service is the login handler service.
type Service struct {
	env       *handler.Env
	validator *validator.Validate
}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if app == nil || env == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.env = env
	s.validator = validator.New()

	// register routes
	app.Route(Path, func(router fiber.Router) {
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

func (s *Service) render(c *fiber.Ctx, status int, mobile string, err error) error {
	data := fiber.Map{
		"Title":  s.env.Cfg.Title,
		"Mobile": mobile,
	}

	if err != nil {
		data["error"] = handler.ErrorText(err)
	}

	return c.Status(status).Render(Template, data)
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "", nil)
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	in := new(form)

	if err := c.BodyParser(in); err != nil {
		return s.render(c, fiber.StatusBadRequest, "", ErrInvalidFormData)
	}

	if err := s.validator.Struct(in); err != nil {
		return s.render(c, fiber.StatusUnprocessableEntity, in.Mobile, ErrInvalidFormData)
	}

	sessionID, err := websess.GenerateSessionID()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate session ID")
		return s.render(c, fiber.StatusInternalServerError, in.Mobile, ErrInternalServerError)
	}

	client := s.env.Factory.For(s.env.Sessions.Store(sessionID))

	user, err := client.Login(c.UserContext(), backend.Credentials{Mobile: in.Mobile, Password: in.Password})
	if err != nil {
		backend.LogError(err).Str("mobile", in.Mobile).Msg("login failed")

		status := fiber.StatusBadGateway
		if backend.IsValidation(err) {
			status = fiber.StatusUnauthorized
		}

		return s.render(c, status, in.Mobile, err)
	}

	if user.Role != models.RoleSuperAdmin {
		log.Warn().Uint64("user_id", user.ID).Str("role", user.Role.String()).Msg("non super admin tried the console")

		if err = client.Logout(c.UserContext()); err != nil {
			backend.LogError(err).Msg("failed to end rejected session")
		}

		return s.render(c, fiber.StatusForbidden, in.Mobile, ErrNotSuperAdmin)
	}

	c.Cookie(s.cookie(sessionID, int(s.env.Sessions.Expiry().Seconds())))

	log.Info().Uint64("user_id", user.ID).Msg("operator signed in")

	return c.Redirect(auth.Home(user.Role))
}

func (s *Service) cookie(value string, maxAge int) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     websess.CookieName,
		Value:    value,
		MaxAge:   maxAge,
		Secure:   s.env.Cfg.Webserver.CookieSecure && !s.env.Cfg.DevMode,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
