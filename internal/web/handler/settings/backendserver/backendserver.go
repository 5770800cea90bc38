// Package backendserver serves the settings page that points the console at a backend.
package backendserver

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/churchadmin/churchadmin/internal/auth"
	controller "github.com/churchadmin/churchadmin/internal/db/controller/backendserver"
	"github.com/churchadmin/churchadmin/internal/db/controller/setting"
	"github.com/churchadmin/churchadmin/internal/models"
	"github.com/churchadmin/churchadmin/internal/web/handler"
	"github.com/churchadmin/churchadmin/internal/web/navigation"
)

const (
	// Path is the path to the backend settings page.
	Path = "settings/backend"
)

// Service is the backend settings handler service.
type Service struct {
	env       *handler.Env
	validator *validator.Validate
}

// Init initializes the backend settings handler.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if app == nil || env == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.env = env
	s.validator = validator.New()

	// register routes
	app.Route("/"+Path, func(router fiber.Router) {
		router.Use(auth.RequireRole(models.RoleSuperAdmin))
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

func (s *Service) render(c *fiber.Ctx, status int, settings *controller.Settings, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}

	data["Settings"] = settings
	data["Navigation"] = navigation.ForPage(navigation.SectionSettings, "backend")
	data["Active"] = s.env.Factory.BaseURL()
	data["Configured"] = s.env.Cfg.Backend.URL

	return c.Status(status).Render(Path, data, handler.BaseLayout)
}

// Get handles the backend settings page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	settings := &controller.Settings{}

	if err := settings.Load(c.UserContext(), s.env.DB); err != nil {
		// If settings don't exist yet, render form with empty values
		if errors.Is(err, setting.ErrSettingNotFound) {
			log.Debug().Msg("backend settings not found, rendering empty form")
			return s.render(c, fiber.StatusOK, settings, nil)
		}

		log.Error().Err(err).Msg("failed to load backend settings")

		return s.render(c, fiber.StatusInternalServerError, settings, fiber.Map{"Error": "Failed to load settings"})
	}

	return s.render(c, fiber.StatusOK, settings, nil)
}

// Post stores the submitted backend url and switches every session to it.
func (s *Service) Post(c *fiber.Ctx) error {
	settings := &controller.Settings{}
	if err := c.BodyParser(settings); err != nil {
		log.Error().Err(err).Msg("failed to parse backend settings form")
		return s.render(c, fiber.StatusBadRequest, settings, fiber.Map{"Error": "Invalid form data"})
	}

	if err := s.validator.Struct(settings); err != nil {
		var validationErrors validator.ValidationErrors
		errors.As(err, &validationErrors)

		errorMessages := make([]string, len(validationErrors))
		for i, ve := range validationErrors {
			errorMessages[i] = "Field '" + ve.Field() + "' failed validation tag '" + ve.Tag() + "'"
		}

		return s.render(c, fiber.StatusBadRequest, settings, fiber.Map{"Error": errorMessages})
	}

	if err := settings.Save(c.UserContext(), s.env.DB); err != nil {
		log.Error().Err(err).Msg("failed to save backend settings")
		return s.render(c, fiber.StatusInternalServerError, settings, fiber.Map{"Error": "Failed to save settings"})
	}

	s.env.Factory.SetBaseURL(settings.URL)

	log.Info().Str("url", settings.URL).Msg("backend url changed")

	return s.render(c, fiber.StatusOK, settings, fiber.Map{
		"Success": "Settings saved. Sign in again if the new backend uses different accounts.",
	})
}
