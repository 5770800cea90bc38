// Package department serves the ministry department list.
package department

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/churchadmin/churchadmin/internal/auth"
	"github.com/churchadmin/churchadmin/internal/department"
	"github.com/churchadmin/churchadmin/internal/models"
	"github.com/churchadmin/churchadmin/internal/web/handler"
	"github.com/churchadmin/churchadmin/internal/web/navigation"
)

const (
	// Path is the base path for department management.
	Path = handler.RootPath + "admin/department"

	// TemplateList is the template of the department list.
	TemplateList = "admin/department/list"
)

// ErrBadID is returned for a non numeric path id.
var ErrBadID = fiber.NewError(fiber.StatusBadRequest, "invalid id")

// Service serves the department list.
type Service struct {
	env *handler.Env
}

// Init registers routes.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if app == nil || env == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg)
	}

	s.env = env

	group := app.Group(Path, auth.RequireRole(models.RoleSuperAdmin))

	group.Get(handler.RouterRootPath, s.List)
	group.Post(handler.RouterRootPath, s.Create)
	group.Post("/:id/delete", s.Delete)

	return nil
}

func (s *Service) open(c *fiber.Ctx) (*department.Registry, error) {
	client, err := handler.Client(c)
	if err != nil {
		return nil, err
	}

	reg := department.New(client, handler.Confirmer(c))
	if err = reg.Load(c.UserContext()); err != nil {
		return nil, err
	}

	return reg, nil
}

func (s *Service) render(c *fiber.Ctx, status int, reg *department.Registry, data fiber.Map) error {
	data["Navigation"] = navigation.ForPage(navigation.SectionAdmin, "department")

	if reg != nil {
		data["Departments"] = reg.Departments()
		data["Draft"] = reg.Draft()
	}

	return c.Status(status).Render(TemplateList, data, handler.BaseLayout)
}

func (s *Service) fail(c *fiber.Ctx, reg *department.Registry, err error) error {
	return handler.Fail(err, func(status int, message string) error {
		return s.render(c, status, reg, fiber.Map{"Error": message})
	})
}

// List shows every department with its member count.
func (s *Service) List(c *fiber.Ctx) error {
	reg, err := s.open(c)
	if err != nil {
		return s.fail(c, nil, err)
	}

	return s.render(c, fiber.StatusOK, reg, fiber.Map{"Notice": c.Query("notice")})
}

// Create adds a department. A rejected name stays in the form.
func (s *Service) Create(c *fiber.Ctx) error {
	reg, err := s.open(c)
	if err != nil {
		return s.fail(c, nil, err)
	}

	if _, err = reg.Create(c.UserContext(), c.FormValue("name")); err != nil {
		return s.fail(c, reg, err)
	}

	return c.Redirect(Path + "?notice=department-created")
}

// Delete removes a department once the form confirms it.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return ErrBadID
	}

	reg, err := s.open(c)
	if err != nil {
		return s.fail(c, nil, err)
	}

	if err = reg.Delete(c.UserContext(), id); err != nil {
		return s.fail(c, reg, err)
	}

	return c.Redirect(Path + "?notice=department-deleted")
}
