// Package user serves the member directory and its access control actions.
package user

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/churchadmin/churchadmin/internal/auth"
	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/department"
	"github.com/churchadmin/churchadmin/internal/directory"
	"github.com/churchadmin/churchadmin/internal/export"
	"github.com/churchadmin/churchadmin/internal/models"
	"github.com/churchadmin/churchadmin/internal/web/handler"
	"github.com/churchadmin/churchadmin/internal/web/navigation"
)

const (
	// Path is the base path for user management.
	Path = handler.RootPath + "admin/user"

	// TemplateList is the template for listing users.
	TemplateList = "admin/user/list"
)

// ErrBadID is returned for a non numeric path id.
var ErrBadID = fiber.NewError(fiber.StatusBadRequest, "invalid id")

// Service serves the user directory.
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
	group.Get("/export.:format", s.Export)
	group.Post("/:id/role", s.action(s.changeRole))
	group.Post("/:id/approve", s.action(s.approve))
	group.Post("/:id/suspend", s.action(s.toggleStatus))
	group.Post("/:id/revoke-sessions", s.action(s.revokeSessions))
	group.Post("/:id/force-reset", s.action(s.forceReset))
	group.Post("/:id/assign", s.action(s.assign))

	return nil
}

// open builds a loaded directory for the request's session. Close it when done.
func (s *Service) open(c *fiber.Ctx) (*directory.Directory, *department.Registry, error) {
	client, err := handler.Client(c)
	if err != nil {
		return nil, nil, err
	}

	confirmer := handler.Confirmer(c)
	departments := department.New(client, confirmer)

	dir := directory.New(client, departments, directory.Options{
		ListTimeout: s.env.Cfg.Directory.ListTimeout,
		Rollback:    s.env.Cfg.Optimistic.Rollback,
		Confirmer:   confirmer,
	})

	if err = dir.Load(c.UserContext()); err != nil {
		dir.Close()
		return nil, nil, err
	}

	return dir, departments, nil
}

// List shows the users matching the search term.
func (s *Service) List(c *fiber.Ctx) error {
	dir, departments, err := s.open(c)
	if err != nil {
		return handler.Fail(err, func(status int, message string) error {
			return c.Status(status).Render(TemplateList, fiber.Map{
				"Navigation": navigation.ForPage(navigation.SectionAdmin, "user"),
				"Error":      message,
			}, handler.BaseLayout)
		})
	}
	defer dir.Close()

	return s.render(c, fiber.StatusOK, dir, departments, c.Query("notice"), "")
}

func (s *Service) render(c *fiber.Ctx, status int, dir *directory.Directory, departments *department.Registry, notice, message string) error {
	search := c.Query("q", c.FormValue("q"))
	users := dir.Filter(search)

	data := fiber.Map{
		"Navigation": navigation.ForPage(navigation.SectionAdmin, "user"),
		"Users":      users,
		"Total":      len(dir.All()),
		"Search":     search,
		"Roles":      models.AllRoles,
		"Notice":     notice,
		"Error":      message,
	}

	if id, err := strconv.ParseUint(c.Query("assign"), 10, 64); err == nil && id > 0 {
		if err = dir.OpenAssignment(id); err == nil {
			if err = departments.Load(c.UserContext()); err != nil && backend.IsUnauthorized(err) {
				return err
			}

			u, _ := dir.Assignment()
			data["Assigning"] = u
			data["Departments"] = departments.Departments()
		}
	}

	return c.Status(status).Render(TemplateList, data, handler.BaseLayout)
}

type actionFunc func(c *fiber.Ctx, dir *directory.Directory, id uint64) (string, error)

// action loads the directory, runs fn on the path id and redirects back to the
// list with a notice, or renders the list with the error.
func (s *Service) action(fn actionFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.ParseUint(c.Params("id"), 10, 64)
		if err != nil {
			return ErrBadID
		}

		dir, departments, err := s.open(c)
		if err != nil {
			return handler.Fail(err, func(status int, message string) error {
				return c.Status(status).Render(TemplateList, fiber.Map{
					"Navigation": navigation.ForPage(navigation.SectionAdmin, "user"),
					"Error":      message,
				}, handler.BaseLayout)
			})
		}
		defer dir.Close()

		notice, err := fn(c, dir, id)
		if err != nil {
			return handler.Fail(err, func(status int, message string) error {
				return s.render(c, status, dir, departments, "", message)
			})
		}

		return c.Redirect(Path + "?notice=" + notice)
	}
}

func (s *Service) changeRole(c *fiber.Ctx, dir *directory.Directory, id uint64) (string, error) {
	role, err := models.ParseUserRole(c.FormValue("role"))
	if err != nil {
		return "", directory.ErrInvalidRole
	}

	if err = dir.ChangeRole(c.UserContext(), id, role); err != nil {
		return "", err
	}

	return "role-changed", nil
}

func (s *Service) approve(c *fiber.Ctx, dir *directory.Directory, id uint64) (string, error) {
	return "approved", dir.Approve(c.UserContext(), id)
}

func (s *Service) toggleStatus(c *fiber.Ctx, dir *directory.Directory, id uint64) (string, error) {
	return "status-changed", dir.ToggleStatus(c.UserContext(), id)
}

func (s *Service) revokeSessions(c *fiber.Ctx, dir *directory.Directory, id uint64) (string, error) {
	return "sessions-revoked", dir.RevokeSessions(c.UserContext(), id)
}

func (s *Service) forceReset(c *fiber.Ctx, dir *directory.Directory, id uint64) (string, error) {
	return "password-reset", dir.ForcePasswordReset(c.UserContext(), id, c.FormValue("password"))
}

func (s *Service) assign(c *fiber.Ctx, dir *directory.Directory, id uint64) (string, error) {
	deptID, err := strconv.ParseUint(c.FormValue("department_id"), 10, 64)
	if err != nil {
		return "", department.ErrNoDepartment
	}

	if err = dir.OpenAssignment(id); err != nil {
		return "", err
	}

	return "department-assigned", dir.AssignDepartment(c.UserContext(), deptID)
}

// Export downloads the filtered user list as csv or pdf.
func (s *Service) Export(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Params("format"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	dir, _, err := s.open(c)
	if err != nil {
		return err
	}
	defer dir.Close()

	users := dir.Filter(c.Query("q"))

	c.Attachment(fmt.Sprintf("members.%s", format))
	c.Set(fiber.HeaderContentType, format.ContentType())

	if err = export.Users(c.Response().BodyWriter(), format, users); err != nil {
		log.Error().Err(err).Str("format", string(format)).Msg("user export failed")
		return err
	}

	return nil
}
