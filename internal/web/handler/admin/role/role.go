// Package role serves the role and permission editor.
package role

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/churchadmin/churchadmin/internal/auth"
	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/models"
	"github.com/churchadmin/churchadmin/internal/rbac"
	"github.com/churchadmin/churchadmin/internal/web/handler"
	"github.com/churchadmin/churchadmin/internal/web/navigation"
)

const (
	// Path is the base path for role management.
	Path = handler.RootPath + "admin/role"

	// TemplateList is the template of the role editor.
	TemplateList = "admin/role/list"
)

var (
	// ErrBadID is returned for a non numeric path id.
	ErrBadID = fiber.NewError(fiber.StatusBadRequest, "invalid id")
	// ErrNoPermission is returned when the toggle form names no permission.
	ErrNoPermission = backend.Invalid("select a permission")
)

// Service serves the role editor.
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
	group.Post("/:id/permission", s.TogglePermission)
	group.Post("/:id/delete", s.Delete)

	return nil
}

func (s *Service) open(c *fiber.Ctx) (*rbac.Registry, error) {
	client, err := handler.Client(c)
	if err != nil {
		return nil, err
	}

	reg := rbac.New(client, rbac.Options{
		Rollback:  s.env.Cfg.Optimistic.Rollback,
		Confirmer: handler.Confirmer(c),
	})

	if err = reg.Load(c.UserContext()); err != nil {
		return nil, err
	}

	return reg, nil
}

func (s *Service) render(c *fiber.Ctx, status int, reg *rbac.Registry, data fiber.Map) error {
	data["Navigation"] = navigation.ForPage(navigation.SectionAdmin, "role")

	if reg != nil {
		if raw := c.Query("role"); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				log.Debug().Str("role", raw).Msg("ignoring malformed role selection")
			} else {
				selectRole(reg, id)
			}
		}

		data["Roles"] = reg.Roles()
		data["Permissions"] = reg.Permissions()

		if selected, ok := reg.Selected(); ok {
			data["Selected"] = selected
		}
	}

	return c.Status(status).Render(TemplateList, data, handler.BaseLayout)
}

// selectRole selects id for editing. An id that is no longer listed clears the selection.
func selectRole(reg *rbac.Registry, id uint64) {
	if err := reg.Select(id); err != nil {
		log.Debug().Err(err).Uint64("roleID", id).Msg("dropping stale role selection")
		reg.Unselect()
	}
}

func (s *Service) fail(c *fiber.Ctx, reg *rbac.Registry, err error, data fiber.Map) error {
	return handler.Fail(err, func(status int, message string) error {
		data["Error"] = message
		return s.render(c, status, reg, data)
	})
}

// List shows every role with its permissions; ?role= selects one for editing.
func (s *Service) List(c *fiber.Ctx) error {
	reg, err := s.open(c)
	if err != nil {
		return s.fail(c, nil, err, fiber.Map{})
	}

	return s.render(c, fiber.StatusOK, reg, fiber.Map{"Notice": c.Query("notice")})
}

// Create adds a role with the checked permissions.
func (s *Service) Create(c *fiber.Ctx) error {
	reg, err := s.open(c)
	if err != nil {
		return s.fail(c, nil, err, fiber.Map{})
	}

	name := c.FormValue("name")

	var permissions []string
	for _, p := range c.Request().PostArgs().PeekMulti("permissions") {
		permissions = append(permissions, string(p))
	}

	created, err := reg.CreateRole(c.UserContext(), name, permissions...)
	if err != nil {
		return s.fail(c, reg, err, fiber.Map{"Draft": name})
	}

	if created.ID == 0 {
		return c.Redirect(Path + "?notice=role-created")
	}

	return c.Redirect(fmt.Sprintf("%s?role=%d&notice=role-created", Path, created.ID))
}

// TogglePermission flips one permission of the role.
func (s *Service) TogglePermission(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return ErrBadID
	}

	reg, err := s.open(c)
	if err != nil {
		return s.fail(c, nil, err, fiber.Map{})
	}

	permission := strings.TrimSpace(c.FormValue("permission"))
	if permission == "" {
		err = ErrNoPermission
	} else {
		err = reg.TogglePermission(c.UserContext(), id, permission)
	}

	if err != nil {
		selectRole(reg, id)
		return s.fail(c, reg, err, fiber.Map{})
	}

	return c.Redirect(fmt.Sprintf("%s?role=%d&notice=permissions-saved", Path, id))
}

// Delete removes the role once the form confirms it.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return ErrBadID
	}

	reg, err := s.open(c)
	if err != nil {
		return s.fail(c, nil, err, fiber.Map{})
	}

	if err = reg.DeleteRole(c.UserContext(), id); err != nil {
		return s.fail(c, reg, err, fiber.Map{})
	}

	return c.Redirect(Path + "?notice=role-deleted")
}
