// Package auditlog serves the read-only feed of administrative actions.
package auditlog

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/churchadmin/churchadmin/internal/auditlog"
	"github.com/churchadmin/churchadmin/internal/auth"
	"github.com/churchadmin/churchadmin/internal/export"
	"github.com/churchadmin/churchadmin/internal/models"
	"github.com/churchadmin/churchadmin/internal/web/handler"
	"github.com/churchadmin/churchadmin/internal/web/navigation"
)

const (
	// Path is the audit log page.
	Path = handler.RootPath + "admin/audit-log"

	// TemplateList is the template of the audit log.
	TemplateList = "admin/audit-log/list"
)

// Row is one rendered audit log line.
type Row struct {
	Entry   models.AuditLogEntry
	Actor   string
	Subject string
}

// Service serves the audit log.
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

	return nil
}

func (s *Service) open(c *fiber.Ctx) (*auditlog.Viewer, error) {
	client, err := handler.Client(c)
	if err != nil {
		return nil, err
	}

	viewer := auditlog.New(client)
	if err = viewer.Refresh(c.UserContext()); err != nil {
		return nil, err
	}

	return viewer, nil
}

// List shows the feed, newest first.
func (s *Service) List(c *fiber.Ctx) error {
	data := fiber.Map{"Navigation": navigation.ForPage(navigation.SectionAdmin, "audit-log")}

	viewer, err := s.open(c)
	if err != nil {
		return handler.Fail(err, func(status int, message string) error {
			data["Error"] = message
			return c.Status(status).Render(TemplateList, data, handler.BaseLayout)
		})
	}

	entries := viewer.Entries()
	rows := make([]Row, 0, len(entries))

	for _, e := range entries {
		rows = append(rows, Row{Entry: e, Actor: auditlog.CauserLabel(e), Subject: auditlog.SubjectLabel(e)})
	}

	data["Rows"] = rows
	data["RefreshedAt"] = viewer.RefreshedAt()

	return c.Render(TemplateList, data, handler.BaseLayout)
}

// Export downloads the feed as csv or pdf.
func (s *Service) Export(c *fiber.Ctx) error {
	format, err := export.ParseFormat(c.Params("format"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	viewer, err := s.open(c)
	if err != nil {
		return err
	}

	c.Attachment(fmt.Sprintf("audit-log.%s", format))
	c.Set(fiber.HeaderContentType, format.ContentType())

	if err = export.AuditLog(c.Response().BodyWriter(), format, viewer.Entries()); err != nil {
		log.Error().Err(err).Str("format", string(format)).Msg("audit log export failed")
		return err
	}

	return nil
}
