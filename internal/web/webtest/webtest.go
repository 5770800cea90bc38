// Package webtest runs dashboard handlers against the fake backend.
package webtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/backend/backendtest"
	"github.com/churchadmin/churchadmin/internal/config"
	"github.com/churchadmin/churchadmin/internal/web/handler"
	authmw "github.com/churchadmin/churchadmin/internal/web/middleware/auth"
	websess "github.com/churchadmin/churchadmin/internal/web/session"
)

// SessionID is the cookie value of the signed-in test session.
const SessionID = "test-session"

// Views renders pages as JSON so tests can inspect what a handler passed to a template.
type Views struct{}

// Load implements fiber.Views.
func (Views) Load() error { return nil }

// Render implements fiber.Views.
func (Views) Render(w io.Writer, name string, data any, _ ...string) error {
	return json.NewEncoder(w).Encode(Page{Template: name, Data: data})
}

// Page is a rendered page.
type Page struct {
	Template string `json:"template"`
	Data     any    `json:"data"`
}

// Harness is a dashboard app wired to a fake backend.
type Harness struct {
	App  *fiber.App
	Fake *backendtest.Fake
	Env  *handler.Env
}

// New creates a harness and registers the handler under test with register.
func New(t *testing.T, register func(app *fiber.App, env *handler.Env) error) *Harness {
	t.Helper()

	fake := backendtest.New(t)

	cfg := &config.Config{
		Title:     "ChurchAdmin",
		DevMode:   true,
		Webserver: config.Webserver{Port: 8080, URL: "http://localhost:8080", Session: config.Session{ExpiryTime: time.Hour}},
		Backend:   fake.Config(),
		Directory: config.Directory{ListTimeout: 5 * time.Second},
	}

	env := &handler.Env{
		Cfg:      cfg,
		Factory:  backend.NewFactory(cfg.Backend),
		Sessions: websess.New(nil, time.Hour),
	}

	app := fiber.New(fiber.Config{Views: Views{}, ErrorHandler: handler.ErrorHandler})
	app.Use(authmw.New(env.Sessions, env.Factory))

	require.NoError(t, register(app, env))

	return &Harness{App: app, Fake: fake, Env: env}
}

// SignIn stores a session for SessionID as the fake's operator.
func (h *Harness) SignIn(t *testing.T) {
	t.Helper()

	op := backendtest.Operator
	require.NoError(t, h.Env.Sessions.Store(SessionID).Save(h.Fake.Token, &op))
}

// Get sends a GET with the session cookie.
func (h *Harness) Get(t *testing.T, path string) *http.Response {
	t.Helper()

	return h.Do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

// Post sends a form POST with the session cookie.
func (h *Harness) Post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	return h.Do(t, req)
}

// Do sends req with the session cookie.
func (h *Harness) Do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	req.AddCookie(&http.Cookie{Name: websess.CookieName, Value: SessionID})

	resp, err := h.App.Test(req, -1)
	require.NoError(t, err)

	return resp
}

// Decode reads a page rendered by Views.
func Decode(t *testing.T, resp *http.Response) (string, map[string]any) {
	t.Helper()

	defer resp.Body.Close()

	var page struct {
		Template string         `json:"template"`
		Data     map[string]any `json:"data"`
	}

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))

	return page.Template, page.Data
}
