package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/backend/backendtest"
	"github.com/churchadmin/churchadmin/internal/config"
	"github.com/churchadmin/churchadmin/internal/db/models"
	websess "github.com/churchadmin/churchadmin/internal/web/session"
)

func newService(t *testing.T) *Service {
	t.Helper()

	fake := backendtest.New(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	cfg := &config.Config{
		Title:     "ChurchAdmin",
		Webserver: config.Webserver{ShutDownTime: 1, Session: config.Session{ExpiryTime: time.Hour}},
		Backend:   fake.Config(),
	}

	return New(cfg, db, backend.NewFactory(cfg.Backend), websess.New(nil, time.Hour))
}

func TestCheckAlive(t *testing.T) {
	s := newService(t)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, CheckAlivePath, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	s.alive.Store(false)

	resp, err = s.App.Test(httptest.NewRequest(http.MethodGet, CheckAlivePath, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetrics(t *testing.T) {
	s := newService(t)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, MetricsPath, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutes_Anonymous(t *testing.T) {
	s := newService(t)

	for _, path := range []string{"/", "/admin/user", "/admin/role", "/admin/department", "/admin/audit-log", "/settings/backend"} {
		t.Run(path, func(t *testing.T) {
			resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, path, nil))
			require.NoError(t, err)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, "/login", resp.Header.Get("Location"))
		})
	}
}

func TestLoginPage_EmbeddedTemplates(t *testing.T) {
	s := newService(t)

	resp, err := s.App.Test(httptest.NewRequest(http.MethodGet, "/login", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `name="mobile"`)

	resp, err = s.App.Test(httptest.NewRequest(http.MethodGet, "/static/app.css", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPages_SignedIn(t *testing.T) {
	s := newService(t)

	op := backendtest.Operator
	require.NoError(t, s.env.Sessions.Store("web-test").Save(backendtest.Token, &op))

	pages := map[string]string{
		"/admin/user":             "Grace Okafor",
		"/admin/user?assign=2":    "Assign Grace Okafor",
		"/admin/role?role=2":      "attendance.view",
		"/admin/department":       "Choir",
		"/admin/audit-log":        "Console Operator",
		"/settings/backend":       "Backend URL",
		"/admin/user/export.nope": "404",
	}

	for path, want := range pages {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.AddCookie(&http.Cookie{Name: websess.CookieName, Value: "web-test"})

			resp, err := s.App.Test(req, -1)
			require.NoError(t, err)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), want)
		})
	}
}
