package user_test

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/backend/backendtest"
	"github.com/churchadmin/churchadmin/internal/models"
	"github.com/churchadmin/churchadmin/internal/web/handler/admin/user"
	"github.com/churchadmin/churchadmin/internal/web/webtest"
)

func newHarness(t *testing.T) *webtest.Harness {
	t.Helper()

	h := webtest.New(t, (&user.Service{}).Init)
	h.SignIn(t)

	return h
}

func TestList(t *testing.T) {
	h := newHarness(t)

	resp := h.Get(t, user.Path)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tpl, data := webtest.Decode(t, resp)
	assert.Equal(t, user.TemplateList, tpl)
	assert.Len(t, data["Users"], 5)
	assert.EqualValues(t, 5, data["Total"])
}

func TestList_Search(t *testing.T) {
	h := newHarness(t)

	_, data := webtest.Decode(t, h.Get(t, user.Path+"?q=okafor"))

	users, ok := data["Users"].([]any)
	require.True(t, ok)
	require.Len(t, users, 1)
	assert.Equal(t, "Grace Okafor", users[0].(map[string]any)["name"])
	assert.Equal(t, "okafor", data["Search"])
	assert.EqualValues(t, 5, data["Total"])
}

func TestList_Anonymous(t *testing.T) {
	h := webtest.New(t, (&user.Service{}).Init)

	resp := h.Get(t, user.Path)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestList_RevokedToken(t *testing.T) {
	h := newHarness(t)
	op := backendtest.Operator
	require.NoError(t, h.Env.Sessions.Store(webtest.SessionID).Save("revoked-token", &op))

	resp := h.Get(t, user.Path)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "session=;")
	assert.Empty(t, h.Env.Sessions.Store(webtest.SessionID).Token())
}

func TestChangeRole(t *testing.T) {
	h := newHarness(t)

	resp := h.Post(t, user.Path+"/2/role", url.Values{"role": {"pastor"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, user.Path+"?notice=role-changed", resp.Header.Get("Location"))

	u, _ := h.Fake.User(2)
	assert.Equal(t, models.RolePastor, u.Role)
}

func TestChangeRole_Refused(t *testing.T) {
	tests := []struct {
		name string
		path string
		role string
		want int
	}{
		{"super admin", "/1/role", "user", http.StatusUnprocessableEntity},
		{"unknown role", "/2/role", "bishop", http.StatusUnprocessableEntity},
		{"unknown user", "/999/role", "user", http.StatusNotFound},
		{"bad id", "/abc/role", "user", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			resp := h.Post(t, user.Path+tt.path, url.Values{"role": {tt.role}})
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Zero(t, h.Fake.Calls(http.MethodPut, backend.Path("users", 1, "role")))
		})
	}
}

func TestSuspend_NeedsConfirmation(t *testing.T) {
	h := newHarness(t)

	resp := h.Post(t, user.Path+"/2/suspend", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	_, data := webtest.Decode(t, resp)
	assert.NotEmpty(t, data["Error"])
	assert.Zero(t, h.Fake.Calls(http.MethodPost, backend.Path("users", 2, "suspend")))

	resp = h.Post(t, user.Path+"/2/suspend", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	u, _ := h.Fake.User(2)
	assert.True(t, u.MemberStatus.IsSuspended())
}

func TestApprove(t *testing.T) {
	h := newHarness(t)

	resp := h.Post(t, user.Path+"/42/approve", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, user.Path+"?notice=approved", resp.Header.Get("Location"))

	resp = h.Post(t, user.Path+"/2/approve", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRevokeSessions(t *testing.T) {
	h := newHarness(t)

	resp := h.Post(t, user.Path+"/5/revoke-sessions", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, 1, h.Fake.Calls(http.MethodPost, backend.Path("users", 5, "revoke-sessions")))
}

func TestForceReset(t *testing.T) {
	h := newHarness(t)
	path := backend.Path("users", 2, "force-reset")

	resp := h.Post(t, user.Path+"/2/force-reset", url.Values{"password": {"short"}})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Zero(t, h.Fake.Calls(http.MethodPost, path))

	resp = h.Post(t, user.Path+"/2/force-reset", url.Values{"password": {"a-long-password"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.JSONEq(t, `{"password":"a-long-password"}`, string(h.Fake.LastBody(http.MethodPost, path)))
}

func TestAssign(t *testing.T) {
	h := newHarness(t)

	_, data := webtest.Decode(t, h.Get(t, user.Path+"?assign=2"))
	assert.Len(t, data["Departments"], 2)
	assert.Equal(t, "Grace Okafor", data["Assigning"].(map[string]any)["name"])

	resp := h.Post(t, user.Path+"/2/assign", url.Values{"department_id": {"2"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	u, _ := h.Fake.User(2)
	require.NotNil(t, u.Department)
	assert.Equal(t, "Media", u.Department.Name)
}

func TestAssign_NoDepartment(t *testing.T) {
	for _, value := range []string{"", "choir", "0"} {
		t.Run(value, func(t *testing.T) {
			h := newHarness(t)

			resp := h.Post(t, user.Path+"/2/assign", url.Values{"department_id": {value}})
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

			_, data := webtest.Decode(t, resp)
			assert.Equal(t, "select a department", data["Error"])
			assert.Zero(t, h.Fake.Calls(http.MethodPost, backend.Path("departments", "assign")))
		})
	}
}

func TestExport(t *testing.T) {
	h := newHarness(t)

	resp := h.Get(t, user.Path+"/export.csv?q=grace")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "members.csv")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "#,Name,Mobile,Role,Status,Department", lines[0])

	resp = h.Get(t, user.Path+"/export.pdf")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "%PDF-"))

	resp = h.Get(t, user.Path+"/export.xls")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
