package department_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/web/handler/admin/department"
	"github.com/churchadmin/churchadmin/internal/web/webtest"
)

func newHarness(t *testing.T) *webtest.Harness {
	t.Helper()

	h := webtest.New(t, (&department.Service{}).Init)
	h.SignIn(t)

	return h
}

func TestList(t *testing.T) {
	h := newHarness(t)

	resp := h.Get(t, department.Path+"?notice=department-created")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	tpl, data := webtest.Decode(t, resp)
	assert.Equal(t, department.TemplateList, tpl)
	assert.Len(t, data["Departments"], 2)
	assert.Equal(t, "department-created", data["Notice"])
}

func TestCreate(t *testing.T) {
	h := newHarness(t)

	resp := h.Post(t, department.Path, url.Values{"name": {" Ushers "}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, department.Path+"?notice=department-created", resp.Header.Get("Location"))
	assert.Equal(t, []string{"Choir", "Media", "Ushers"}, h.Fake.DepartmentNames())
}

func TestCreate_RejectedKeepsDraft(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
		calls    int
	}{
		{"blank", "   ", "required", 0},
		{"duplicate", "choir", "already been taken", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			resp := h.Post(t, department.Path, url.Values{"name": {tt.input}})
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

			_, data := webtest.Decode(t, resp)
			assert.Equal(t, tt.input, data["Draft"])
			assert.Contains(t, data["Error"], tt.contains)
			assert.Len(t, data["Departments"], 2)
			assert.Equal(t, tt.calls, h.Fake.Calls(http.MethodPost, backend.Path("departments")))
		})
	}
}

func TestDelete(t *testing.T) {
	h := newHarness(t)

	resp := h.Post(t, department.Path+"/2/delete", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Zero(t, h.Fake.Calls(http.MethodDelete, backend.Path("departments", 2)))

	resp = h.Post(t, department.Path+"/2/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, []string{"Choir"}, h.Fake.DepartmentNames())

	resp = h.Post(t, department.Path+"/404/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
