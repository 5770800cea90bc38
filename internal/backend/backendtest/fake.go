// Package backendtest provides an in-memory church backend for tests.
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/config"
	"github.com/churchadmin/churchadmin/internal/models"
	"github.com/churchadmin/churchadmin/internal/session"
)

// Token is the bearer token the fake accepts by default.
const Token = "test-token"

// Password is the login password the fake accepts for every user.
const Password = "correct-horse"

// Operator is the signed in super admin.
var Operator = models.User{ //nolint:gochecknoglobals
	ID: 1, Name: "Console Operator", Mobile: "0800-000-0001",
	Role: models.RoleSuperAdmin, MemberStatus: models.StatusActive,
}

// Request is a recorded call.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

type failure struct {
	status int
	body   string
}

// Fake is a church backend kept in memory. Exported fields may be changed
// before the first request; afterwards use the methods.
type Fake struct {
	mu sync.Mutex

	Users       []models.User
	Roles       []models.Role
	Permissions []models.Permission
	Departments []models.Department
	AuditLogs   []models.AuditLogEntry

	// Token accepted in the Authorization header.
	Token string

	envelope bool
	hook     func(r *http.Request)
	requests []Request
	failures map[string]failure
	nextID   uint64
	srv      *httptest.Server
}

// New starts a fake seeded with a small church.
func New(t testing.TB) *Fake {
	t.Helper()

	f := &Fake{
		Token: Token,
		Users: []models.User{
			Operator,
			{ID: 2, Name: "Grace Okafor", Mobile: "0803-555-0101", Role: models.RoleUser, MemberStatus: models.StatusActive},
			{ID: 3, Name: "John Mensah", Mobile: "0803-555-0102", Role: models.RolePastor, MemberStatus: "yes"},
			{ID: 42, Name: "Ruth Adeyemi", Mobile: "0803-555-0142", Role: models.RoleUser, MemberStatus: models.StatusPending},
			{ID: 5, Name: "Samuel Grant", Mobile: "0803-555-0105", Role: models.RoleAdmin, MemberStatus: models.StatusSuspended},
		},
		Permissions: []models.Permission{
			{ID: 1, Name: "members.view"},
			{ID: 2, Name: "members.edit"},
			{ID: 3, Name: "attendance.view"},
			{ID: 4, Name: "reports.export"},
		},
		Roles: []models.Role{
			{ID: 1, Name: models.SuperAdminRoleName, Permissions: models.NewPermissionSet()},
			{ID: 2, Name: "pastor", Permissions: models.NewPermissionSet("members.view", "attendance.view")},
			{ID: 3, Name: "admin", Permissions: models.NewPermissionSet("members.view", "members.edit")},
		},
		Departments: []models.Department{
			{ID: 1, Name: "Choir"},
			{ID: 2, Name: "Media"},
		},
		AuditLogs: []models.AuditLogEntry{
			{ID: 2, Causer: &models.Causer{ID: 1, Name: "Console Operator"}, Description: "updated", SubjectType: `App\Models\Member`, SubjectID: 2, CreatedAt: time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)},
			{ID: 1, Description: "created", SubjectType: `App\Models\Department`, SubjectID: 1, CreatedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		},
		failures: map[string]failure{},
		nextID:   100,
	}

	f.srv = httptest.NewServer(f.routes())
	t.Cleanup(f.srv.Close)

	return f
}

// URL returns the base url of the fake.
func (f *Fake) URL() string {
	return f.srv.URL
}

// Config returns backend settings pointing at the fake with fast retries.
func (f *Fake) Config() config.Backend {
	return config.Backend{
		URL:          f.srv.URL,
		Timeout:      5 * time.Second,
		RetryMax:     1,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	}
}

// Client returns a client signed in as Operator.
func (f *Fake) Client(opts ...backend.Option) (*backend.Client, *session.MemoryStore) {
	op := Operator
	store := session.NewMemoryStore(f.Token, &op)

	return backend.NewFactory(f.Config(), opts...).For(store), store
}

// SetEnvelope wraps list responses in {"data": [...]} when on.
func (f *Fake) SetEnvelope(on bool) {
	f.mu.Lock()
	f.envelope = on
	f.mu.Unlock()
}

// SetHook installs fn to run before each authenticated request is handled.
// fn runs outside the fake's lock and may call back into the client.
func (f *Fake) SetHook(fn func(r *http.Request)) {
	f.mu.Lock()
	f.hook = fn
	f.mu.Unlock()
}

// FailWith makes the next matching calls answer status with body until Recover.
func (f *Fake) FailWith(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures[method+" "+path] = failure{status: status, body: body}
}

// Recover removes a failure set by FailWith.
func (f *Fake) Recover(method, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.failures, method+" "+path)
}

// Requests returns a copy of every recorded call.
func (f *Fake) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.requests)
}

// Calls counts recorded calls to method and path.
func (f *Fake) Calls(method, path string) int {
	n := 0

	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}

	return n
}

// LastBody returns the body of the last call to method and path.
func (f *Fake) LastBody(method, path string) []byte {
	reqs := f.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i].Body
		}
	}

	return nil
}

// User returns the backend copy of a user.
func (f *Fake) User(id uint64) (models.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.userIndex(id)
	if i < 0 {
		return models.User{}, false
	}

	return f.Users[i], true
}

// Role returns the backend copy of a role.
func (f *Fake) Role(id uint64) (models.Role, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.Roles {
		if r.ID == id {
			return r.Clone(), true
		}
	}

	return models.Role{}, false
}

// DepartmentNames returns the backend department names in order.
func (f *Fake) DepartmentNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.Departments))
	for _, d := range f.Departments {
		names = append(names, d.Name)
	}

	return names
}

// AddDepartment appends a department as if created elsewhere.
func (f *Fake) AddDepartment(d models.Department) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Departments = append(f.Departments, d)
}

// SetUser replaces or appends a user.
func (f *Fake) SetUser(u models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if i := f.userIndex(u.ID); i >= 0 {
		f.Users[i] = u
		return
	}

	f.Users = append(f.Users, u)
}

const prefix = backend.SuperAdminPrefix

func (f *Fake) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/login", f.login)
	mux.HandleFunc("POST /api/logout", f.authed(func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
	}))

	mux.HandleFunc("GET "+prefix+"/users", f.authed(f.listUsers))
	mux.HandleFunc("PUT "+prefix+"/users/{id}/role", f.authed(f.changeRole))
	mux.HandleFunc("POST "+prefix+"/users/{id}/approve", f.authed(f.approve))
	mux.HandleFunc("POST "+prefix+"/users/{id}/suspend", f.authed(f.suspend))
	mux.HandleFunc("POST "+prefix+"/users/{id}/revoke-sessions", f.authed(f.revokeSessions))
	mux.HandleFunc("POST "+prefix+"/users/{id}/force-reset", f.authed(f.forceReset))

	mux.HandleFunc("GET "+prefix+"/departments", f.authed(f.listDepartments))
	mux.HandleFunc("POST "+prefix+"/departments", f.authed(f.createDepartment))
	mux.HandleFunc("DELETE "+prefix+"/departments/{id}", f.authed(f.deleteDepartment))
	mux.HandleFunc("POST "+prefix+"/departments/assign", f.authed(f.assignDepartment))

	mux.HandleFunc("GET "+prefix+"/roles", f.authed(f.listRoles))
	mux.HandleFunc("POST "+prefix+"/roles", f.authed(f.createRole))
	mux.HandleFunc("PUT "+prefix+"/roles/{id}", f.authed(f.updateRole))
	mux.HandleFunc("DELETE "+prefix+"/roles/{id}", f.authed(f.deleteRole))

	mux.HandleFunc("GET "+prefix+"/permissions", f.authed(f.listPermissions))
	mux.HandleFunc("GET "+prefix+"/audit-logs", f.authed(f.listAuditLogs))

	return mux
}

type handler func(w http.ResponseWriter, r *http.Request, body []byte)

// authed records the call, runs the hook, applies failures and checks the token.
func (f *Fake) authed(next handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := f.record(r)

		f.mu.Lock()
		hook := f.hook
		f.mu.Unlock()

		if hook != nil {
			hook(r)
		}

		if f.failed(w, r) {
			return
		}

		f.mu.Lock()
		token := f.Token
		f.mu.Unlock()

		if r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
			return
		}

		next(w, r, body)
	}
}

func (f *Fake) record(r *http.Request) []byte {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
	f.mu.Unlock()

	return body
}

func (f *Fake) failed(w http.ResponseWriter, r *http.Request) bool {
	f.mu.Lock()
	fail, ok := f.failures[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		return false
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(fail.status)
	_, _ = io.WriteString(w, fail.body)

	return true
}

func (f *Fake) login(w http.ResponseWriter, r *http.Request) {
	body := f.record(r)

	var creds backend.Credentials
	_ = json.Unmarshal(body, &creds)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.Users {
		if u.Mobile == creds.Mobile && creds.Password == Password {
			writeJSON(w, http.StatusOK, map[string]any{"token": f.Token, "user": u})
			return
		}
	}

	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials."})
}

func (f *Fake) list(w http.ResponseWriter, v any) {
	if f.envelope {
		writeJSON(w, http.StatusOK, map[string]any{"data": v})
		return
	}

	writeJSON(w, http.StatusOK, v)
}

func (f *Fake) listUsers(w http.ResponseWriter, _ *http.Request, _ []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.list(w, f.Users)
}

func (f *Fake) userFromPath(w http.ResponseWriter, r *http.Request) int {
	id, _ := strconv.ParseUint(r.PathValue("id"), 10, 64)

	i := f.userIndex(id)
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found."})
	}

	return i
}

func (f *Fake) userIndex(id uint64) int {
	return slices.IndexFunc(f.Users, func(u models.User) bool { return u.ID == id })
}

func (f *Fake) changeRole(w http.ResponseWriter, r *http.Request, body []byte) {
	var req struct {
		Role models.UserRole `json:"role"`
	}

	if err := json.Unmarshal(body, &req); err != nil {
		validation(w, "role", "The selected role is invalid.")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.userFromPath(w, r)
	if i < 0 {
		return
	}

	f.Users[i].Role = req.Role
	f.audit("updated", `App\Models\User`, f.Users[i].ID)
	writeJSON(w, http.StatusOK, f.Users[i])
}

func (f *Fake) approve(w http.ResponseWriter, r *http.Request, _ []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.userFromPath(w, r)
	if i < 0 {
		return
	}

	f.Users[i].MemberStatus = models.StatusActive
	f.audit("approved", `App\Models\User`, f.Users[i].ID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "User approved."})
}

func (f *Fake) suspend(w http.ResponseWriter, r *http.Request, _ []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.userFromPath(w, r)
	if i < 0 {
		return
	}

	f.Users[i].MemberStatus = f.Users[i].MemberStatus.Toggled()
	f.audit("suspended", `App\Models\User`, f.Users[i].ID)
	writeJSON(w, http.StatusOK, map[string]any{"message": "Status updated.", "member_status": f.Users[i].MemberStatus})
}

func (f *Fake) revokeSessions(w http.ResponseWriter, r *http.Request, _ []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.userFromPath(w, r) < 0 {
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Sessions revoked."})
}

func (f *Fake) forceReset(w http.ResponseWriter, r *http.Request, body []byte) {
	var req struct {
		Password string `json:"password"`
	}

	_ = json.Unmarshal(body, &req)

	if len(req.Password) < 8 { //nolint:mnd
		validation(w, "password", "The password field must be at least 8 characters.")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.userFromPath(w, r) < 0 {
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Password reset."})
}

func (f *Fake) listDepartments(w http.ResponseWriter, _ *http.Request, _ []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.countMembers()
	f.list(w, f.Departments)
}

func (f *Fake) countMembers() {
	for i := range f.Departments {
		f.Departments[i].UsersCount = 0

		for _, u := range f.Users {
			if u.Department != nil && u.Department.ID == f.Departments[i].ID {
				f.Departments[i].UsersCount++
			}
		}
	}
}

func (f *Fake) createDepartment(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req struct {
		Name string `json:"name"`
	}

	_ = json.Unmarshal(body, &req)
	name := strings.TrimSpace(req.Name)

	f.mu.Lock()
	defer f.mu.Unlock()

	if name == "" {
		validation(w, "name", "The name field is required.")
		return
	}

	for _, d := range f.Departments {
		if strings.EqualFold(d.Name, name) {
			validation(w, "name", "The name has already been taken.")
			return
		}
	}

	f.nextID++
	d := models.Department{ID: f.nextID, Name: name}
	f.Departments = append(f.Departments, d)
	f.audit("created", `App\Models\Department`, d.ID)

	writeJSON(w, http.StatusCreated, d)
}

func (f *Fake) deleteDepartment(w http.ResponseWriter, r *http.Request, _ []byte) {
	id, _ := strconv.ParseUint(r.PathValue("id"), 10, 64)

	f.mu.Lock()
	defer f.mu.Unlock()

	i := slices.IndexFunc(f.Departments, func(d models.Department) bool { return d.ID == id })
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Department not found."})
		return
	}

	f.Departments = slices.Delete(f.Departments, i, i+1)
	f.audit("deleted", `App\Models\Department`, id)
	w.WriteHeader(http.StatusNoContent)
}

func (f *Fake) assignDepartment(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req struct {
		UserID       uint64 `json:"user_id"`
		DepartmentID uint64 `json:"department_id"`
	}

	_ = json.Unmarshal(body, &req)

	f.mu.Lock()
	defer f.mu.Unlock()

	ui := f.userIndex(req.UserID)
	di := slices.IndexFunc(f.Departments, func(d models.Department) bool { return d.ID == req.DepartmentID })

	if ui < 0 || di < 0 {
		validation(w, "department_id", "The selected department is invalid.")
		return
	}

	f.Users[ui].Department = &models.DepartmentRef{ID: f.Departments[di].ID, Name: f.Departments[di].Name}
	f.audit("assigned", `App\Models\User`, req.UserID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "User assigned."})
}

func (f *Fake) listRoles(w http.ResponseWriter, _ *http.Request, _ []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.list(w, f.Roles)
}

func (f *Fake) createRole(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req models.Role

	_ = json.Unmarshal(body, &req)
	req.Name = strings.TrimSpace(req.Name)

	f.mu.Lock()
	defer f.mu.Unlock()

	if req.Name == "" {
		validation(w, "name", "The name field is required.")
		return
	}

	for _, r := range f.Roles {
		if r.Name == req.Name {
			validation(w, "name", "The name has already been taken.")
			return
		}
	}

	if req.Permissions == nil {
		req.Permissions = models.NewPermissionSet()
	}

	f.nextID++
	req.ID = f.nextID
	f.Roles = append(f.Roles, req)
	f.audit("created", `Spatie\Permission\Models\Role`, req.ID)

	writeJSON(w, http.StatusCreated, req)
}

func (f *Fake) roleIndex(w http.ResponseWriter, r *http.Request) int {
	id, _ := strconv.ParseUint(r.PathValue("id"), 10, 64)

	i := slices.IndexFunc(f.Roles, func(role models.Role) bool { return role.ID == id })
	if i < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Role not found."})
	}

	return i
}

func (f *Fake) updateRole(w http.ResponseWriter, r *http.Request, body []byte) {
	var req struct {
		Permissions models.PermissionSet `json:"permissions"`
	}

	if err := json.Unmarshal(body, &req); err != nil {
		validation(w, "permissions", "The permissions field must be an array.")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.roleIndex(w, r)
	if i < 0 {
		return
	}

	f.Roles[i].Permissions = req.Permissions
	f.audit("updated", `Spatie\Permission\Models\Role`, f.Roles[i].ID)
	writeJSON(w, http.StatusOK, f.Roles[i])
}

func (f *Fake) deleteRole(w http.ResponseWriter, r *http.Request, _ []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.roleIndex(w, r)
	if i < 0 {
		return
	}

	id := f.Roles[i].ID
	f.Roles = slices.Delete(f.Roles, i, i+1)
	f.audit("deleted", `Spatie\Permission\Models\Role`, id)
	w.WriteHeader(http.StatusNoContent)
}

func (f *Fake) listPermissions(w http.ResponseWriter, _ *http.Request, _ []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.list(w, f.Permissions)
}

func (f *Fake) listAuditLogs(w http.ResponseWriter, _ *http.Request, _ []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.list(w, f.AuditLogs)
}

// audit prepends an entry caused by the operator. Callers hold f.mu.
func (f *Fake) audit(description, subjectType string, subjectID uint64) {
	var id uint64
	for _, e := range f.AuditLogs {
		id = max(id, e.ID)
	}

	entry := models.AuditLogEntry{
		ID:          id + 1,
		Causer:      &models.Causer{ID: Operator.ID, Name: Operator.Name},
		Description: description,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		CreatedAt:   time.Now().UTC(),
	}

	f.AuditLogs = append([]models.AuditLogEntry{entry}, f.AuditLogs...)
}

func validation(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": message,
		"errors":  map[string][]string{field: {message}},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
