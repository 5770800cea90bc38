// Package department manages ministry departments and member assignment.
package department

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/confirm"
	"github.com/churchadmin/churchadmin/internal/models"
)

var (
	// ErrNameEmpty is returned when creating a department with a blank name.
	ErrNameEmpty = backend.Invalid("department name is required")
	// ErrNotFound is returned when the department is not in the local list.
	ErrNotFound = &backend.Error{Kind: backend.KindNotFound, Message: "department not found"}
	// ErrNoDepartment is returned when an assignment names no department.
	ErrNoDepartment = backend.Invalid("select a department")
)

// Registry holds the department list and the pending create input.
type Registry struct {
	client  *backend.Client
	confirm confirm.Confirmer

	mu          sync.RWMutex
	departments []models.Department
	draft       string
}

// New creates an empty Registry. c approves deletions; nil declines them.
func New(client *backend.Client, c confirm.Confirmer) *Registry {
	return &Registry{client: client, confirm: c}
}

// Load replaces the department list.
func (r *Registry) Load(ctx context.Context) error {
	var list []models.Department

	if err := r.client.Get(ctx, backend.Path("departments"), &list); err != nil {
		backend.LogError(err).Msg("failed to load departments")
		return err
	}

	r.mu.Lock()
	r.departments = list
	r.mu.Unlock()

	return nil
}

// Departments returns a copy of the list.
func (r *Registry) Departments() []models.Department {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.departments)
}

// Department returns the department with id.
func (r *Registry) Department(id uint64) (models.Department, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.Department{}, false
	}

	return r.departments[i], true
}

// Draft returns the name of the last create attempt that did not succeed.
func (r *Registry) Draft() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.draft
}

type createRequest struct {
	Name string `json:"name"`
}

// Create adds a department. On failure the name is kept as the draft so the
// operator can correct and resubmit; backend messages are returned verbatim.
func (r *Registry) Create(ctx context.Context, name string) (models.Department, error) {
	r.mu.Lock()
	r.draft = name
	r.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return models.Department{}, ErrNameEmpty
	}

	var created models.Department
	if err := r.client.Post(ctx, backend.Path("departments"), createRequest{Name: name}, &created); err != nil {
		backend.LogError(err).Str("department", name).Msg("failed to create department")
		return models.Department{}, err
	}

	r.mu.Lock()
	r.draft = ""

	if created.ID != 0 {
		if created.Name == "" {
			created.Name = name
		}

		r.departments = append(r.departments, created)
		r.mu.Unlock()

		return created, nil
	}
	r.mu.Unlock()

	// no entity in the answer
	if err := r.Load(ctx); err != nil {
		return models.Department{}, err
	}

	for _, d := range r.Departments() {
		if d.Name == name {
			return d, nil
		}
	}

	return models.Department{Name: name}, nil
}

// Delete removes a department after confirmation. Members are not reassigned.
func (r *Registry) Delete(ctx context.Context, id uint64) error {
	d, ok := r.Department(id)
	if !ok {
		return ErrNotFound
	}

	prompt := fmt.Sprintf("Delete department %q?", d.Name)
	if d.UsersCount > 0 {
		prompt = fmt.Sprintf("Delete department %q? It still has %d member(s).", d.Name, d.UsersCount)
	}

	if err := confirm.Require(ctx, r.confirm, prompt); err != nil {
		return err
	}

	if err := r.client.Delete(ctx, backend.Path("departments", id)); err != nil {
		backend.LogError(err).Uint64("departmentID", id).Msg("failed to delete department")
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOf(id); i >= 0 {
		r.departments = slices.Delete(r.departments, i, i+1)
	}

	return nil
}

type assignRequest struct {
	UserID       uint64 `json:"user_id"`
	DepartmentID uint64 `json:"department_id"`
}

// Assign places a user in a department, replacing any previous one.
func (r *Registry) Assign(ctx context.Context, userID, departmentID uint64) error {
	if departmentID == 0 {
		return ErrNoDepartment
	}

	err := r.client.Post(ctx, backend.Path("departments", "assign"), assignRequest{UserID: userID, DepartmentID: departmentID}, nil)
	if err != nil {
		backend.LogError(err).Uint64("userID", userID).Uint64("departmentID", departmentID).Msg("failed to assign department")
		return err
	}

	return nil
}

// indexOf must be called with r.mu held.
func (r *Registry) indexOf(id uint64) int {
	return slices.IndexFunc(r.departments, func(d models.Department) bool { return d.ID == id })
}
