// Package rbac keeps the console's view of roles and the permission catalog.
//
// Permission edits are optimistic: the local role changes first and the backend
// is told afterwards. Whether a rejected edit is rolled back is configurable.
package rbac

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/confirm"
	"github.com/churchadmin/churchadmin/internal/models"
)

var (
	// ErrRoleNameEmpty is returned when creating a role without a name.
	ErrRoleNameEmpty = backend.Invalid("role name is required")
	// ErrSuperAdminImmutable is returned for any edit or delete of the super_admin role.
	ErrSuperAdminImmutable = backend.Invalid("the super_admin role cannot be edited or deleted")
	// ErrRoleNotFound is returned when the role is not in the local list.
	ErrRoleNotFound = &backend.Error{Kind: backend.KindNotFound, Message: "role not found"}
)

// Options configures a Registry.
type Options struct {
	// Rollback restores the previous permission set when the backend rejects an edit.
	Rollback bool
	// Confirmer approves role deletion. Nil declines every deletion.
	Confirmer confirm.Confirmer
}

// Registry holds roles, the permission catalog and the selected role.
type Registry struct {
	client *backend.Client
	opts   Options

	mu          sync.RWMutex
	roles       []models.Role
	permissions []models.Permission
	loaded      bool
	selected    uint64
}

// New creates an empty Registry. Call Load to fill it.
func New(client *backend.Client, opts Options) *Registry {
	return &Registry{client: client, opts: opts}
}

// Load fetches roles and permissions concurrently. Either both lists are
// replaced or, on any failure, both are emptied.
func (r *Registry) Load(ctx context.Context) error {
	var (
		roles       []models.Role
		permissions []models.Permission
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.client.Get(gctx, backend.Path("roles"), &roles)
	})

	g.Go(func() error {
		return r.client.Get(gctx, backend.Path("permissions"), &permissions)
	})

	err := g.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil {
		r.roles, r.permissions, r.loaded, r.selected = nil, nil, false, 0

		backend.LogError(err).Msg("failed to load roles and permissions")

		return err
	}

	for i := range roles {
		if roles[i].Permissions == nil {
			roles[i].Permissions = models.NewPermissionSet()
		}
	}

	r.roles, r.permissions, r.loaded = roles, permissions, true

	if r.indexOf(r.selected) < 0 {
		r.selected = 0
	}

	return nil
}

// Loaded reports whether the last Load succeeded.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.loaded
}

// Roles returns a copy of the role list.
func (r *Registry) Roles() []models.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Role, len(r.roles))
	for i, role := range r.roles {
		out[i] = role.Clone()
	}

	return out
}

// Permissions returns a copy of the permission catalog.
func (r *Registry) Permissions() []models.Permission {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.permissions)
}

// Role returns a copy of the role with id.
func (r *Registry) Role(id uint64) (models.Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.Role{}, false
	}

	return r.roles[i].Clone(), true
}

// CreateRole creates a role with an optional initial permission set and appends it.
func (r *Registry) CreateRole(ctx context.Context, name string, permissions ...string) (models.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Role{}, ErrRoleNameEmpty
	}

	req := createRoleRequest{Name: name, Permissions: models.NewPermissionSet(permissions...)}

	var created models.Role
	if err := r.client.Post(ctx, backend.Path("roles"), req, &created); err != nil {
		backend.LogError(err).Str("role", name).Msg("failed to create role")
		return models.Role{}, err
	}

	if created.ID == 0 {
		// no entity in the answer
		if err := r.Load(ctx); err != nil {
			return models.Role{}, err
		}

		for _, role := range r.Roles() {
			if role.Name == name {
				return role, nil
			}
		}

		return models.Role{Name: name, Permissions: req.Permissions}, nil
	}

	if created.Permissions == nil {
		created.Permissions = req.Permissions
	}

	r.mu.Lock()
	r.roles = append(r.roles, created.Clone())
	r.mu.Unlock()

	return created, nil
}

// TogglePermission adds name to the role when absent and removes it when
// present, then stores the new set on the backend.
func (r *Registry) TogglePermission(ctx context.Context, roleID uint64, name string) error {
	return r.update(ctx, roleID, func(set models.PermissionSet) models.PermissionSet {
		set.Toggle(name)
		return set
	})
}

// SetRolePermissions replaces the role's permission set.
func (r *Registry) SetRolePermissions(ctx context.Context, roleID uint64, set models.PermissionSet) error {
	return r.update(ctx, roleID, func(models.PermissionSet) models.PermissionSet {
		return set.Clone()
	})
}

type createRoleRequest struct {
	Name        string               `json:"name"`
	Permissions models.PermissionSet `json:"permissions"`
}

type rolePermissions struct {
	Permissions models.PermissionSet `json:"permissions"`
}

// update applies change locally, then sends the result.
func (r *Registry) update(ctx context.Context, roleID uint64, change func(models.PermissionSet) models.PermissionSet) error {
	r.mu.Lock()

	i := r.indexOf(roleID)
	if i < 0 {
		r.mu.Unlock()
		return ErrRoleNotFound
	}

	if r.roles[i].IsSuperAdmin() {
		r.mu.Unlock()
		return ErrSuperAdminImmutable
	}

	snapshot := r.roles[i].Permissions.Clone()
	r.roles[i].Permissions = change(r.roles[i].Permissions.Clone())
	body := rolePermissions{Permissions: r.roles[i].Permissions.Clone()}

	r.mu.Unlock()

	err := r.client.Put(ctx, backend.Path("roles", roleID), body, nil)
	if err == nil {
		return nil
	}

	backend.LogError(err).Uint64("roleID", roleID).Bool("rollback", r.opts.Rollback).Msg("failed to update role permissions")

	if r.opts.Rollback {
		r.mu.Lock()
		if i = r.indexOf(roleID); i >= 0 {
			r.roles[i].Permissions = snapshot
		}
		r.mu.Unlock()
	}

	return err
}

// DeleteRole deletes a role after confirmation. The super_admin role is
// refused before anything is sent.
func (r *Registry) DeleteRole(ctx context.Context, roleID uint64) error {
	role, ok := r.Role(roleID)
	if !ok {
		return ErrRoleNotFound
	}

	if role.IsSuperAdmin() {
		return ErrSuperAdminImmutable
	}

	if err := confirm.Require(ctx, r.opts.Confirmer, fmt.Sprintf("Delete role %q? This cannot be undone.", role.Name)); err != nil {
		return err
	}

	if err := r.client.Delete(ctx, backend.Path("roles", roleID)); err != nil {
		backend.LogError(err).Uint64("roleID", roleID).Msg("failed to delete role")
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if i := r.indexOf(roleID); i >= 0 {
		r.roles = slices.Delete(r.roles, i, i+1)
	}

	if r.selected == roleID {
		r.selected = 0
	}

	return nil
}

// Select marks a role as the one being edited.
func (r *Registry) Select(roleID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(roleID) < 0 {
		return ErrRoleNotFound
	}

	r.selected = roleID

	return nil
}

// Unselect clears the selection.
func (r *Registry) Unselect() {
	r.mu.Lock()
	r.selected = 0
	r.mu.Unlock()
}

// Selected returns the selected role, if any.
func (r *Registry) Selected() (models.Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := r.indexOf(r.selected)
	if r.selected == 0 || i < 0 {
		return models.Role{}, false
	}

	return r.roles[i].Clone(), true
}

// indexOf must be called with r.mu held.
func (r *Registry) indexOf(id uint64) int {
	return slices.IndexFunc(r.roles, func(role models.Role) bool { return role.ID == id })
}
