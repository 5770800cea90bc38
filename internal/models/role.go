// Package models contains the domain types exchanged with the church backend.
package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownRole is returned when a role string is not one of the four known roles.
var ErrUnknownRole = errors.New("unknown user role")

// UserRole is the closed set of roles a user account can hold.
// The zero value is not a valid role.
type UserRole uint8

const (
	// RoleUser is a regular church member.
	RoleUser UserRole = iota + 1
	// RolePastor is a pastor with access to the pastoral area.
	RolePastor
	// RoleAdmin is a church administrator.
	RoleAdmin
	// RoleSuperAdmin is the console operator. Once assigned it cannot be changed from the console.
	RoleSuperAdmin
)

// AllRoles lists every role in display order.
var AllRoles = []UserRole{RoleUser, RolePastor, RoleAdmin, RoleSuperAdmin}

// String returns the wire name of the role.
func (r UserRole) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RolePastor:
		return "pastor"
	case RoleAdmin:
		return "admin"
	case RoleSuperAdmin:
		return "super_admin"
	}

	return fmt.Sprintf("UserRole(%d)", uint8(r))
}

// Label returns a human-readable role name.
func (r UserRole) Label() string {
	switch r {
	case RoleUser:
		return "User"
	case RolePastor:
		return "Pastor"
	case RoleAdmin:
		return "Admin"
	case RoleSuperAdmin:
		return "Super Admin"
	}

	return "Unknown"
}

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r >= RoleUser && r <= RoleSuperAdmin
}

// ParseUserRole converts a wire name into a UserRole.
func ParseUserRole(s string) (UserRole, error) {
	for _, r := range AllRoles {
		if r.String() == s {
			return r, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// MarshalJSON encodes the role as its wire name. The zero value encodes as null.
func (r UserRole) MarshalJSON() ([]byte, error) {
	if r == 0 {
		return []byte("null"), nil
	}

	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, uint8(r))
	}

	return json.Marshal(r.String())
}

// UnmarshalJSON decodes a wire name. A null or unknown name decodes to the
// zero value so one odd account does not fail a whole list.
func (r *UserRole) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	*r = 0

	if s == nil {
		return nil
	}

	if parsed, err := ParseUserRole(*s); err == nil {
		*r = parsed
	}

	return nil
}

// SuperAdminRoleName is the name of the role record that is never edited or deleted.
const SuperAdminRoleName = "super_admin"

// Permission is an entry of the global permission catalog.
type Permission struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// PermissionSet is an unordered set of permission names.
type PermissionSet map[string]struct{}

// NewPermissionSet builds a set from names.
func NewPermissionSet(names ...string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}

	return set
}

// Has reports whether name is in the set.
func (s PermissionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Toggle adds name when absent and removes it when present.
func (s PermissionSet) Toggle(name string) {
	if s.Has(name) {
		delete(s, name)
		return
	}

	s[name] = struct{}{}
}

// Clone returns an independent copy.
func (s PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(s))
	for n := range s {
		out[n] = struct{}{}
	}

	return out
}

// Names returns the permission names sorted alphabetically.
func (s PermissionSet) Names() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}

	sort.Strings(out)

	return out
}

// Equal reports whether both sets hold the same names.
func (s PermissionSet) Equal(other PermissionSet) bool {
	if len(s) != len(other) {
		return false
	}

	for n := range s {
		if !other.Has(n) {
			return false
		}
	}

	return true
}

// MarshalJSON encodes the set as a sorted array of names.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON accepts either an array of names or an array of permission objects.
func (s *PermissionSet) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	set := make(PermissionSet, len(raw))

	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			set[name] = struct{}{}
			continue
		}

		var p Permission
		if err := json.Unmarshal(item, &p); err != nil {
			return fmt.Errorf("decode permission: %w", err)
		}

		set[p.Name] = struct{}{}
	}

	*s = set

	return nil
}

// Role is a named bundle of permissions managed by the backend.
type Role struct {
	ID          uint64        `json:"id"`
	Name        string        `json:"name"`
	Permissions PermissionSet `json:"permissions"`
}

// IsSuperAdmin reports whether this is the immutable super admin role.
func (r Role) IsSuperAdmin() bool {
	return r.Name == SuperAdminRoleName
}

// Clone returns a copy that does not share the permission set.
func (r Role) Clone() Role {
	r.Permissions = r.Permissions.Clone()
	return r
}
