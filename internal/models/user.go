package models

import "strings"

// MemberStatus is the membership state reported by the backend.
// The backend uses two spellings for some states ("Pending"/"no", "Active"/"yes"),
// so the raw value is kept and the predicates normalize it.
type MemberStatus string

const (
	// StatusPending marks an account waiting for approval.
	StatusPending MemberStatus = "Pending"
	// StatusActive marks an approved, usable account.
	StatusActive MemberStatus = "Active"
	// StatusSuspended marks an account blocked by an operator.
	StatusSuspended MemberStatus = "Suspended"
	// StatusInactive marks a dormant account.
	StatusInactive MemberStatus = "Inactive"

	legacyPending = "no"
	legacyActive  = "yes"
)

// IsPending reports whether the account still needs approval.
func (s MemberStatus) IsPending() bool {
	return strings.EqualFold(string(s), string(StatusPending)) || strings.EqualFold(string(s), legacyPending)
}

// IsActive reports whether the account is active.
func (s MemberStatus) IsActive() bool {
	return strings.EqualFold(string(s), string(StatusActive)) || strings.EqualFold(string(s), legacyActive)
}

// IsSuspended reports whether the account is suspended.
func (s MemberStatus) IsSuspended() bool {
	return strings.EqualFold(string(s), string(StatusSuspended))
}

// Label returns the canonical display name.
func (s MemberStatus) Label() string {
	switch {
	case s.IsPending():
		return string(StatusPending)
	case s.IsActive():
		return string(StatusActive)
	case s.IsSuspended():
		return string(StatusSuspended)
	case strings.EqualFold(string(s), string(StatusInactive)):
		return string(StatusInactive)
	}

	return string(s)
}

// Toggled returns the status the suspend toggle moves to: suspended accounts
// become active, everything else becomes suspended.
func (s MemberStatus) Toggled() MemberStatus {
	if s.IsSuspended() {
		return StatusActive
	}

	return StatusSuspended
}

// DepartmentRef is the short department form embedded in a user.
type DepartmentRef struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// User is a member account as listed by the super admin endpoints.
type User struct {
	ID           uint64         `json:"id"`
	Name         string         `json:"name"`
	Mobile       string         `json:"mobile"`
	Role         UserRole       `json:"role"`
	MemberStatus MemberStatus   `json:"member_status"`
	Department   *DepartmentRef `json:"department,omitempty"`
}

// RoleEditable reports whether the console may change this user's role.
// Super admins and accounts with an unknown role are read-only.
func (u User) RoleEditable() bool {
	return u.Role.Valid() && u.Role != RoleSuperAdmin
}

// Matches reports whether term is a case-insensitive substring of the name or mobile.
// An empty term matches every user.
func (u User) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}

	return strings.Contains(strings.ToLower(u.Name), term) ||
		strings.Contains(strings.ToLower(u.Mobile), term)
}
