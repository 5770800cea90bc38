// Package directory lists member accounts and runs the access control actions
// on them: role change, suspension, approval, session revocation, forced
// password reset and department assignment.
package directory

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/churchadmin/churchadmin/internal/backend"
	"github.com/churchadmin/churchadmin/internal/confirm"
	"github.com/churchadmin/churchadmin/internal/department"
	"github.com/churchadmin/churchadmin/internal/models"
)

// DefaultListTimeout bounds a user list load when Options.ListTimeout is zero.
const DefaultListTimeout = 15 * time.Second

var (
	// ErrUserNotFound is returned when the user is not in the loaded list.
	ErrUserNotFound = &backend.Error{Kind: backend.KindNotFound, Message: "user not found"}
	// ErrSuperAdminImmutable is returned when changing the role of a super admin.
	ErrSuperAdminImmutable = backend.Invalid("a super admin's role cannot be changed")
	// ErrInvalidRole is returned for a role outside the known set.
	ErrInvalidRole = backend.Invalid("unknown role")
	// ErrCurrentRoleUnknown is returned when changing the role of a user whose role the console does not know.
	ErrCurrentRoleUnknown = backend.Invalid("this member's current role is unknown to the console")
	// ErrNotPending is returned when approving a user that is not pending.
	ErrNotPending = backend.Invalid("only pending members can be approved")
	// ErrPasswordTooShort is returned when a forced reset password has fewer than 8 characters.
	ErrPasswordTooShort = backend.Invalid("the new password must be at least 8 characters")
	// ErrNoAssignment is returned when assigning without an open assignment.
	ErrNoAssignment = backend.Invalid("no member selected for department assignment")
	// ErrClosed is returned by Load after Close.
	ErrClosed = &backend.Error{Kind: backend.KindCanceled, Message: "directory closed"}
)

// Options configures a Directory.
type Options struct {
	ListTimeout time.Duration
	// Rollback restores the previous role or status when the backend rejects a change.
	Rollback bool
	// Confirmer approves suspension and session revocation. Nil declines them.
	Confirmer confirm.Confirmer
}

// Directory is the member list of one console view.
type Directory struct {
	client      *backend.Client
	departments *department.Registry
	opts        Options
	validator   *validator.Validate

	life   context.Context
	cancel context.CancelFunc

	mu         sync.RWMutex
	users      []models.User
	term       string
	assigning  uint64
	generation uint64
	closed     bool
}

// New creates a Directory. Close it when the view goes away.
func New(client *backend.Client, departments *department.Registry, opts Options) *Directory {
	if opts.ListTimeout <= 0 {
		opts.ListTimeout = DefaultListTimeout
	}

	life, cancel := context.WithCancel(context.Background())

	return &Directory{
		client:      client,
		departments: departments,
		opts:        opts,
		validator:   validator.New(),
		life:        life,
		cancel:      cancel,
	}
}

// Load fetches the full user list within the list timeout. A load that
// finishes after Close or after a newer load started is discarded.
func (d *Directory) Load(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}

	d.generation++
	gen := d.generation
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, d.opts.ListTimeout)
	defer cancel()

	stop := context.AfterFunc(d.life, cancel)
	defer stop()

	var users []models.User
	if err := d.client.Get(ctx, backend.Path("users"), &users); err != nil {
		if d.isClosed() {
			return ErrClosed
		}

		backend.LogError(err).Msg("failed to load users")

		return err
	}

	for _, u := range users {
		if !u.Role.Valid() {
			log.Warn().Uint64("userID", u.ID).Msg("user has an unknown role, listed read-only")
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	if gen == d.generation {
		d.users = users
	}

	return nil
}

// Close aborts in-flight loads and stops accepting results.
func (d *Directory) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	d.cancel()
}

func (d *Directory) isClosed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.closed
}

// All returns every loaded user.
func (d *Directory) All() []models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return slices.Clone(d.users)
}

// Filter sets the search term and returns the matching users.
func (d *Directory) Filter(term string) []models.User {
	d.mu.Lock()
	d.term = term
	d.mu.Unlock()

	return d.Users()
}

// Term returns the current search term.
func (d *Directory) Term() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.term
}

// Users returns the users matching the current search term, case-insensitively
// on name or mobile. It never fetches.
func (d *Directory) Users() []models.User {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.User, 0, len(d.users))

	for _, u := range d.users {
		if u.Matches(d.term) {
			out = append(out, u)
		}
	}

	return out
}

// User returns the user with id.
func (d *Directory) User(id uint64) (models.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	i := d.indexOf(id)
	if i < 0 {
		return models.User{}, false
	}

	return d.users[i], true
}

type roleRequest struct {
	Role models.UserRole `json:"role"`
}

// ChangeRole sets the user's role locally and then on the backend.
func (d *Directory) ChangeRole(ctx context.Context, userID uint64, role models.UserRole) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	d.mu.Lock()

	i := d.indexOf(userID)
	if i < 0 {
		d.mu.Unlock()
		return ErrUserNotFound
	}

	if !d.users[i].Role.Valid() {
		d.mu.Unlock()
		return ErrCurrentRoleUnknown
	}

	if !d.users[i].RoleEditable() {
		d.mu.Unlock()
		return ErrSuperAdminImmutable
	}

	previous := d.users[i].Role
	d.users[i].Role = role

	d.mu.Unlock()

	err := d.client.Put(ctx, backend.Path("users", userID, "role"), roleRequest{Role: role}, nil)
	if err == nil {
		return nil
	}

	backend.LogError(err).Uint64("userID", userID).Str("role", role.String()).Msg("failed to change role")

	if d.opts.Rollback {
		d.restore(userID, func(u *models.User) { u.Role = previous })
	}

	return err
}

type statusResponse struct {
	MemberStatus models.MemberStatus `json:"member_status"`
}

// ToggleStatus suspends an active user or restores a suspended one after
// confirmation. The backend decides the resulting state; when it reports one,
// that value replaces the optimistic one.
func (d *Directory) ToggleStatus(ctx context.Context, userID uint64) error {
	u, ok := d.User(userID)
	if !ok {
		return ErrUserNotFound
	}

	prompt := fmt.Sprintf("Suspend %s?", u.Name)
	if u.MemberStatus.IsSuspended() {
		prompt = fmt.Sprintf("Restore %s?", u.Name)
	}

	if err := confirm.Require(ctx, d.opts.Confirmer, prompt); err != nil {
		return err
	}

	d.mu.Lock()

	i := d.indexOf(userID)
	if i < 0 {
		d.mu.Unlock()
		return ErrUserNotFound
	}

	previous := d.users[i].MemberStatus
	d.users[i].MemberStatus = previous.Toggled()

	d.mu.Unlock()

	var resp statusResponse

	err := d.client.Post(ctx, backend.Path("users", userID, "suspend"), nil, &resp)
	if err != nil {
		backend.LogError(err).Uint64("userID", userID).Msg("failed to toggle member status")

		if d.opts.Rollback {
			d.restore(userID, func(u *models.User) { u.MemberStatus = previous })
		}

		return err
	}

	if resp.MemberStatus != "" {
		d.restore(userID, func(u *models.User) { u.MemberStatus = resp.MemberStatus })
	}

	return nil
}

// Approve activates a pending user and reloads the list.
func (d *Directory) Approve(ctx context.Context, userID uint64) error {
	u, ok := d.User(userID)
	if !ok {
		return ErrUserNotFound
	}

	if !u.MemberStatus.IsPending() {
		return ErrNotPending
	}

	if err := d.client.Post(ctx, backend.Path("users", userID, "approve"), nil, nil); err != nil {
		backend.LogError(err).Uint64("userID", userID).Msg("failed to approve user")
		return err
	}

	return d.Load(ctx)
}

// RevokeSessions signs the user out everywhere after confirmation.
// The request is sent at most once and nothing changes locally.
func (d *Directory) RevokeSessions(ctx context.Context, userID uint64) error {
	u, ok := d.User(userID)
	if !ok {
		return ErrUserNotFound
	}

	if err := confirm.Require(ctx, d.opts.Confirmer, fmt.Sprintf("Sign %s out of every device?", u.Name)); err != nil {
		return err
	}

	if err := d.client.Post(ctx, backend.Path("users", userID, "revoke-sessions"), nil, nil); err != nil {
		backend.LogError(err).Uint64("userID", userID).Msg("failed to revoke sessions")
		return err
	}

	log.Info().Uint64("userID", userID).Msg("sessions revoked")

	return nil
}

type resetRequest struct {
	Password string `json:"password" validate:"required,min=8"` //nolint:gosec
}

// ForcePasswordReset sets a new password for the user, which signs them out.
// The password is only placed in the request body.
func (d *Directory) ForcePasswordReset(ctx context.Context, userID uint64, password string) error {
	req := resetRequest{Password: password}

	if err := d.validator.Struct(req); err != nil {
		return ErrPasswordTooShort
	}

	if _, ok := d.User(userID); !ok {
		return ErrUserNotFound
	}

	if err := d.client.Post(ctx, backend.Path("users", userID, "force-reset"), req, nil); err != nil {
		backend.LogError(err).Uint64("userID", userID).Msg("failed to force password reset")
		return err
	}

	log.Info().Uint64("userID", userID).Msg("password reset forced")

	return nil
}

// OpenAssignment starts a department assignment for a user.
func (d *Directory) OpenAssignment(userID uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.indexOf(userID) < 0 {
		return ErrUserNotFound
	}

	d.assigning = userID

	return nil
}

// Assignment returns the user being assigned, if an assignment is open.
func (d *Directory) Assignment() (models.User, bool) {
	d.mu.RLock()
	id := d.assigning
	d.mu.RUnlock()

	if id == 0 {
		return models.User{}, false
	}

	return d.User(id)
}

// CloseAssignment cancels the open assignment.
func (d *Directory) CloseAssignment() {
	d.mu.Lock()
	d.assigning = 0
	d.mu.Unlock()
}

// AssignDepartment assigns the open assignment's user to a department,
// closes the assignment and reloads the list. On failure the assignment stays open.
func (d *Directory) AssignDepartment(ctx context.Context, departmentID uint64) error {
	d.mu.RLock()
	userID := d.assigning
	d.mu.RUnlock()

	if userID == 0 {
		return ErrNoAssignment
	}

	if err := d.departments.Assign(ctx, userID, departmentID); err != nil {
		return err
	}

	d.CloseAssignment()

	return d.Load(ctx)
}

func (d *Directory) restore(userID uint64, fn func(*models.User)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if i := d.indexOf(userID); i >= 0 {
		fn(&d.users[i])
	}
}

// indexOf must be called with d.mu held.
func (d *Directory) indexOf(id uint64) int {
	return slices.IndexFunc(d.users, func(u models.User) bool { return u.ID == id })
}
