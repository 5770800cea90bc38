// Package session holds the credentials every backend request is made with.
//
// A Store keeps the bearer token and a snapshot of the signed-in user. It is
// written by the login flow, the logout action and the unauthorized handler,
// and read by everything else. Expiry is never tracked locally: an expired
// token is discovered when the backend answers 401.
package session

import (
	"github.com/churchadmin/churchadmin/internal/models"
)

// Store is the contract shared by all session backends.
type Store interface {
	// Token returns the bearer token, or "" when signed out.
	Token() string
	// User returns the signed-in user snapshot, or nil when signed out.
	User() *models.User
	// Save replaces the token and user.
	Save(token string, user *models.User) error
	// Clear forgets the token and user.
	Clear() error
}

// Data is the serialized form of a session.
type Data struct {
	Token string       `json:"token"`
	User  *models.User `json:"user,omitempty"`
}

// Valid reports whether the data carries a token.
func (d Data) Valid() bool {
	return d.Token != ""
}
