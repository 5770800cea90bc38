package session

import (
	"sync"

	"github.com/churchadmin/churchadmin/internal/models"
)

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data Data
}

// NewMemoryStore returns a store pre-filled with token and user.
func NewMemoryStore(token string, user *models.User) *MemoryStore {
	return &MemoryStore{data: Data{Token: token, User: copyUser(user)}}
}

// Token implements Store.
func (m *MemoryStore) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.data.Token
}

// User implements Store.
func (m *MemoryStore) User() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return copyUser(m.data.User)
}

// Save implements Store.
func (m *MemoryStore) Save(token string, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = Data{Token: token, User: copyUser(user)}

	return nil
}

// Clear implements Store.
func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data = Data{}

	return nil
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}

	c := *u

	return &c
}
