// Package session keeps dashboard sessions in a fiber.Storage, keyed by the
// browser's session cookie. Each cookie gets a session.Store the backend
// client can be bound to.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	fibersession "github.com/gofiber/fiber/v2/middleware/session"
	"github.com/rs/zerolog/log"

	"github.com/churchadmin/churchadmin/internal/models"
	appsession "github.com/churchadmin/churchadmin/internal/session"
)

// CookieName is the name of the dashboard session cookie.
const CookieName = "session"

// Manager hands out per-cookie stores over one storage backend.
type Manager struct {
	storage fiber.Storage
	expiry  time.Duration
}

// New creates a Manager. A nil storage keeps sessions in process memory.
func New(storage fiber.Storage, expiry time.Duration) *Manager {
	// fiber's session store fills in its in-memory storage when none is given
	store := fibersession.New(fibersession.Config{
		Storage:    storage,
		Expiration: expiry,
	})

	return &Manager{storage: store.Storage, expiry: expiry}
}

// Expiry returns how long a session lives.
func (m *Manager) Expiry() time.Duration {
	return m.expiry
}

// Store returns the store of session id. Nothing is read until it is used.
func (m *Manager) Store(id string) *Store {
	return &Store{m: m, id: id}
}

// Close releases the storage.
func (m *Manager) Close() error {
	return m.storage.Close()
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// Store is the session of one browser cookie. It implements session.Store.
type Store struct {
	m  *Manager
	id string

	mu     sync.Mutex
	loaded bool
	data   appsession.Data
}

var _ appsession.Store = (*Store)(nil)

// ID returns the session id.
func (s *Store) ID() string {
	return s.id
}

func (s *Store) load() {
	if s.loaded {
		return
	}

	s.loaded = true

	if s.id == "" {
		return
	}

	raw, err := s.m.storage.Get(s.id)
	if err != nil {
		log.Error().Err(err).Msg("failed to read session")
		return
	}

	if len(raw) == 0 {
		return
	}

	if err = json.Unmarshal(raw, &s.data); err != nil {
		log.Warn().Err(err).Msg("dropping unreadable session")

		s.data = appsession.Data{}
	}
}

// Token implements session.Store.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()

	return s.data.Token
}

// User implements session.Store.
func (s *Store) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.load()

	if s.data.User == nil {
		return nil
	}

	u := *s.data.User

	return &u
}

// Save implements session.Store.
func (s *Store) Save(token string, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := appsession.Data{Token: token, User: user}

	out, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if err = s.m.storage.Set(s.id, out, s.m.expiry); err != nil {
		return err
	}

	s.data, s.loaded = data, true

	return nil
}

// Clear implements session.Store.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data, s.loaded = appsession.Data{}, true

	if s.id == "" {
		return nil
	}

	return s.m.storage.Delete(s.id)
}
