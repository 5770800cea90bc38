package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/churchadmin/churchadmin/internal/models"
)

const (
	fileMode = 0o600
	dirMode  = 0o700

	appDir   = "churchadmin"
	fileName = "session.json"
)

// FileStore persists the session as JSON on disk. It is used by the command line client.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath returns the session file location inside the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}

	return filepath.Join(dir, appDir, fileName), nil
}

// Path returns the backing file.
func (f *FileStore) Path() string {
	return f.path
}

// Token implements Store.
func (f *FileStore) Token() string {
	return f.read().Token
}

// User implements Store.
func (f *FileStore) User() *models.User {
	return f.read().User
}

// Save implements Store.
func (f *FileStore) Save(token string, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	out, err := json.Marshal(Data{Token: token, User: user})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(f.path), dirMode); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	return os.WriteFile(f.path, out, fileMode)
}

// Clear implements Store. A missing file is not an error.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}

	return nil
}

// read returns an empty Data when the file is missing or unreadable.
func (f *FileStore) read() Data {
	f.mu.Lock()
	defer f.mu.Unlock()

	var d Data

	raw, err := os.ReadFile(f.path)
	if err != nil {
		return d
	}

	if err = json.Unmarshal(raw, &d); err != nil {
		return Data{}
	}

	return d
}
