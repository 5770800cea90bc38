package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churchadmin/churchadmin/internal/models"
)

func testStore(t *testing.T, store Store) {
	t.Helper()

	assert.Empty(t, store.Token())
	assert.Nil(t, store.User())

	user := &models.User{ID: 7, Name: "Ruth", Role: models.RoleSuperAdmin}
	require.NoError(t, store.Save("tok-123", user))

	assert.Equal(t, "tok-123", store.Token())
	require.NotNil(t, store.User())
	assert.Equal(t, "Ruth", store.User().Name)
	assert.Equal(t, models.RoleSuperAdmin, store.User().Role)

	// the snapshot must not alias the caller's value
	user.Name = "changed"
	assert.Equal(t, "Ruth", store.User().Name)

	require.NoError(t, store.Clear())
	assert.Empty(t, store.Token())
	assert.Nil(t, store.User())

	// clearing twice is fine
	require.NoError(t, store.Clear())
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore("", nil))
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	testStore(t, NewFileStore(path))
}

func TestFileStore_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save("secret", nil))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())
}

func TestFileStore_CorruptFileReadsAsSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), fileMode))

	store := NewFileStore(path)
	assert.Empty(t, store.Token())
	assert.Nil(t, store.User())
}

func TestNewMemoryStore_Prefilled(t *testing.T) {
	store := NewMemoryStore("abc", &models.User{ID: 1})
	assert.Equal(t, "abc", store.Token())
	assert.True(t, Data{Token: store.Token()}.Valid())
	assert.False(t, Data{}.Valid())
}
