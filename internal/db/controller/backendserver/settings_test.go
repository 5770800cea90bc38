package backendserver

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/churchadmin/churchadmin/internal/db/controller/setting"
	"github.com/churchadmin/churchadmin/internal/db/models"
)

func newDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))

	return db
}

func TestSettings_SaveLoad(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	var empty Settings
	require.ErrorIs(t, empty.Load(ctx, db), setting.ErrSettingNotFound)

	in := Settings{URL: "https://church.example.org"}
	require.NoError(t, in.Save(ctx, db))

	var out Settings
	require.NoError(t, out.Load(ctx, db))
	assert.Equal(t, in, out)
}

func TestEffectiveURL(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)

	u, err := EffectiveURL(ctx, db, "http://localhost:8000")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", u)

	require.NoError(t, (&Settings{URL: "https://church.example.org"}).Save(ctx, db))

	u, err = EffectiveURL(ctx, db, "http://localhost:8000")
	require.NoError(t, err)
	assert.Equal(t, "https://church.example.org", u)

	require.NoError(t, setting.Set(ctx, db, SettingKey, []byte("{")))

	u, err = EffectiveURL(ctx, db, "http://localhost:8000")
	require.Error(t, err)
	assert.Equal(t, "http://localhost:8000", u)
}
