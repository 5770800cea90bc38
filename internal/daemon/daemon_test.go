package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/churchadmin/churchadmin/internal/config"
	"github.com/churchadmin/churchadmin/internal/db/controller/backendserver"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		Title:     "ChurchAdmin",
		DB:        config.DB{GormEngine: "sqlite"},
		Webserver: config.Webserver{Port: 8080, Session: config.Session{ExpiryTime: time.Hour}},
		Backend:   config.Backend{URL: "http://localhost:8000", Timeout: time.Second},
	}
}

func TestOpenDB_SQLite(t *testing.T) {
	db, err := OpenDB(sqliteConfig())
	require.NoError(t, err)

	settings := backendserver.Settings{URL: "https://church.example.org"}
	require.NoError(t, settings.Save(context.Background(), db))

	url, err := backendserver.EffectiveURL(context.Background(), db, "http://fallback")
	require.NoError(t, err)
	assert.Equal(t, "https://church.example.org", url)
}

func TestOpenDB_UnknownEngine(t *testing.T) {
	cfg := sqliteConfig()
	cfg.DB.GormEngine = "oracle"

	_, err := OpenDB(cfg)
	require.ErrorIs(t, err, ErrUnknownEngine)
}

func TestSessionStorage_SQLiteUsesMemory(t *testing.T) {
	assert.Nil(t, SessionStorage(sqliteConfig()))
}

func TestNew(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, config.ErrConfigNil)

	d, err := New(sqliteConfig())
	require.NoError(t, err)
	require.NotNil(t, d.webService)
}
