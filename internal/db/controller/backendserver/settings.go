// Package backendserver persists the backend connection chosen on the settings page.
package backendserver

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"github.com/churchadmin/churchadmin/internal/db/controller/setting"
)

// SettingKey is the key the backend server settings are stored under.
const SettingKey = "backend_server"

// Settings is the runtime override of config.Backend.URL.
type Settings struct {
	URL string `form:"url" json:"url" validate:"required,http_url"`
}

// Load loads the settings from the database.
func (s *Settings) Load(ctx context.Context, db *gorm.DB) error {
	row, err := setting.Get(ctx, db, SettingKey)
	if err != nil {
		return err
	}

	return json.Unmarshal(row.Value, s)
}

// Save stores the settings in the database.
func (s *Settings) Save(ctx context.Context, db *gorm.DB) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return setting.Set(ctx, db, SettingKey, data)
}

// EffectiveURL returns the stored url, or fallback when none was saved.
func EffectiveURL(ctx context.Context, db *gorm.DB, fallback string) (string, error) {
	var s Settings

	err := s.Load(ctx, db)

	switch {
	case errors.Is(err, setting.ErrSettingNotFound):
		return fallback, nil
	case err != nil:
		return fallback, err
	case s.URL == "":
		return fallback, nil
	}

	return s.URL, nil
}
