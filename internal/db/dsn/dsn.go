// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"strings"

	"github.com/churchadmin/churchadmin/internal/config"
)

const (
	// EngineMySQL selects gorm's mysql driver.
	EngineMySQL = "mysql"
	// EnginePostgres selects gorm's postgres driver.
	EnginePostgres = "postgres"
	// EngineSQLite selects the pure Go sqlite driver.
	EngineSQLite = "sqlite"
)

// Create builds the Data Source Name for the configured engine.
func Create(cfg *config.Config) string {
	db := cfg.DB

	switch strings.ToLower(db.GormEngine) {
	case EnginePostgres:
		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			db.Host, db.Port, db.User, db.Password, db.Name)

		if db.Extras != "" {
			out += " " + db.Extras
		}

		return out
	case EngineSQLite:
		if db.Name == "" {
			return ":memory:"
		}

		return db.Name
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.Extras,
	)
}

// URI builds a url style connection string, as used by the session storages.
func URI(cfg *config.Config) string {
	db := cfg.DB

	if strings.EqualFold(db.GormEngine, EnginePostgres) {
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", db.User, db.Password, db.Host, db.Port, db.Name)
	}

	return Create(cfg)
}
