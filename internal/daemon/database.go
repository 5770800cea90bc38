package daemon

import (
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/pkg/errors"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/churchadmin/churchadmin/internal/config"
	"github.com/churchadmin/churchadmin/internal/db/dsn"
	"github.com/churchadmin/churchadmin/internal/db/models"
)

// SessionTable is the table holding dashboard sessions.
const SessionTable = "sessions"

// ErrUnknownEngine is returned for a GormEngine other than mysql, postgres or sqlite.
var ErrUnknownEngine = errors.New("unknown database engine")

// OpenDB opens the settings database and migrates its tables.
func OpenDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch strings.ToLower(cfg.DB.GormEngine) {
	case dsn.EngineMySQL, "":
		dialector = gormmysql.Open(dsn.Create(cfg))
	case dsn.EnginePostgres:
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case dsn.EngineSQLite:
		dialector = sqlite.Open(dsn.Create(cfg))
	default:
		return nil, errors.Wrap(ErrUnknownEngine, cfg.DB.GormEngine)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if err = db.AutoMigrate(models.All()...); err != nil {
		return nil, errors.Wrap(err, "failed to migrate database")
	}

	return db, nil
}

// SessionStorage returns the shared session storage of the engine.
// SQLite keeps sessions in memory, so it returns nil.
func SessionStorage(cfg *config.Config) fiber.Storage {
	switch strings.ToLower(cfg.DB.GormEngine) {
	case dsn.EngineMySQL, "":
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.URI(cfg),
			Table:         SessionTable,
		})
	case dsn.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.URI(cfg),
			Table:         SessionTable,
		})
	}

	return nil
}
