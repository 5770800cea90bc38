package config

import (
	"time"

	"github.com/churchadmin/churchadmin/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode    bool // enable dev mode for development
	DB         DB
	Log        logger.Log
	Title      string
	Webserver  Webserver
	Backend    Backend
	Directory  Directory
	Optimistic Optimistic
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic   bool    // enable static file browsing (for development purposes only)
	CacheEnabled   bool    // true = enable cache, false = disable cache
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	CookieSecure   bool    // send the session cookie over https only
	Session        Session // session settings
}

// Backend holds the REST backend connection settings.
// Every field can be overridden from the environment.
type Backend struct {
	URL               string        `env:"CHURCHADMIN_BACKEND_URL"`
	Timeout           time.Duration `env:"CHURCHADMIN_BACKEND_TIMEOUT"`
	RetryMax          int           `env:"CHURCHADMIN_BACKEND_RETRY_MAX"` // retries for idempotent GETs only
	RetryWaitMin      time.Duration `env:"CHURCHADMIN_BACKEND_RETRY_WAIT_MIN"`
	RetryWaitMax      time.Duration `env:"CHURCHADMIN_BACKEND_RETRY_WAIT_MAX"`
	RequestsPerSecond float64       `env:"CHURCHADMIN_BACKEND_RPS"` // 0 disables the limiter
	Burst             int           `env:"CHURCHADMIN_BACKEND_BURST"`
}

// Directory holds user directory settings.
type Directory struct {
	ListTimeout time.Duration // deadline for a full user list load
}

// Optimistic controls how failed optimistic updates are treated.
type Optimistic struct {
	Rollback bool // restore the previous local value when the backend rejects a change
}
