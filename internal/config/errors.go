package config

import (
	"errors"
)

var (
	// ErrConfigNil error if a nil config is handed over.
	ErrConfigNil = errors.New("config is nil")

	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrEmptyBackendURL error if the backend url is neither configured nor set in the environment.
	ErrEmptyBackendURL = errors.New("backend url can not be empty (set backend.url or CHURCHADMIN_BACKEND_URL)")

	// ErrInvalidBackendURL error if the backend url is not an absolute http(s) url.
	ErrInvalidBackendURL = errors.New("backend url must be an absolute http or https url")
)
