// Package config handles input from etc/*.toml files and the environment.
package config

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// EnvConfigJSON names the variable holding a JSON document merged over main.toml.
const EnvConfigJSON = "CHURCHADMIN_CONFIG_JSON"

const (
	defaultBackendTimeout = 10 * time.Second
	defaultListTimeout    = 15 * time.Second
	defaultRetryWaitMin   = 500 * time.Millisecond
	defaultRetryWaitMax   = 5 * time.Second
	defaultShutDownTime   = 5
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, "main.toml"))
	v.SetConfigType("toml")

	if err = v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err = v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	if err = env.Parse(&c.Backend); err != nil {
		return c, errors.Wrap(err, "failed to read backend environment")
	}

	applyDefaults(&c)

	return c, validate(&c)
}

// ReadBackend reads the backend settings from the environment only.
// The command line client uses it when no config file is given.
func ReadBackend() (Backend, error) {
	var b Backend

	if err := env.Parse(&b); err != nil {
		return b, errors.Wrap(err, "failed to read backend environment")
	}

	applyBackendDefaults(&b)

	return b, ValidateBackend(b)
}

// LoadDotEnv loads KEY=value pairs from the given files (default ".env") into the
// environment. Missing files are ignored, variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(err, "failed to load %s", f)
		}
	}

	return nil
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	return c, nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

func applyDefaults(c *Config) {
	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Directory.ListTimeout == 0 {
		c.Directory.ListTimeout = defaultListTimeout
	}

	applyBackendDefaults(&c.Backend)
}

func applyBackendDefaults(b *Backend) {
	if b.Timeout == 0 {
		b.Timeout = defaultBackendTimeout
	}

	if b.RetryWaitMin == 0 {
		b.RetryWaitMin = defaultRetryWaitMin
	}

	if b.RetryWaitMax == 0 {
		b.RetryWaitMax = defaultRetryWaitMax
	}

	if b.RequestsPerSecond > 0 && b.Burst < 1 {
		b.Burst = 1
	}
}

// validate minimal config settings.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	return errors.Wrap(ValidateBackend(c.Backend), invalidErrMessage)
}

// ValidateBackend checks that the backend url is usable.
func ValidateBackend(b Backend) error {
	if b.URL == "" {
		return ErrEmptyBackendURL
	}

	return ValidateBackendURL(b.URL)
}

// ValidateBackendURL checks that raw is an absolute http(s) url.
func ValidateBackendURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidBackendURL
	}

	return nil
}
