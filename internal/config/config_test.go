package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func etcPath(t *testing.T) string {
	t.Helper()

	// Get the project root by going up from internal/config
	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	return filepath.Join(projectRoot, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(etcPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	// Test basic config fields
	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.Session.ExpiryTime != 24*time.Hour {
		t.Errorf("Webserver.Session.ExpiryTime = %v, want 24h", cfg.Webserver.Session.ExpiryTime)
	}

	if cfg.Backend.URL == "" {
		t.Error("Backend.URL should not be empty")
	}

	if cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("Backend.Timeout = %v, want 10s", cfg.Backend.Timeout)
	}

	if cfg.Directory.ListTimeout != 15*time.Second {
		t.Errorf("Directory.ListTimeout = %v, want 15s", cfg.Directory.ListTimeout)
	}

	if cfg.Optimistic.Rollback {
		t.Error("Optimistic.Rollback should default to false")
	}

	if cfg.DB.GormEngine == "" {
		t.Error("DB.GormEngine should not be empty")
	}
}

func TestReadConfigWithJSONOverride(t *testing.T) {
	jsonOverride := `{"Title":"Test Override","Webserver":{"Port":9090},"Optimistic":{"Rollback":true}}`
	t.Setenv(EnvConfigJSON, jsonOverride)

	cfg, err := ReadConfig(etcPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title != "Test Override" {
		t.Errorf("Title = %v, want %v", cfg.Title, "Test Override")
	}

	if cfg.Webserver.Port != 9090 {
		t.Errorf("Webserver.Port = %v, want %v", cfg.Webserver.Port, 9090)
	}

	if !cfg.Optimistic.Rollback {
		t.Error("Optimistic.Rollback should be overridden to true")
	}

	// untouched keys keep their file value
	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should survive the override")
	}
}

func TestReadConfigWithInvalidJSONOverride(t *testing.T) {
	t.Setenv(EnvConfigJSON, `{"Title":`)

	if _, err := ReadConfig(etcPath(t)); err == nil {
		t.Error("ReadConfig() should fail on a broken JSON override")
	}
}

func TestReadConfigBackendEnvOverride(t *testing.T) {
	t.Setenv("CHURCHADMIN_BACKEND_URL", "https://church.example.org")
	t.Setenv("CHURCHADMIN_BACKEND_TIMEOUT", "3s")
	t.Setenv("CHURCHADMIN_BACKEND_RETRY_MAX", "4")

	cfg, err := ReadConfig(etcPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Backend.URL != "https://church.example.org" {
		t.Errorf("Backend.URL = %v", cfg.Backend.URL)
	}

	if cfg.Backend.Timeout != 3*time.Second {
		t.Errorf("Backend.Timeout = %v, want 3s", cfg.Backend.Timeout)
	}

	if cfg.Backend.RetryMax != 4 {
		t.Errorf("Backend.RetryMax = %v, want 4", cfg.Backend.RetryMax)
	}
}

func TestReadConfigMissingFile(t *testing.T) {
	if _, err := ReadConfig(t.TempDir()); err == nil {
		t.Error("ReadConfig() should fail without main.toml")
	}
}

func TestReadBackend(t *testing.T) {
	t.Setenv("CHURCHADMIN_BACKEND_URL", "http://127.0.0.1:8000")
	t.Setenv("CHURCHADMIN_BACKEND_RPS", "5")

	b, err := ReadBackend()
	if err != nil {
		t.Fatalf("ReadBackend() error = %v", err)
	}

	if b.Timeout != defaultBackendTimeout {
		t.Errorf("Timeout = %v, want default %v", b.Timeout, defaultBackendTimeout)
	}

	if b.Burst != 1 {
		t.Errorf("Burst = %v, want 1 when a rate is set", b.Burst)
	}

	t.Setenv("CHURCHADMIN_BACKEND_URL", "")

	if _, err = ReadBackend(); !errors.Is(err, ErrEmptyBackendURL) {
		t.Errorf("ReadBackend() error = %v, want %v", err, ErrEmptyBackendURL)
	}
}

func TestConfigValidation(t *testing.T) {
	backend := Backend{URL: "http://localhost:8000"}

	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name: "valid config",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
				Backend:   backend,
			},
		},
		{
			name: "missing port",
			config: Config{
				Webserver: Webserver{Port: 0, URL: "http://localhost:8080"},
				Backend:   backend,
			},
			wantErr: ErrWebServerPortCanNotBeZero,
		},
		{
			name: "missing URL",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: ""},
				Backend:   backend,
			},
			wantErr: ErrEmptyURL,
		},
		{
			name: "missing backend",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
			},
			wantErr: ErrEmptyBackendURL,
		},
		{
			name: "relative backend",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
				Backend:   Backend{URL: "/api"},
			},
			wantErr: ErrInvalidBackendURL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(&tt.config)
			if tt.wantErr == nil && err != nil {
				t.Errorf("validate() error = %v, want nil", err)
			}

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateBackendURL(t *testing.T) {
	for raw, valid := range map[string]bool{
		"http://localhost:8000":  true,
		"https://church.example": true,
		"ftp://church.example":   false,
		"church.example":         false,
		"http://":                false,
		"::not a url":            false,
	} {
		if err := ValidateBackendURL(raw); (err == nil) != valid {
			t.Errorf("ValidateBackendURL(%q) error = %v, valid %v", raw, err, valid)
		}
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")

	if err := os.WriteFile(file, []byte("CHURCHADMIN_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CHURCHADMIN_TEST_DOTENV", "")
	os.Unsetenv("CHURCHADMIN_TEST_DOTENV")

	if err := LoadDotEnv(file, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}

	if got := os.Getenv("CHURCHADMIN_TEST_DOTENV"); got != "loaded" {
		t.Errorf("CHURCHADMIN_TEST_DOTENV = %q, want loaded", got)
	}
}

func TestDumpConfigJSON(t *testing.T) {
	cfg := Config{
		Title:   "Test",
		DevMode: true,
		Webserver: Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
		},
		Backend: Backend{URL: "http://localhost:8000"},
	}

	jsonStr, err := DumpConfigJSON(cfg)
	if err != nil {
		t.Fatalf("DumpConfigJSON() error = %v", err)
	}

	// Check if output is valid JSON by checking for expected fields
	if !strings.Contains(jsonStr, `"Title": "Test"`) {
		t.Error("DumpConfigJSON() output should contain Title")
	}

	if !strings.Contains(jsonStr, "http://localhost:8000") {
		t.Error("DumpConfigJSON() output should contain the backend url")
	}
}
