package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Canvas.PerPage != 100 {
		t.Errorf("PerPage = %d, want 100", cfg.Canvas.PerPage)
	}
	if cfg.Canvas.Timeout != 20*time.Second {
		t.Errorf("Timeout = %v, want 20s", cfg.Canvas.Timeout)
	}
	if cfg.Workers != 5 {
		t.Errorf("Workers = %d, want 5", cfg.Workers)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
canvas:
  base_url: https://school.instructure.com
  token: file-token
  timeout: 5s
workers: 2
logging:
  level: debug
  pretty: true
redis:
  addr: localhost:6379
  db: 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Canvas.BaseURL != "https://school.instructure.com" {
		t.Errorf("BaseURL = %q", cfg.Canvas.BaseURL)
	}
	if cfg.Canvas.Token != "file-token" {
		t.Errorf("Token = %q, want file-token", cfg.Canvas.Token)
	}
	if cfg.Canvas.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Canvas.Timeout)
	}
	if cfg.Workers != 2 {
		t.Errorf("Workers = %d, want 2", cfg.Workers)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Pretty {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 3 {
		t.Errorf("Redis = %+v", cfg.Redis)
	}

	// Fields absent from the file keep their defaults
	if cfg.Canvas.PerPage != 100 {
		t.Errorf("PerPage = %d, want default 100", cfg.Canvas.PerPage)
	}
}

func TestLoad_EnvTokenWins(t *testing.T) {
	path := writeConfig(t, `
canvas:
  base_url: https://school.instructure.com
  token: file-token
`)

	t.Setenv(EnvToken, "env-token")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Canvas.Token != "env-token" {
		t.Errorf("Token = %q, want env-token", cfg.Canvas.Token)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "canvas: [not a mapping")

	if _, err := Load(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{
			name:        "valid",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "missing base url",
			mutate:      func(c *Config) { c.Canvas.BaseURL = "" },
			expectError: true,
		},
		{
			name:        "missing token",
			mutate:      func(c *Config) { c.Canvas.Token = "" },
			expectError: true,
		},
		{
			name:        "negative workers",
			mutate:      func(c *Config) { c.Workers = -1 },
			expectError: true,
		},
		{
			name:        "zero workers is allowed",
			mutate:      func(c *Config) { c.Workers = 0 },
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Canvas.BaseURL = "https://school.instructure.com"
			cfg.Canvas.Token = "token-123"
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}
