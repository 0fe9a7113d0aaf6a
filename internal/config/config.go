// Package config loads the run configuration from a YAML file layered
// over defaults, with the access token taken from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvToken overrides canvas.token when set, so the token can stay out of
// config files.
const EnvToken = "CANVAS_TOKEN"

type CanvasConfig struct {
	BaseURL           string        `yaml:"base_url"`            // e.g. https://school.instructure.com
	Token             string        `yaml:"token"`               // overridden by CANVAS_TOKEN
	PerPage           int           `yaml:"per_page"`            // page size for list endpoints
	Timeout           time.Duration `yaml:"timeout"`             // per-request timeout
	RequestsPerSecond float64       `yaml:"requests_per_second"` // client-side pacing
	Burst             int           `yaml:"burst"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"` // empty keeps quota state in-process
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug|info|warn|error
	Pretty bool   `yaml:"pretty"` // human-readable console output
}

type Config struct {
	Canvas      CanvasConfig  `yaml:"canvas"`
	Redis       RedisConfig   `yaml:"redis"`
	Logging     LoggingConfig `yaml:"logging"`
	Workers     int           `yaml:"workers"`      // consolidation pool size
	MetricsAddr string        `yaml:"metrics_addr"` // empty disables the /metrics listener
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Canvas: CanvasConfig{
			PerPage:           100,
			Timeout:           20 * time.Second,
			RequestsPerSecond: 8,
			Burst:             8,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Workers: 5,
	}
}

// Load reads path over the defaults and applies the environment token.
// An empty path skips the file and returns defaults plus environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if token := os.Getenv(EnvToken); token != "" {
		cfg.Canvas.Token = token
	}

	return cfg, nil
}

// Validate checks the fields a run cannot start without.
func (c Config) Validate() error {
	if c.Canvas.BaseURL == "" {
		return errors.New("canvas.base_url is required")
	}
	if c.Canvas.Token == "" {
		return errors.New("canvas token is required (set canvas.token or CANVAS_TOKEN)")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (got %d)", c.Workers)
	}
	return nil
}
