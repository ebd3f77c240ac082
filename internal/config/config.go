// Package config loads trashpanel settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Session backends.
const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

// Config is the client configuration.
type Config struct {
	APIURL         string        `env:"TRASHPANEL_API_URL"         envDefault:"http://localhost:8080"`
	SessionBackend string        `env:"TRASHPANEL_SESSION_BACKEND" envDefault:"file"`
	TokenFile      string        `env:"TRASHPANEL_TOKEN_FILE"`
	BoltFile       string        `env:"TRASHPANEL_BOLT_FILE"`
	LogFile        string        `env:"TRASHPANEL_LOG_FILE"`
	HTTPTimeout    time.Duration `env:"TRASHPANEL_HTTP_TIMEOUT"    envDefault:"0s"`
}

// LoadEnvFile loads variables from a .env file without overriding ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load parses the environment and fills path defaults under ~/.trashpanel.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.fillDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Dir returns ~/.trashpanel.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".trashpanel"), nil
}

func (c *Config) fillDefaults() error {
	if c.TokenFile != "" && c.BoltFile != "" && c.LogFile != "" {
		return nil
	}
	dir, err := Dir()
	if err != nil {
		return err
	}
	if c.TokenFile == "" {
		c.TokenFile = filepath.Join(dir, "token")
	}
	if c.BoltFile == "" {
		c.BoltFile = filepath.Join(dir, "session.db")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(dir, "trashpanel.log")
	}
	return nil
}

// Validate checks values env parsing cannot.
func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		return errors.New("TRASHPANEL_API_URL must not be empty")
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("TRASHPANEL_API_URL %q: want http:// or https://", c.APIURL)
	}
	switch c.SessionBackend {
	case BackendFile, BackendBolt:
	default:
		return fmt.Errorf("TRASHPANEL_SESSION_BACKEND %q: want %q or %q", c.SessionBackend, BackendFile, BackendBolt)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("TRASHPANEL_HTTP_TIMEOUT %s: must not be negative", c.HTTPTimeout)
	}
	return nil
}
