// Package bootstrap loads configuration the same way for every binary.
package bootstrap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/model"
)

// ConfigPathEnv overrides the config file location.
const ConfigPathEnv = "TASKBOARD_CONFIG"

// resolveSecret is swapped out in tests.
var resolveSecret = credential.Resolve

// ConfigPath returns the config file to read.
func ConfigPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return model.DefaultConfigPath()
}

// LoadConfig loads .env (when present) into the environment, reads the
// config file and fills the PostgreSQL URL from the keyring when neither
// the file nor DATABASE_URL set one.
func LoadConfig() (*model.AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := model.LoadConfig(ConfigPath())
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == model.DriverPostgres && cfg.Database.URL == "" {
		url, err := resolveSecret("", credential.KeyDatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("reading database URL from keyring: %w", err)
		}
		cfg.Database.URL = url
	}

	return cfg, nil
}

// SaveConfig writes cfg back to the active config path.
func SaveConfig(cfg *model.AppConfig) error {
	return model.SaveConfig(ConfigPath(), cfg)
}
