package model

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Database drivers understood by the store layer.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SourceConfig holds the configuration for a single notification source.
type SourceConfig struct {
	// ID is the unique identifier for this source instance.
	ID string `mapstructure:"id" yaml:"id"`

	// Type identifies the source kind ("database", "email", "redis").
	Type string `mapstructure:"type" yaml:"type"`

	// Name is the user-defined label for this source instance.
	Name string `mapstructure:"name" yaml:"name"`

	// Enabled controls whether this source is actively polled.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Schedule is a cron spec overriding the global poll schedule.
	Schedule string `mapstructure:"schedule" yaml:"schedule"`

	// Config holds source-specific key-value settings
	// (e.g., IMAP host, redis address, channel name).
	Config map[string]string `mapstructure:"config" yaml:"config"`
}

// DatabaseConfig selects and locates the database.
type DatabaseConfig struct {
	Driver     string `mapstructure:"driver" yaml:"driver"`
	URL        string `mapstructure:"url" yaml:"url"`
	Path       string `mapstructure:"path" yaml:"path"`
	SeedFile   string `mapstructure:"seed_file" yaml:"seed_file"`
	SeedPolicy string `mapstructure:"seed_policy" yaml:"seed_policy"`
}

// DSN returns the connection string for the configured driver.
func (c DatabaseConfig) DSN() string {
	if c.Driver == DriverPostgres {
		return c.URL
	}
	return c.Path
}

// ProfileConfig identifies the signed-in user.
type ProfileConfig struct {
	Email string `mapstructure:"email" yaml:"email"`
}

// NotificationsConfig holds polling settings for notification sources.
type NotificationsConfig struct {
	Schedule string         `mapstructure:"schedule" yaml:"schedule"`
	Sources  []SourceConfig `mapstructure:"sources" yaml:"sources"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Environment string `mapstructure:"environment" yaml:"environment"`
	File        string `mapstructure:"file" yaml:"file"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	Database      DatabaseConfig      `mapstructure:"database" yaml:"database"`
	Profile       ProfileConfig       `mapstructure:"profile" yaml:"profile"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Display       DisplayConfig       `mapstructure:"display" yaml:"display"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
}

// ConfigDir returns ~/.config/taskboard, or "." if the home directory
// cannot be resolved.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "taskboard")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/taskboard/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	return &AppConfig{
		Database: DatabaseConfig{
			Driver:     DriverSQLite,
			Path:       filepath.Join(ConfigDir(), "taskboard.db"),
			SeedPolicy: "continue",
		},
		Notifications: NotificationsConfig{
			Schedule: "@every 2m",
			Sources:  []SourceConfig{},
		},
		Display: DisplayConfig{
			Theme: "dark",
		},
		Log: LogConfig{
			Level:       "info",
			Environment: "development",
			File:        filepath.Join(ConfigDir(), "taskboard.log"),
		},
	}
}

func setDefaults(v *viper.Viper, d *AppConfig) {
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.seed_file", d.Database.SeedFile)
	v.SetDefault("database.seed_policy", d.Database.SeedPolicy)
	v.SetDefault("profile.email", d.Profile.Email)
	v.SetDefault("notifications.schedule", d.Notifications.Schedule)
	v.SetDefault("display.theme", d.Display.Theme)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.environment", d.Log.Environment)
	v.SetDefault("log.file", d.Log.File)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Missing files yield the defaults. TASKBOARD_* environment variables
// override file values (TASKBOARD_DATABASE_DRIVER, TASKBOARD_LOG_LEVEL, ...),
// and DATABASE_URL, when set, selects the database URL.
func LoadConfig(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TASKBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, defaultAppConfig())

	if err := v.ReadInConfig(); err != nil && !isMissingConfig(err) {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DriverSQLite
	}

	// Apply defaults for each source entry.
	raw, _ := v.Get("notifications.sources").([]interface{})
	for i := range cfg.Notifications.Sources {
		// Viper unmarshals missing bools as false; treat unset as true.
		if !cfg.Notifications.Sources[i].Enabled && !enabledIsSet(raw, i) {
			cfg.Notifications.Sources[i].Enabled = true
		}
		if cfg.Notifications.Sources[i].ID == "" {
			cfg.Notifications.Sources[i].ID = fmt.Sprintf("%s-%d", cfg.Notifications.Sources[i].Type, i)
		}
	}

	return cfg, nil
}

// enabledIsSet reports whether the i-th raw source entry spells out "enabled".
func enabledIsSet(raw []interface{}, i int) bool {
	if i >= len(raw) {
		return false
	}
	entry, ok := raw[i].(map[string]interface{})
	if !ok {
		return false
	}
	_, ok = entry["enabled"]
	return ok
}

// isMissingConfig reports whether err only says the config file is absent.
func isMissingConfig(err error) bool {
	if _, ok := err.(*os.PathError); ok {
		return true
	}
	_, ok := err.(viper.ConfigFileNotFoundError)
	return ok
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("database", cfg.Database)
	v.Set("profile", cfg.Profile)
	v.Set("notifications", cfg.Notifications)
	v.Set("display", cfg.Display)
	v.Set("log", cfg.Log)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
