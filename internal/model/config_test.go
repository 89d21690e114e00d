package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "continue", cfg.Database.SeedPolicy)
	assert.Equal(t, "@every 2m", cfg.Notifications.Schedule)
	assert.Equal(t, "dark", cfg.Display.Theme)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
  url: postgres://file/db
profile:
  email: ada@example.com
notifications:
  schedule: "*/5 * * * *"
  sources:
    - type: database
    - type: email
      enabled: false
      config:
        host: imap.example.com
    - id: bus
      type: redis
      enabled: true
log:
  level: debug
`), 0o644))

	t.Setenv("DATABASE_URL", "postgres://env/db")
	t.Setenv("TASKBOARD_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://env/db", cfg.Database.URL, "DATABASE_URL wins")
	assert.Equal(t, "postgres://env/db", cfg.Database.DSN())
	assert.Equal(t, "ada@example.com", cfg.Profile.Email)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "*/5 * * * *", cfg.Notifications.Schedule)

	sources := cfg.Notifications.Sources
	require.Len(t, sources, 3)
	assert.True(t, sources[0].Enabled, "enabled defaults to true")
	assert.Equal(t, "database-0", sources[0].ID)
	assert.False(t, sources[1].Enabled)
	assert.Equal(t, "imap.example.com", sources[1].Config["host"])
	assert.True(t, sources[2].Enabled)
	assert.Equal(t, "bus", sources[2].ID)
}

func TestLoadConfigRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := defaultAppConfig()
	cfg.Profile.Email = "grace@example.com"
	cfg.Display.Theme = "light"
	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", loaded.Profile.Email)
	assert.Equal(t, "light", loaded.Display.Theme)
}

func TestDatabaseDSN(t *testing.T) {
	assert.Equal(t, "/tmp/x.db", DatabaseConfig{Driver: DriverSQLite, Path: "/tmp/x.db", URL: "pg"}.DSN())
	assert.Equal(t, "pg", DatabaseConfig{Driver: DriverPostgres, Path: "/tmp/x.db", URL: "pg"}.DSN())
}
