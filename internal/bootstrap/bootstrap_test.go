package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/taskboard/internal/credential"
	"github.com/nhle/taskboard/internal/model"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfigReadsDotEnvAndKeyring(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("database:\n  driver: postgres\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TASKBOARD_LOG_LEVEL=debug\n"), 0o644))

	t.Setenv(ConfigPathEnv, cfgPath)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("TASKBOARD_LOG_LEVEL", "")
	os.Unsetenv("TASKBOARD_LOG_LEVEL")

	var askedFor string
	original := resolveSecret
	resolveSecret = func(value, key string) (string, error) {
		askedFor = key
		return "postgres://keyring/db", nil
	}
	t.Cleanup(func() { resolveSecret = original })

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, model.DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://keyring/db", cfg.Database.URL)
	assert.Equal(t, credential.KeyDatabaseURL, askedFor)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigWithoutDotEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("DATABASE_URL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, model.DriverSQLite, cfg.Database.Driver)
}
