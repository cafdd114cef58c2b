package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.Empty(t, cfg.Scan.Models)
	assert.Equal(t, KindMemory, cfg.DataStore.Kind)
	assert.Equal(t, "sqlite3", cfg.DataStore.Driver)
	assert.Equal(t, "entitydict", cfg.DataStore.Namespace)
	assert.Equal(t, 4, cfg.Hooks.AsyncWorkers)
	assert.Equal(t, "localhost:7070", cfg.Server.Addr)
}

func TestLoadWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	content := `
logging:
  level: debug
  development: true
scan:
  models:
    - example.com/app/models
  checks:
    - example.com/app/checks
datastore:
  kind: sql
  driver: postgres
  dsn: postgres://localhost/app
hooks:
  async_workers: 8
server:
  addr: 0.0.0.0:9000
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "entitydict.yaml"), []byte(content), 0644))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, []string{"example.com/app/models"}, cfg.Scan.Models)
	assert.Equal(t, []string{"example.com/app/checks"}, cfg.Scan.Checks)
	assert.Equal(t, KindSQL, cfg.DataStore.Kind)
	assert.Equal(t, "postgres", cfg.DataStore.Driver)
	assert.Equal(t, "postgres://localhost/app", cfg.DataStore.DSN)
	assert.Equal(t, 8, cfg.Hooks.AsyncWorkers)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
}

func TestLoadExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("datastore:\n  kind: redis\n  redis_addr: cache:6379\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, KindRedis, cfg.DataStore.Kind)
	assert.Equal(t, "cache:6379", cfg.DataStore.RedisAddr)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ENTITYDICT_LOGGING_LEVEL", "warn")
	t.Setenv("ENTITYDICT_SERVER_ADDR", ":8181")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, ":8181", cfg.Server.Addr)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Logging:   LoggingConfig{Level: "info"},
			DataStore: DataStoreConfig{Kind: KindMemory},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"unknown kind", func(c *Config) { c.DataStore.Kind = "mongo" }, "datastore.kind"},
		{"sql without dsn", func(c *Config) { c.DataStore.Kind = KindSQL }, "datastore.dsn"},
		{"redis without addr", func(c *Config) { c.DataStore.Kind = KindRedis }, "datastore.redis_addr"},
		{"negative workers", func(c *Config) { c.Hooks.AsyncWorkers = -1 }, "hooks.async_workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
