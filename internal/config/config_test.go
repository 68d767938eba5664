package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultDataPath, cfg.Data.Path)
	assert.Equal(t, "auto", cfg.Data.Format)
	assert.Equal(t, "prefer-datetime", cfg.Data.TimestampPolicy)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.Prefs.Backend)
	assert.Equal(t, DefaultPrefsTTL, cfg.Prefs.TTL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.UseStore())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
data:
  path: data/loc.jsonl
  format: jsonl
  timestamp_policy: strict
  repo_url: https://github.com/frank/portfolio
  watch: true
site:
  github_user: frank
prefs:
  backend: redis
  redis_addr: localhost:6379
log:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/loc.jsonl", cfg.Data.Path)
	assert.Equal(t, "jsonl", cfg.Data.Format)
	assert.Equal(t, "strict", cfg.Data.TimestampPolicy)
	assert.True(t, cfg.Data.Watch)
	assert.Equal(t, "frank", cfg.Site.GitHubUser)
	assert.Equal(t, "redis", cfg.Prefs.Backend)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9000\"\n")
	t.Setenv("PORTFOLIO_SERVER_ADDR", ":7000")
	t.Setenv("PORTFOLIO_STORE_DSN", "loc.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.True(t, cfg.UseStore())
}

func TestLoadInvalid(t *testing.T) {
	path := writeConfig(t, "prefs:\n  backend: redis\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrMissingRedisAddr)
}

func TestLoadUnreadableFile(t *testing.T) {
	path := writeConfig(t, "data: [unclosed\n")

	_, err := Load(path)
	assert.Error(t, err)
}

func validConfig() Config {
	return Config{
		Data:   DataConfig{Path: "loc.csv", Format: "auto"},
		Store:  StoreConfig{Driver: "sqlite"},
		Server: ServerConfig{Addr: ":8080"},
		Prefs:  PrefsConfig{Backend: "memory"},
		Log:    LogConfig{Format: "text"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"no data", func(c *Config) { c.Data.Path = "" }, ErrMissingData},
		{"store only", func(c *Config) { c.Data.Path = ""; c.Store.DSN = "loc.db" }, nil},
		{"bad format", func(c *Config) { c.Data.Format = "xml" }, ErrInvalidFormat},
		{"bad driver", func(c *Config) { c.Store.Driver = "mysql" }, ErrInvalidDriver},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, ErrInvalidAddr},
		{"bad backend", func(c *Config) { c.Prefs.Backend = "etcd" }, ErrInvalidBackend},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, ErrInvalidLogFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestValidatePolicy(t *testing.T) {
	cfg := validConfig()
	cfg.Data.TimestampPolicy = "newest"
	assert.Error(t, cfg.Validate())
}
