// Package config holds the site configuration loaded from file, environment
// and defaults.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Frank-Junran-Yang/portfolio/internal/locparser"
)

// Sentinel validation errors.
var (
	ErrMissingData      = errors.New("data.path or store.dsn must be set")
	ErrInvalidFormat    = errors.New("data.format must be auto, csv or jsonl")
	ErrInvalidDriver    = errors.New("store.driver must be sqlite or postgres")
	ErrInvalidBackend   = errors.New("prefs.backend must be memory or redis")
	ErrMissingRedisAddr = errors.New("prefs.redis_addr is required for the redis backend")
	ErrInvalidLogFormat = errors.New("log.format must be text, json or logfmt")
	ErrInvalidAddr      = errors.New("server.addr must not be empty")
)

// Default configuration values.
const (
	DefaultDataPath     = "meta/loc.csv"
	DefaultProjectsPath = "lib/projects.json"
	DefaultAddr         = ":8080"
	DefaultDriver       = "sqlite"
	DefaultPrefsTTL     = 365 * 24 * time.Hour
)

// Config holds all configuration for the portfolio site.
type Config struct {
	Data   DataConfig   `mapstructure:"data"`
	Store  StoreConfig  `mapstructure:"store"`
	Server ServerConfig `mapstructure:"server"`
	Site   SiteConfig   `mapstructure:"site"`
	Prefs  PrefsConfig  `mapstructure:"prefs"`
	GitHub GitHubConfig `mapstructure:"github"`
	Log    LogConfig    `mapstructure:"log"`
}

// DataConfig selects the line-of-code dataset.
type DataConfig struct {
	Path            string `mapstructure:"path"`
	Format          string `mapstructure:"format"`
	TimestampPolicy string `mapstructure:"timestamp_policy"`
	RepoURL         string `mapstructure:"repo_url"`
	Watch           bool   `mapstructure:"watch"`
}

// StoreConfig selects a database store. When DSN is set the site reads
// records from the store instead of Data.Path.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SiteConfig holds navigation and page content settings.
type SiteConfig struct {
	BasePath     string `mapstructure:"base_path"`
	GitHubUser   string `mapstructure:"github_user"`
	ProjectsPath string `mapstructure:"projects_path"`
}

// PrefsConfig selects where visitor theme choices are kept.
type PrefsConfig struct {
	Backend   string        `mapstructure:"backend"`
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

type GitHubConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Token   string `mapstructure:"token"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// UseStore reports whether records come from a database store.
func (c *Config) UseStore() bool {
	return c.Store.DSN != ""
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Data.Path == "" && c.Store.DSN == "" {
		return ErrMissingData
	}
	switch c.Data.Format {
	case "", "auto", "csv", "jsonl":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Data.Format)
	}
	if _, err := locparser.ParsePolicy(c.Data.TimestampPolicy); err != nil {
		return fmt.Errorf("data.timestamp_policy: %w", err)
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDriver, c.Store.Driver)
	}
	if c.Server.Addr == "" {
		return ErrInvalidAddr
	}
	switch c.Prefs.Backend {
	case "memory":
	case "redis":
		if c.Prefs.RedisAddr == "" {
			return ErrMissingRedisAddr
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.Prefs.Backend)
	}
	switch c.Log.Format {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Log.Format)
	}
	return nil
}
