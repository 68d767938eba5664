package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".portfolio"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for portfolio settings.
const envPrefix = "PORTFOLIO"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// Load loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func Load(configPath string) (*Config, error) {
	return LoadWith(viper.New(), configPath)
}

// LoadWith loads into an existing viper instance, so callers can bind
// command-line flags to keys before reading.
func LoadWith(v *viper.Viper, configPath string) (*Config, error) {
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("data.path", DefaultDataPath)
	v.SetDefault("data.format", "auto")
	v.SetDefault("data.timestamp_policy", "prefer-datetime")
	v.SetDefault("data.repo_url", "")
	v.SetDefault("data.watch", false)

	v.SetDefault("store.driver", DefaultDriver)
	v.SetDefault("store.dsn", "")

	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.shutdown_timeout", "5s")

	v.SetDefault("site.base_path", "")
	v.SetDefault("site.github_user", "")
	v.SetDefault("site.projects_path", DefaultProjectsPath)

	v.SetDefault("prefs.backend", "memory")
	v.SetDefault("prefs.redis_addr", "")
	v.SetDefault("prefs.ttl", DefaultPrefsTTL)

	v.SetDefault("github.base_url", "")
	v.SetDefault("github.token", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
