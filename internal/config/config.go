// Package config loads application configuration from an optional YAML
// file with environment-variable overrides. Every value has a working
// default, so a missing config file is not an error.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type PrefsConfig struct {
	Path string `mapstructure:"path"`
}

type CrashLogConfig struct {
	Dir  string `mapstructure:"dir"`
	Keep int    `mapstructure:"keep"`
}

type QueryConfig struct {
	DebounceMillis int `mapstructure:"debounce_ms"`
}

type RetryConfig struct {
	Attempts      int `mapstructure:"attempts"`
	BackoffMillis int `mapstructure:"backoff_ms"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Prefs    PrefsConfig    `mapstructure:"prefs"`
	CrashLog CrashLogConfig `mapstructure:"crash_log"`
	Query    QueryConfig    `mapstructure:"query"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Log      LogConfig      `mapstructure:"log"`
}

// Debounce returns the search debounce window as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.Query.DebounceMillis) * time.Millisecond
}

// RetryBackoff returns the write retry backoff as a duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Retry.BackoffMillis) * time.Millisecond
}

// Load reads configuration from the given file path. An empty path
// falls back to config.yaml in the working directory; a missing file
// leaves the defaults in place. Environment variables prefixed with
// OL_ override file values, e.g. OL_DATABASE_PATH.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("database.path", "data/orders.db")
	v.SetDefault("prefs.path", "data/prefs.json")
	v.SetDefault("crash_log.dir", "data/crash_logs")
	v.SetDefault("crash_log.keep", 5)
	v.SetDefault("query.debounce_ms", 300)
	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.backoff_ms", 100)
	v.SetDefault("log.level", "info")

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("OL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Only an explicitly named file is required to exist.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || path != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
