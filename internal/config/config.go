package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the entitydict configuration
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Scan      ScanConfig      `mapstructure:"scan"`
	DataStore DataStoreConfig `mapstructure:"datastore"`
	Hooks     HooksConfig     `mapstructure:"hooks"`
	Server    ServerConfig    `mapstructure:"server"`
}

// LoggingConfig selects the logger
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// ScanConfig limits package scans to import path prefixes
type ScanConfig struct {
	Models []string `mapstructure:"models"`
	Checks []string `mapstructure:"checks"`
}

// DataStoreConfig selects the store that populates the dictionary
type DataStoreConfig struct {
	Kind      string `mapstructure:"kind"`
	Driver    string `mapstructure:"driver"`
	DSN       string `mapstructure:"dsn"`
	RedisAddr string `mapstructure:"redis_addr"`
	Namespace string `mapstructure:"namespace"`
}

// HooksConfig sizes the async hook queue
type HooksConfig struct {
	AsyncWorkers int `mapstructure:"async_workers"`
}

// ServerConfig configures the introspection server
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

const (
	KindMemory = "memory"
	KindSQL    = "sql"
	KindRedis  = "redis"
)

// Load reads the configuration from path, or from entitydict.yaml in the
// working directory when path is empty. A missing default file is not an
// error. ENTITYDICT_* environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)
	v.SetDefault("scan.models", []string{})
	v.SetDefault("scan.checks", []string{})
	v.SetDefault("datastore.kind", KindMemory)
	v.SetDefault("datastore.driver", "sqlite3")
	v.SetDefault("datastore.dsn", "")
	v.SetDefault("datastore.redis_addr", "localhost:6379")
	v.SetDefault("datastore.namespace", "entitydict")
	v.SetDefault("hooks.async_workers", 4)
	v.SetDefault("server.addr", "localhost:7070")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("entitydict")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("entitydict")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *Config) error {
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got: %s", cfg.Logging.Level)
	}

	switch cfg.DataStore.Kind {
	case KindMemory:
	case KindSQL:
		if cfg.DataStore.DSN == "" {
			return fmt.Errorf("datastore.dsn is required for the sql datastore")
		}
	case KindRedis:
		if cfg.DataStore.RedisAddr == "" {
			return fmt.Errorf("datastore.redis_addr is required for the redis datastore")
		}
	default:
		return fmt.Errorf("datastore.kind must be one of memory, sql, redis, got: %s", cfg.DataStore.Kind)
	}

	if cfg.Hooks.AsyncWorkers < 0 {
		return fmt.Errorf("hooks.async_workers must not be negative, got: %d", cfg.Hooks.AsyncWorkers)
	}
	return nil
}
