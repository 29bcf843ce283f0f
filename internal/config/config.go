// Package config loads runtime settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"dailyweight/internal/logging"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds the process settings.
type Config struct {
	Addr                 string `mapstructure:"addr"`
	WebDir               string `mapstructure:"web_dir"`
	Store                string `mapstructure:"store"`
	DatabaseURL          string `mapstructure:"database_url"`
	DBPath               string `mapstructure:"db_path"`
	PrefsPath            string `mapstructure:"prefs_path"`
	LogLevel             string `mapstructure:"log_level"`
	NotificationsGranted bool   `mapstructure:"notifications_granted"`
}

var defaults = map[string]any{
	"addr":                  ":8080",
	"web_dir":               "web",
	"store":                 StoreSQLite,
	"database_url":          "",
	"db_path":               "data/weight.db",
	"prefs_path":            "data/prefs.yaml",
	"log_level":             "info",
	"notifications_granted": true,
}

// Load reads file when it is non-empty, applies environment overrides such
// as ADDR or DATABASE_URL, and validates the result.
func Load(file string) (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreSQLite:
		if c.DBPath == "" {
			return errors.New("db_path is required for the sqlite store")
		}
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want %s, %s or %s)", c.Store, StoreSQLite, StorePostgres, StoreMemory)
	}
	if c.PrefsPath == "" {
		return errors.New("prefs_path is required")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
