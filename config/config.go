/*
Package config loads server configuration.

PURPOSE:
  Viper-backed YAML configuration for the server process. Missing file
  means defaults; missing keys resolve to defaults. Per-user launcher
  settings live in the settings package, not here: this file covers the
  process-level knobs only.
*/
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig is the top-level server configuration.
type ServerConfig struct {
	// Port the HTTP server listens on.
	Port int `mapstructure:"port" yaml:"port"`

	// DBPath is the SQLite database file. ":memory:" keeps everything
	// in RAM.
	DBPath string `mapstructure:"db_path" yaml:"db_path"`

	// CORSOrigins are the allowed launcher frontend origins.
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`

	// TrendWindowHours is the lookback window for the balance trend.
	TrendWindowHours int `mapstructure:"trend_window_hours" yaml:"trend_window_hours"`
}

// TrendWindow returns the trend lookback as a duration.
func (c *ServerConfig) TrendWindow() time.Duration {
	return time.Duration(c.TrendWindowHours) * time.Hour
}

func defaultConfig() *ServerConfig {
	return &ServerConfig{
		Port:             8080,
		DBPath:           "./data/focus.db",
		CORSOrigins:      []string{"*"},
		TrendWindowHours: 24,
	}
}

// Load reads configuration from the given YAML file path using Viper.
// An empty path or a missing file returns the default configuration.
func Load(path string) (*ServerConfig, error) {
	if path == "" {
		return defaultConfig(), nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("port", 8080)
	v.SetDefault("db_path", "./data/focus.db")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("trend_window_hours", 24)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		if _, ok := err.(*os.PathError); ok {
			return defaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
