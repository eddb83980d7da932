// Package config layers startup configuration: defaults, then an optional
// TOML file, then FILEDECK_* environment variables. Command-line flags are
// applied last by main.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"filedeck/logging"
)

// Config is the resolved process configuration.
type Config struct {
	Port             int    `toml:"port"`
	DataDir          string `toml:"data_dir"`
	LogLevel         string `toml:"log_level"`
	LogFormat        string `toml:"log_format"`
	LogPath          string `toml:"log_path"`
	SyncIntervalSecs int    `toml:"sync_interval_seconds"`
	ScanOnStart      bool   `toml:"scan_on_start"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:             1234,
		DataDir:          defaultDataDir(),
		LogLevel:         "info",
		LogFormat:        "console",
		SyncIntervalSecs: 300,
		ScanOnStart:      true,
	}
}

func defaultDataDir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "filedeck")
	}
	return "filedeck-data"
}

// Load builds the configuration. filePath may be empty, in which case
// <default data dir>/config.toml is used when present; a missing explicit
// file is an error.
func Load(filePath string) (Config, error) {
	cfg := Default()

	explicit := filePath != ""
	if filePath == "" {
		filePath = filepath.Join(cfg.DataDir, "config.toml")
	}

	data, err := os.ReadFile(filePath)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file %s: %w", filePath, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No file, defaults stand.
	default:
		return Config{}, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("FILEDECK_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("$FILEDECK_PORT is not a valid integer: %q", v)
		}
		cfg.Port = port
	}
	if v := os.Getenv("FILEDECK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FILEDECK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("FILEDECK_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("FILEDECK_LOG_PATH"); v != "" {
		cfg.LogPath = v
	}
	if v := os.Getenv("FILEDECK_SYNC_INTERVAL"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("$FILEDECK_SYNC_INTERVAL is not a valid integer: %q", v)
		}
		cfg.SyncIntervalSecs = secs
	}
	return nil
}

// Logging maps the config onto the logging package.
func (c Config) Logging() logging.Config {
	return logging.Config{Level: c.LogLevel, Format: c.LogFormat, OutputPath: c.LogPath}
}

// IndexPath is the SQLite index location under the data dir.
func (c Config) IndexPath() string {
	return filepath.Join(c.DataDir, "index.db")
}

// SettingsPath is the settings file location under the data dir.
func (c Config) SettingsPath() string {
	return filepath.Join(c.DataDir, "settings.toml")
}
