// Package config loads operator configuration from environment variables.
//
// Flags on individual commands always win; the environment supplies the
// defaults an operator wants across invocations (where the replay library
// lives, where runs are persisted) without repeating them on every call.
package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// ConfigurationError reports an environment variable that parsed but holds
// an unusable value. It is fatal before any command runs.
type ConfigurationError struct {
	Variable string
	Message  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Variable, e.Message)
}

// Config holds environment-supplied defaults.
type Config struct {
	// ReplayDir is the directory scanned for replay captures.
	ReplayDir string `env:"VGRSCOPE_REPLAY_DIR" envDefault:"."`

	// Database is the SQLite path runs are persisted to.
	Database string `env:"VGRSCOPE_DB" envDefault:"vgrscope.db"`

	// FormatProfile optionally points at a CUE file overriding the
	// built-in format profile.
	FormatProfile string `env:"VGRSCOPE_FORMAT_PROFILE"`

	// SeedTable optionally points at a YAML seed table for entity ids
	// the roster scan cannot recover.
	SeedTable string `env:"VGRSCOPE_SEED"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"VGRSCOPE_LOG_LEVEL" envDefault:"info"`
}

// Load reads configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return Config{}, &ConfigurationError{Variable: "VGRSCOPE_LOG_LEVEL", Message: err.Error()}
	}
	return cfg, nil
}

// SlogLevel maps the configured level name to a slog level. Load has
// already validated the name.
func (c Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level %q: must be debug, info, warn, or error", name)
}
