package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.ReplayDir)
	assert.Equal(t, "vgrscope.db", cfg.Database)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.FormatProfile)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("VGRSCOPE_REPLAY_DIR", "/captures")
	t.Setenv("VGRSCOPE_DB", "/var/lib/vgrscope/runs.db")
	t.Setenv("VGRSCOPE_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/captures", cfg.ReplayDir)
	assert.Equal(t, "/var/lib/vgrscope/runs.db", cfg.Database)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoad_RejectsBadLevel(t *testing.T) {
	t.Setenv("VGRSCOPE_LOG_LEVEL", "loud")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestSlogLevel(t *testing.T) {
	levels := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for name, want := range levels {
		assert.Equal(t, want, Config{LogLevel: name}.SlogLevel())
	}
}
