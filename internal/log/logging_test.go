package log

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmcdole/lectio/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"Warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
		" warn ":  slog.LevelWarn,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestSetupLogger_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lectio.log")

	logger, closer, err := SetupLogger(config.LoggingConfig{File: path, Level: "warn"})
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "unitID", "GEN")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry), "exactly one JSON line expected")
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "GEN", entry["unitID"])
	assert.Equal(t, "lectio", entry["app"])
}

func TestSetupLogger_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	_, closer, err := SetupLogger(config.LoggingConfig{File: "~/logs/lectio.log", Level: "info"})
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	assert.FileExists(t, filepath.Join(home, "logs", "lectio.log"))
}

func TestSetupLogger_RequiresFile(t *testing.T) {
	_, _, err := SetupLogger(config.LoggingConfig{Level: "info"})
	assert.Error(t, err)
}
