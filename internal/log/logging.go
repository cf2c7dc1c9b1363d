package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmcdole/lectio/internal/config"
)

// SetupLogger opens the configured log file and returns a JSON logger
// writing to it. Close the returned closer on shutdown.
func SetupLogger(cfg config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	path := config.ExpandHome(cfg.File)
	if path == "" {
		return nil, nil, fmt.Errorf("no log file configured")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	handler := slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: strings.EqualFold(cfg.Level, "debug"),
	})
	return slog.New(handler).With("app", "lectio"), f, nil
}

// ParseLevel maps a config level name to a slog.Level. Anything unknown is INFO.
func ParseLevel(name string) slog.Level {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, "warning") {
		name = "warn"
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NullLogger discards everything.
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
