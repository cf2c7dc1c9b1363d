package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Source      SourceConfig      `mapstructure:"source"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Sync        SyncConfig        `mapstructure:"sync"`
	Progress    ProgressConfig    `mapstructure:"progress"`
	Preferences PreferencesConfig `mapstructure:"preferences"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// SourceConfig locates the remote content.
type SourceConfig struct {
	URL         string        `mapstructure:"url"`
	CatalogPath string        `mapstructure:"catalog_path"`
	UnitPath    string        `mapstructure:"unit_path"` // {id} is replaced by the unit ID
	Timeout     time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds the local store location. An empty dir keeps everything in memory.
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// SyncConfig tunes bulk downloads
type SyncConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

// ProgressConfig tunes reading position checkpoints
type ProgressConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// PreferencesConfig seeds the stored preferences blob on first use
type PreferencesConfig struct {
	FontSize   int    `mapstructure:"font_size"`
	FontFamily string `mapstructure:"font_family"`
	DarkMode   bool   `mapstructure:"dark_mode"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			CatalogPath: "/data/meta.json",
			UnitPath:    "/data/book_{id}.json",
			Timeout:     30 * time.Second,
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Sync: SyncConfig{
			Delay: 200 * time.Millisecond,
		},
		Progress: ProgressConfig{
			Debounce: 500 * time.Millisecond,
		},
		Preferences: PreferencesConfig{
			FontSize:   16,
			FontFamily: "Noto Serif KR",
			DarkMode:   false,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "lectio", "lectio.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "lectio", "lectio.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "lectio")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "lectio")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "lectio", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "lectio", "cache")
	}
}

// Load reads configuration from file and environment. An explicit path must
// exist; otherwise config.yaml is looked up in the config dir and ".".
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(defaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides, e.g. LECTIO_SOURCE_URL
	v.SetEnvPrefix("LECTIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Cache.Dir = ExpandHome(cfg.Cache.Dir)
	cfg.Logging.File = ExpandHome(cfg.Logging.File)

	return cfg, nil
}

// setDefaults registers every key so environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("source.url", cfg.Source.URL)
	v.SetDefault("source.catalog_path", cfg.Source.CatalogPath)
	v.SetDefault("source.unit_path", cfg.Source.UnitPath)
	v.SetDefault("source.timeout", cfg.Source.Timeout)

	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("sync.delay", cfg.Sync.Delay)
	v.SetDefault("progress.debounce", cfg.Progress.Debounce)

	v.SetDefault("preferences.font_size", cfg.Preferences.FontSize)
	v.SetDefault("preferences.font_family", cfg.Preferences.FontFamily)
	v.SetDefault("preferences.dark_mode", cfg.Preferences.DarkMode)

	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
}

// Validate reports settings the app cannot run without.
func (c *Config) Validate() error {
	if c.Source.URL == "" {
		return errors.New("source.url is not set (config file or LECTIO_SOURCE_URL)")
	}
	if !strings.Contains(c.Source.UnitPath, "{id}") {
		return fmt.Errorf("source.unit_path %q has no {id} placeholder", c.Source.UnitPath)
	}
	if c.Sync.Delay < 0 {
		return fmt.Errorf("sync.delay must not be negative, got %s", c.Sync.Delay)
	}
	return nil
}

// DefaultPreferences renders the preferences section as the stored JSON blob.
func (c *Config) DefaultPreferences() json.RawMessage {
	data, _ := json.Marshal(map[string]any{
		"fontSize":   c.Preferences.FontSize,
		"fontFamily": c.Preferences.FontFamily,
		"isDarkMode": c.Preferences.DarkMode,
	})
	return data
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
