package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configurable aspects of the patch client:
//   - Logging behavior
//   - Patch server endpoint and protocol timeouts
//   - Content cache selection and cache-specific options
//   - Download destination
//
// Configuration sources (in order of precedence):
//  1. Environment variables (PATCHKIT_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Cache Configuration Pattern:
// The cache Type field selects the implementation and only the matching
// type-specific section is used (e.g. cache.badger when type is "badger").
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server identifies the patch server to connect to
	Server ServerConfig `mapstructure:"server"`

	// Cache specifies the content cache type and type-specific options
	Cache CacheConfig `mapstructure:"cache"`

	// Download controls where fetched files land on disk
	Download DownloadConfig `mapstructure:"download"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig identifies the patch server endpoint.
type ServerConfig struct {
	// Host is the patch server hostname
	Host string `mapstructure:"host" validate:"required"`

	// Port is the patch server TCP port
	Port int `mapstructure:"port" validate:"required,gt=0,lte=65535"`

	// ListTimeout bounds each directory listing exchange
	ListTimeout time.Duration `mapstructure:"list_timeout" validate:"required,gt=0"`
}

// CacheConfig specifies content cache configuration.
//
// The Type field determines which cache implementation is used.
// Only the corresponding type-specific section is used.
type CacheConfig struct {
	// Type specifies which cache implementation to use
	// Valid values: badger, memory, none
	Type string `mapstructure:"type" validate:"required,oneof=badger memory none"`

	// Badger contains BadgerDB-specific options
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`

	// Memory contains in-memory cache options
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`
}

// DownloadConfig controls download destinations.
type DownloadConfig struct {
	// Dir is the directory downloads are written under
	Dir string `mapstructure:"dir" validate:"required"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (PATCHKIT_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath uses the default location under the user config dir.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the PATCHKIT_ prefix with underscores.
	// Example: PATCHKIT_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("PATCHKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing file is
// fine, the defaults cover everything.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "patchkit")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "patchkit")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
