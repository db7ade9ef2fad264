package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Expected valid config to pass, got: %v", err)
	}
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "VERBOSE"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for bad log level")
	}
}

func TestValidate_BadLogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for bad log format")
	}
}

func TestValidate_BadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 70000

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for out-of-range port")
	}
}

func TestValidate_BadCacheType(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Type = "redis"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for unknown cache type")
	}
}

func TestValidate_BadgerWithoutPath(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.Type = "badger"
	cfg.Cache.Badger = map[string]any{}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected error for badger cache without path")
	}
	if !strings.Contains(err.Error(), "path is required") {
		t.Errorf("Unexpected error message: %v", err)
	}
}

func TestValidate_ZeroListTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ListTimeout = 0

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected error for zero list timeout")
	}
}
