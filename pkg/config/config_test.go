package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write minimal config
	configContent := `
logging:
  level: "INFO"

cache:
  type: "memory"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	// Load config
	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Server.Host != "pathofexile.com" {
		t.Errorf("Expected default host 'pathofexile.com', got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 12995 {
		t.Errorf("Expected default port 12995, got %d", cfg.Server.Port)
	}
	if cfg.Server.ListTimeout != time.Second {
		t.Errorf("Expected default list_timeout 1s, got %v", cfg.Server.ListTimeout)
	}
	if cfg.Cache.Type != "memory" {
		t.Errorf("Expected cache type 'memory', got %q", cfg.Cache.Type)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Use a temporary directory with a non-existent config file path
	// This ensures we don't load the user's config from ~/.config/patchkit/
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	// Verify defaults
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Cache.Type != "badger" {
		t.Errorf("Expected default cache type 'badger', got %q", cfg.Cache.Type)
	}
	if cfg.Download.Dir != "." {
		t.Errorf("Expected default download dir '.', got %q", cfg.Download.Dir)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error loading invalid YAML, got nil")
	}
}

func TestLoad_FileValuesPreserved(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  host: "patch.example.com"
  port: 4000
  list_timeout: 5s

download:
  dir: "/tmp/patchkit-downloads"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Host != "patch.example.com" {
		t.Errorf("Expected host 'patch.example.com', got %q", cfg.Server.Host)
	}
	if cfg.Server.Port != 4000 {
		t.Errorf("Expected port 4000, got %d", cfg.Server.Port)
	}
	if cfg.Server.ListTimeout != 5*time.Second {
		t.Errorf("Expected list_timeout 5s, got %v", cfg.Server.ListTimeout)
	}
	if cfg.Download.Dir != "/tmp/patchkit-downloads" {
		t.Errorf("Expected download dir '/tmp/patchkit-downloads', got %q", cfg.Download.Dir)
	}
}
