package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/exilefoundry/patchkit/pkg/cache"
)

// CreateContentCache creates a content cache based on configuration.
//
// The Type field selects the implementation; the type-specific options map is
// decoded into the implementation's own configuration struct.
//
// Supported types:
//   - "badger": persistent cache backed by BadgerDB
//   - "memory": non-persistent in-memory cache
//   - "none": caching disabled, returns nil
//
// A nil store with a nil error means caching is disabled.
func CreateContentCache(cfg *CacheConfig) (*cache.Store, error) {
	switch cfg.Type {
	case "badger":
		return createBadgerCache(cfg.Badger)
	case "memory":
		return cache.OpenInMemory()
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown cache type: %q", cfg.Type)
	}
}

// createBadgerCache creates a BadgerDB-backed cache from its options map.
func createBadgerCache(options map[string]any) (*cache.Store, error) {
	type BadgerCacheConfig struct {
		Path string `mapstructure:"path"`
	}

	var storeCfg BadgerCacheConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode badger cache config: %w", err)
	}

	if storeCfg.Path == "" {
		return nil, fmt.Errorf("badger cache: path is required")
	}

	store, err := cache.Open(storeCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}

	return store, nil
}
