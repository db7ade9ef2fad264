package config

import (
	"testing"

	"github.com/exilefoundry/patchkit/pkg/tree"
)

func TestCreateContentCache_Badger(t *testing.T) {
	cfg := &CacheConfig{
		Type:   "badger",
		Badger: map[string]any{"path": t.TempDir()},
	}

	store, err := CreateContentCache(cfg)
	if err != nil {
		t.Fatalf("Failed to create badger cache: %v", err)
	}
	defer store.Close()

	var hash tree.Sum256
	hash[31] = 1
	if err := store.Put(hash, []byte("body")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	data, ok, err := store.Get(hash)
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if string(data) != "body" {
		t.Errorf("Got %q, want %q", data, "body")
	}
}

func TestCreateContentCache_BadgerMissingPath(t *testing.T) {
	cfg := &CacheConfig{Type: "badger", Badger: map[string]any{}}

	if _, err := CreateContentCache(cfg); err == nil {
		t.Fatal("Expected error for missing badger path")
	}
}

func TestCreateContentCache_Memory(t *testing.T) {
	store, err := CreateContentCache(&CacheConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create memory cache: %v", err)
	}
	defer store.Close()
}

func TestCreateContentCache_None(t *testing.T) {
	store, err := CreateContentCache(&CacheConfig{Type: "none"})
	if err != nil {
		t.Fatalf("Expected no error for disabled cache, got: %v", err)
	}
	if store != nil {
		t.Error("Expected nil store when caching is disabled")
	}
}

func TestCreateContentCache_UnknownType(t *testing.T) {
	if _, err := CreateContentCache(&CacheConfig{Type: "redis"}); err == nil {
		t.Fatal("Expected error for unknown cache type")
	}
}
