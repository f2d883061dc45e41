package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Server.Port != "8000" {
		t.Errorf("Default port = %q", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "bolt" {
		t.Errorf("Default backend = %q", cfg.Storage.Backend)
	}
	if cfg.Persistence.TTL != 168*time.Hour {
		t.Errorf("Default TTL = %v", cfg.Persistence.TTL)
	}
	if !cfg.Persistence.IncludeNavigation {
		t.Error("Navigation persistence should default on")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("PERSIST_DEBOUNCE", "250ms")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != "9100" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Backend = %q", cfg.Storage.Backend)
	}
	if cfg.Persistence.DebounceInterval != 250*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Persistence.DebounceInterval)
	}
	if cfg.RateLimit.Enabled {
		t.Error("Rate limiting should be disabled")
	}
}

func TestValidateBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "remote")
	if _, err := Load(); err == nil {
		t.Error("Remote backend without a URL should fail validation")
	}

	t.Setenv("STORAGE_REMOTE_URL", "http://localhost:7000")
	if _, err := Load(); err != nil {
		t.Errorf("Remote backend with a URL should load: %v", err)
	}

	t.Setenv("STORAGE_BACKEND", "cassette")
	if _, err := Load(); err == nil {
		t.Error("Unknown backend should fail validation")
	}
}

func TestLoadPanelConfig(t *testing.T) {
	layout := `
resources:
  - id: scriptureA
    title: Scripture A
    category: scripture
  - id: notesA
    title: Notes
panels:
  - id: left
    resource_ids: [scriptureA]
    initial_resource_id: scriptureA
  - id: right
    resource_ids: [notesA]
    initial_index: 0
`
	path := filepath.Join(t.TempDir(), "panels.yaml")
	if err := os.WriteFile(path, []byte(layout), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadPanelConfig(path)
	if err != nil {
		t.Fatalf("LoadPanelConfig failed: %v", err)
	}
	if len(cfg.Resources) != 2 || len(cfg.Panels) != 2 {
		t.Fatalf("Parsed %d resources, %d panels", len(cfg.Resources), len(cfg.Panels))
	}
	if cfg.Panels[0].InitialResourceID != "scriptureA" {
		t.Errorf("InitialResourceID = %q", cfg.Panels[0].InitialResourceID)
	}
	if cfg.Panels[1].InitialIndex == nil || *cfg.Panels[1].InitialIndex != 0 {
		t.Error("InitialIndex should parse as an explicit zero")
	}
	if cfg.Resources[0].Category != "scripture" {
		t.Errorf("Category = %q", cfg.Resources[0].Category)
	}
}

func TestParsePanelConfigRejectsEmpty(t *testing.T) {
	if _, err := ParsePanelConfig([]byte("resources: []\npanels: []")); err == nil {
		t.Error("Empty layout should be rejected")
	}
	if _, err := ParsePanelConfig([]byte(": not yaml :")); err == nil {
		t.Error("Malformed YAML should be rejected")
	}
}
