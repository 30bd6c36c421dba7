package config

import (
	"path/filepath"
	"testing"
)

func TestTemplateHasNoSecrets(t *testing.T) {
	tmpl := Template()
	if len(tmpl.Connections) != 0 {
		t.Fatalf("expected template to have no saved connections, got %d", len(tmpl.Connections))
	}
	if tmpl.RegistryRoot == "" {
		t.Fatalf("expected template to set a default registry root")
	}
}

func TestWriteFileThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	f := Template()
	f.RegistryRoot = filepath.Join(dir, "registry")
	f.ActiveDatasetID = "ds-1"

	if err := WriteFile(path, f); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, _, err := loadFileAt(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if data.RegistryRoot != f.RegistryRoot {
		t.Fatalf("registry root mismatch: got %q want %q", data.RegistryRoot, f.RegistryRoot)
	}
	if data.ActiveDatasetID != "ds-1" {
		t.Fatalf("expected active dataset id to round-trip")
	}
}

func TestApplyFileThenEnvThenFlagPriority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	f := Template()
	f.LogLevel = "warn"
	if err := WriteFile(path, f); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, _, err := loadFileAt(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := &Config{LogLevel: DefaultLogLevel}
	applyFile(cfg, loaded, path)
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected file value to apply, got %q", cfg.LogLevel)
	}

	// env layer: Load reads the same file from $HOME, then the env var
	t.Setenv("HOME", dir)
	if err := WriteFile(filepath.Join(dir, DefaultConfigFileName), f); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv(EnvLogLevel, "debug")
	cfg, err = Load("", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected env to override file, got %q", cfg.LogLevel)
	}

	// flag layer, highest priority
	cfg, err = Load("", "trace")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "trace" {
		t.Fatalf("expected flag to override env, got %q", cfg.LogLevel)
	}
}
