// Package config handles loading and resolving beefcake configuration.
// Resolution order (first non-empty value wins):
//  1. CLI flag
//  2. Environment variable
//  3. ~/.beefcake_config.json
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultConfigFileName = ".beefcake_config.json"
	DefaultFormat         = "table"
	DefaultLogLevel       = "info"
	DefaultSampleSeed     = 42
	EnvRegistryRoot       = "BEEFCAKE_REGISTRY_ROOT"
	EnvLogLevel           = "BEEFCAKE_LOG_LEVEL"
)

// SavedConnection is a named database target. Password is never stored
// directly; SecretRef points at an entry in the active SecretStore.
type SavedConnection struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Port      int    `json:"port"`
	Database  string `json:"database"`
	User      string `json:"user"`
	SSLMode   string `json:"ssl_mode"`
	SecretRef string `json:"secret_ref"`
}

// File is the on-disk representation of ~/.beefcake_config.json.
type File struct {
	RegistryRoot    string            `json:"registry_root"`
	LogLevel        string            `json:"log_level"`
	LogPath         string            `json:"log_path"`
	DefaultFormat   string            `json:"default_format"`
	SampleSeed      int64             `json:"sample_seed"`
	Connections     []SavedConnection `json:"connections"`
	ActiveDatasetID string            `json:"active_dataset_id"`
	ActiveVersionID string            `json:"active_version_id"`
}

// Config is the fully-resolved runtime configuration. All callers use
// this struct; File is only consulted during Load.
type Config struct {
	RegistryRoot    string
	LogLevel        string
	LogPath         string
	Format          string
	SampleSeed      int64
	Connections     []SavedConnection
	ActiveDatasetID string
	ActiveVersionID string
	ConfigPath      string // path of the file that was loaded (empty if none found)

	// Runtime overrides set from CLI flags after Load.
	Quiet   bool
	Verbose bool
	NoCache bool
}

// Load resolves configuration from all sources. flagRegistryRoot and
// flagLogLevel are the values of the matching persistent flags (empty
// string if not set).
func Load(flagRegistryRoot, flagLogLevel string) (*Config, error) {
	home, _ := os.UserHomeDir()
	cfg := &Config{
		RegistryRoot: filepath.Join(home, ".beefcake", "registry"),
		LogLevel:     DefaultLogLevel,
		LogPath:      filepath.Join(home, ".beefcake", "beefcake.log"),
		Format:       DefaultFormat,
		SampleSeed:   DefaultSampleSeed,
	}

	if f, path, err := loadFile(); err == nil {
		applyFile(cfg, f, path)
	}

	if v := os.Getenv(EnvRegistryRoot); v != "" {
		cfg.RegistryRoot = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	if flagRegistryRoot != "" {
		cfg.RegistryRoot = flagRegistryRoot
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	return cfg, nil
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DefaultConfigFileName), nil
}

func loadFile() (*File, string, error) {
	path, err := defaultConfigPath()
	if err != nil {
		return nil, "", err
	}
	return loadFileAt(path)
}

// loadFileAt reads and parses the config file at an explicit path,
// separated out from loadFile so tests can exercise it against a
// temporary directory instead of the real home directory.
func loadFileAt(path string) (*File, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%s not found", path)
		}
		return nil, "", fmt.Errorf("reading %s: %w", path, err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, "", fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, path, nil
}

func applyFile(cfg *Config, f *File, path string) {
	cfg.ConfigPath = path
	if f.RegistryRoot != "" {
		cfg.RegistryRoot = f.RegistryRoot
	}
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.LogPath != "" {
		cfg.LogPath = f.LogPath
	}
	if f.DefaultFormat != "" {
		cfg.Format = f.DefaultFormat
	}
	if f.SampleSeed != 0 {
		cfg.SampleSeed = f.SampleSeed
	}
	cfg.Connections = f.Connections
	cfg.ActiveDatasetID = f.ActiveDatasetID
	cfg.ActiveVersionID = f.ActiveVersionID
}

// Template returns a File populated with sensible defaults, suitable for
// writing an initial config file via `beefcake config init`.
func Template() File {
	home, _ := os.UserHomeDir()
	return File{
		RegistryRoot:  filepath.Join(home, ".beefcake", "registry"),
		LogLevel:      DefaultLogLevel,
		LogPath:       filepath.Join(home, ".beefcake", "beefcake.log"),
		DefaultFormat: DefaultFormat,
		SampleSeed:    DefaultSampleSeed,
	}
}

// WriteFile serialises f to path with owner-only permissions, since it may
// carry saved connection metadata.
func WriteFile(path string, f File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0600)
}

// AsFile converts the resolved Config back into its on-disk shape, used
// when persisting active-dataset/version updates or new connections.
func (c *Config) AsFile() File {
	return File{
		RegistryRoot:    c.RegistryRoot,
		LogLevel:        c.LogLevel,
		LogPath:         c.LogPath,
		DefaultFormat:   c.Format,
		SampleSeed:      c.SampleSeed,
		Connections:     c.Connections,
		ActiveDatasetID: c.ActiveDatasetID,
		ActiveVersionID: c.ActiveVersionID,
	}
}

// Save persists c back to its ConfigPath, or the default path if it was
// not loaded from a file.
func (c *Config) Save() error {
	path := c.ConfigPath
	if path == "" {
		p, err := defaultConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	return WriteFile(path, c.AsFile())
}
