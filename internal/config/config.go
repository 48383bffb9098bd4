// Package config loads and resolves diskalloc's on-disk configuration:
// the default arena folder, default PageAllocator region size, and
// logging verbosity, layered with CLI flags and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the ~/.diskalloc/config.toml file.
type Config struct {
	Arena Arena `toml:"arena,omitempty" json:"arena"`
	Page  Page  `toml:"page,omitempty" json:"page"`
	Log   Log   `toml:"log,omitempty" json:"log"`
}

// Arena holds DiskArena defaults.
type Arena struct {
	// Folder is the default directory new regions are mapped under.
	Folder string `toml:"folder,omitempty" json:"folder"`
}

// Page holds PageAllocator defaults.
type Page struct {
	// RegionSize is the default byte length of the backing region a
	// fresh PageAllocator is built over.
	RegionSize uint64 `toml:"region_size,omitempty" json:"region_size"`
}

// Log holds logging preferences shared by every command.
type Log struct {
	Level string `toml:"level,omitempty" json:"level"`
}

const (
	// DefaultRegionSize is used when neither config.toml nor a flag
	// supplies one.
	DefaultRegionSize uint64 = 64 * 1024 * 1024
	// DefaultLogLevel matches the Warn level of the diskarena and
	// pagealloc package default loggers.
	DefaultLogLevel = "warn"
)

// configDirOverride is set by the --config-dir flag.
var configDirOverride string

// SetConfigDir allows the CLI to pass in the --config-dir flag value.
func SetConfigDir(dir string) {
	configDirOverride = dir
}

// Home returns the configuration directory.
// Precedence: --config-dir flag / SetConfigDir > DISKALLOC_HOME env > ~/.diskalloc
func Home() string {
	if configDirOverride != "" {
		return configDirOverride
	}
	if v := os.Getenv("DISKALLOC_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".diskalloc")
	}
	return filepath.Join(home, ".diskalloc")
}

// Path returns the full path to config.toml.
func Path() string {
	return filepath.Join(Home(), "config.toml")
}

// EnsureDir creates the configuration directory if it does not exist.
func EnsureDir() error {
	return os.MkdirAll(Home(), 0o755)
}

// Load reads config.toml and returns a Config struct. If the file does
// not exist, it returns a zero-value Config (callers apply defaults).
func Load() (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", Path(), err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", Path(), err)
	}
	return cfg, nil
}

// Save writes the Config struct back to config.toml.
func Save(cfg *Config) error {
	if err := EnsureDir(); err != nil {
		return fmt.Errorf("config: creating %s: %w", Home(), err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	return os.WriteFile(Path(), data, 0o644)
}

// validKeys lists the dot-separated keys usable with Get/Set.
var validKeys = map[string]bool{
	"arena.folder":    true,
	"page.region_size": true,
	"log.level":       true,
}

// Get retrieves a single config value by dot-separated key.
func Get(key string) (string, error) {
	if !validKeys[key] {
		return "", fmt.Errorf("config: unknown key: %s", key)
	}
	cfg, err := Load()
	if err != nil {
		return "", err
	}
	return getField(cfg, key)
}

// Set sets a single config value by dot-separated key.
func Set(key, value string) error {
	if !validKeys[key] {
		return fmt.Errorf("config: unknown key: %s", key)
	}
	cfg, err := Load()
	if err != nil {
		return err
	}
	if err := setField(cfg, key, value); err != nil {
		return err
	}
	return Save(cfg)
}

func getField(cfg *Config, key string) (string, error) {
	switch key {
	case "arena.folder":
		return cfg.Arena.Folder, nil
	case "page.region_size":
		return fmt.Sprintf("%d", cfg.Page.RegionSize), nil
	case "log.level":
		return cfg.Log.Level, nil
	default:
		return "", fmt.Errorf("config: unknown key: %s", key)
	}
}

func setField(cfg *Config, key, value string) error {
	switch key {
	case "arena.folder":
		cfg.Arena.Folder = value
	case "page.region_size":
		var n uint64
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
			return fmt.Errorf("config: page.region_size must be an integer: %w", err)
		}
		cfg.Page.RegionSize = n
	case "log.level":
		cfg.Log.Level = value
	default:
		return fmt.Errorf("config: unknown key: %s", key)
	}
	return nil
}
