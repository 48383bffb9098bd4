package config

import (
	"os"
	"path/filepath"
)

// ResolveArenaFolder determines which directory a DiskArena should map
// its regions under.
// Precedence:
//  1. flagFolder (from --folder)
//  2. DISKALLOC_ARENA_FOLDER env var
//  3. config.toml arena.folder
//  4. ~/.diskalloc/arena
func ResolveArenaFolder(flagFolder string) string {
	if flagFolder != "" {
		return flagFolder
	}
	if v := os.Getenv("DISKALLOC_ARENA_FOLDER"); v != "" {
		return v
	}
	if cfg, err := Load(); err == nil && cfg.Arena.Folder != "" {
		return cfg.Arena.Folder
	}
	return filepath.Join(Home(), "arena")
}

// ResolveRegionSize determines the byte length of a fresh PageAllocator
// region.
// Precedence:
//  1. flagSize (from --size), 0 means unset
//  2. config.toml page.region_size
//  3. DefaultRegionSize
func ResolveRegionSize(flagSize uint64) uint64 {
	if flagSize != 0 {
		return flagSize
	}
	if cfg, err := Load(); err == nil && cfg.Page.RegionSize != 0 {
		return cfg.Page.RegionSize
	}
	return DefaultRegionSize
}

// ResolveLogLevel determines the logging verbosity.
// Precedence:
//  1. flagLevel (from --log-level)
//  2. config.toml log.level
//  3. DefaultLogLevel
func ResolveLogLevel(flagLevel string) string {
	if flagLevel != "" {
		return flagLevel
	}
	if cfg, err := Load(); err == nil && cfg.Log.Level != "" {
		return cfg.Log.Level
	}
	return DefaultLogLevel
}
