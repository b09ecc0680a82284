// Package config loads user-overridable indexer settings from a
// .phxindexrc file in the workspace root.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds workspace-level indexer settings.
type Config struct {
	Index IndexConfig `yaml:"index"`
}

// IndexConfig holds index-specific settings.
type IndexConfig struct {
	// Ignore are directory or glob patterns to skip during discovery.
	// These are added to (not replacing) the built-in default ignore set.
	Ignore []string `yaml:"ignore"`

	// CoreComponents names the shared component module resolved without an
	// explicit import. Default: derived from the workspace's use targets.
	CoreComponents string `yaml:"core_components"`

	// Snapshot enables/disables the warm-start SQLite snapshot.
	// Default: true.
	Snapshot *bool `yaml:"snapshot"`

	// SnapshotPath overrides the snapshot database location.
	SnapshotPath string `yaml:"snapshot_path"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{}
}

// Load reads .phxindexrc from the given directory.
// Returns the default config if the file doesn't exist or is invalid.
func Load(dir string) *Config {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, ".phxindexrc"))
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default()
	}
	return cfg
}

// EffectiveSnapshot returns the configured snapshot setting, or the
// default (true) if not set.
func (c *Config) EffectiveSnapshot() bool {
	if c.Index.Snapshot != nil {
		return *c.Index.Snapshot
	}
	return true
}
