package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

const (
	// DefaultMountOptions are the options passed to mount(8). ISOs are
	// mounted read-only through a loop device.
	DefaultMountOptions = "loop,ro"

	// baseDirName is the directory under the user's home that holds all
	// mount points. Kept out of /tmp so mount points survive tmp cleaners.
	baseDirName = ".iso_mounts"
)

// DefaultPath returns the default location for the config file
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "isomount", "config.toml")
}

// DefaultBaseDir returns the default base directory for mount points
func DefaultBaseDir() string {
	return filepath.Join(xdg.Home, baseDirName)
}

// Config holds the tool configuration
type Config struct {
	// BaseDir is the directory under which mount points are created
	BaseDir string `toml:"base_dir"`
	// MountOptions are the -o options passed to the mount command
	MountOptions string `toml:"mount_options"`
	// NoOpen disables opening the mount point in a file manager
	NoOpen bool `toml:"no_open"`
}

// Load loads configuration from a TOML file
// Returns an empty config if the file doesn't exist
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// Merge merges CLI flags into the config, with CLI flags taking precedence
// over config file values. Empty string values are ignored; noOpen only
// overrides when set on the command line.
func (c *Config) Merge(baseDir, mountOptions string, noOpen bool) {
	if baseDir != "" {
		c.BaseDir = baseDir
	}
	if mountOptions != "" {
		c.MountOptions = mountOptions
	}
	if noOpen {
		c.NoOpen = true
	}
}

// ApplyDefaults applies default values for any unset fields
func (c *Config) ApplyDefaults() {
	if c.BaseDir == "" {
		c.BaseDir = DefaultBaseDir()
	}
	if c.MountOptions == "" {
		c.MountOptions = DefaultMountOptions
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !filepath.IsAbs(c.BaseDir) {
		return fmt.Errorf("base directory must be an absolute path, got %q", c.BaseDir)
	}

	return nil
}
