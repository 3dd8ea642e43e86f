// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file inside the profile directory.
const FileName = "config.yaml"

// ErrNoProfile is returned when the profile directory has no
// configuration file.
var ErrNoProfile = errors.New("no radicle profile found")

// Config is the profile configuration.
type Config struct {
	// Identity names the local person and is set by `rad auth`.
	Identity IdentityConfig `yaml:"identity"`

	// Paths configures file locations.
	Paths PathsConfig `yaml:"paths"`

	// Editor overrides the editor git would pick (core.editor,
	// GIT_EDITOR, VISUAL, EDITOR).
	Editor string `yaml:"editor"`

	// Sync configures the replication command run after a patch is
	// created or updated.
	Sync SyncConfig `yaml:"sync"`
}

// IdentityConfig names the local identity.
type IdentityConfig struct {
	// Urn is the person urn, rad:git:<hex>.
	Urn string `yaml:"urn"`

	// Name is the display name used when the person document cannot
	// be read.
	Name string `yaml:"name"`
}

// PathsConfig configures file locations.
type PathsConfig struct {
	// Home is the profile directory. Not read from the file.
	Home string `yaml:"-"`

	// Monorepo is the bare git repository holding all projects.
	// Default: ${RAD_HOME}/git
	Monorepo string `yaml:"monorepo"`

	// Key is the ed25519 signing seed, raw or hex.
	// Default: ${RAD_HOME}/keys/ed25519
	Key string `yaml:"key"`
}

// SyncConfig configures the external sync command.
type SyncConfig struct {
	// Command is the argv prefix; --branch and --verbose are appended.
	// Default: [rad, sync]
	Command []string `yaml:"command"`
}

// Default returns the configuration of a profile rooted at home.
func Default(home string) *Config {
	return &Config{
		Paths: PathsConfig{
			Home:     home,
			Monorepo: filepath.Join(home, "git"),
			Key:      filepath.Join(home, "keys", "ed25519"),
		},
		Sync: SyncConfig{
			Command: []string{"rad", "sync"},
		},
	}
}

// Home returns the profile directory: RAD_HOME, or ~/.radicle.
func Home() (string, error) {
	if home := os.Getenv("RAD_HOME"); home != "" {
		return home, nil
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating profile: RAD_HOME is unset and %w", err)
	}
	return filepath.Join(userHome, ".radicle"), nil
}

// Load loads the configuration of the profile in RAD_HOME.
func Load() (*Config, error) {
	home, err := Home()
	if err != nil {
		return nil, err
	}
	return LoadFile(home, filepath.Join(home, FileName))
}

// LoadFile loads configuration from path for the profile rooted at
// home. A missing file returns ErrNoProfile.
func LoadFile(home, path string) (*Config, error) {
	cfg := Default(home)

	if err := cfg.loadFile(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w at %s", ErrNoProfile, home)
		}
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	cfg.expandVariables()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"RAD_HOME": c.Paths.Home,
		"HOME":     os.Getenv("HOME"),
	}

	c.Paths.Monorepo = expandVars(c.Paths.Monorepo, vars)
	c.Paths.Key = expandVars(c.Paths.Key, vars)
	c.Editor = expandVars(c.Editor, vars)
	for i, arg := range c.Sync.Command {
		c.Sync.Command[i] = expandVars(arg, vars)
	}
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Identity.Urn == "" {
		errs = append(errs, fmt.Errorf("identity.urn is required"))
	}
	if c.Paths.Monorepo == "" {
		errs = append(errs, fmt.Errorf("paths.monorepo is required"))
	}
	if c.Paths.Key == "" {
		errs = append(errs, fmt.Errorf("paths.key is required"))
	}
	if len(c.Sync.Command) == 0 {
		errs = append(errs, fmt.Errorf("sync.command must not be empty"))
	}

	return errors.Join(errs...)
}
