// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the scanner configuration file.
//
// The configuration lives in a YAML file, by default
// ~/.config/swh/global.yml, and carries the archive endpoint, an
// optional authentication token, and scan defaults. Command line flags
// override anything read from the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultAPIURL is the production archive endpoint.
const DefaultAPIURL = "https://archive.softwareheritage.org/api/1/"

// Config mirrors the configuration file layout.
type Config struct {
	WebAPI  WebAPI  `yaml:"web-api"`
	Scanner Scanner `yaml:"scanner"`
}

// WebAPI configures the archive endpoint.
type WebAPI struct {
	URL       string `yaml:"url"`
	AuthToken string `yaml:"auth-token"`
}

// Scanner carries scan defaults.
type Scanner struct {
	// Exclude are glob patterns applied on every scan.
	Exclude []string `yaml:"exclude"`

	// ExcludeTemplates are named exclusion templates applied on every
	// scan.
	ExcludeTemplates []string `yaml:"exclude-templates"`

	// DisableGlobalPatterns turns off the built-in exclusion patterns.
	DisableGlobalPatterns bool `yaml:"disable-global-patterns"`

	// DisableVCSPatterns turns off collecting VCS-ignored paths.
	DisableVCSPatterns bool `yaml:"disable-vcs-patterns"`

	// Provenance enables provenance resolution by default.
	Provenance bool `yaml:"provenance"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{WebAPI: WebAPI{URL: DefaultAPIURL}}
}

// DefaultPath returns the default configuration file location,
// honoring XDG_CONFIG_HOME.
func DefaultPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "swh", "global.yml")
}

// Load reads the configuration at path. An empty path falls back to
// DefaultPath; a missing file at the default location is not an error
// and yields the defaults, while an explicitly given path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.WebAPI.URL == "" {
		cfg.WebAPI.URL = DefaultAPIURL
	}
	return cfg, nil
}
