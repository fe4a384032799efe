// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFullFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.yml")
	content := `web-api:
  url: https://archive.example.org/api/1/
  auth-token: secret
scanner:
  exclude:
    - "*.tmp"
    - build
  exclude-templates:
    - Python
  disable-global-patterns: true
  disable-vcs-patterns: true
  provenance: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://archive.example.org/api/1/", cfg.WebAPI.URL)
	assert.Equal(t, "secret", cfg.WebAPI.AuthToken)
	assert.Equal(t, []string{"*.tmp", "build"}, cfg.Scanner.Exclude)
	assert.Equal(t, []string{"Python"}, cfg.Scanner.ExcludeTemplates)
	assert.True(t, cfg.Scanner.DisableGlobalPatterns)
	assert.True(t, cfg.Scanner.DisableVCSPatterns)
	assert.True(t, cfg.Scanner.Provenance)
}

func TestLoadMissingURLFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.yml")
	require.NoError(t, os.WriteFile(path, []byte("scanner:\n  provenance: false\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.WebAPI.URL)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.Error(t, err)
}

func TestLoadDefaultMissingFileOK(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.WebAPI.URL)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "global.yml")
	require.NoError(t, os.WriteFile(path, []byte("web-api: ["), 0o600))
	_, err := Load(path)
	require.Error(t, err)
}

func TestDefaultPathHonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "swh", "global.yml"), DefaultPath())
}
