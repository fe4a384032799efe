// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package exclude

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withVCSOutput substitutes the subprocess runner for the duration of a
// test, recording the command it was asked to run.
func withVCSOutput(t *testing.T, out []byte, err error) *[]string {
	t.Helper()
	var called []string
	orig := runVCS
	runVCS = func(dir string, extraEnv []string, name string, args ...string) ([]byte, error) {
		called = append([]string{name}, args...)
		return out, err
	}
	t.Cleanup(func() { runVCS = orig })
	return &called
}

func vcsRoot(t *testing.T, marker string) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, marker), 0o755))
	return root
}

func TestVCSIgnoredGit(t *testing.T) {
	out := []byte("!! build/\x00 M src/main.go\x00!! out.bin\x00?? new.go\x00")
	called := withVCSOutput(t, out, nil)

	paths := VCSIgnored(vcsRoot(t, ".git"), nil)
	assert.Equal(t, [][]byte{[]byte("build"), []byte("out.bin")}, paths)
	assert.Equal(t, []string{"git", "status", "--ignored", "--no-renames", "-z"}, *called)
}

func TestVCSIgnoredHg(t *testing.T) {
	out := []byte("build/out\x00.coverage\x00")
	withVCSOutput(t, out, nil)

	paths := VCSIgnored(vcsRoot(t, ".hg"), nil)
	assert.Equal(t, [][]byte{[]byte("build/out"), []byte(".coverage")}, paths)
}

func TestVCSIgnoredSvn(t *testing.T) {
	out := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<status>
  <target path=".">
    <entry path="build"><wc-status item="ignored" props="none"/></entry>
    <entry path="src/main.go"><wc-status item="modified" props="none"/></entry>
    <entry path="dist/pkg.tar"><wc-status item="ignored" props="none"/></entry>
  </target>
</status>`)
	withVCSOutput(t, out, nil)

	paths := VCSIgnored(vcsRoot(t, ".svn"), nil)
	assert.Equal(t, [][]byte{[]byte("build"), []byte("dist/pkg.tar")}, paths)
}

func TestVCSIgnoredSubprocessFailure(t *testing.T) {
	// A failing status command must degrade to no patterns, never
	// abort the scan.
	withVCSOutput(t, nil, errors.New("exit status 128"))
	assert.Nil(t, VCSIgnored(vcsRoot(t, ".git"), nil))
}

func TestVCSIgnoredNoVCS(t *testing.T) {
	called := withVCSOutput(t, nil, nil)
	assert.Nil(t, VCSIgnored(t.TempDir(), nil))
	assert.Empty(t, *called, "no VCS detected, no subprocess run")
}

func TestVCSIgnoredEmptyStatus(t *testing.T) {
	withVCSOutput(t, nil, nil)
	assert.Empty(t, VCSIgnored(vcsRoot(t, ".git"), nil))
}
