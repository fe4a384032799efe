// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoftwareHeritage/swh-scanner/pkg/exclude"
	"github.com/SoftwareHeritage/swh-scanner/pkg/swhid"
)

func writeFile(t *testing.T, root, rel, content string, mode os.FileMode) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
}

func build(t *testing.T, root string, excl *exclude.Set) *Directory {
	t.Helper()
	tree, err := NewIngester(excl, nil).Build(root)
	require.NoError(t, err)
	return tree
}

func TestBuildEmptyRoot(t *testing.T) {
	tree := build(t, t.TempDir(), nil)
	assert.Equal(t, "swh:1:dir:4b825dc642cb6eb9a060e54bf8d69288fbee4904", tree.ID().String())
	assert.Equal(t, 1, tree.Size())
	assert.Empty(t, tree.Entries())
}

func TestBuildSingleFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "hello\n", 0o644)

	tree := build(t, root, nil)
	require.Equal(t, 2, tree.Size())

	contents := tree.Contents()
	require.Len(t, contents, 1)
	assert.Equal(t, "swh:1:cnt:ce013625030ba8dba906f756967f9e9ca394464a", contents[0].ID().String())
	assert.Equal(t, int64(6), contents[0].Size)
	assert.Equal(t, swhid.ModeFile, contents[0].Mode)

	// The root digest must equal the manifest digest over its entries.
	want := swhid.FromDirectory([]swhid.DirEntry{
		{Name: []byte("a.txt"), Mode: swhid.ModeFile, ID: contents[0].ID()},
	})
	assert.Equal(t, want, tree.ID())
}

func TestBuildDeterministic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/main.go", "package main\n", 0o644)
	writeFile(t, root, "src/util.go", "package main\n", 0o644)
	writeFile(t, root, "README", "hi\n", 0o644)

	first := build(t, root, nil)
	second := build(t, root, nil)
	assert.Equal(t, first.ID(), second.ID())
	assert.Equal(t, first.Size(), second.Size())
}

func TestBuildExecutableMode(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "run.sh", "#!/bin/sh\n", 0o755)
	writeFile(t, root, "data", "#!/bin/sh\n", 0o644)

	tree := build(t, root, nil)
	byName := map[string]*Content{}
	for _, c := range tree.Contents() {
		byName[filepath.Base(string(c.AbsPath))] = c
	}
	assert.Equal(t, swhid.ModeExec, byName["run.sh"].Mode)
	assert.Equal(t, swhid.ModeFile, byName["data"].Mode)
	// Same bytes, same content identifier; the mode lives in the
	// parent's manifest.
	assert.Equal(t, byName["run.sh"].SWHID, byName["data"].SWHID)
}

func TestBuildSymlinkNotFollowed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "target.txt", "hello\n", 0o644)
	require.NoError(t, os.Symlink("target.txt", filepath.Join(root, "link")))

	tree := build(t, root, nil)
	var link *Content
	for _, c := range tree.Contents() {
		if filepath.Base(string(c.AbsPath)) == "link" {
			link = c
		}
	}
	require.NotNil(t, link)
	assert.Equal(t, swhid.ModeSymlink, link.Mode)
	// The link's content is its target path, not the target's bytes.
	assert.Equal(t, swhid.FromContent([]byte("target.txt")), link.SWHID)
}

func TestBuildExclusionChangesRootDigest(t *testing.T) {
	// Scenario: an ignored build artifact must not leak into the
	// directory digest; the digest must equal the one computed over a
	// tree that never had the artifact.
	withArtifact := t.TempDir()
	writeFile(t, withArtifact, "a.txt", "hello\n", 0o644)
	writeFile(t, withArtifact, "build/out", "artifact", 0o644)

	clean := t.TempDir()
	writeFile(t, clean, "a.txt", "hello\n", 0o644)

	excl, err := exclude.NewSet(exclude.Options{
		IgnoredPaths: [][]byte{[]byte("build")},
		NoDefaults:   true,
	})
	require.NoError(t, err)

	filtered := build(t, withArtifact, excl)
	want := build(t, clean, nil)
	assert.Equal(t, want.ID(), filtered.ID())
	assert.NotEqual(t, build(t, withArtifact, nil).ID(), filtered.ID(), "the artifact is part of the unfiltered digest")

	filtered.Walk(func(n Node) bool {
		assert.NotContains(t, string(n.Path()), "build")
		return true
	})
}

func TestBuildDefaultExclusions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/config", "[core]\n", 0o644)
	writeFile(t, root, "a.txt", "hello\n", 0o644)

	excl, err := exclude.NewSet(exclude.Options{})
	require.NoError(t, err)

	tree := build(t, root, excl)
	require.Len(t, tree.Entries(), 1)
	assert.Equal(t, []byte("a.txt"), tree.Entries()[0].Name)
}

func TestBuildProgressTicks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "a", 0o644)
	writeFile(t, root, "sub/b.txt", "b", 0o644)

	ing := NewIngester(nil, nil)
	ticks := 0
	ing.SetProgress(func() { ticks++ })
	tree, err := ing.Build(root)
	require.NoError(t, err)
	assert.Equal(t, tree.Size(), ticks)
}

func TestBuildUnreadableFileIsFatal(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("file permissions do not bind for root")
	}
	root := t.TempDir()
	writeFile(t, root, "secret", "x", 0o000)

	_, err := NewIngester(nil, nil).Build(root)
	require.Error(t, err)
}

func TestBuildRootMustBeDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "f", "x", 0o644)
	_, err := NewIngester(nil, nil).Build(filepath.Join(root, "f"))
	require.Error(t, err)
}

func TestWalkPrune(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "sub/a.txt", "a", 0o644)
	writeFile(t, root, "top.txt", "t", 0o644)

	tree := build(t, root, nil)
	var visited []string
	tree.Walk(func(n Node) bool {
		visited = append(visited, filepath.Base(string(n.Path())))
		_, isDir := n.(*Directory)
		return !isDir || n == Node(tree)
	})
	assert.Contains(t, visited, "sub")
	assert.NotContains(t, visited, "a.txt")
}
