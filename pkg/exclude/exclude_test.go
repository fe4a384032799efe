// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package exclude

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSet(t *testing.T, opts Options) *Set {
	t.Helper()
	s, err := NewSet(opts)
	require.NoError(t, err)
	return s
}

func TestDefaultsExcludeVCSDirsAtAnyDepth(t *testing.T) {
	s := newSet(t, Options{})
	for _, path := range []string{
		".git",
		"sub/.git",
		"a/b/c/__pycache__",
		".tox",
		"pkg/foo.egg-info",
	} {
		assert.True(t, s.Excluded([]byte(path)), path)
	}
	for _, path := range []string{
		"src/main.go",
		"gitstuff",
		"a/gith",
	} {
		assert.False(t, s.Excluded([]byte(path)), path)
	}
}

func TestNoDefaults(t *testing.T) {
	s := newSet(t, Options{NoDefaults: true})
	assert.False(t, s.Excluded([]byte(".git")))
	assert.Zero(t, s.Len())
}

func TestUserPatterns(t *testing.T) {
	s := newSet(t, Options{
		Patterns:   [][]byte{[]byte("*.o"), []byte("build")},
		NoDefaults: true,
	})
	assert.True(t, s.Excluded([]byte("main.o")))
	assert.True(t, s.Excluded([]byte("deep/down/main.o")), "star crosses separators")
	assert.True(t, s.Excluded([]byte("build")))
	assert.False(t, s.Excluded([]byte("builder")))
}

func TestGlobSemantics(t *testing.T) {
	cases := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"*.txt", "a.txt", true},
		{"*.txt", "dir/a.txt", true},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"[abc]x", "bx", true},
		{"[!abc]x", "bx", false},
		{"[a-f]1", "d1", true},
		{"[a-f]1", "g1", false},
		{"lib/*", "lib/a/b", true},
		{"\\*star", "*star", true},
		{"\\*star", "xstar", false},
		{"*", "anything/at/all", true},
	}
	for _, tc := range cases {
		s := newSet(t, Options{Patterns: [][]byte{[]byte(tc.pattern)}, NoDefaults: true})
		assert.Equal(t, tc.want, s.Excluded([]byte(tc.path)),
			"pattern %q path %q", tc.pattern, tc.path)
	}
}

func TestInvalidPatternRejected(t *testing.T) {
	_, err := NewSet(Options{Patterns: [][]byte{[]byte("[abc")}, NoDefaults: true})
	require.Error(t, err)
}

func TestIgnoredPathsExcludeSubtrees(t *testing.T) {
	s := newSet(t, Options{
		IgnoredPaths: [][]byte{[]byte("build/"), []byte("dist/out.bin")},
		NoDefaults:   true,
	})
	assert.True(t, s.Excluded([]byte("build")))
	assert.True(t, s.Excluded([]byte("build/obj/a.o")))
	assert.True(t, s.Excluded([]byte("dist/out.bin")))
	assert.False(t, s.Excluded([]byte("dist")))
	assert.False(t, s.Excluded([]byte("buildings")))
}

func TestParseTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Python.gitignore")
	content := "# build residue\n__pycache__\n\n*.pyc\n  *.pyo  \n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	patterns, err := ParseTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{
		[]byte("__pycache__"),
		[]byte("*.pyc"),
		[]byte("*.pyo"),
	}, patterns)
}

func TestTemplateFileWiredIntoSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Node.gitignore")
	require.NoError(t, os.WriteFile(path, []byte("node_modules\n"), 0o644))

	s := newSet(t, Options{TemplateFiles: []string{path}, NoDefaults: true})
	assert.True(t, s.Excluded([]byte("node_modules")))
}

func TestTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "community", ".github"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Go.gitignore"), []byte("*.test\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "community", "Nim.gitignore"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "community", ".github", "Skip.gitignore"), nil, 0o644))

	templates, err := Templates(dir)
	require.NoError(t, err)
	assert.Contains(t, templates, "Go")
	assert.Contains(t, templates, "Nim")
	assert.NotContains(t, templates, "Skip")
}
