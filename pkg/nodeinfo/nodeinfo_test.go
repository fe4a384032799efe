// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package nodeinfo

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoftwareHeritage/swh-scanner/pkg/ingest"
	"github.com/SoftwareHeritage/swh-scanner/pkg/swhid"
)

func testTree(t *testing.T) *ingest.Directory {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "a.txt"), []byte("a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README"), []byte("hi\n"), 0o644))
	tree, err := ingest.NewIngester(nil, nil).Build(root)
	require.NoError(t, err)
	return tree
}

func TestStoreInitiallyUndecided(t *testing.T) {
	tree := testTree(t)
	s := NewStore(tree, true)

	assert.Equal(t, 4, s.Len())
	assert.True(t, s.TracksProvenance())
	for _, n := range tree.Nodes() {
		_, decided := s.Known(n.ID())
		assert.False(t, decided)
		assert.Nil(t, s.Provenance(n.ID()))
	}
	assert.Len(t, s.Undecided(), 4)
}

func TestSetKnownMonotonic(t *testing.T) {
	tree := testTree(t)
	s := NewStore(tree, false)
	id := tree.ID()

	s.SetKnown(id, true)
	known, decided := s.Known(id)
	assert.True(t, decided)
	assert.True(t, known)

	// A positive proof is never demoted.
	s.SetKnown(id, false)
	known, _ = s.Known(id)
	assert.True(t, known)
}

func TestSetKnownUndecidedToFalse(t *testing.T) {
	tree := testTree(t)
	s := NewStore(tree, false)
	id := tree.ID()

	s.SetKnown(id, false)
	known, decided := s.Known(id)
	assert.True(t, decided)
	assert.False(t, known)
	assert.Len(t, s.Undecided(), s.Len()-1)
}

func TestSetKnownIgnoresForeignIDs(t *testing.T) {
	tree := testTree(t)
	s := NewStore(tree, false)
	foreign := swhid.FromContent([]byte("not in the tree"))

	s.SetKnown(foreign, true)
	assert.False(t, s.Has(foreign))
	assert.Equal(t, 4, s.Len(), "the store never grows after initialization")
}

func TestSetProvenanceWriteOnce(t *testing.T) {
	tree := testTree(t)
	s := NewStore(tree, true)
	id := tree.ID()

	first := &swhid.Qualified{ID: id, Origin: "https://example.com/first"}
	second := &swhid.Qualified{ID: id, Origin: "https://example.com/second"}
	s.SetProvenance(id, first)
	s.SetProvenance(id, second)
	require.NotNil(t, s.Provenance(id))
	assert.Equal(t, "https://example.com/first", s.Provenance(id).Origin)
}

func TestConcurrentWrites(t *testing.T) {
	tree := testTree(t)
	s := NewStore(tree, false)
	nodes := tree.Nodes()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(known bool) {
			defer wg.Done()
			for _, n := range nodes {
				s.SetKnown(n.ID(), known)
			}
		}(i%2 == 0)
	}
	wg.Wait()

	for _, n := range nodes {
		_, decided := s.Known(n.ID())
		assert.True(t, decided)
	}
}
