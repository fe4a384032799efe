// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ingest builds the Merkle view of a source tree.
//
// The ingester walks a scan root, computes a content identifier for
// every regular file and symlink, and a directory identifier for every
// directory, bottom-up. The resulting tree is immutable once built;
// everything downstream (discovery, provenance, rendering) only reads
// it.
package ingest

import (
	"bytes"
	"sort"

	"github.com/SoftwareHeritage/swh-scanner/pkg/swhid"
)

// Node is a node of the Merkle tree: either a *Content or a
// *Directory. The tree form is used throughout: a subtree appearing
// under several paths is instantiated once per path, so every node has
// a single well-defined path.
type Node interface {
	// ID is the node's identifier, assigned at build time.
	ID() swhid.ID

	// Path is the node's absolute path as raw bytes.
	Path() []byte
}

// Content is a leaf node: a regular file or a symlink.
type Content struct {
	SWHID   swhid.ID
	AbsPath []byte
	Size    int64
	Mode    uint32
}

func (c *Content) ID() swhid.ID { return c.SWHID }
func (c *Content) Path() []byte { return c.AbsPath }

// Directory is an inner node (or the root). Entries are kept sorted by
// raw name so iteration order is deterministic.
type Directory struct {
	SWHID   swhid.ID
	AbsPath []byte
	entries []Entry
}

// Entry is a named child of a directory.
type Entry struct {
	Name []byte
	Node Node
}

func (d *Directory) ID() swhid.ID { return d.SWHID }
func (d *Directory) Path() []byte { return d.AbsPath }

// Entries returns the directory's children in name order. The returned
// slice is shared; callers must not modify it.
func (d *Directory) Entries() []Entry {
	return d.entries
}

// add inserts a child. Children arrive in walk order; sorting happens
// once in seal.
func (d *Directory) add(name []byte, node Node) {
	d.entries = append(d.entries, Entry{Name: name, Node: node})
}

// seal sorts the entries and computes the directory identifier from
// them. Called once per directory, after all children are built.
func (d *Directory) seal() {
	sort.Slice(d.entries, func(i, j int) bool {
		return bytes.Compare(d.entries[i].Name, d.entries[j].Name) < 0
	})
	manifest := make([]swhid.DirEntry, len(d.entries))
	for i, e := range d.entries {
		manifest[i] = swhid.DirEntry{Name: e.Name, Mode: entryMode(e.Node), ID: e.Node.ID()}
	}
	d.SWHID = swhid.FromDirectory(manifest)
}

func entryMode(n Node) uint32 {
	switch n := n.(type) {
	case *Content:
		return n.Mode
	case *Directory:
		return swhid.ModeDir
	}
	return 0
}

// Walk visits the subtree rooted at d in depth-first pre-order,
// including d itself. Returning false from fn prunes the subtree below
// the current node.
func (d *Directory) Walk(fn func(Node) bool) {
	if !fn(d) {
		return
	}
	for _, e := range d.entries {
		switch n := e.Node.(type) {
		case *Directory:
			n.Walk(fn)
		default:
			fn(e.Node)
		}
	}
}

// Nodes returns every node of the subtree, root first.
func (d *Directory) Nodes() []Node {
	var nodes []Node
	d.Walk(func(n Node) bool {
		nodes = append(nodes, n)
		return true
	})
	return nodes
}

// Directories returns every directory of the subtree, root included.
func (d *Directory) Directories() []*Directory {
	var dirs []*Directory
	d.Walk(func(n Node) bool {
		if dir, ok := n.(*Directory); ok {
			dirs = append(dirs, dir)
		}
		return true
	})
	return dirs
}

// Contents returns every content of the subtree.
func (d *Directory) Contents() []*Content {
	var contents []*Content
	d.Walk(func(n Node) bool {
		if c, ok := n.(*Content); ok {
			contents = append(contents, c)
		}
		return true
	})
	return contents
}

// Size returns the number of nodes in the subtree, root included.
func (d *Directory) Size() int {
	n := 0
	d.Walk(func(Node) bool {
		n++
		return true
	})
	return n
}
