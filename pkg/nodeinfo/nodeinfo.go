// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package nodeinfo stores what the scan learns about each Merkle node.
//
// The store maps identifiers to a small record: has the archive got
// this object, and if so where does it come from. It is populated once
// from the ingested tree and then written concurrently by the
// discovery and provenance phases; a sharded concurrent map serializes
// writes per identifier.
package nodeinfo

import (
	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/SoftwareHeritage/swh-scanner/pkg/ingest"
	"github.com/SoftwareHeritage/swh-scanner/pkg/swhid"
)

// record is the per-identifier state. Nil pointers mean "not decided
// yet".
type record struct {
	known      *bool
	provenance *swhid.Qualified
}

// Store associates each identifier of a scanned tree with its known
// state and optional provenance. Only identifiers present in the tree
// at initialization exist in the store; it never grows afterwards.
type Store struct {
	m          cmap.ConcurrentMap[string, record]
	provenance bool
}

// NewStore initializes a store covering every node of the given tree.
// Each identifier starts undecided. trackProvenance records whether
// the provenance field is in play for this scan.
func NewStore(tree *ingest.Directory, trackProvenance bool) *Store {
	s := &Store{m: cmap.New[record](), provenance: trackProvenance}
	tree.Walk(func(n ingest.Node) bool {
		s.m.Set(n.ID().String(), record{})
		return true
	})
	return s
}

// Len returns the number of distinct identifiers tracked.
func (s *Store) Len() int {
	return s.m.Count()
}

// Has reports whether the identifier belongs to the scanned tree.
func (s *Store) Has(id swhid.ID) bool {
	return s.m.Has(id.String())
}

// TracksProvenance reports whether provenance is enabled for this
// scan.
func (s *Store) TracksProvenance() bool {
	return s.provenance
}

// Known returns the known state of id: (value, true) once decided,
// (false, false) while undecided or for identifiers outside the tree.
func (s *Store) Known(id swhid.ID) (bool, bool) {
	rec, ok := s.m.Get(id.String())
	if !ok || rec.known == nil {
		return false, false
	}
	return *rec.known, true
}

// SetKnown decides the known state of id. The transition is monotonic:
// an identifier can go from undecided to a value, and from false to
// true (a later positive proof wins), but a true is never overwritten
// with false. Identifiers outside the tree are ignored.
func (s *Store) SetKnown(id swhid.ID, known bool) {
	key := id.String()
	if !s.m.Has(key) {
		return
	}
	s.m.Upsert(key, record{}, func(exist bool, cur, _ record) record {
		if !exist {
			return cur
		}
		if cur.known != nil && *cur.known && !known {
			return cur
		}
		cur.known = &known
		return cur
	})
}

// Provenance returns the provenance recorded for id, nil when absent.
func (s *Store) Provenance(id swhid.ID) *swhid.Qualified {
	rec, _ := s.m.Get(id.String())
	return rec.provenance
}

// SetProvenance records provenance for id. A value already present is
// kept; provenance is written at most once per identifier.
func (s *Store) SetProvenance(id swhid.ID, q *swhid.Qualified) {
	key := id.String()
	if !s.m.Has(key) || q == nil {
		return
	}
	s.m.Upsert(key, record{}, func(exist bool, cur, _ record) record {
		if !exist || cur.provenance != nil {
			return cur
		}
		cur.provenance = q
		return cur
	})
}

// Undecided returns the identifiers whose known state is still
// undecided.
func (s *Store) Undecided() []swhid.ID {
	var out []swhid.ID
	for item := range s.m.IterBuffered() {
		if item.Val.known == nil {
			id, err := swhid.Parse(item.Key)
			if err == nil {
				out = append(out, id)
			}
		}
	}
	return out
}
