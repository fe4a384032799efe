// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package scanner

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/SoftwareHeritage/swh-scanner/pkg/ingest"
)

// ProvenanceInfo is the rendered form of a node's provenance.
type ProvenanceInfo struct {
	Anchor string `json:"anchor,omitempty"`
	Origin string `json:"origin,omitempty"`
}

// PathInfo is the per-node record handed to renderers: the node's path
// relative to the scan root in forward-slash form, its identifier, and
// what the archive knows about it. Raw byte paths are converted to
// strings only here, at the presentation boundary.
type PathInfo struct {
	Path       string          `json:"path"`
	SWHID      string          `json:"swhid"`
	Known      bool            `json:"known"`
	Provenance *ProvenanceInfo `json:"provenance,omitempty"`
}

// PathInfos returns one record per node, in depth-first order with
// directory entries sorted by name. The root appears first as ".".
func (r *Result) PathInfos() []PathInfo {
	rootPath := r.Root.Path()
	out := make([]PathInfo, 0, r.Root.Size())
	r.Root.Walk(func(n ingest.Node) bool {
		rec := PathInfo{
			Path:  relPath(rootPath, n.Path()),
			SWHID: n.ID().String(),
		}
		rec.Known, _ = r.Info.Known(n.ID())
		if q := r.Info.Provenance(n.ID()); q != nil {
			p := &ProvenanceInfo{Origin: q.Origin}
			if q.Anchor != nil {
				p.Anchor = q.Anchor.String()
			}
			rec.Provenance = p
		}
		out = append(out, rec)
		return true
	})
	return out
}

// Summary are the scan-wide counts the renderers display.
type Summary struct {
	Total          int `json:"total"`
	Known          int `json:"known"`
	WithProvenance int `json:"with_provenance,omitempty"`
}

// Summary tallies the scan results.
func (r *Result) Summary() Summary {
	var s Summary
	r.Root.Walk(func(n ingest.Node) bool {
		s.Total++
		if known, _ := r.Info.Known(n.ID()); known {
			s.Known++
		}
		if r.Info.Provenance(n.ID()) != nil {
			s.WithProvenance++
		}
		return true
	})
	return s
}

func relPath(root, path []byte) string {
	if bytes.Equal(root, path) {
		return "."
	}
	rel := bytes.TrimPrefix(path, root)
	rel = bytes.TrimPrefix(rel, []byte{filepath.Separator})
	return strings.ReplaceAll(string(rel), string(filepath.Separator), "/")
}
