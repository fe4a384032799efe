// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package swhid

import "strings"

// Qualified is an identifier augmented with provenance qualifiers. The
// scanner never builds these itself; they come back from the archive's
// provenance endpoints.
type Qualified struct {
	ID

	// Anchor is a release or revision containing the object, when the
	// archive could determine one.
	Anchor *ID

	// Origin is the URL the archive obtained the containing anchor
	// from, when known.
	Origin string
}

// ParseQualified parses the qualified textual form
// "swh:1:<kind>:<hex>;anchor=…;origin=…". Qualifiers other than anchor
// and origin are ignored. The core part must be a valid identifier.
func ParseQualified(text string) (*Qualified, error) {
	core, qualifiers, _ := strings.Cut(text, ";")
	id, err := Parse(core)
	if err != nil {
		return nil, err
	}

	q := &Qualified{ID: id}
	for _, pair := range strings.Split(qualifiers, ";") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		switch key {
		case "anchor":
			anchor, err := Parse(value)
			if err != nil {
				return nil, &ParseError{text, "invalid anchor qualifier"}
			}
			q.Anchor = &anchor
		case "origin":
			q.Origin = value
		}
	}
	return q, nil
}

// String returns the qualified textual form. Qualifiers are emitted in
// the fixed order origin, anchor, matching the archive's own rendering.
func (q *Qualified) String() string {
	var b strings.Builder
	b.WriteString(q.ID.String())
	if q.Origin != "" {
		b.WriteString(";origin=")
		b.WriteString(q.Origin)
	}
	if q.Anchor != nil {
		b.WriteString(";anchor=")
		b.WriteString(q.Anchor.String())
	}
	return b.String()
}
