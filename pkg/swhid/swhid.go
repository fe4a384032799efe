// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package swhid implements Software Heritage persistent identifiers.
//
// An identifier names an object held by the archive through a typed,
// content-addressed handle: an object kind plus a 20-byte SHA-1 digest.
// The digest formulas are part of the archive's external contract and
// must match it bit-for-bit; they follow the git object model (blob
// digests for contents, tree digests for directories).
package swhid

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"sort"
	"strconv"
)

// Scheme is the identifier scheme prefix.
const Scheme = "swh"

// SchemaVersion is the identifier schema version.
const SchemaVersion = 1

// DigestSize is the size in bytes of an identifier digest.
const DigestSize = sha1.Size

// Kind is the object kind of an identifier.
type Kind string

// Object kinds. The scanner produces contents and directories; releases
// and revisions only appear as provenance anchors returned by the archive.
const (
	Content   Kind = "cnt"
	Directory Kind = "dir"
	Release   Kind = "rel"
	Revision  Kind = "rev"
)

func validKind(k Kind) bool {
	switch k {
	case Content, Directory, Release, Revision:
		return true
	}
	return false
}

// ID is a typed content-addressed identifier. The zero value is not a
// valid identifier. IDs are immutable, comparable with == and usable as
// map keys.
type ID struct {
	Kind   Kind
	Digest [DigestSize]byte
}

// ParseError reports a malformed identifier.
type ParseError struct {
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid swhid %q: %s", e.Text, e.Reason)
}

// Parse parses the textual form "swh:1:<kind>:<40 hex>".
func Parse(text string) (ID, error) {
	var id ID

	rest := text
	next := func() (string, bool) {
		for i := 0; i < len(rest); i++ {
			if rest[i] == ':' {
				part := rest[:i]
				rest = rest[i+1:]
				return part, true
			}
		}
		part := rest
		rest = ""
		return part, false
	}

	scheme, more := next()
	if scheme != Scheme || !more {
		return id, &ParseError{text, "scheme must be " + Scheme}
	}
	version, more := next()
	if version != strconv.Itoa(SchemaVersion) || !more {
		return id, &ParseError{text, "unsupported schema version"}
	}
	kind, more := next()
	if !validKind(Kind(kind)) || !more {
		return id, &ParseError{text, "unknown object kind"}
	}
	if len(rest) != 2*DigestSize {
		return id, &ParseError{text, "digest must be 40 hex digits"}
	}
	raw, err := hex.DecodeString(rest)
	if err != nil {
		return id, &ParseError{text, "digest must be 40 hex digits"}
	}

	id.Kind = Kind(kind)
	copy(id.Digest[:], raw)
	return id, nil
}

// MustParse is like Parse but panics on malformed input. For tests and
// compile-time constants only.
func MustParse(text string) ID {
	id, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the textual form "swh:1:<kind>:<40 hex>".
func (id ID) String() string {
	return Scheme + ":" + strconv.Itoa(SchemaVersion) + ":" + string(id.Kind) + ":" +
		hex.EncodeToString(id.Digest[:])
}

// IsZero reports whether id is the zero (invalid) identifier.
func (id ID) IsZero() bool {
	return id.Kind == ""
}

// FromContent returns the content identifier for the given bytes.
func FromContent(data []byte) ID {
	d := NewContentDigester(int64(len(data)))
	d.Write(data)
	return d.ID()
}

// ContentDigester computes a content identifier incrementally, so that
// file bytes can be streamed through it without buffering the whole
// file. The declared size must match the number of bytes written.
type ContentDigester struct {
	h hash.Hash
}

// NewContentDigester returns a digester for a content of the given size.
func NewContentDigester(size int64) *ContentDigester {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", size)
	return &ContentDigester{h: h}
}

// Write feeds content bytes to the digest. It never fails.
func (d *ContentDigester) Write(p []byte) (int, error) {
	return d.h.Write(p)
}

// ReadFrom streams r to the digest.
func (d *ContentDigester) ReadFrom(r io.Reader) (int64, error) {
	return io.Copy(d.h, r)
}

// ID returns the content identifier for the bytes written so far.
func (d *ContentDigester) ID() ID {
	id := ID{Kind: Content}
	d.h.Sum(id.Digest[:0])
	return id
}

// DirEntry is one directory entry as seen by the directory digest: a
// raw byte name, a git file mode and the entry's identifier. Names are
// raw bytes because file systems do not guarantee any encoding.
type DirEntry struct {
	Name []byte
	Mode uint32
	ID   ID
}

// Git file modes used in directory manifests.
const (
	ModeDir     uint32 = 0o040000
	ModeFile    uint32 = 0o100644
	ModeExec    uint32 = 0o100755
	ModeSymlink uint32 = 0o120000
)

// entrySortKey is the git tree ordering key: directory names compare as
// if they carried a trailing slash.
func entrySortKey(e DirEntry) []byte {
	if e.Mode == ModeDir {
		return append(append([]byte{}, e.Name...), '/')
	}
	return e.Name
}

// FromDirectory returns the directory identifier for the given entries.
// The input order does not matter; entries are serialized in canonical
// manifest order. Recomputing over the same entries always yields the
// same identifier.
func FromDirectory(entries []DirEntry) ID {
	sorted := make([]DirEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(entrySortKey(sorted[i]), entrySortKey(sorted[j])) < 0
	})

	var manifest bytes.Buffer
	for _, e := range sorted {
		manifest.WriteString(strconv.FormatUint(uint64(e.Mode), 8))
		manifest.WriteByte(' ')
		manifest.Write(e.Name)
		manifest.WriteByte(0)
		manifest.Write(e.ID.Digest[:])
	}

	h := sha1.New()
	fmt.Fprintf(h, "tree %d\x00", manifest.Len())
	h.Write(manifest.Bytes())

	id := ID{Kind: Directory}
	h.Sum(id.Digest[:0])
	return id
}
