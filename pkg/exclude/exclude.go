// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package exclude decides which paths of a working copy the scanner
// must not look at.
//
// An exclusion set composes four sources: user-provided glob patterns,
// named pattern template files, paths the working copy's own version
// control system already ignores, and a built-in default list. A path
// is excluded as soon as any pattern matches; there is no precedence
// between sources.
//
// Patterns and paths are raw bytes throughout. File names carry no
// encoding guarantee, so matching anything through a string conversion
// could silently change what gets scanned.
package exclude

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
)

// defaultPatterns is the built-in exclusion list: VCS bookkeeping and
// common build or cache residue. Each pattern is also applied with a
// leading "*/" so it matches at any depth.
var defaultPatterns = [][]byte{
	[]byte(".bzr"),
	[]byte(".coverage"),
	[]byte("*.egg-info"),
	[]byte(".eggs"),
	[]byte(".git"),
	[]byte(".hg"),
	[]byte(".mypy_cache"),
	[]byte("__pycache__"),
	[]byte(".svn"),
	[]byte(".tox"),
}

// DefaultPatterns returns the built-in exclusion patterns, including
// the "*/"-prefixed variants.
func DefaultPatterns() [][]byte {
	out := make([][]byte, 0, 2*len(defaultPatterns))
	for _, p := range defaultPatterns {
		out = append(out, p)
	}
	for _, p := range defaultPatterns {
		out = append(out, append([]byte("*/"), p...))
	}
	return out
}

// Options selects the sources an exclusion set is built from.
type Options struct {
	// Patterns are user-provided glob patterns (CLI or config file).
	Patterns [][]byte

	// TemplateFiles are paths to pattern template files, one glob per
	// line, '#' starting a comment.
	TemplateFiles []string

	// IgnoredPaths are literal root-relative paths to exclude, together
	// with everything below them. Typically the output of VCSIgnored.
	IgnoredPaths [][]byte

	// NoDefaults leaves out the built-in default patterns.
	NoDefaults bool
}

// Set is a compiled exclusion set. Built once per scan, then consulted
// read-only by the disk ingester.
type Set struct {
	patterns []pattern
	paths    map[string]struct{}
}

// NewSet builds an exclusion set from the given sources. Template files
// that cannot be read or patterns that fail to compile are reported as
// errors; a scan must not silently run with a partial exclusion set.
func NewSet(opts Options) (*Set, error) {
	s := &Set{paths: make(map[string]struct{})}

	add := func(raw []byte) error {
		p, err := compile(raw)
		if err != nil {
			return err
		}
		s.patterns = append(s.patterns, p)
		return nil
	}

	for _, raw := range opts.Patterns {
		if err := add(raw); err != nil {
			return nil, err
		}
	}
	for _, file := range opts.TemplateFiles {
		patterns, err := ParseTemplate(file)
		if err != nil {
			return nil, err
		}
		for _, raw := range patterns {
			if err := add(raw); err != nil {
				return nil, fmt.Errorf("template %s: %w", file, err)
			}
		}
	}
	if !opts.NoDefaults {
		for _, raw := range DefaultPatterns() {
			if err := add(raw); err != nil {
				return nil, err
			}
		}
	}
	for _, p := range opts.IgnoredPaths {
		s.paths[string(bytes.TrimSuffix(p, []byte("/")))] = struct{}{}
	}
	return s, nil
}

// Len returns the number of compiled patterns plus literal paths.
func (s *Set) Len() int {
	return len(s.patterns) + len(s.paths)
}

// Excluded reports whether the root-relative path (forward slashes, no
// leading "./") is excluded. Matching is linear in the number of
// patterns.
func (s *Set) Excluded(relpath []byte) bool {
	if len(relpath) == 0 {
		return false
	}
	for _, p := range s.patterns {
		if p.match(relpath) {
			return true
		}
	}
	if len(s.paths) > 0 {
		if _, ok := s.paths[string(relpath)]; ok {
			return true
		}
		// An ignored directory excludes everything below it.
		for i, c := range relpath {
			if c == '/' {
				if _, ok := s.paths[string(relpath[:i])]; ok {
					return true
				}
			}
		}
	}
	return false
}

// ParseTemplate reads a pattern template file: one glob per line, blank
// lines and '#' comment lines skipped.
func ParseTemplate(path string) ([][]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exclusion template: %w", err)
	}
	var patterns [][]byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, nil
}

func debugf(logger *slog.Logger, msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}
