// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package exclude

import (
	"bytes"
	"encoding/xml"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
)

// runVCS invokes a version control command in the given directory and
// returns its stdout. A package variable so tests can substitute canned
// subprocess output.
var runVCS = func(dir string, extraEnv []string, name string, args ...string) ([]byte, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if len(extraEnv) > 0 {
		cmd.Env = append(os.Environ(), extraEnv...)
	}
	return cmd.Output()
}

// vcsProbe ties a version control system to its on-disk marker and the
// way its ignored paths are collected.
type vcsProbe struct {
	name    string
	marker  string
	ignored func(root string, logger *slog.Logger) ([][]byte, bool)
}

var vcsProbes = []vcsProbe{
	{"git", ".git", gitIgnored},
	{"hg", ".hg", hgIgnored},
	{"svn", ".svn", svnIgnored},
}

// VCSIgnored detects which version control system manages root and
// returns the root-relative paths it ignores. A failing subprocess
// degrades to an empty result for that VCS; it never aborts the scan.
func VCSIgnored(root string, logger *slog.Logger) [][]byte {
	for _, probe := range vcsProbes {
		marker := filepath.Join(root, probe.marker)
		if info, err := os.Stat(marker); err != nil || !info.IsDir() {
			continue
		}
		debugf(logger, "exclude.vcs.detected", "vcs", probe.name, "root", root)
		paths, ok := probe.ignored(root, logger)
		if ok {
			debugf(logger, "exclude.vcs.ignored", "vcs", probe.name, "count", len(paths))
			return paths
		}
		return nil
	}
	debugf(logger, "exclude.vcs.none", "root", root)
	return nil
}

// gitIgnored parses `git status --ignored --no-renames -z`. The -z flag
// gives a stable NUL-separated output; ignored entries carry the "!!"
// status.
func gitIgnored(root string, logger *slog.Logger) ([][]byte, bool) {
	out, err := runVCS(root, nil, "git", "status", "--ignored", "--no-renames", "-z")
	if err != nil {
		debugf(logger, "exclude.vcs.error", "vcs", "git", "err", err)
		return nil, false
	}
	var paths [][]byte
	for _, line := range bytes.Split(out, []byte{0}) {
		if len(line) == 0 {
			continue
		}
		status, name, ok := bytes.Cut(line, []byte(" "))
		if !ok || !bytes.Equal(status, []byte("!!")) {
			continue
		}
		paths = append(paths, bytes.TrimSuffix(name, []byte("/")))
	}
	return paths, true
}

// hgIgnored parses `hg status --ignored --no-status -0` under HGPLAIN,
// a stable NUL-separated list of ignored paths.
func hgIgnored(root string, logger *slog.Logger) ([][]byte, bool) {
	out, err := runVCS(root, []string{"HGPLAIN=1"}, "hg", "status", "--ignored", "--no-status", "-0")
	if err != nil {
		debugf(logger, "exclude.vcs.error", "vcs", "hg", "err", err)
		return nil, false
	}
	var paths [][]byte
	for _, line := range bytes.Split(out, []byte{0}) {
		if len(line) > 0 {
			paths = append(paths, line)
		}
	}
	return paths, true
}

// svnStatus mirrors the parts of `svn status --xml` output we need.
type svnStatus struct {
	Target struct {
		Entries []struct {
			Path     string `xml:"path,attr"`
			WCStatus struct {
				Item string `xml:"item,attr"`
			} `xml:"wc-status"`
		} `xml:"entry"`
	} `xml:"target"`
}

// svnIgnored parses `svn status --no-ignore --xml`. XML is the only
// stable output format subversion offers. Subversion paths are always
// UTF-8.
func svnIgnored(root string, logger *slog.Logger) ([][]byte, bool) {
	out, err := runVCS(root, nil, "svn", "status", "--no-ignore", "--xml")
	if err != nil {
		debugf(logger, "exclude.vcs.error", "vcs", "svn", "err", err)
		return nil, false
	}
	var status svnStatus
	if err := xml.Unmarshal(out, &status); err != nil {
		debugf(logger, "exclude.vcs.error", "vcs", "svn", "err", err)
		return nil, false
	}
	var paths [][]byte
	for _, entry := range status.Target.Entries {
		if entry.WCStatus.Item == "ignored" {
			paths = append(paths, []byte(entry.Path))
		}
	}
	return paths, true
}
