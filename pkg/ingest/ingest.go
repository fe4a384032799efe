// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ingest

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/SoftwareHeritage/swh-scanner/pkg/exclude"
	"github.com/SoftwareHeritage/swh-scanner/pkg/swhid"
)

// Ingester walks a scan root and produces its Merkle tree.
type Ingester struct {
	excl   *exclude.Set
	logger *slog.Logger
	onNode func()
}

// NewIngester creates an ingester using the given exclusion set. A nil
// set excludes nothing.
func NewIngester(excl *exclude.Set, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{excl: excl, logger: logger}
}

// SetProgress registers a callback invoked once per ingested node.
func (ing *Ingester) SetProgress(onNode func()) {
	ing.onNode = onNode
}

// Build walks root depth-first and returns its Merkle tree. Symlinks
// are never followed: a symlink becomes a content whose bytes are the
// link target, the way the archive models them. Every node has its
// identifier assigned on return.
//
// A file that cannot be read fails the whole build. Skipping it
// silently would produce a directory digest that does not correspond
// to any real directory state.
func (ing *Ingester) Build(root string) (*Directory, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Lstat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", abs)
	}

	ing.logger.Info("ingest.start", "root", abs)
	dir, err := ing.buildDir(abs, abs)
	if err != nil {
		return nil, err
	}
	ing.logger.Info("ingest.done", "root", abs, "nodes", dir.Size())
	return dir, nil
}

func (ing *Ingester) buildDir(root, dirPath string) (*Directory, error) {
	dir := &Directory{AbsPath: []byte(dirPath)}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		childPath := filepath.Join(dirPath, entry.Name())
		if ing.excluded(root, childPath) {
			ing.logger.Debug("ingest.excluded", "path", childPath)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return nil, err
		}

		var child Node
		switch {
		case info.IsDir():
			sub, err := ing.buildDir(root, childPath)
			if err != nil {
				return nil, err
			}
			child = sub
		case info.Mode()&fs.ModeSymlink != 0:
			c, err := ing.buildSymlink(childPath)
			if err != nil {
				return nil, err
			}
			child = c
		case info.Mode().IsRegular():
			c, err := ing.buildFile(childPath, info)
			if err != nil {
				return nil, err
			}
			child = c
		default:
			// Sockets, fifos and devices have no archive object kind.
			ing.logger.Debug("ingest.skipped.irregular", "path", childPath, "mode", info.Mode().String())
			continue
		}
		dir.add([]byte(entry.Name()), child)
	}

	dir.seal()
	ing.tick()
	return dir, nil
}

// buildFile streams the file through a content digester; only one
// read buffer is live per file, never the whole tree.
func (ing *Ingester) buildFile(path string, info fs.FileInfo) (*Content, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := swhid.NewContentDigester(info.Size())
	written, err := d.ReadFrom(f)
	if err != nil {
		return nil, &fs.PathError{Op: "read", Path: path, Err: err}
	}
	if written != info.Size() {
		// The file changed under us; the digest header is already
		// wrong, so the identifier would not match the archive's.
		return nil, &fs.PathError{Op: "read", Path: path, Err: fmt.Errorf("size changed during scan: stat %d, read %d", info.Size(), written)}
	}

	mode := swhid.ModeFile
	if info.Mode().Perm()&0o111 != 0 {
		mode = swhid.ModeExec
	}

	ing.tick()
	return &Content{
		SWHID:   d.ID(),
		AbsPath: []byte(path),
		Size:    info.Size(),
		Mode:    mode,
	}, nil
}

func (ing *Ingester) buildSymlink(path string) (*Content, error) {
	target, err := os.Readlink(path)
	if err != nil {
		return nil, err
	}
	ing.tick()
	return &Content{
		SWHID:   swhid.FromContent([]byte(target)),
		AbsPath: []byte(path),
		Size:    int64(len(target)),
		Mode:    swhid.ModeSymlink,
	}, nil
}

func (ing *Ingester) excluded(root, path string) bool {
	if ing.excl == nil {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return ing.excl.Excluded([]byte(filepath.ToSlash(rel)))
}

func (ing *Ingester) tick() {
	if ing.onNode != nil {
		ing.onNode()
	}
}
