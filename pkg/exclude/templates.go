// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package exclude

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Templates lists the named pattern templates available under dir: every
// "<Name>.gitignore" file, recursively, keyed by Name. The .git and
// .github directories of a template checkout are skipped.
func Templates(dir string) (map[string]string, error) {
	templates := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", ".github":
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".gitignore") {
			name := strings.TrimSuffix(d.Name(), ".gitignore")
			templates[name] = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return templates, nil
}
