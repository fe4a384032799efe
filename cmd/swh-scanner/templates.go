// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	flag "github.com/spf13/pflag"

	"github.com/SoftwareHeritage/swh-scanner/internal/errors"
	"github.com/SoftwareHeritage/swh-scanner/internal/output"
	"github.com/SoftwareHeritage/swh-scanner/internal/ui"
	"github.com/SoftwareHeritage/swh-scanner/pkg/exclude"
)

// templatesDir returns the directory holding exclusion templates:
// SWH_SCANNER_TEMPLATES, or swh/exclude-templates under XDG_CONFIG_HOME
// (~/.config when unset), regardless of --config.
func templatesDir() string {
	if dir := os.Getenv("SWH_SCANNER_TEMPLATES"); dir != "" {
		return dir
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "swh", "exclude-templates")
}

// resolveTemplates maps template names to their files, failing on
// unknown names.
func resolveTemplates(names []string) ([]string, error) {
	dir := templatesDir()
	available, err := exclude.Templates(dir)
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot read the exclusion templates",
			fmt.Sprintf("Listing %s failed: %v", dir, err),
			"Install templates there, or point SWH_SCANNER_TEMPLATES at a checkout of github.com/github/gitignore",
			err,
		)
	}
	var files []string
	for _, name := range names {
		path, ok := available[name]
		if !ok {
			return nil, errors.NewInputError(
				fmt.Sprintf("Unknown exclusion template %q", name),
				fmt.Sprintf("No %s.gitignore under %s", name, dir),
				"Run 'swh-scanner templates' to list what is available",
			)
		}
		files = append(files, path)
	}
	return files, nil
}

// runTemplates executes the 'templates' CLI command: list the named
// exclusion templates usable with scan --exclude-template.
func runTemplates(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("templates", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: swh-scanner templates

Description:
  List the exclusion pattern templates available for use with
  'swh-scanner scan --exclude-template NAME'. Templates are
  *.gitignore files found under %s.
`, templatesDir())
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	available, err := exclude.Templates(templatesDir())
	if err != nil {
		if os.IsNotExist(err) {
			ui.Warning("No exclusion templates installed")
			fmt.Printf("Install some under %s\n", templatesDir())
			return
		}
		errors.FatalError(err, globals.JSON)
	}

	names := make([]string, 0, len(available))
	for name := range available {
		names = append(names, name)
	}
	sort.Strings(names)

	if globals.JSON {
		if err := output.JSON(names); err != nil {
			errors.FatalError(err, true)
		}
		return
	}
	for _, name := range names {
		fmt.Println(name)
	}
}
