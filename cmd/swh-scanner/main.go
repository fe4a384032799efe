// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

// swh-scanner checks which parts of a source tree are already archived
// by Software Heritage.
//
// Usage:
//
//	swh-scanner scan [PATH]         Scan a working copy
//	swh-scanner templates           List available exclusion templates
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/SoftwareHeritage/swh-scanner/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags are the flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
	Quiet      bool
	NoColor    bool
	JSON       bool
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to the configuration file (default: ~/.config/swh/global.yml)")
		quiet       = flag.Bool("q", false, "Suppress progress output")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
		jsonMode    = flag.Bool("json", false, "Machine-readable error output")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `swh-scanner - Software Heritage source code scanner

Usage:
  swh-scanner [global options] <command> [options]

Commands:
  scan          Scan a working copy against the archive
  templates     List available exclusion pattern templates

Global Options:
  --config      Path to the configuration file
  --no-color    Disable colored output
  --json        Machine-readable error output
  -q            Suppress progress output
  --version     Show version and exit

Examples:
  swh-scanner scan .
  swh-scanner scan --provenance ~/src/project
  swh-scanner scan -f json . > scan.json

Configuration:
  The configuration is read from ~/.config/swh/global.yml and can set
  the archive URL, an authentication token and default exclusions.

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("swh-scanner version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := GlobalFlags{
		ConfigPath: *configPath,
		Quiet:      *quiet,
		NoColor:    *noColor,
		JSON:       *jsonMode,
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "scan":
		runScan(cmdArgs, globals)
	case "templates":
		runTemplates(cmdArgs, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
