// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/SoftwareHeritage/swh-scanner/internal/config"
	"github.com/SoftwareHeritage/swh-scanner/internal/errors"
	"github.com/SoftwareHeritage/swh-scanner/internal/output"
	"github.com/SoftwareHeritage/swh-scanner/pkg/scanner"
)

// runScan executes the 'scan' CLI command: build the Merkle view of
// the working copy, ask the archive what it already holds, and render
// the per-path verdicts.
func runScan(args []string, globals GlobalFlags) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	apiURL := fs.String("api-url", "", "Archive API root (overrides the configuration)")
	outFmt := fs.StringP("output-format", "f", "text", "Output format: text, json, ndjson or summary")
	excludes := fs.StringArrayP("exclude", "x", nil, "Glob pattern to exclude (repeatable)")
	templates := fs.StringArray("exclude-template", nil, "Named exclusion template to apply (repeatable)")
	noDefaults := fs.Bool("disable-global-patterns", false, "Do not apply the built-in exclusion patterns")
	noVCS := fs.Bool("disable-vcs-patterns", false, "Do not exclude paths the VCS already ignores")
	provenanceFlag := fs.Bool("provenance", false, "Resolve provenance for known objects (needs an auth token)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: swh-scanner scan [options] [PATH]

Description:
  Scan the source tree at PATH (default: the current directory) and
  report, for every file and directory, whether the exact same object
  is already present in the Software Heritage archive. With
  --provenance, known objects are annotated with an anchoring release
  or revision and an origin URL.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  swh-scanner scan
  swh-scanner scan -x '*.o' -x 'build' ~/src/project
  swh-scanner scan --exclude-template Python -f ndjson .
  swh-scanner scan --provenance .
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}

	cfg, err := config.Load(globals.ConfigPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load the scanner configuration",
			err.Error(),
			"Check the file passed with --config, or remove it to use defaults",
			err,
		), globals.JSON)
	}

	format, err := output.ParseFormat(*outFmt)
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Invalid output format",
			err.Error(),
			"Pick one of text, json, ndjson, summary",
		), globals.JSON)
	}

	opts, err := scanOptions(cfg, globals, *apiURL, *excludes, *templates)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}
	opts.RootPath = root
	opts.NoDefaultPatterns = opts.NoDefaultPatterns || *noDefaults
	opts.NoVCSPatterns = opts.NoVCSPatterns || *noVCS
	opts.Provenance = opts.Provenance || *provenanceFlag
	opts.Progress = newBarProgress(NewProgressConfig(globals))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := scanner.Scan(ctx, opts)
	if err != nil {
		errors.FatalError(err, globals.JSON)
	}

	if err := output.Render(os.Stdout, format, res); err != nil {
		errors.FatalError(err, globals.JSON)
	}
}

// scanOptions merges the configuration file and the command line into
// scanner options. Flags win over the file.
func scanOptions(cfg *config.Config, globals GlobalFlags, apiURL string, excludes, templateNames []string) (scanner.Options, error) {
	opts := scanner.Options{
		APIURL:            cfg.WebAPI.URL,
		BearerToken:       cfg.WebAPI.AuthToken,
		NoDefaultPatterns: cfg.Scanner.DisableGlobalPatterns,
		NoVCSPatterns:     cfg.Scanner.DisableVCSPatterns,
		Provenance:        cfg.Scanner.Provenance,
		Logger:            newLogger(globals),
	}
	if apiURL != "" {
		opts.APIURL = apiURL
	}

	for _, pattern := range cfg.Scanner.Exclude {
		opts.Patterns = append(opts.Patterns, []byte(pattern))
	}
	for _, pattern := range excludes {
		opts.Patterns = append(opts.Patterns, []byte(pattern))
	}

	names := append(append([]string{}, cfg.Scanner.ExcludeTemplates...), templateNames...)
	if len(names) > 0 {
		files, err := resolveTemplates(names)
		if err != nil {
			return opts, err
		}
		opts.TemplateFiles = files
	}
	return opts, nil
}

// newLogger builds the CLI logger: warnings and up on stderr, debug
// when SWH_SCANNER_DEBUG is set.
func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelWarn
	if os.Getenv("SWH_SCANNER_DEBUG") != "" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
