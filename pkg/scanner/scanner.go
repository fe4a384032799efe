// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scanner ties the scan together: exclusion assembly, disk
// ingestion, known discovery, and optional provenance resolution, in
// that order. The output is the ingested tree plus a node-info store
// holding what the archive said about every node.
package scanner

import (
	"context"
	"log/slog"

	"github.com/SoftwareHeritage/swh-scanner/pkg/client"
	"github.com/SoftwareHeritage/swh-scanner/pkg/exclude"
	"github.com/SoftwareHeritage/swh-scanner/pkg/ingest"
	"github.com/SoftwareHeritage/swh-scanner/pkg/nodeinfo"
	"github.com/SoftwareHeritage/swh-scanner/pkg/policy"
	"github.com/SoftwareHeritage/swh-scanner/pkg/provenance"
)

// Options configures one scan.
type Options struct {
	// RootPath is the working copy to scan.
	RootPath string

	// APIURL is the archive API root.
	APIURL string

	// BearerToken authenticates against the archive. Required for
	// provenance.
	BearerToken string

	// Patterns are extra exclusion globs.
	Patterns [][]byte

	// TemplateFiles are exclusion template files to load.
	TemplateFiles []string

	// NoDefaultPatterns disables the built-in exclusion patterns.
	NoDefaultPatterns bool

	// NoVCSPatterns disables collecting the working copy's own
	// VCS-ignored paths.
	NoVCSPatterns bool

	// Provenance enables the provenance resolution phase.
	Provenance bool

	// Progress receives step-tagged updates; NoopProgress when nil.
	Progress Progress

	Logger *slog.Logger

	// Archive overrides the API client, for tests and the local mock.
	// When nil a *client.Client is built from APIURL and BearerToken.
	Archive Archive
}

// Archive is the remote archive surface the scan needs.
type Archive interface {
	policy.Oracle
	provenance.Resolver
}

// Result is what a scan produces. The tree is immutable; the store is
// quiescent once Scan returns.
type Result struct {
	Root *ingest.Directory
	Info *nodeinfo.Store
}

// Scan runs a full scan: build the exclusion set, ingest the tree,
// discover the known state of every node, and optionally resolve
// provenance. Partial results are never returned; any error abandons
// the scan.
func Scan(ctx context.Context, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	progress := opts.Progress
	if progress == nil {
		progress = NoopProgress{}
	}

	excl, err := buildExclusions(opts, logger)
	if err != nil {
		return nil, err
	}

	progress.Begin(StepDiskScan, -1)
	ing := ingest.NewIngester(excl, logger)
	ing.SetProgress(func() { progress.Increment(StepDiskScan, 1) })
	tree, err := ing.Build(opts.RootPath)
	if err != nil {
		return nil, err
	}
	progress.End(StepDiskScan)

	info := nodeinfo.NewStore(tree, opts.Provenance)

	archive := opts.Archive
	if archive == nil {
		archive = client.New(client.Config{
			APIURL:      opts.APIURL,
			BearerToken: opts.BearerToken,
			Logger:      logger,
		})
	}

	// Always discover the known state first: it is cheap, context
	// free, and everything else needs it.
	progress.Begin(StepKnownDiscovery, tree.Size())
	pol := &policy.RandomDirSampling{
		Logger:  logger,
		OnLabel: func(n int) { progress.Increment(StepKnownDiscovery, n) },
	}
	if err := pol.Run(ctx, tree, info, archive); err != nil {
		return nil, err
	}
	progress.End(StepKnownDiscovery)

	if opts.Provenance {
		progress.Begin(StepProvenance, -1)
		err := provenance.AddProvenance(ctx, tree, info, archive,
			func(done, total int) { progress.Update(StepProvenance, done, total) },
			logger)
		if err != nil {
			return nil, err
		}
		progress.End(StepProvenance)
	}

	return &Result{Root: tree, Info: info}, nil
}

func buildExclusions(opts Options, logger *slog.Logger) (*exclude.Set, error) {
	var ignored [][]byte
	if !opts.NoVCSPatterns {
		ignored = exclude.VCSIgnored(opts.RootPath, logger)
	}
	return exclude.NewSet(exclude.Options{
		Patterns:      opts.Patterns,
		TemplateFiles: opts.TemplateFiles,
		IgnoredPaths:  ignored,
		NoDefaults:    opts.NoDefaultPatterns,
	})
}
