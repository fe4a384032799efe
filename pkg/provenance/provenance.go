// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package provenance attaches an anchoring release or revision and an
// origin URL to the known parts of a scanned tree.
//
// The resolver walks the boundary between the unknown and known parts
// of the tree: it asks the archive about the shallowest known subtree
// roots first, and only descends into a subtree when the archive has
// no answer for its root. Answers for a directory are propagated to
// the whole subtree, so most nodes never cost a query. Provenance is
// best effort; nodes can end up without it.
package provenance

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/SoftwareHeritage/swh-scanner/pkg/client"
	"github.com/SoftwareHeritage/swh-scanner/pkg/ingest"
	"github.com/SoftwareHeritage/swh-scanner/pkg/nodeinfo"
	"github.com/SoftwareHeritage/swh-scanner/pkg/swhid"
)

// Resolver answers batched provenance queries. *client.Client
// implements it.
type Resolver interface {
	WhereAre(ctx context.Context, ids []swhid.ID) ([]*swhid.Qualified, error)
}

// AddProvenance resolves provenance for the known subtrees of tree and
// records it in info. onProgress, when non-nil, receives (done, total)
// query counts as the walk advances.
//
// The same identifier appearing under several paths is queried once;
// the answer lands on every occurrence through the store.
func AddProvenance(ctx context.Context, tree *ingest.Directory, info *nodeinfo.Store, rsv Resolver, onProgress func(done, total int), logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	progress := onProgress
	if progress == nil {
		progress = func(int, int) {}
	}

	seen := make(map[ingest.Node]bool)
	boundary := make(map[swhid.ID][]ingest.Node)
	totalQueries, doneQueries := 0, 0

	// Initial boundary: the shallowest nodes that are known or still
	// undecided. Descending stops at them; their descendants are
	// shadowed.
	walkQueue := []ingest.Node{tree}
	for len(walkQueue) > 0 {
		node := walkQueue[len(walkQueue)-1]
		walkQueue = walkQueue[:len(walkQueue)-1]
		if seen[node] {
			continue
		}
		seen[node] = true

		known, decided := info.Known(node.ID())
		if !decided || known {
			if len(boundary[node.ID()]) == 0 {
				totalQueries++
			}
			boundary[node.ID()] = append(boundary[node.ID()], node)
		} else if dir, ok := node.(*ingest.Directory); ok {
			for _, e := range dir.Entries() {
				walkQueue = append(walkQueue, e.Node)
			}
		}
	}

	progress(doneQueries, totalQueries)
	for len(boundary) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		ids := make([]swhid.ID, 0, len(boundary))
		for id := range boundary {
			ids = append(ids, id)
		}
		answers, err := whereAreAll(ctx, rsv, ids)
		if err != nil {
			return err
		}

		next := make(map[swhid.ID][]ingest.Node)
		for i, id := range ids {
			doneQueries++
			qualified := answers[i]
			for _, node := range boundary[id] {
				switch {
				case qualified != nil:
					info.SetProvenance(id, qualified)
					if dir, ok := node.(*ingest.Directory); ok {
						dir.Walk(func(sub ingest.Node) bool {
							if seen[sub] {
								return true
							}
							seen[sub] = true
							info.SetProvenance(sub.ID(), qualified)
							return true
						})
					}
				default:
					// No answer: a directory hands the question down
					// to its children; a content is terminally
					// unresolved.
					if dir, ok := node.(*ingest.Directory); ok {
						for _, e := range dir.Entries() {
							if seen[e.Node] {
								continue
							}
							seen[e.Node] = true
							if len(next[e.Node.ID()]) == 0 {
								totalQueries++
							}
							next[e.Node.ID()] = append(next[e.Node.ID()], e.Node)
						}
					}
				}
			}
			progress(doneQueries, totalQueries)
		}
		boundary = next
	}

	logger.Info("provenance.done", "queries", doneQueries)
	return nil
}

// whereAreAll fans the identifiers out in batches of at most
// client.MaxWhereAreBatch, bounded by the provenance concurrency
// ceiling, and reassembles one answer per input.
func whereAreAll(ctx context.Context, rsv Resolver, ids []swhid.ID) ([]*swhid.Qualified, error) {
	answers := make([]*swhid.Qualified, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(client.MaxConcurrentProvenanceQueries)
	for start := 0; start < len(ids); start += client.MaxWhereAreBatch {
		start := start
		chunk := ids[start:min(start+client.MaxWhereAreBatch, len(ids))]
		g.Go(func() error {
			res, err := rsv.WhereAre(gctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			copy(answers[start:], res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return answers, nil
}
