// Copyright 2026 The Software Heritage developers
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package policy decides the known state of every node of a scanned
// tree while issuing as few archive queries as it can.
//
// The one policy implemented is random directory sampling. It leans on
// the Merkle structure: a directory the archive knows implies it knows
// the whole subtree, so one positive directory probe can settle
// thousands of nodes, while a negative probe settles only the
// directory itself. Contents are only queried at the end, for the
// parts of the tree no positive directory probe covered.
package policy

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"

	"github.com/SoftwareHeritage/swh-scanner/pkg/ingest"
	"github.com/SoftwareHeritage/swh-scanner/pkg/nodeinfo"
	"github.com/SoftwareHeritage/swh-scanner/pkg/swhid"
)

// SampleSize is the default number of directories probed per sampling
// round, aligned with the known endpoint's batch ceiling.
const SampleSize = 1000

// Oracle answers batched "does the archive hold this object" queries.
// *client.Client implements it.
type Oracle interface {
	Known(ctx context.Context, ids []swhid.ID) (map[swhid.ID]bool, error)
}

// RandomDirSampling labels every node of a tree by probing random
// directories first and falling back to content batches for whatever
// the directory probes left open.
type RandomDirSampling struct {
	// Sample bounds the directories probed per round; SampleSize when
	// zero.
	Sample int

	// OnLabel, when set, is invoked with the number of nodes newly
	// labeled after each state change. Used for progress reporting.
	OnLabel func(n int)

	Logger *slog.Logger
}

// Run labels every node of tree in info. On return without error,
// every node has a decided known state, and no content below a known
// directory was ever sent to the oracle.
func (p *RandomDirSampling) Run(ctx context.Context, tree *ingest.Directory, info *nodeinfo.Store, oracle Oracle) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sample := p.Sample
	if sample <= 0 {
		sample = SampleSize
	}

	// Candidate directories, grouped by identifier: identical subtrees
	// appear once per path in the tree but must be probed only once.
	candidates := make(map[swhid.ID][]*ingest.Directory)
	var order []swhid.ID
	for _, dir := range tree.Directories() {
		if _, dup := candidates[dir.ID()]; !dup {
			order = append(order, dir.ID())
		}
		candidates[dir.ID()] = append(candidates[dir.ID()], dir)
	}

	rounds := 0
	for len(order) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := drawSample(order, sample)
		if err != nil {
			return err
		}
		rounds++
		logger.Debug("policy.sample", "round", rounds, "batch", len(batch), "pending", len(order))

		res, err := oracle.Known(ctx, batch)
		if err != nil {
			return err
		}

		settled := make(map[swhid.ID]bool, len(batch))
		for _, id := range batch {
			if res[id] {
				// Positive proof covers the whole subtree, in every
				// path it occurs at.
				for _, dir := range candidates[id] {
					p.markSubtree(dir, info, settled)
				}
			} else {
				// A negative directory probe settles nothing else:
				// children may still be known individually.
				if _, done := info.Known(id); !done {
					info.SetKnown(id, false)
					p.labeled(1)
				}
				settled[id] = true
			}
		}

		next := order[:0]
		for _, id := range order {
			if settled[id] {
				delete(candidates, id)
			} else {
				next = append(next, id)
			}
		}
		order = next
	}

	// Contents phase: whatever no directory probe covered. The oracle
	// chunks full batches itself.
	pending := p.undecidedContents(tree, info)
	if len(pending) > 0 {
		logger.Debug("policy.contents", "count", len(pending))
		res, err := oracle.Known(ctx, pending)
		if err != nil {
			return err
		}
		for _, id := range pending {
			info.SetKnown(id, res[id])
			p.labeled(1)
		}
	}

	logger.Info("policy.done", "rounds", rounds, "contents_queried", len(pending))
	return nil
}

// markSubtree labels dir and every descendant known, recording which
// directory identifiers that settles.
func (p *RandomDirSampling) markSubtree(dir *ingest.Directory, info *nodeinfo.Store, settled map[swhid.ID]bool) {
	n := 0
	dir.Walk(func(node ingest.Node) bool {
		if _, done := info.Known(node.ID()); !done {
			n++
		}
		info.SetKnown(node.ID(), true)
		if _, isDir := node.(*ingest.Directory); isDir {
			settled[node.ID()] = true
		}
		return true
	})
	p.labeled(n)
}

// undecidedContents returns the distinct identifiers of contents still
// unlabeled after the directory rounds.
func (p *RandomDirSampling) undecidedContents(tree *ingest.Directory, info *nodeinfo.Store) []swhid.ID {
	seen := make(map[swhid.ID]bool)
	var out []swhid.ID
	for _, c := range tree.Contents() {
		id := c.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, done := info.Known(id); !done {
			out = append(out, id)
		}
	}
	return out
}

func (p *RandomDirSampling) labeled(n int) {
	if p.OnLabel != nil && n > 0 {
		p.OnLabel(n)
	}
}

// drawSample takes up to size elements uniformly without replacement,
// using the system CSPRNG. When everything fits in one batch the whole
// set is queried as is.
func drawSample(ids []swhid.ID, size int) ([]swhid.ID, error) {
	if len(ids) <= size {
		out := make([]swhid.ID, len(ids))
		copy(out, ids)
		return out, nil
	}
	// Partial Fisher-Yates over the prefix we keep.
	for i := 0; i < size; i++ {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(len(ids)-i)))
		if err != nil {
			return nil, err
		}
		k := i + int(j.Int64())
		ids[i], ids[k] = ids[k], ids[i]
	}
	out := make([]swhid.ID, size)
	copy(out, ids[:size])
	return out, nil
}
