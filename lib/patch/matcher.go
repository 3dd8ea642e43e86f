// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package patch

import (
	"errors"

	"github.com/bureau-foundation/rad-patch/lib/commitgraph"
	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/oid"
)

// FindUnmergedWithBase returns the store owner's open patches that
// could be updated to patchHead: nobody merged their latest revision,
// they do not already propose patchHead, and their head forks from
// targetHead at mergeBase. The result keeps store order.
func FindUnmergedWithBase(graph *commitgraph.Graph, store *Store, project identity.Urn, patchHead, targetHead, mergeBase oid.Oid) ([]Entry, error) {
	own, err := store.ProposedBy(store.Whoami().Urn, project)
	if err != nil {
		return nil, err
	}

	var matches []Entry
	for _, entry := range own {
		_, latest := entry.Patch.Latest()
		if len(latest.Merges) > 0 {
			continue
		}
		if latest.Oid == patchHead {
			continue
		}
		base, err := graph.MergeBase(latest.Oid, targetHead)
		if errors.Is(err, commitgraph.ErrNoMergeBase) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if base == mergeBase {
			matches = append(matches, entry)
		}
	}
	return matches, nil
}
