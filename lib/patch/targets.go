// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package patch

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bureau-foundation/rad-patch/lib/commitgraph"
	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/oid"
	"github.com/bureau-foundation/rad-patch/lib/project"
)

// ErrTargetResolutionFailed is returned when a tracked peer's default
// branch could not be read.
var ErrTargetResolutionFailed = errors.New("merge target resolution failed")

// Target is a tracked peer's default branch tip.
type Target struct {
	Peer identity.PeerID
	Oid  oid.Oid
}

// Targets partitions the tracked peers' default branches by whether
// they contain a commit. Both lists are in peer id order.
type Targets struct {
	Merged    []Target
	NotMerged []Target
}

// TargetRef returns the ref holding peer's copy of the project's
// default branch.
func TargetRef(metadata project.Metadata, peer, self identity.PeerID) string {
	branch := metadata.DefaultBranch.String()
	if peer == self {
		return metadata.Urn.Namespace() + "refs/heads/" + branch
	}
	return metadata.RemotesPrefix(peer) + "heads/" + branch
}

// FindMergeTargets reads every tracked peer's default branch and
// reports which already contain head. Peers without the branch are
// skipped.
func FindMergeTargets(graph *commitgraph.Graph, head oid.Oid, metadata project.Metadata, self identity.PeerID) (Targets, error) {
	peers := slices.Clone(metadata.TrackedPeers)
	if !slices.Contains(peers, self) {
		peers = append(peers, self)
	}
	peers = identity.SortPeers(peers)

	var targets Targets
	for _, peer := range peers {
		ref := TargetRef(metadata, peer, self)
		tip, ok, err := graph.Tip(ref)
		if err != nil {
			return Targets{}, fmt.Errorf("%w: %v", ErrTargetResolutionFailed, err)
		}
		if !ok {
			continue
		}
		merged, err := graph.IsAncestor(head, tip)
		if err != nil {
			return Targets{}, fmt.Errorf("%w: %s: %v", ErrTargetResolutionFailed, ref, err)
		}
		target := Target{Peer: peer, Oid: tip}
		if merged {
			targets.Merged = append(targets.Merged, target)
		} else {
			targets.NotMerged = append(targets.NotMerged, target)
		}
	}
	return targets, nil
}
