// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package patch

import (
	"fmt"

	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/oid"
)

// TypeName names patches in object ref paths.
const TypeName = "xyz.radicle.patch"

// MergeTarget is the branch a patch asks to be merged into.
type MergeTarget string

// Upstream is the project's default branch, as published by its
// delegates. It is the only target patches are created with.
const Upstream MergeTarget = "upstream"

// Verdict is a reviewer's conclusion about a revision.
type Verdict string

const (
	Accept Verdict = "accept"
	Reject Verdict = "reject"
	Pass   Verdict = "pass"
)

// ParseVerdict validates a verdict name.
func ParseVerdict(text string) (Verdict, error) {
	switch verdict := Verdict(text); verdict {
	case Accept, Reject, Pass:
		return verdict, nil
	}
	return "", fmt.Errorf("unknown verdict %q (want accept, reject or pass)", text)
}

// Author identifies who wrote a patch or review. Name is resolved on
// demand from the author's person document; failure to resolve it is
// never fatal.
type Author struct {
	Urn  identity.Urn
	Peer identity.PeerID
	Name identity.Lazy[string]
}

// Resolve looks up the display name once.
func (a *Author) Resolve(lookup func(identity.Urn) (string, error)) identity.LazyState {
	return a.Name.Resolve(func() (string, error) { return lookup(a.Urn) })
}

// DisplayName returns the resolved name, or the abbreviated urn.
func (a *Author) DisplayName() string {
	if name, ok := a.Name.Get(); ok && name != "" {
		return name
	}
	return a.Urn.Short()
}

// Merge records that a peer merged a revision into its copy of the
// target branch.
type Merge struct {
	Peer      identity.PeerID
	Timestamp int64
	Base      oid.Oid
}

// Review is one peer's review of a revision.
type Review struct {
	Author    Author
	Verdict   Verdict
	Timestamp int64
	Comment   string
}

// Revision is one proposed head of a patch.
type Revision struct {
	Oid       oid.Oid
	Comment   string
	Timestamp int64

	// Merges holds at most one merge per peer, in the order recorded.
	Merges []Merge

	// Reviews holds the latest review from each peer.
	Reviews map[identity.PeerID]*Review
}

// MergedBy reports whether peer merged this revision.
func (r *Revision) MergedBy(peer identity.PeerID) bool {
	for _, merge := range r.Merges {
		if merge.Peer == peer {
			return true
		}
	}
	return false
}

// Patch is the folded state of a patch object.
type Patch struct {
	Author      Author
	Title       string
	Description string
	Target      MergeTarget
	Labels      []string
	Timestamp   int64

	// Revisions is never empty once the patch is created; revision i
	// is version i.
	Revisions []Revision
}

// Version returns the number of the latest revision.
func (p *Patch) Version() int { return len(p.Revisions) - 1 }

// Latest returns the latest revision and its version.
func (p *Patch) Latest() (int, *Revision) {
	version := p.Version()
	return version, &p.Revisions[version]
}

// Head returns the commit the latest revision proposes.
func (p *Patch) Head() oid.Oid {
	_, latest := p.Latest()
	return latest.Oid
}

// IsProposed reports whether the patch is still open: it has a
// revision and its author's own peer has not merged the latest one.
func (p *Patch) IsProposed() bool {
	if len(p.Revisions) == 0 {
		return false
	}
	_, latest := p.Latest()
	return !latest.MergedBy(p.Author.Peer)
}
