// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package project

import (
	git "github.com/go-git/go-git/v5"

	"github.com/bureau-foundation/rad-patch/lib/identity"
)

// PeerInfo is what the terminal shows about a peer: a display name
// and the badges that apply to it.
type PeerInfo struct {
	ID       identity.PeerID
	Person   identity.Lazy[Person]
	Delegate bool
	Self     bool
}

// GetPeerInfo gathers display information for peer. Looking up the
// peer's person document is best effort; a peer that never published
// one is shown by its short id.
func GetPeerInfo(repo *git.Repository, peer identity.PeerID, metadata Metadata, self identity.PeerID) PeerInfo {
	info := PeerInfo{
		ID:       peer,
		Delegate: metadata.IsDelegate(peer),
		Self:     peer == self,
	}
	info.Person.Resolve(func() (Person, error) {
		return PeerPerson(repo, metadata.Urn, peer, self)
	})
	return info
}

// Name returns the person's name, or the short peer id.
func (p *PeerInfo) Name() string {
	if person, ok := p.Person.Get(); ok && person.Name != "" {
		return person.Name
	}
	return p.ID.Short()
}
