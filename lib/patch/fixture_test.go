// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package patch

import (
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"

	"github.com/bureau-foundation/rad-patch/lib/clock"
	"github.com/bureau-foundation/rad-patch/lib/commitgraph"
	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/oid"
	"github.com/bureau-foundation/rad-patch/lib/project"
	"github.com/bureau-foundation/rad-patch/lib/reflike"
	"github.com/bureau-foundation/rad-patch/lib/testutil"
)

// world is a monorepo and working copy shared by self and one other
// tracked peer. main is a root commit A; both peers' main point at it.
type world struct {
	t        *testing.T
	monorepo *git.Repository
	working  *git.Repository
	history  *testutil.History
	clock    *clock.FakeClock
	graph    *commitgraph.Graph
	metadata project.Metadata

	self       identity.LocalIdentity
	other      identity.LocalIdentity
	selfStore  *Store
	otherStore *Store

	main oid.Oid
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{
		t:        t,
		monorepo: testutil.NewRepo(t),
		working:  testutil.NewRepo(t),
		clock:    clock.Fake(testutil.Epoch),
	}
	w.history = testutil.NewHistory(t, w.monorepo, w.working)
	w.graph = commitgraph.New(w.working, w.monorepo)

	w.self = identity.LocalIdentity{Urn: testutil.Urn(0x01), Name: "self", Signer: testutil.Signer(t, 1)}
	w.other = identity.LocalIdentity{Urn: testutil.Urn(0x02), Name: "other", Signer: testutil.Signer(t, 2)}
	w.selfStore = NewStore(w.monorepo, w.self, w.clock, nil)
	w.otherStore = NewStore(w.monorepo, w.other, w.clock, nil)

	urn := testutil.Urn(0xaa)
	err := project.Save(w.monorepo, project.Metadata{
		Urn:           urn,
		Name:          "acme",
		DefaultBranch: reflike.MustParse("main"),
		Delegates:     []identity.PeerID{w.other.Peer()},
	}, testutil.Epoch)
	if err != nil {
		t.Fatalf("saving project: %v", err)
	}

	w.main = w.history.Commit("A")
	w.setMain(w.self.Peer(), w.main)
	w.setMain(w.other.Peer(), w.main)

	w.metadata, err = project.Load(w.monorepo, urn, w.self.Peer())
	if err != nil {
		t.Fatalf("loading project: %v", err)
	}
	return w
}

func (w *world) setMain(peer identity.PeerID, tip oid.Oid) {
	w.t.Helper()
	metadata := project.Metadata{Urn: testutil.Urn(0xaa), DefaultBranch: reflike.MustParse("main")}
	testutil.SetRef(w.t, w.monorepo, TargetRef(metadata, peer, w.self.Peer()), tip)
}

func (w *world) tick() { w.clock.Advance(time.Minute) }

func (w *world) create(store *Store, title string, head oid.Oid) Entry {
	w.t.Helper()
	w.tick()
	id, err := store.Create(w.metadata.Urn, title, "", Upstream, head, nil)
	if err != nil {
		w.t.Fatalf("Create(%q): %v", title, err)
	}
	p, ok, err := store.Get(w.metadata.Urn, id)
	if err != nil || !ok {
		w.t.Fatalf("Get(%s) = %v, %v", id.Short(), ok, err)
	}
	return Entry{ID: id, Patch: p}
}
