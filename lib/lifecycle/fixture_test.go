// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"bytes"
	"context"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"

	"github.com/bureau-foundation/rad-patch/lib/clock"
	"github.com/bureau-foundation/rad-patch/lib/commitgraph"
	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/oid"
	"github.com/bureau-foundation/rad-patch/lib/patch"
	"github.com/bureau-foundation/rad-patch/lib/project"
	"github.com/bureau-foundation/rad-patch/lib/reflike"
	"github.com/bureau-foundation/rad-patch/lib/term"
	"github.com/bureau-foundation/rad-patch/lib/testutil"
)

// world is a monorepo and a working copy for a project tracked by two
// peers, self and other (a delegate). Both peers' main point at the
// root commit A. The working copy has feature checked out at A.
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
	selfStore  *patch.Store
	otherStore *patch.Store

	output   *bytes.Buffer
	editor   *term.ScriptedEditor
	prompter term.Prompter
	syncer   *recordingSyncer

	main oid.Oid
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{
		t:        t,
		monorepo: testutil.NewRepo(t),
		working:  testutil.NewRepo(t),
		clock:    clock.Fake(testutil.Epoch),
		output:   &bytes.Buffer{},
		editor:   &term.ScriptedEditor{},
		prompter: term.Always(true),
		syncer:   &recordingSyncer{},
	}
	w.history = testutil.NewHistory(t, w.monorepo, w.working)
	w.graph = commitgraph.New(w.working, w.monorepo)

	w.self = identity.LocalIdentity{Urn: testutil.Urn(0x01), Name: "self", Signer: testutil.Signer(t, 1)}
	w.other = identity.LocalIdentity{Urn: testutil.Urn(0x02), Name: "other", Signer: testutil.Signer(t, 2)}
	w.selfStore = patch.NewStore(w.monorepo, w.self, w.clock, nil)
	w.otherStore = patch.NewStore(w.monorepo, w.other, w.clock, nil)

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
	for _, person := range []identity.LocalIdentity{w.self, w.other} {
		if err := project.SavePerson(w.monorepo, project.Person{Urn: person.Urn, Name: person.Name}, testutil.Epoch); err != nil {
			t.Fatalf("saving person %s: %v", person.Name, err)
		}
	}

	w.main = w.history.Commit("A")
	w.setMain(w.self.Peer(), w.main)
	w.setMain(w.other.Peer(), w.main)
	for _, person := range []identity.LocalIdentity{w.self, w.other} {
		if err := project.SetPeerPerson(w.monorepo, urn, person.Peer(), w.self.Peer(), person.Urn); err != nil {
			t.Fatalf("linking peer person %s: %v", person.Name, err)
		}
	}
	testutil.Checkout(t, w.working, "feature", w.main)

	w.metadata, err = project.Load(w.monorepo, urn, w.self.Peer())
	if err != nil {
		t.Fatalf("loading project: %v", err)
	}
	return w
}

func (w *world) controller() *Controller {
	return New(Config{
		Identity: w.self,
		Project:  w.metadata,
		Monorepo: w.monorepo,
		Graph:    w.graph,
		Patches:  w.selfStore,
		Terminal: term.NewPlain(w.output, w.clock),
		Prompter: w.prompter,
		Editor:   w.editor,
		Syncer:   w.syncer,
	})
}

func (w *world) propose(options Options) error {
	w.t.Helper()
	w.clock.Advance(time.Minute)
	return w.controller().Propose(context.Background(), options)
}

func (w *world) setMain(peer identity.PeerID, tip oid.Oid) {
	w.t.Helper()
	metadata := project.Metadata{Urn: testutil.Urn(0xaa), DefaultBranch: reflike.MustParse("main")}
	testutil.SetRef(w.t, w.monorepo, patch.TargetRef(metadata, peer, w.self.Peer()), tip)
}

// commit writes a commit into both repositories, as if pushed, and
// moves feature to it.
func (w *world) commit(message string, parent oid.Oid) oid.Oid {
	w.t.Helper()
	id := w.history.Commit(message, parent)
	testutil.Checkout(w.t, w.working, "feature", id)
	return id
}

// writes sets the editor to replace the buffer with text.
func (w *world) writes(text string) {
	w.editor.Func = func(string) string { return text }
}

func (w *world) patches() []patch.Entry {
	w.t.Helper()
	entries, err := w.selfStore.List(w.metadata.Urn)
	if err != nil {
		w.t.Fatalf("listing patches: %v", err)
	}
	return entries
}

func noSync() Options {
	return Options{Comment: term.Comment{Mode: term.CommentBlank}}
}

type syncCall struct {
	branch  reflike.RefLike
	verbose bool
}

type recordingSyncer struct {
	calls []syncCall
	err   error
}

func (s *recordingSyncer) Sync(_ context.Context, branch reflike.RefLike, verbose bool) error {
	s.calls = append(s.calls, syncCall{branch, verbose})
	return s.err
}
