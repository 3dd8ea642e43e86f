// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cob

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/bureau-foundation/rad-patch/lib/clock"
	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/testutil"
)

// checklist is a minimal object type: a titled list of items.
type checklist struct {
	Title string
	Items []string
}

type createChecklist struct {
	Title string `cbor:"title"`
}

func (createChecklist) Kind() string { return "create" }

type appendItem struct {
	Item string `cbor:"item"`
}

func (appendItem) Kind() string { return "append" }

var errEmptyItem = errors.New("empty item")

// checklistSchema rejects empty items unless permissive, which lets a
// test write history a strict reader will refuse.
type checklistSchema struct {
	permissive bool
}

func (checklistSchema) TypeName() string { return "test.checklist" }

func (s checklistSchema) Apply(object *checklist, change Change) error {
	switch change.Kind {
	case "create":
		if object.Title != "" {
			return errors.New("already created")
		}
		var payload createChecklist
		if err := change.Decode(&payload); err != nil {
			return err
		}
		if payload.Title == "" {
			return errors.New("empty title")
		}
		object.Title = payload.Title
	case "append":
		var payload appendItem
		if err := change.Decode(&payload); err != nil {
			return err
		}
		if payload.Item == "" && !s.permissive {
			return errEmptyItem
		}
		object.Items = append(object.Items, payload.Item)
	default:
		return errors.New("unknown kind " + change.Kind)
	}
	return nil
}

var project = testutil.Urn(0xaa)

type peer struct {
	repo  *git.Repository
	store *Store[checklist]
	self  identity.PeerID
}

func newPeer(t *testing.T, fill byte, clk clock.Clock, schema checklistSchema) peer {
	t.Helper()
	repo := testutil.NewRepo(t)
	signer := testutil.Signer(t, fill)
	whoami := identity.LocalIdentity{Urn: testutil.Urn(fill), Name: "peer", Signer: signer}
	return peer{repo: repo, store: NewStore[checklist](repo, schema, whoami, clk, nil), self: signer.Peer()}
}

func ownRef(id ObjectID) string {
	return project.Namespace() + "refs/cobs/test.checklist/" + id.String()
}

func remoteRef(from identity.PeerID, id ObjectID) string {
	return project.Namespace() + "refs/remotes/" + from.String() + "/cobs/test.checklist/" + id.String()
}

func TestCreateGetUpdate(t *testing.T) {
	clk := clock.Fake(testutil.Epoch)
	alice := newPeer(t, 1, clk, checklistSchema{})

	id, state, err := alice.store.Create(project, createChecklist{Title: "release"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if state.Title != "release" {
		t.Errorf("created state title = %q", state.Title)
	}

	clk.Advance(time.Second)
	if _, err := alice.store.Update(project, id, appendItem{Item: "tag"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	clk.Advance(time.Second)
	updated, err := alice.store.Update(project, id, appendItem{Item: "announce"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !slices.Equal(updated.Items, []string{"tag", "announce"}) {
		t.Errorf("updated items = %v", updated.Items)
	}

	loaded, ok, err := alice.store.Get(project, id)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if loaded.State.Title != "release" || !slices.Equal(loaded.State.Items, []string{"tag", "announce"}) {
		t.Errorf("loaded state = %+v", loaded.State)
	}
	if loaded.Created != testutil.Epoch.Unix() {
		t.Errorf("created = %d, want %d", loaded.Created, testutil.Epoch.Unix())
	}

	if _, ok, err := alice.store.Get(project, ObjectID{1}); err != nil || ok {
		t.Errorf("Get(unknown) = %v, %v; want false, nil", ok, err)
	}
}

func TestRejectedMutationWritesNothing(t *testing.T) {
	clk := clock.Fake(testutil.Epoch)
	alice := newPeer(t, 1, clk, checklistSchema{})

	if _, _, err := alice.store.Create(project, createChecklist{}); err == nil {
		t.Fatal("Create with empty title succeeded")
	}
	objects, err := alice.store.List(project)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 0 {
		t.Fatalf("rejected Create left %d objects", len(objects))
	}

	id, _, err := alice.store.Create(project, createChecklist{Title: "t"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	before := tip(t, alice.repo, ownRef(id))
	if _, err := alice.store.Update(project, id, appendItem{}); !errors.Is(err, errEmptyItem) {
		t.Fatalf("Update(empty) err = %v, want errEmptyItem", err)
	}
	if after := tip(t, alice.repo, ownRef(id)); after != before {
		t.Errorf("rejected Update moved the ref from %s to %s", before, after)
	}
}

func TestConcurrentReplicasConverge(t *testing.T) {
	clk := clock.Fake(testutil.Epoch)
	alice := newPeer(t, 1, clk, checklistSchema{})
	bob := newPeer(t, 2, clk, checklistSchema{})

	id, _, err := alice.store.Create(project, createChecklist{Title: "shared"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	testutil.Replicate(t, alice.repo, bob.repo, ownRef(id), remoteRef(alice.self, id))

	// Bob writes first in time, alice second, without seeing each other.
	clk.Advance(time.Second)
	if _, err := bob.store.Update(project, id, appendItem{Item: "from bob"}); err != nil {
		t.Fatalf("bob Update: %v", err)
	}
	clk.Advance(time.Second)
	if _, err := alice.store.Update(project, id, appendItem{Item: "from alice"}); err != nil {
		t.Fatalf("alice Update: %v", err)
	}

	testutil.Replicate(t, bob.repo, alice.repo, ownRef(id), remoteRef(bob.self, id))
	testutil.Replicate(t, alice.repo, bob.repo, ownRef(id), remoteRef(alice.self, id))

	for name, replica := range map[string]peer{"alice": alice, "bob": bob} {
		loaded, ok, err := replica.store.Get(project, id)
		if err != nil || !ok {
			t.Fatalf("%s Get = %v, %v", name, ok, err)
		}
		if want := []string{"from bob", "from alice"}; !slices.Equal(loaded.State.Items, want) {
			t.Errorf("%s sees items %v, want %v", name, loaded.State.Items, want)
		}
	}

	// A change written now has both concurrent tips as parents.
	clk.Advance(time.Second)
	if _, err := alice.store.Update(project, id, appendItem{Item: "merged"}); err != nil {
		t.Fatalf("alice Update: %v", err)
	}
	commit, err := alice.repo.CommitObject(tip(t, alice.repo, ownRef(id)))
	if err != nil {
		t.Fatalf("reading tip commit: %v", err)
	}
	if len(commit.ParentHashes) != 2 {
		t.Errorf("merge change has %d parents, want 2", len(commit.ParentHashes))
	}
}

func TestLoadSkipsRejectedChanges(t *testing.T) {
	clk := clock.Fake(testutil.Epoch)
	sloppy := newPeer(t, 1, clk, checklistSchema{permissive: true})
	strict := newPeer(t, 2, clk, checklistSchema{})

	id, _, err := sloppy.store.Create(project, createChecklist{Title: "t"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, item := range []string{"one", "", "two"} {
		clk.Advance(time.Second)
		if _, err := sloppy.store.Update(project, id, appendItem{Item: item}); err != nil {
			t.Fatalf("Update(%q): %v", item, err)
		}
	}
	testutil.Replicate(t, sloppy.repo, strict.repo, ownRef(id), remoteRef(sloppy.self, id))

	loaded, ok, err := strict.store.Get(project, id)
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if want := []string{"one", "two"}; !slices.Equal(loaded.State.Items, want) {
		t.Errorf("items = %v, want %v", loaded.State.Items, want)
	}
}

func TestListSkipsInvalidObjects(t *testing.T) {
	clk := clock.Fake(testutil.Epoch)
	alice := newPeer(t, 1, clk, checklistSchema{})

	first, _, err := alice.store.Create(project, createChecklist{Title: "first"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	clk.Advance(time.Minute)
	second, _, err := alice.store.Create(project, createChecklist{Title: "second"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A ref whose history is a plain commit has no root change.
	plain := testutil.NewHistory(t, alice.repo).Commit("not a change")
	testutil.SetRef(t, alice.repo, ownRef(ObjectID{0xee}), plain)
	// Another type's refs are ignored.
	testutil.SetRef(t, alice.repo, project.Namespace()+"refs/cobs/test.other/"+ObjectID{0xdd}.String(), plain)

	objects, err := alice.store.List(project)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(objects) != 2 || objects[0].ID != first || objects[1].ID != second {
		t.Fatalf("List = %v, want [first second] oldest first", objects)
	}

	if _, _, err := alice.store.Get(project, ObjectID{0xee}); !errors.Is(err, ErrInvalidObject) {
		t.Errorf("Get(invalid) err = %v, want ErrInvalidObject", err)
	}
}

func TestResolveID(t *testing.T) {
	clk := clock.Fake(testutil.Epoch)
	alice := newPeer(t, 1, clk, checklistSchema{})
	id, _, err := alice.store.Create(project, createChecklist{Title: "t"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, text := range []string{id.Short(), "rad:cob:" + id.String(), strings.ToUpper(id.String()[:8])} {
		identifier, err := ParseIdentifier(text)
		if err != nil {
			t.Fatalf("ParseIdentifier(%q): %v", text, err)
		}
		resolved, err := alice.store.ResolveID(project, identifier)
		if err != nil {
			t.Fatalf("ResolveID(%q): %v", text, err)
		}
		if resolved != id {
			t.Errorf("ResolveID(%q) = %s, want %s", text, resolved, id)
		}
	}

	other := "0000"
	if strings.HasPrefix(id.String(), other) {
		other = "ffff"
	}
	identifier, err := ParseIdentifier(other)
	if err != nil {
		t.Fatalf("ParseIdentifier: %v", err)
	}
	if _, err := alice.store.ResolveID(project, identifier); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveID(%s) err = %v, want ErrNotFound", other, err)
	}
}

func TestIdentifierAmbiguous(t *testing.T) {
	a := ObjectID{0xab, 0xcd, 0x01}
	b := ObjectID{0xab, 0xcd, 0x02}
	identifier, err := ParseIdentifier("abcd")
	if err != nil {
		t.Fatalf("ParseIdentifier: %v", err)
	}
	if _, err := identifier.resolve([]ObjectID{a, b}); !errors.Is(err, ErrAmbiguous) {
		t.Fatalf("err = %v, want ErrAmbiguous", err)
	}
	identifier, err = ParseIdentifier("abcd01")
	if err != nil {
		t.Fatalf("ParseIdentifier: %v", err)
	}
	if got, err := identifier.resolve([]ObjectID{a, b}); err != nil || got != a {
		t.Fatalf("resolve = %s, %v; want %s", got, err, a)
	}
}

func TestParseIdentifierRejects(t *testing.T) {
	for _, text := range []string{"", "abc", "xyz1", strings.Repeat("a", 65), "rad:cob:12"} {
		if _, err := ParseIdentifier(text); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("ParseIdentifier(%q) err = %v, want ErrInvalidIdentifier", text, err)
		}
	}
}

func TestObjectIDIsDomainSeparated(t *testing.T) {
	data := []byte("root change")
	if HashRoot(data) != HashRoot(data) {
		t.Fatal("HashRoot is not deterministic")
	}
	if HashRoot(data) == HashRoot([]byte("other change")) {
		t.Fatal("distinct roots share an id")
	}
	parsed, err := ParseObjectID(HashRoot(data).String())
	if err != nil || parsed != HashRoot(data) {
		t.Fatalf("ParseObjectID round trip = %s, %v", parsed, err)
	}
}

func tip(t *testing.T, repo *git.Repository, name string) plumbing.Hash {
	t.Helper()
	ref, err := repo.Reference(plumbing.ReferenceName(name), true)
	if err != nil {
		t.Fatalf("reading %s: %v", name, err)
	}
	return ref.Hash()
}
