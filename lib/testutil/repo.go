// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/bureau-foundation/rad-patch/lib/oid"
)

// Epoch is the committer time of the first commit in every History.
var Epoch = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

// NewRepo returns an empty in-memory repository whose HEAD is the
// symbolic ref refs/heads/master.
func NewRepo(t testing.TB) *git.Repository {
	t.Helper()
	repo, err := git.Init(memory.NewStorage(), nil)
	if err != nil {
		t.Fatalf("initializing in-memory repository: %v", err)
	}
	return repo
}

// History writes commits into a fixed set of repositories.
type History struct {
	t     testing.TB
	repos []*git.Repository
	now   *time.Time
}

// NewHistory returns a History writing into repos.
func NewHistory(t testing.TB, repos ...*git.Repository) *History {
	now := Epoch
	return &History{t: t, repos: repos, now: &now}
}

// In returns a History sharing this one's clock but writing only into
// repos.
func (h *History) In(repos ...*git.Repository) *History {
	return &History{t: h.t, repos: repos, now: h.now}
}

// Commit writes a commit with an empty tree and returns its id. The
// same message, parents and time produce the same id in every repo.
func (h *History) Commit(message string, parents ...oid.Oid) oid.Oid {
	h.t.Helper()
	when := *h.now
	*h.now = when.Add(time.Minute)

	parentHashes := make([]plumbing.Hash, len(parents))
	for i, parent := range parents {
		parentHashes[i] = Hash(h.t, parent)
	}
	signature := object.Signature{Name: "Test", Email: "test@test.local", When: when}

	var result oid.Oid
	for _, repo := range h.repos {
		treeHash := writeEmptyTree(h.t, repo)
		commit := &object.Commit{
			Author:       signature,
			Committer:    signature,
			Message:      message,
			TreeHash:     treeHash,
			ParentHashes: parentHashes,
		}
		encoded := repo.Storer.NewEncodedObject()
		if err := commit.Encode(encoded); err != nil {
			h.t.Fatalf("encoding commit %q: %v", message, err)
		}
		hash, err := repo.Storer.SetEncodedObject(encoded)
		if err != nil {
			h.t.Fatalf("storing commit %q: %v", message, err)
		}
		result = FromHash(h.t, hash)
	}
	if result.IsZero() {
		h.t.Fatalf("History.Commit(%q) with no repositories", message)
	}
	return result
}

// SetRef points name at target in repo.
func SetRef(t testing.TB, repo *git.Repository, name string, target oid.Oid) {
	t.Helper()
	ref := plumbing.NewHashReference(plumbing.ReferenceName(name), Hash(t, target))
	if err := repo.Storer.SetReference(ref); err != nil {
		t.Fatalf("setting %s: %v", name, err)
	}
}

// Checkout points refs/heads/<branch> at target and HEAD at the branch.
func Checkout(t testing.TB, repo *git.Repository, branch string, target oid.Oid) {
	t.Helper()
	SetRef(t, repo, "refs/heads/"+branch, target)
	head := plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.ReferenceName("refs/heads/"+branch))
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatalf("setting HEAD: %v", err)
	}
}

// Detach points HEAD directly at target.
func Detach(t testing.TB, repo *git.Repository, target oid.Oid) {
	t.Helper()
	head := plumbing.NewHashReference(plumbing.HEAD, Hash(t, target))
	if err := repo.Storer.SetReference(head); err != nil {
		t.Fatalf("detaching HEAD: %v", err)
	}
}

// Hash converts a 20-byte id to a go-git hash.
func Hash(t testing.TB, id oid.Oid) plumbing.Hash {
	t.Helper()
	if id.Size() != oid.SHA1Size {
		t.Fatalf("object id %s is not SHA-1", id)
	}
	var hash plumbing.Hash
	copy(hash[:], id.Bytes())
	return hash
}

// FromHash converts a go-git hash to an id.
func FromHash(t testing.TB, hash plumbing.Hash) oid.Oid {
	t.Helper()
	id, err := oid.FromBytes(hash[:])
	if err != nil {
		t.Fatalf("converting hash %s: %v", hash, err)
	}
	return id
}

func writeEmptyTree(t testing.TB, repo *git.Repository) plumbing.Hash {
	t.Helper()
	tree := &object.Tree{}
	encoded := repo.Storer.NewEncodedObject()
	if err := tree.Encode(encoded); err != nil {
		t.Fatalf("encoding empty tree: %v", err)
	}
	hash, err := repo.Storer.SetEncodedObject(encoded)
	if err != nil {
		t.Fatalf("storing empty tree: %v", err)
	}
	return hash
}

// Replicate copies every object in from into to and points toRef at
// the commit fromRef names in from, the way a fetch of a peer's ref
// would.
func Replicate(t testing.TB, from, to *git.Repository, fromRef, toRef string) {
	t.Helper()
	objects, err := from.Storer.IterEncodedObjects(plumbing.AnyObject)
	if err != nil {
		t.Fatalf("listing objects: %v", err)
	}
	err = objects.ForEach(func(obj plumbing.EncodedObject) error {
		_, err := to.Storer.SetEncodedObject(obj)
		return err
	})
	if err != nil {
		t.Fatalf("copying objects: %v", err)
	}
	ref, err := from.Reference(plumbing.ReferenceName(fromRef), true)
	if err != nil {
		t.Fatalf("reading %s: %v", fromRef, err)
	}
	if err := to.Storer.SetReference(plumbing.NewHashReference(plumbing.ReferenceName(toRef), ref.Hash())); err != nil {
		t.Fatalf("setting %s: %v", toRef, err)
	}
}
