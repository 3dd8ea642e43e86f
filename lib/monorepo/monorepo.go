// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package monorepo reads and writes the objects and refs of a peer's
// monorepo: the bare git repository holding every project, identity
// document and collaborative object the peer knows about.
//
// Writes follow the same discipline everywhere: objects are content
// addressed and invisible until a ref points at them, and refs move
// only through [CompareAndSwap].
package monorepo

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage"

	"github.com/bureau-foundation/rad-patch/lib/oid"
)

var (
	// ErrNotFound is returned when a ref, commit, or tree entry does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by CompareAndSwap when the ref moved
	// since the caller read it.
	ErrConflict = errors.New("ref changed concurrently")
)

// Open opens the monorepo at path.
func Open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("monorepo %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("opening monorepo %s: %w", path, err)
	}
	return repo, nil
}

// Entry is one file in a flat tree.
type Entry struct {
	Name string
	Data []byte
}

// WriteCommit stores entries as blobs in a flat tree and writes a
// commit over it. Nothing is visible until a ref is moved to the
// returned hash.
func WriteCommit(repo *git.Repository, entries []Entry, parents []plumbing.Hash, signature object.Signature, message string) (plumbing.Hash, error) {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })

	tree := &object.Tree{}
	for _, entry := range sorted {
		hash, err := writeBlob(repo, entry.Data)
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("writing %s: %w", entry.Name, err)
		}
		tree.Entries = append(tree.Entries, object.TreeEntry{
			Name: entry.Name,
			Mode: filemode.Regular,
			Hash: hash,
		})
	}
	treeHash, err := store(repo, tree)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("writing tree: %w", err)
	}

	commit := &object.Commit{
		Author:       signature,
		Committer:    signature,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	}
	hash, err := store(repo, commit)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("writing commit: %w", err)
	}
	return hash, nil
}

// ReadFile returns the content of the named entry in the commit's
// root tree.
func ReadFile(repo *git.Repository, commitHash plumbing.Hash, name string) ([]byte, error) {
	commit, err := object.GetCommit(repo.Storer, commitHash)
	if err != nil {
		if errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("commit %s: %w", commitHash, ErrNotFound)
		}
		return nil, fmt.Errorf("reading commit %s: %w", commitHash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", commitHash, err)
	}
	entry, err := tree.FindEntry(name)
	if err != nil {
		if errors.Is(err, object.ErrEntryNotFound) {
			return nil, fmt.Errorf("%s in %s: %w", name, commitHash, ErrNotFound)
		}
		return nil, fmt.Errorf("finding %s in %s: %w", name, commitHash, err)
	}
	blob, err := object.GetBlob(repo.Storer, entry.Hash)
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", name, err)
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("opening blob %s: %w", name, err)
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// Resolve returns the hash a fully qualified ref points at.
func Resolve(repo *git.Repository, name string) (plumbing.Hash, error) {
	ref, err := repo.Reference(plumbing.ReferenceName(name), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return plumbing.ZeroHash, fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return plumbing.ZeroHash, fmt.Errorf("reading %s: %w", name, err)
	}
	return ref.Hash(), nil
}

// CompareAndSwap points name at next if it currently points at
// previous. A zero previous requires that name does not exist yet.
func CompareAndSwap(repo *git.Repository, name string, next, previous plumbing.Hash) error {
	refName := plumbing.ReferenceName(name)
	current, err := repo.Storer.Reference(refName)
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		if !previous.IsZero() {
			return fmt.Errorf("%s was deleted, expected %s: %w", name, previous, ErrConflict)
		}
	case err != nil:
		return fmt.Errorf("reading %s: %w", name, err)
	case previous.IsZero():
		return fmt.Errorf("%s already exists at %s: %w", name, current.Hash(), ErrConflict)
	case current.Hash() != previous:
		return fmt.Errorf("%s is at %s, expected %s: %w", name, current.Hash(), previous, ErrConflict)
	}

	var old *plumbing.Reference
	if !previous.IsZero() {
		old = plumbing.NewHashReference(refName, previous)
	}
	err = repo.Storer.CheckAndSetReference(plumbing.NewHashReference(refName, next), old)
	if errors.Is(err, storage.ErrReferenceHasChanged) {
		return fmt.Errorf("%s: %w", name, ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("updating %s: %w", name, err)
	}
	return nil
}

// Hash converts a commit id to a go-git hash. Ids of another size
// have no go-git form and return false.
func Hash(id oid.Oid) (plumbing.Hash, bool) {
	var hash plumbing.Hash
	if id.Size() != len(hash) {
		return hash, false
	}
	copy(hash[:], id.Bytes())
	return hash, true
}

// Contains reports whether the repository holds the object id.
func Contains(repo *git.Repository, id oid.Oid) (bool, error) {
	hash, ok := Hash(id)
	if !ok {
		return false, nil
	}
	err := repo.Storer.HasEncodedObject(hash)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("looking up %s: %w", id.Short(), err)
}

// Refs returns every hash ref whose name starts with prefix, keyed by
// full name.
func Refs(repo *git.Repository, prefix string) (map[string]plumbing.Hash, error) {
	iter, err := repo.References()
	if err != nil {
		return nil, fmt.Errorf("listing refs: %w", err)
	}
	defer iter.Close()

	refs := make(map[string]plumbing.Hash)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() != plumbing.HashReference {
			return nil
		}
		if name := ref.Name().String(); strings.HasPrefix(name, prefix) {
			refs[name] = ref.Hash()
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing refs under %s: %w", prefix, err)
	}
	return refs, nil
}

func writeBlob(repo *git.Repository, data []byte) (plumbing.Hash, error) {
	encoded := repo.Storer.NewEncodedObject()
	encoded.SetType(plumbing.BlobObject)
	encoded.SetSize(int64(len(data)))
	writer, err := encoded.Writer()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if _, err := writer.Write(data); err != nil {
		writer.Close()
		return plumbing.ZeroHash, err
	}
	if err := writer.Close(); err != nil {
		return plumbing.ZeroHash, err
	}
	return repo.Storer.SetEncodedObject(encoded)
}

type encoder interface {
	Encode(plumbing.EncodedObject) error
}

func store(repo *git.Repository, obj encoder) (plumbing.Hash, error) {
	encoded := repo.Storer.NewEncodedObject()
	if err := obj.Encode(encoded); err != nil {
		return plumbing.ZeroHash, err
	}
	return repo.Storer.SetEncodedObject(encoded)
}
