// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commitgraph is a read-only view over the commit DAG of the
// working copy and the monorepo.
//
// Commits are looked up in the monorepo first and the working copy
// second. A patch revision recorded by another peer exists only in
// the monorepo, while an unpushed HEAD exists only in the working
// copy; graph queries between the two need both. Ref queries are
// scoped explicitly: [Graph.Head] reads the working copy,
// [Graph.Tip] and [Graph.Contains] read the monorepo.
//
// The graph algorithms load ancestry into memory. Histories are
// walked in full, which is fine for the repository sizes a single
// project's patch workflow deals with.
package commitgraph

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bureau-foundation/rad-patch/lib/monorepo"
	"github.com/bureau-foundation/rad-patch/lib/oid"
	"github.com/bureau-foundation/rad-patch/lib/reflike"
)

var (
	// ErrNotFound is returned when a ref or commit does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDetachedHead is returned by [Graph.Head] when HEAD points
	// directly at a commit instead of a branch.
	ErrDetachedHead = errors.New("HEAD is detached")

	// ErrNoMergeBase is returned when two commits share no history.
	ErrNoMergeBase = errors.New("no merge base: histories are unrelated")

	// ErrInvalidUTF8 is returned for commit text and branch names
	// that are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("not valid UTF-8")
)

// Commit is a commit's identity, parents, and message bytes.
type Commit struct {
	Oid     oid.Oid
	Parents []oid.Oid
	Author  string
	Time    time.Time
	message string
}

// Message returns the full commit message.
func (c Commit) Message() (string, error) {
	if !utf8.ValidString(c.message) {
		return "", fmt.Errorf("commit %s message: %w", c.Oid.Short(), ErrInvalidUTF8)
	}
	return c.message, nil
}

// Summary returns the first line of the message.
func (c Commit) Summary() (string, error) {
	message, err := c.Message()
	if err != nil {
		return "", err
	}
	summary, _, _ := strings.Cut(strings.TrimLeft(message, "\n"), "\n")
	return strings.TrimSpace(summary), nil
}

// Graph reads commits from a monorepo and, optionally, a working copy.
type Graph struct {
	monorepo *git.Repository
	working  *git.Repository
}

// New returns a Graph. working may be nil when only the monorepo is
// consulted, in which case Head fails with ErrNotFound.
func New(working, monorepo *git.Repository) *Graph {
	return &Graph{monorepo: monorepo, working: working}
}

// Head returns the branch HEAD points at and the commit it resolves
// to, in the working copy.
func (g *Graph) Head() (reflike.RefLike, oid.Oid, error) {
	if g.working == nil {
		return reflike.RefLike{}, oid.Oid{}, fmt.Errorf("HEAD: %w", ErrNotFound)
	}
	symbolic, err := g.working.Storer.Reference(plumbing.HEAD)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return reflike.RefLike{}, oid.Oid{}, fmt.Errorf("HEAD: %w", ErrNotFound)
		}
		return reflike.RefLike{}, oid.Oid{}, fmt.Errorf("reading HEAD: %w", err)
	}
	if symbolic.Type() != plumbing.SymbolicReference {
		return reflike.RefLike{}, oid.Oid{}, ErrDetachedHead
	}

	branch, err := reflike.Shorthand(symbolic.Target().String())
	if err != nil {
		if errors.Is(err, reflike.ErrInvalidUTF8) {
			return reflike.RefLike{}, oid.Oid{}, fmt.Errorf("HEAD branch name: %w", ErrInvalidUTF8)
		}
		return reflike.RefLike{}, oid.Oid{}, fmt.Errorf("HEAD branch name: %w", err)
	}

	head, err := g.HeadOid()
	if err != nil {
		return reflike.RefLike{}, oid.Oid{}, err
	}
	return branch, head, nil
}

// HeadOid resolves HEAD to a commit in the working copy, whether or
// not HEAD is detached.
func (g *Graph) HeadOid() (oid.Oid, error) {
	if g.working == nil {
		return oid.Oid{}, fmt.Errorf("HEAD: %w", ErrNotFound)
	}
	resolved, err := g.working.Reference(plumbing.HEAD, true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return oid.Oid{}, fmt.Errorf("HEAD has no commits: %w", ErrNotFound)
		}
		return oid.Oid{}, fmt.Errorf("resolving HEAD: %w", err)
	}
	return fromHash(resolved.Hash()), nil
}

// FindCommit returns the commit with the given id.
func (g *Graph) FindCommit(id oid.Oid) (Commit, error) {
	hash, ok := toHash(id)
	if !ok {
		return Commit{}, fmt.Errorf("commit %s: %w", id, ErrNotFound)
	}
	commit, err := g.lookup(hash)
	if err != nil {
		return Commit{}, err
	}
	return convert(commit), nil
}

// Contains reports whether the monorepo holds the object id.
func (g *Graph) Contains(id oid.Oid) (bool, error) {
	return monorepo.Contains(g.monorepo, id)
}

// Tip resolves a fully qualified ref in the monorepo. A missing ref
// returns false with a nil error.
func (g *Graph) Tip(name string) (oid.Oid, bool, error) {
	ref, err := g.monorepo.Reference(plumbing.ReferenceName(name), true)
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return oid.Oid{}, false, nil
		}
		return oid.Oid{}, false, fmt.Errorf("reading %s: %w", name, err)
	}
	return fromHash(ref.Hash()), true, nil
}

// MergeBase returns the best common ancestor of a and b. When history
// contains criss-cross merges and several best ancestors exist, the
// one with the newest committer time wins, then the smallest id.
func (g *Graph) MergeBase(a, b oid.Oid) (oid.Oid, error) {
	ancestorsA, err := g.ancestors(a, nil)
	if err != nil {
		return oid.Oid{}, err
	}
	ancestorsB, err := g.ancestors(b, nil)
	if err != nil {
		return oid.Oid{}, err
	}

	common := make(map[plumbing.Hash]*object.Commit)
	for hash, commit := range ancestorsA {
		if _, shared := ancestorsB[hash]; shared {
			common[hash] = commit
		}
	}
	// Every proper ancestor of a common commit is itself common and a
	// parent of some common commit, so removing all parents of common
	// commits leaves exactly the best candidates.
	dominated := make(map[plumbing.Hash]bool)
	for _, commit := range common {
		for _, parent := range commit.ParentHashes {
			dominated[parent] = true
		}
	}
	var best []*object.Commit
	for hash, commit := range common {
		if !dominated[hash] {
			best = append(best, commit)
		}
	}
	if len(best) == 0 {
		return oid.Oid{}, fmt.Errorf("%s and %s: %w", a.Short(), b.Short(), ErrNoMergeBase)
	}
	slices.SortFunc(best, func(x, y *object.Commit) int {
		if c := y.Committer.When.Compare(x.Committer.When); c != 0 {
			return c
		}
		return strings.Compare(x.Hash.String(), y.Hash.String())
	})
	return fromHash(best[0].Hash), nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
// A commit is its own ancestor.
func (g *Graph) IsAncestor(ancestor, descendant oid.Oid) (bool, error) {
	target, ok := toHash(ancestor)
	if !ok {
		return false, nil
	}
	found := false
	_, err := g.ancestors(descendant, func(hash plumbing.Hash) bool {
		if hash == target {
			found = true
			return false
		}
		return true
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// AheadBehind counts the commits reachable from a but not b (ahead)
// and from b but not a (behind).
func (g *Graph) AheadBehind(a, b oid.Oid) (ahead, behind uint32, err error) {
	ancestorsA, err := g.ancestors(a, nil)
	if err != nil {
		return 0, 0, err
	}
	ancestorsB, err := g.ancestors(b, nil)
	if err != nil {
		return 0, 0, err
	}
	for hash := range ancestorsA {
		if _, shared := ancestorsB[hash]; !shared {
			ahead++
		}
	}
	for hash := range ancestorsB {
		if _, shared := ancestorsA[hash]; !shared {
			behind++
		}
	}
	return ahead, behind, nil
}

// CommitsBetween yields the commits reachable from tip and not from
// base, parents before children, ties broken by committer time and
// then id. Nothing is read until the sequence is iterated.
func (g *Graph) CommitsBetween(base, tip oid.Oid) iter.Seq2[Commit, error] {
	return func(yield func(Commit, error) bool) {
		ordered, err := g.commitsBetween(base, tip)
		if err != nil {
			yield(Commit{}, err)
			return
		}
		for _, commit := range ordered {
			if !yield(convert(commit), nil) {
				return
			}
		}
	}
}

func (g *Graph) commitsBetween(base, tip oid.Oid) ([]*object.Commit, error) {
	excluded, err := g.ancestors(base, nil)
	if err != nil {
		return nil, err
	}
	included, err := g.ancestors(tip, func(hash plumbing.Hash) bool {
		_, stop := excluded[hash]
		return !stop
	})
	if err != nil {
		return nil, err
	}
	for hash := range excluded {
		delete(included, hash)
	}

	pending := make(map[plumbing.Hash]int, len(included))
	children := make(map[plumbing.Hash][]plumbing.Hash)
	var ready []*object.Commit
	for hash, commit := range included {
		for _, parent := range commit.ParentHashes {
			if _, inSet := included[parent]; inSet {
				pending[hash]++
				children[parent] = append(children[parent], hash)
			}
		}
		if pending[hash] == 0 {
			ready = append(ready, commit)
		}
	}

	ordered := make([]*object.Commit, 0, len(included))
	for len(ready) > 0 {
		slices.SortFunc(ready, func(x, y *object.Commit) int {
			if c := x.Committer.When.Compare(y.Committer.When); c != 0 {
				return c
			}
			return strings.Compare(x.Hash.String(), y.Hash.String())
		})
		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, next)
		for _, child := range children[next.Hash] {
			pending[child]--
			if pending[child] == 0 {
				ready = append(ready, included[child])
			}
		}
	}
	return ordered, nil
}

// ancestors walks the history of start breadth-first and returns
// every commit visited, start included. When visit is non-nil it is
// called for each commit before its parents are queued; returning
// false records the commit but does not walk past it.
func (g *Graph) ancestors(start oid.Oid, visit func(plumbing.Hash) bool) (map[plumbing.Hash]*object.Commit, error) {
	startHash, ok := toHash(start)
	if !ok {
		return nil, fmt.Errorf("commit %s: %w", start, ErrNotFound)
	}
	seen := make(map[plumbing.Hash]*object.Commit)
	queue := []plumbing.Hash{startHash}
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]
		if _, done := seen[hash]; done {
			continue
		}
		commit, err := g.lookup(hash)
		if err != nil {
			return nil, err
		}
		seen[hash] = commit
		if visit != nil && !visit(hash) {
			continue
		}
		queue = append(queue, commit.ParentHashes...)
	}
	return seen, nil
}

func (g *Graph) lookup(hash plumbing.Hash) (*object.Commit, error) {
	for _, repo := range []*git.Repository{g.monorepo, g.working} {
		if repo == nil {
			continue
		}
		commit, err := object.GetCommit(repo.Storer, hash)
		if err == nil {
			return commit, nil
		}
		if !errors.Is(err, plumbing.ErrObjectNotFound) {
			return nil, fmt.Errorf("reading commit %s: %w", hash, err)
		}
	}
	return nil, fmt.Errorf("commit %s: %w", hash, ErrNotFound)
}

func convert(commit *object.Commit) Commit {
	parents := make([]oid.Oid, len(commit.ParentHashes))
	for i, parent := range commit.ParentHashes {
		parents[i] = fromHash(parent)
	}
	return Commit{
		Oid:     fromHash(commit.Hash),
		Parents: parents,
		Author:  commit.Author.Name,
		Time:    commit.Committer.When,
		message: commit.Message,
	}
}

func toHash(id oid.Oid) (plumbing.Hash, bool) {
	return monorepo.Hash(id)
}

func fromHash(hash plumbing.Hash) oid.Oid {
	id, err := oid.FromBytes(hash[:])
	if err != nil {
		panic("commitgraph: go-git hash size mismatch: " + err.Error())
	}
	return id
}
