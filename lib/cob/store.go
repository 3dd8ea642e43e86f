// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cob

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bureau-foundation/rad-patch/lib/clock"
	"github.com/bureau-foundation/rad-patch/lib/codec"
	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/monorepo"
	"github.com/bureau-foundation/rad-patch/lib/oid"
)

const (
	changeBlob    = "change"
	signatureBlob = "signature"
)

// ErrInvalidObject is returned when an object's history has no root
// change matching its id, or its root is rejected by the schema.
var ErrInvalidObject = errors.New("invalid object history")

// Store reads and writes objects of one type as the local identity.
type Store[T any] struct {
	repo   *git.Repository
	schema Schema[T]
	whoami identity.LocalIdentity
	clock  clock.Clock
	logger *slog.Logger
}

// NewStore returns a store for schema's type in repo. A nil logger
// discards diagnostics.
func NewStore[T any](repo *git.Repository, schema Schema[T], whoami identity.LocalIdentity, clk clock.Clock, logger *slog.Logger) *Store[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store[T]{
		repo:   repo,
		schema: schema,
		whoami: whoami,
		clock:  clk,
		logger: logger.With("type", schema.TypeName()),
	}
}

// Whoami returns the identity changes are written as.
func (s *Store[T]) Whoami() identity.LocalIdentity { return s.whoami }

// List loads every valid object of the type in the project, oldest
// first. Objects with an invalid history are logged and skipped.
func (s *Store[T]) List(project identity.Urn) ([]Object[T], error) {
	refs, err := s.scan(project)
	if err != nil {
		return nil, err
	}
	objects := make([]Object[T], 0, len(refs))
	for id, tips := range refs {
		loaded, err := s.load(id, tips.all())
		if err != nil {
			if errors.Is(err, ErrInvalidObject) {
				s.logger.Warn("skipping object", "id", id.String(), "error", err)
				continue
			}
			return nil, err
		}
		objects = append(objects, loaded)
	}
	slices.SortFunc(objects, func(a, b Object[T]) int {
		if c := cmp.Compare(a.Created, b.Created); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return objects, nil
}

// Get loads one object. Returns false when no replica of it exists.
func (s *Store[T]) Get(project identity.Urn, id ObjectID) (Object[T], bool, error) {
	refs, err := s.scan(project)
	if err != nil {
		return Object[T]{}, false, err
	}
	tips, ok := refs[id]
	if !ok {
		return Object[T]{}, false, nil
	}
	loaded, err := s.load(id, tips.all())
	if err != nil {
		return Object[T]{}, false, err
	}
	return loaded, true, nil
}

// ResolveID maps a user-supplied identifier to the single object id it
// abbreviates.
func (s *Store[T]) ResolveID(project identity.Urn, identifier Identifier) (ObjectID, error) {
	refs, err := s.scan(project)
	if err != nil {
		return ObjectID{}, err
	}
	ids := make([]ObjectID, 0, len(refs))
	for id := range refs {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b ObjectID) int { return strings.Compare(a.String(), b.String()) })
	return identifier.resolve(ids)
}

// Create writes the root change of a new object. The mutation is
// applied to a zero T first; a rejected mutation writes nothing.
func (s *Store[T]) Create(project identity.Urn, mutation Mutation) (ObjectID, T, error) {
	var state T
	change, data, err := s.newChange(mutation)
	if err != nil {
		return ObjectID{}, state, err
	}
	if err := s.schema.Apply(&state, change); err != nil {
		return ObjectID{}, state, err
	}
	id := HashRoot(data)

	hash, err := s.writeChange(data, nil)
	if err != nil {
		return ObjectID{}, state, err
	}
	if err := monorepo.CompareAndSwap(s.repo, s.ownRef(project, id), hash, plumbing.ZeroHash); err != nil {
		return ObjectID{}, state, fmt.Errorf("publishing %s: %w", id.Short(), err)
	}
	s.logger.Debug("created object", "id", id.String(), "kind", mutation.Kind(), "commit", hash.String())
	return id, state, nil
}

// Update appends a change to an existing object and returns the new
// state. The change's parents are every tip known for the object.
// The mutation is applied to the current state first; a rejected
// mutation writes nothing.
func (s *Store[T]) Update(project identity.Urn, id ObjectID, mutation Mutation) (T, error) {
	var zero T
	refs, err := s.scan(project)
	if err != nil {
		return zero, err
	}
	tips, ok := refs[id]
	if !ok {
		return zero, fmt.Errorf("%s: %w", id.Short(), ErrNotFound)
	}
	current, err := s.load(id, tips.all())
	if err != nil {
		return zero, err
	}

	change, data, err := s.newChange(mutation)
	if err != nil {
		return zero, err
	}
	state := current.State
	if err := s.schema.Apply(&state, change); err != nil {
		return zero, err
	}

	hash, err := s.writeChange(data, tips.all())
	if err != nil {
		return zero, err
	}
	if err := monorepo.CompareAndSwap(s.repo, s.ownRef(project, id), hash, tips.own); err != nil {
		return zero, fmt.Errorf("publishing %s: %w", id.Short(), err)
	}
	s.logger.Debug("updated object", "id", id.String(), "kind", mutation.Kind(), "commit", hash.String())
	return state, nil
}

func (s *Store[T]) newChange(mutation Mutation) (Change, []byte, error) {
	payload, err := codec.Marshal(mutation)
	if err != nil {
		return Change{}, nil, fmt.Errorf("encoding %s: %w", mutation.Kind(), err)
	}
	change := Change{
		Kind:      mutation.Kind(),
		Author:    s.whoami.Peer(),
		AuthorUrn: s.whoami.Urn,
		Timestamp: clock.Unix(s.clock),
		Payload:   payload,
	}
	data, err := codec.Marshal(change)
	if err != nil {
		return Change{}, nil, fmt.Errorf("encoding change envelope: %w", err)
	}
	return change, data, nil
}

func (s *Store[T]) writeChange(data []byte, parents []plumbing.Hash) (plumbing.Hash, error) {
	peer := s.whoami.Peer().String()
	signature := object.Signature{
		Name:  peer,
		Email: peer + "@rad",
		When:  s.clock.Now(),
	}
	entries := []monorepo.Entry{
		{Name: changeBlob, Data: data},
		{Name: signatureBlob, Data: s.whoami.Signer.Sign(data)},
	}
	hash, err := monorepo.WriteCommit(s.repo, entries, parents, signature, s.schema.TypeName())
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("writing change: %w", err)
	}
	return hash, nil
}

// tipSet holds the tips of one object: the local peer's and every
// replicated peer's.
type tipSet struct {
	own   plumbing.Hash
	peers []plumbing.Hash
}

// all returns the distinct tips in hash order.
func (t tipSet) all() []plumbing.Hash {
	all := slices.Clone(t.peers)
	if !t.own.IsZero() {
		all = append(all, t.own)
	}
	slices.SortFunc(all, func(a, b plumbing.Hash) int { return strings.Compare(a.String(), b.String()) })
	return slices.Compact(all)
}

func (s *Store[T]) ownRef(project identity.Urn, id ObjectID) string {
	return project.Namespace() + "refs/cobs/" + s.schema.TypeName() + "/" + id.String()
}

// scan collects the tips of every object of the type in the project.
func (s *Store[T]) scan(project identity.Urn) (map[ObjectID]tipSet, error) {
	prefix := project.Namespace() + "refs/"
	refs, err := monorepo.Refs(s.repo, prefix)
	if err != nil {
		return nil, err
	}
	typePrefix := "cobs/" + s.schema.TypeName() + "/"

	objects := make(map[ObjectID]tipSet)
	for name, hash := range refs {
		rest := strings.TrimPrefix(name, prefix)
		own := true
		if remote, ok := strings.CutPrefix(rest, "remotes/"); ok {
			_, rest, _ = strings.Cut(remote, "/")
			own = false
		}
		idText, ok := strings.CutPrefix(rest, typePrefix)
		if !ok {
			continue
		}
		id, err := ParseObjectID(idText)
		if err != nil {
			s.logger.Debug("ignoring malformed object ref", "ref", name)
			continue
		}
		tips := objects[id]
		if own {
			tips.own = hash
		} else {
			tips.peers = append(tips.peers, hash)
		}
		objects[id] = tips
	}
	return objects, nil
}

type loadedChange struct {
	hash    plumbing.Hash
	parents []plumbing.Hash
	change  Change
	data    []byte
}

// load folds the history reachable from tips into a T.
func (s *Store[T]) load(id ObjectID, tips []plumbing.Hash) (Object[T], error) {
	changes, err := s.collect(tips)
	if err != nil {
		return Object[T]{}, err
	}

	var (
		state    T
		created  int64
		rooted   = make(map[plumbing.Hash]bool, len(changes))
		haveRoot bool
	)
	for _, loaded := range topoSort(changes) {
		if len(loaded.parents) == 0 {
			if HashRoot(loaded.data) != id {
				s.logger.Warn("skipping foreign root change", "id", id.String(), "commit", loaded.hash.String())
				continue
			}
			if err := s.schema.Apply(&state, loaded.change); err != nil {
				return Object[T]{}, fmt.Errorf("%s: root change rejected: %v: %w", id.Short(), err, ErrInvalidObject)
			}
			rooted[loaded.hash] = true
			created = loaded.change.Timestamp
			haveRoot = true
			continue
		}
		connected := false
		for _, parent := range loaded.parents {
			if rooted[parent] {
				connected = true
				break
			}
		}
		if !connected {
			s.logger.Warn("skipping change unconnected to root", "id", id.String(), "commit", loaded.hash.String())
			continue
		}
		rooted[loaded.hash] = true
		if err := s.schema.Apply(&state, loaded.change); err != nil {
			s.logger.Warn("skipping rejected change",
				"id", id.String(), "commit", loaded.hash.String(), "kind", loaded.change.Kind, "error", err)
		}
	}
	if !haveRoot {
		return Object[T]{}, fmt.Errorf("%s: no root change: %w", id.Short(), ErrInvalidObject)
	}
	return Object[T]{ID: id, State: state, Created: created}, nil
}

// collect reads every change reachable from tips. Commits whose
// envelope cannot be read are dropped along with the history behind
// them.
func (s *Store[T]) collect(tips []plumbing.Hash) (map[plumbing.Hash]*loadedChange, error) {
	changes := make(map[plumbing.Hash]*loadedChange)
	queue := slices.Clone(tips)
	seen := make(map[plumbing.Hash]bool)
	for len(queue) > 0 {
		hash := queue[0]
		queue = queue[1:]
		if seen[hash] {
			continue
		}
		seen[hash] = true

		commit, err := object.GetCommit(s.repo.Storer, hash)
		if err != nil {
			if errors.Is(err, plumbing.ErrObjectNotFound) {
				s.logger.Warn("change commit missing from monorepo", "commit", hash.String())
				continue
			}
			return nil, fmt.Errorf("reading change %s: %w", hash, err)
		}
		data, err := monorepo.ReadFile(s.repo, hash, changeBlob)
		if err != nil {
			s.logger.Warn("skipping commit without change envelope", "commit", hash.String(), "error", err)
			continue
		}
		var change Change
		if err := codec.Unmarshal(data, &change); err != nil {
			s.logger.Warn("skipping undecodable change", "commit", hash.String(), "error", err)
			continue
		}
		change.Commit, err = oid.FromBytes(hash[:])
		if err != nil {
			return nil, err
		}
		changes[hash] = &loadedChange{hash: hash, parents: commit.ParentHashes, change: change, data: data}
		queue = append(queue, commit.ParentHashes...)
	}
	return changes, nil
}

// topoSort orders changes parents first. Among changes whose parents
// are all placed, the earliest timestamp goes first, then the smallest
// commit id. Parents outside the set are ignored.
func topoSort(changes map[plumbing.Hash]*loadedChange) []*loadedChange {
	pending := make(map[plumbing.Hash]int, len(changes))
	children := make(map[plumbing.Hash][]plumbing.Hash)
	var ready []*loadedChange
	for hash, loaded := range changes {
		for _, parent := range loaded.parents {
			if _, ok := changes[parent]; ok {
				pending[hash]++
				children[parent] = append(children[parent], hash)
			}
		}
		if pending[hash] == 0 {
			ready = append(ready, loaded)
		}
	}

	ordered := make([]*loadedChange, 0, len(changes))
	for len(ready) > 0 {
		slices.SortFunc(ready, func(a, b *loadedChange) int {
			if c := cmp.Compare(a.change.Timestamp, b.change.Timestamp); c != 0 {
				return c
			}
			return strings.Compare(a.hash.String(), b.hash.String())
		})
		next := ready[0]
		ready = ready[1:]
		ordered = append(ordered, next)
		for _, child := range children[next.hash] {
			pending[child]--
			if pending[child] == 0 {
				ready = append(ready, changes[child])
			}
		}
	}
	return ordered
}
