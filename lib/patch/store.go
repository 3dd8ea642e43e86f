// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package patch

import (
	"errors"
	"fmt"
	"log/slog"

	git "github.com/go-git/go-git/v5"

	"github.com/bureau-foundation/rad-patch/lib/clock"
	"github.com/bureau-foundation/rad-patch/lib/cob"
	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/monorepo"
	"github.com/bureau-foundation/rad-patch/lib/oid"
)

var (
	// ErrInvalidOid is returned when a proposed commit is not in the
	// monorepo, where no other peer could fetch it.
	ErrInvalidOid = errors.New("commit not found in monorepo")

	// ErrNotFound is returned for unknown patch ids.
	ErrNotFound = cob.ErrNotFound

	// ErrAmbiguous is returned when a patch id prefix matches several
	// patches.
	ErrAmbiguous = cob.ErrAmbiguous
)

// Entry is a patch with its id. Patch is a pointer so that lazy name
// resolution sticks.
type Entry struct {
	ID    cob.ObjectID
	Patch *Patch
}

// Store is the typed patch view of the object store, acting as one
// local identity.
type Store struct {
	repo    *git.Repository
	objects *cob.Store[Patch]
}

// NewStore returns a patch store over the monorepo.
func NewStore(repo *git.Repository, whoami identity.LocalIdentity, clk clock.Clock, logger *slog.Logger) *Store {
	return &Store{
		repo:    repo,
		objects: cob.NewStore[Patch](repo, Schema{}, whoami, clk, logger),
	}
}

// Whoami returns the identity the store writes as.
func (s *Store) Whoami() identity.LocalIdentity { return s.objects.Whoami() }

// List returns every patch in the project, oldest first.
func (s *Store) List(project identity.Urn) ([]Entry, error) {
	objects, err := s.objects.List(project)
	if err != nil {
		return nil, fmt.Errorf("listing patches: %w", err)
	}
	entries := make([]Entry, len(objects))
	for i := range objects {
		entries[i] = Entry{ID: objects[i].ID, Patch: &objects[i].State}
	}
	return entries, nil
}

// Proposed returns the patches still open, oldest first.
func (s *Store) Proposed(project identity.Urn) ([]Entry, error) {
	return s.filter(project, func(p *Patch) bool { return p.IsProposed() })
}

// ProposedBy returns the open patches written by author.
func (s *Store) ProposedBy(author identity.Urn, project identity.Urn) ([]Entry, error) {
	return s.filter(project, func(p *Patch) bool { return p.IsProposed() && p.Author.Urn == author })
}

func (s *Store) filter(project identity.Urn, keep func(*Patch) bool) ([]Entry, error) {
	all, err := s.List(project)
	if err != nil {
		return nil, err
	}
	var kept []Entry
	for _, entry := range all {
		if keep(entry.Patch) {
			kept = append(kept, entry)
		}
	}
	return kept, nil
}

// Get loads one patch. Returns false when the project has no such
// patch.
func (s *Store) Get(project identity.Urn, id cob.ObjectID) (*Patch, bool, error) {
	object, ok, err := s.objects.Get(project, id)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &object.State, true, nil
}

// ResolveID maps a possibly abbreviated identifier to a patch id,
// failing with ErrAmbiguous or ErrNotFound.
func (s *Store) ResolveID(project identity.Urn, identifier cob.Identifier) (cob.ObjectID, error) {
	return s.objects.ResolveID(project, identifier)
}

// Create opens a patch proposing head and returns its id.
func (s *Store) Create(project identity.Urn, title, description string, target MergeTarget, head oid.Oid, labels []string) (cob.ObjectID, error) {
	if err := s.checkInStore(head); err != nil {
		return cob.ObjectID{}, err
	}
	id, _, err := s.objects.Create(project, Create{
		Title:       title,
		Description: description,
		Target:      target,
		Labels:      labels,
		Oid:         head,
	})
	if err != nil {
		return cob.ObjectID{}, err
	}
	return id, nil
}

// Update appends a revision proposing head and returns its version,
// one more than the previous latest.
func (s *Store) Update(project identity.Urn, id cob.ObjectID, comment string, head oid.Oid) (int, error) {
	current, ok, err := s.Get(project, id)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("patch %s: %w", id.Short(), ErrNotFound)
	}
	if current.Author.Urn != s.Whoami().Urn {
		return 0, fmt.Errorf("patch %s: %w", id.Short(), ErrNotOwner)
	}
	if current.Head() == head {
		return 0, fmt.Errorf("patch %s: %w", id.Short(), ErrNoOp)
	}
	if err := s.checkInStore(head); err != nil {
		return 0, err
	}

	updated, err := s.objects.Update(project, id, AppendRevision{Oid: head, Comment: comment})
	if err != nil {
		return 0, err
	}
	return updated.Version(), nil
}

// Review records the local peer's verdict on one revision.
func (s *Store) Review(project identity.Urn, id cob.ObjectID, revision int, verdict Verdict, comment string) error {
	_, err := s.objects.Update(project, id, AppendReview{Revision: revision, Verdict: verdict, Comment: comment})
	return err
}

// Merge records that the local peer merged one revision onto base.
func (s *Store) Merge(project identity.Urn, id cob.ObjectID, revision int, base oid.Oid) error {
	_, err := s.objects.Update(project, id, AppendMerge{Revision: revision, Base: base})
	return err
}

func (s *Store) checkInStore(head oid.Oid) error {
	if head.IsZero() {
		return fmt.Errorf("%w: empty commit id", ErrInvalidOid)
	}
	found, err := monorepo.Contains(s.repo, head)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: %w", head.Short(), ErrInvalidOid)
	}
	return nil
}
