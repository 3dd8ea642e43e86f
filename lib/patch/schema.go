// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package patch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/rad-patch/lib/cob"
	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/oid"
)

var (
	// ErrSchemaViolation is returned for changes that do not describe
	// a valid patch history.
	ErrSchemaViolation = errors.New("patch schema violation")

	// ErrNotOwner is returned when someone other than the patch's
	// author proposes a revision.
	ErrNotOwner = errors.New("only the patch author can add revisions")

	// ErrNoOp is returned when a new revision proposes the commit the
	// latest revision already proposes.
	ErrNoOp = errors.New("patch is already at this commit")
)

// Create opens a patch with its first revision.
type Create struct {
	Title       string      `cbor:"title"`
	Description string      `cbor:"description"`
	Target      MergeTarget `cbor:"target"`
	Labels      []string    `cbor:"labels,omitempty"`
	Oid         oid.Oid     `cbor:"oid"`
}

func (Create) Kind() string { return "create" }

// AppendRevision proposes a new head.
type AppendRevision struct {
	Oid     oid.Oid `cbor:"oid"`
	Comment string  `cbor:"comment,omitempty"`
}

func (AppendRevision) Kind() string { return "revision" }

// AppendReview records the writer's review of one revision, replacing
// any earlier review by the same peer.
type AppendReview struct {
	Revision int     `cbor:"revision"`
	Verdict  Verdict `cbor:"verdict"`
	Comment  string  `cbor:"comment,omitempty"`
}

func (AppendReview) Kind() string { return "review" }

// AppendMerge records that the writer merged one revision.
type AppendMerge struct {
	Revision int     `cbor:"revision"`
	Base     oid.Oid `cbor:"base"`
}

func (AppendMerge) Kind() string { return "merge" }

// Schema folds patch changes. It is stateless.
type Schema struct{}

var _ cob.Schema[Patch] = Schema{}

func (Schema) TypeName() string { return TypeName }

// Apply folds one change into p. A rejected change leaves p unchanged.
func (Schema) Apply(p *Patch, change cob.Change) error {
	switch change.Kind {
	case Create{}.Kind():
		var create Create
		if err := decode(change, &create); err != nil {
			return err
		}
		return applyCreate(p, change, create)
	case AppendRevision{}.Kind():
		var revision AppendRevision
		if err := decode(change, &revision); err != nil {
			return err
		}
		return applyRevision(p, change, revision)
	case AppendReview{}.Kind():
		var review AppendReview
		if err := decode(change, &review); err != nil {
			return err
		}
		return applyReview(p, change, review)
	case AppendMerge{}.Kind():
		var merge AppendMerge
		if err := decode(change, &merge); err != nil {
			return err
		}
		return applyMerge(p, change, merge)
	}
	return fmt.Errorf("%w: unknown change kind %q", ErrSchemaViolation, change.Kind)
}

func decode(change cob.Change, into any) error {
	if err := change.Decode(into); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrSchemaViolation, change.Kind, err)
	}
	return nil
}

func applyCreate(p *Patch, change cob.Change, create Create) error {
	switch {
	case len(p.Revisions) > 0:
		return fmt.Errorf("%w: patch already created", ErrSchemaViolation)
	case strings.TrimSpace(create.Title) == "":
		return fmt.Errorf("%w: empty title", ErrSchemaViolation)
	case create.Target != Upstream:
		return fmt.Errorf("%w: unsupported merge target %q", ErrSchemaViolation, create.Target)
	case create.Oid.IsZero():
		return fmt.Errorf("%w: missing head commit", ErrSchemaViolation)
	}
	*p = Patch{
		Author:      Author{Urn: change.AuthorUrn, Peer: change.Author},
		Title:       create.Title,
		Description: create.Description,
		Target:      create.Target,
		Labels:      create.Labels,
		Timestamp:   change.Timestamp,
		Revisions: []Revision{{
			Oid:       create.Oid,
			Timestamp: change.Timestamp,
			Reviews:   make(map[identity.PeerID]*Review),
		}},
	}
	return nil
}

func applyRevision(p *Patch, change cob.Change, revision AppendRevision) error {
	if len(p.Revisions) == 0 {
		return fmt.Errorf("%w: revision before create", ErrSchemaViolation)
	}
	if change.AuthorUrn != p.Author.Urn {
		return ErrNotOwner
	}
	if revision.Oid.IsZero() {
		return fmt.Errorf("%w: missing head commit", ErrSchemaViolation)
	}
	if revision.Oid == p.Head() {
		return fmt.Errorf("%w: %s", ErrNoOp, revision.Oid.Short())
	}
	p.Revisions = append(p.Revisions, Revision{
		Oid:       revision.Oid,
		Comment:   revision.Comment,
		Timestamp: change.Timestamp,
		Reviews:   make(map[identity.PeerID]*Review),
	})
	return nil
}

func applyReview(p *Patch, change cob.Change, review AppendReview) error {
	if review.Revision < 0 || review.Revision >= len(p.Revisions) {
		return fmt.Errorf("%w: review of unknown revision %d", ErrSchemaViolation, review.Revision)
	}
	if _, err := ParseVerdict(string(review.Verdict)); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	p.Revisions[review.Revision].Reviews[change.Author] = &Review{
		Author:    Author{Urn: change.AuthorUrn, Peer: change.Author},
		Verdict:   review.Verdict,
		Timestamp: change.Timestamp,
		Comment:   review.Comment,
	}
	return nil
}

func applyMerge(p *Patch, change cob.Change, merge AppendMerge) error {
	if merge.Revision < 0 || merge.Revision >= len(p.Revisions) {
		return fmt.Errorf("%w: merge of unknown revision %d", ErrSchemaViolation, merge.Revision)
	}
	if merge.Base.IsZero() {
		return fmt.Errorf("%w: merge without base", ErrSchemaViolation)
	}
	revision := &p.Revisions[merge.Revision]
	if revision.MergedBy(change.Author) {
		return nil
	}
	revision.Merges = append(revision.Merges, Merge{
		Peer:      change.Author,
		Timestamp: change.Timestamp,
		Base:      merge.Base,
	})
	return nil
}
