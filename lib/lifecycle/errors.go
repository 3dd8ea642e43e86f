// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"errors"

	"github.com/bureau-foundation/rad-patch/lib/cob"
	"github.com/bureau-foundation/rad-patch/lib/commitgraph"
	"github.com/bureau-foundation/rad-patch/lib/fault"
	"github.com/bureau-foundation/rad-patch/lib/patch"
)

var (
	// ErrNoMergeTarget: every tracked peer's default branch already
	// contains HEAD, or no peer has one.
	ErrNoMergeTarget = errors.New("no merge targets found for patch")

	// ErrAmbiguousTarget: tracked peers' default branches point at
	// different commits that do not contain HEAD.
	ErrAmbiguousTarget = errors.New("more than one merge target found for patch")

	// ErrNoUpdateCandidate: --update found none of the caller's open
	// patches forking where HEAD does.
	ErrNoUpdateCandidate = errors.New("no patches found that share a base, please create a new patch or specify the patch id manually")

	// ErrAmbiguousUpdate: --update found several.
	ErrAmbiguousUpdate = errors.New("more than one patch available to update, please specify an id with `rad patch --update <id>`")

	// ErrPatchNotFound: the patch named by --update <id> does not exist.
	ErrPatchNotFound = errors.New("patch not found")

	// ErrEmptyTitle: the edited patch message has no title.
	ErrEmptyTitle = errors.New("patch title is empty")

	// ErrHeadNotInStore: HEAD was never pushed to the monorepo.
	ErrHeadNotInStore = errors.New("current branch head was not found in storage")

	// ErrUserAbort: the user declined a confirmation or left the
	// editor without saving.
	ErrUserAbort = errors.New("aborted by user")
)

const pushHint = "run `git push rad` and try again"

// classify wraps err with the fault kind the CLI reports it under.
func classify(err error) error {
	if err == nil || fault.KindOf(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, ErrHeadNotInStore), errors.Is(err, patch.ErrInvalidOid):
		return fault.WithHint(fault.Precondition, err, pushHint)
	case errors.Is(err, commitgraph.ErrDetachedHead),
		errors.Is(err, commitgraph.ErrInvalidUTF8):
		return fault.Wrap(fault.Precondition, err)
	case errors.Is(err, ErrNoMergeTarget),
		errors.Is(err, ErrAmbiguousTarget),
		errors.Is(err, ErrNoUpdateCandidate),
		errors.Is(err, ErrAmbiguousUpdate),
		errors.Is(err, ErrPatchNotFound),
		errors.Is(err, cob.ErrAmbiguous),
		errors.Is(err, commitgraph.ErrNoMergeBase):
		return fault.Wrap(fault.Resolution, err)
	case errors.Is(err, cob.ErrInvalidIdentifier):
		return fault.Wrap(fault.Usage, err)
	case errors.Is(err, ErrUserAbort), errors.Is(err, ErrEmptyTitle):
		return fault.Wrap(fault.Abort, err)
	}
	return fault.Wrap(fault.Store, err)
}
