// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package patch implements patches: collaborative objects proposing a
// commit for inclusion in a project's default branch.
//
// A [Patch] is stored through [cob.Store] under the type name
// xyz.radicle.patch. Its history is a sequence of tagged mutations:
// [Create] opens the patch with its first revision, [AppendRevision]
// proposes a new head (author only), [AppendReview] and [AppendMerge]
// record other peers' verdicts and merges against one revision.
// Revisions are append-only and numbered from zero; a patch's version
// is the number of its latest revision.
//
// Two queries support the lifecycle of a patch in a working copy:
// [FindMergeTargets] partitions the tracked peers' default branches
// into those that already contain a commit and those that do not, and
// [FindUnmergedWithBase] picks the caller's own patches that forked
// from the same point as the current work.
package patch
