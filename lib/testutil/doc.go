// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil builds git histories for tests without the git
// binary. [NewRepo] returns an in-memory go-git repository and
// [History] writes commits into one or more of them, so a test can
// lay out a working copy and a monorepo that share some commits and
// not others (an unpushed branch, a peer that has not fetched yet).
//
// Commit timestamps come from a per-History clock that advances one
// minute per commit, so histories are identical on every run.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
