// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cob stores collaborative objects in the monorepo.
//
// A collaborative object is a DAG of signed changes. Each change is a
// git commit whose tree holds two blobs: "change", the CBOR-encoded
// [Change] envelope, and "signature", an ed25519 signature over those
// bytes by the change's author. A change's parents are every tip of
// the object known to the writer, so concurrent edits by different
// peers converge when replicas are merged.
//
// Each peer keeps its own tip of each object:
//
//	refs/namespaces/<project>/refs/cobs/<type>/<id>                  own
//	refs/namespaces/<project>/refs/remotes/<peer>/cobs/<type>/<id>   replicated
//
// The object id is the BLAKE3 keyed hash of the root change envelope,
// so an object is named before its first ref exists and the name
// cannot be forged by a later change.
//
// Loading an object takes the union of the commits reachable from all
// its tips, orders them topologically (ties broken by change timestamp
// and then commit id), and folds them through a [Schema]. A change the
// schema rejects is skipped and logged; replicas with a malformed
// history still load.
//
// Key exports:
//
//   - [Store] -- typed list, get, resolve, create, and update
//   - [Schema] -- the per-type reducer and its tagged [Mutation] space
//   - [ObjectID] and [Identifier] -- full and user-supplied object names
package cob
