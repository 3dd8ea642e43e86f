// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity holds the identifiers that attribute work in the
// monorepo: [PeerID] (a device key), [Urn] (a stable project or person
// name), and [LocalIdentity] (the acting author, with a signer).
//
// Display names are resolved lazily through [Lazy], whose failure
// state is recorded rather than returned so that rendering a patch
// list never aborts because one person document is missing.
//
// Key issuance is handled elsewhere. This package only loads an
// existing ed25519 seed file (see [LoadSigner]).
package identity
