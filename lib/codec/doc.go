// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the single CBOR configuration for everything this
// repository writes into the monorepo: collaborative object changes,
// project identity documents, and person documents.
//
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2). Change
// ids are content hashes of the encoded bytes, so two peers encoding
// the same change must produce identical bytes.
package codec
