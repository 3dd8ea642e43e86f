// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"testing"

	"github.com/bureau-foundation/rad-patch/lib/identity"
)

// Signer returns a deterministic signer whose seed is 32 copies of
// fill. Different fills give different peers.
func Signer(t testing.TB, fill byte) *identity.KeySigner {
	t.Helper()
	signer, err := identity.NewKeySigner(bytes.Repeat([]byte{fill}, 32))
	if err != nil {
		t.Fatalf("creating signer: %v", err)
	}
	return signer
}

// Urn returns a deterministic urn whose id is 32 copies of fill.
func Urn(fill byte) identity.Urn {
	var id [32]byte
	for i := range id {
		id[i] = fill
	}
	return identity.UrnFromID(id)
}
