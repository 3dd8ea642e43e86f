// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// urnPrefix is the scheme and method every project and person Urn
// carries.
const urnPrefix = "rad:git:"

// Urn is the stable name of a project or person identity. The hex id
// doubles as the ref namespace in the monorepo.
type Urn struct {
	id [32]byte
}

// ParseUrn decodes "rad:git:<64 hex>".
func ParseUrn(text string) (Urn, error) {
	rest, ok := strings.CutPrefix(text, urnPrefix)
	if !ok {
		return Urn{}, fmt.Errorf("urn %q: missing %q prefix", text, urnPrefix)
	}
	raw, err := hex.DecodeString(rest)
	if err != nil {
		return Urn{}, fmt.Errorf("urn %q: %w", text, err)
	}
	if len(raw) != 32 {
		return Urn{}, fmt.Errorf("urn %q: id is %d bytes, want 32", text, len(raw))
	}
	var urn Urn
	copy(urn.id[:], raw)
	return urn, nil
}

// MustParseUrn is ParseUrn for tests. Panics on error.
func MustParseUrn(text string) Urn {
	urn, err := ParseUrn(text)
	if err != nil {
		panic(err)
	}
	return urn
}

// UrnFromID builds an Urn from a raw 32-byte id.
func UrnFromID(id [32]byte) Urn { return Urn{id: id} }

// ID returns the hex id: the namespace component in monorepo refs.
func (u Urn) ID() string { return hex.EncodeToString(u.id[:]) }

// String returns the full "rad:git:" form.
func (u Urn) String() string { return urnPrefix + u.ID() }

// Short returns an abbreviated form for terminal output.
func (u Urn) Short() string { return urnPrefix + u.ID()[:7] }

// IsZero reports whether u is the zero value.
func (u Urn) IsZero() bool { return u == Urn{} }

// Namespace returns the ref prefix for this identity in the monorepo.
func (u Urn) Namespace() string {
	return "refs/namespaces/" + u.ID() + "/"
}

// MarshalText implements encoding.TextMarshaler.
func (u Urn) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *Urn) UnmarshalText(text []byte) error {
	parsed, err := ParseUrn(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
