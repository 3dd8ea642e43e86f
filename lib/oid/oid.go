// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package oid defines the commit object identifier shared by the
// commit graph, the patch store, and the terminal layer. An [Oid] is
// either a 20-byte SHA-1 or a 32-byte SHA-256 git object hash; the
// two sizes never compare equal.
package oid

import (
	"encoding/hex"
	"fmt"
)

const (
	// SHA1Size is the byte length of a SHA-1 object id.
	SHA1Size = 20

	// SHA256Size is the byte length of a SHA-256 object id.
	SHA256Size = 32

	// shortLength is the number of hex characters in [Oid.Short].
	shortLength = 7
)

// Oid is an opaque commit hash. The zero value is the null id and is
// never a valid commit. Oid is comparable and usable as a map key.
type Oid struct {
	raw  [SHA256Size]byte
	size uint8
}

// FromBytes copies a raw 20- or 32-byte hash into an Oid.
func FromBytes(raw []byte) (Oid, error) {
	if len(raw) != SHA1Size && len(raw) != SHA256Size {
		return Oid{}, fmt.Errorf("object id is %d bytes, want %d or %d", len(raw), SHA1Size, SHA256Size)
	}
	var id Oid
	copy(id.raw[:], raw)
	id.size = uint8(len(raw))
	return id, nil
}

// Parse decodes a 40- or 64-character hex string.
func Parse(text string) (Oid, error) {
	if len(text) != 2*SHA1Size && len(text) != 2*SHA256Size {
		return Oid{}, fmt.Errorf("object id %q: want 40 or 64 hex characters, got %d", text, len(text))
	}
	raw, err := hex.DecodeString(text)
	if err != nil {
		return Oid{}, fmt.Errorf("object id %q: %w", text, err)
	}
	return FromBytes(raw)
}

// MustParse is Parse for constants and tests. Panics on error.
func MustParse(text string) Oid {
	id, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return id
}

// Bytes returns a copy of the raw hash.
func (o Oid) Bytes() []byte {
	out := make([]byte, o.size)
	copy(out, o.raw[:o.size])
	return out
}

// Size returns the hash length in bytes, or 0 for the null id.
func (o Oid) Size() int { return int(o.size) }

// IsZero reports whether o is the null id.
func (o Oid) IsZero() bool { return o.size == 0 }

// String returns the full lowercase hex form.
func (o Oid) String() string {
	return hex.EncodeToString(o.raw[:o.size])
}

// Short returns the abbreviated form used in terminal output.
func (o Oid) Short() string {
	full := o.String()
	if len(full) <= shortLength {
		return full
	}
	return full[:shortLength]
}

// Compare orders ids by size, then bytewise.
func (o Oid) Compare(other Oid) int {
	if o.size != other.size {
		if o.size < other.size {
			return -1
		}
		return 1
	}
	for i := range int(o.size) {
		if o.raw[i] != other.raw[i] {
			if o.raw[i] < other.raw[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// MarshalText encodes the id as hex so that CBOR and JSON carry it as
// a string.
func (o Oid) MarshalText() ([]byte, error) {
	if o.IsZero() {
		return nil, fmt.Errorf("cannot encode the null object id")
	}
	return []byte(o.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (o *Oid) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
