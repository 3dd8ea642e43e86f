// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base32"
	"fmt"
	"slices"
	"strings"
)

// peerEncoding is lowercase, unpadded RFC 4648 base32: 52 characters
// for a 32-byte key, safe in ref path components.
var peerEncoding = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// PeerID identifies one device by its ed25519 public key.
type PeerID struct {
	key [ed25519.PublicKeySize]byte
}

// PeerFromPublicKey wraps an ed25519 public key.
func PeerFromPublicKey(key ed25519.PublicKey) (PeerID, error) {
	if len(key) != ed25519.PublicKeySize {
		return PeerID{}, fmt.Errorf("peer key is %d bytes, want %d", len(key), ed25519.PublicKeySize)
	}
	var peer PeerID
	copy(peer.key[:], key)
	return peer, nil
}

// ParsePeer decodes the text form produced by [PeerID.String].
func ParsePeer(text string) (PeerID, error) {
	raw, err := peerEncoding.DecodeString(text)
	if err != nil {
		return PeerID{}, fmt.Errorf("peer id %q: %w", text, err)
	}
	peer, err := PeerFromPublicKey(raw)
	if err != nil {
		return PeerID{}, fmt.Errorf("peer id %q: %w", text, err)
	}
	return peer, nil
}

// MustParsePeer is ParsePeer for tests. Panics on error.
func MustParsePeer(text string) PeerID {
	peer, err := ParsePeer(text)
	if err != nil {
		panic(err)
	}
	return peer
}

// String returns the base32 text form.
func (p PeerID) String() string {
	return peerEncoding.EncodeToString(p.key[:])
}

// Short returns a prefix of the text form for terminal output.
func (p PeerID) Short() string {
	return p.String()[:8]
}

// PublicKey returns the ed25519 public key.
func (p PeerID) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(slices.Clone(p.key[:]))
}

// IsZero reports whether p is the zero value.
func (p PeerID) IsZero() bool { return p == PeerID{} }

// Compare orders peers by raw key bytes. Merge target lists use this
// order so results do not depend on ref iteration order.
func (p PeerID) Compare(other PeerID) int {
	return bytes.Compare(p.key[:], other.key[:])
}

// MarshalText implements encoding.TextMarshaler.
func (p PeerID) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PeerID) UnmarshalText(text []byte) error {
	parsed, err := ParsePeer(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// SortPeers sorts peers in place by [PeerID.Compare] and drops
// duplicates.
func SortPeers(peers []PeerID) []PeerID {
	slices.SortFunc(peers, PeerID.Compare)
	return slices.Compact(peers)
}
