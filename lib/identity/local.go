// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"os"
)

// Signer signs collaborative object changes on behalf of one peer.
type Signer interface {
	// Peer returns the peer id matching the signing key.
	Peer() PeerID

	// Sign returns an ed25519 signature over message.
	Sign(message []byte) []byte
}

// KeySigner is a [Signer] over an in-memory ed25519 private key.
type KeySigner struct {
	key  ed25519.PrivateKey
	peer PeerID
}

// NewKeySigner derives a signer from a 32-byte ed25519 seed.
func NewKeySigner(seed []byte) (*KeySigner, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signing seed is %d bytes, want %d", len(seed), ed25519.SeedSize)
	}
	key := ed25519.NewKeyFromSeed(seed)
	peer, err := PeerFromPublicKey(key.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &KeySigner{key: key, peer: peer}, nil
}

// LoadSigner reads a seed file. The file holds either the 32 raw
// seed bytes or their 64-character hex encoding.
func LoadSigner(path string) (*KeySigner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signing key: %w", err)
	}
	seed := data
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 2*ed25519.SeedSize {
		seed, err = hex.DecodeString(string(trimmed))
		if err != nil {
			return nil, fmt.Errorf("decoding signing key %s: %w", path, err)
		}
	}
	signer, err := NewKeySigner(seed)
	if err != nil {
		return nil, fmt.Errorf("loading signing key %s: %w", path, err)
	}
	return signer, nil
}

// Peer implements [Signer].
func (s *KeySigner) Peer() PeerID { return s.peer }

// Sign implements [Signer].
func (s *KeySigner) Sign(message []byte) []byte {
	return ed25519.Sign(s.key, message)
}

// LocalIdentity is the acting author: the person Urn their patches
// are attributed to, the device peer that writes them, and a signer
// for that peer.
type LocalIdentity struct {
	Urn    Urn
	Name   string
	Signer Signer
}

// Peer returns the acting device's peer id.
func (l LocalIdentity) Peer() PeerID { return l.Signer.Peer() }
