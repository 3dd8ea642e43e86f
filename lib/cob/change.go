// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cob

import (
	"github.com/bureau-foundation/rad-patch/lib/codec"
	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/oid"
)

// Change is one signed operation on an object. Payload is the
// CBOR-encoded [Mutation] named by Kind.
type Change struct {
	Kind      string           `cbor:"kind"`
	Author    identity.PeerID  `cbor:"author"`
	AuthorUrn identity.Urn     `cbor:"author_urn"`
	Timestamp int64            `cbor:"timestamp"`
	Payload   codec.RawMessage `cbor:"payload"`

	// Commit carries the change. Zero while a mutation is being
	// validated before it is written.
	Commit oid.Oid `cbor:"-"`
}

// Decode unmarshals the payload into v.
func (c Change) Decode(v any) error {
	return codec.Unmarshal(c.Payload, v)
}

// Mutation is one variant of a type's tagged mutation space. Kind is
// the tag written to the change envelope; the variant's fields are the
// payload.
type Mutation interface {
	Kind() string
}

// Schema describes one object type: its name in ref paths and the
// reducer that folds changes into state.
//
// Apply must be deterministic and must leave object unchanged when it
// returns an error. The first change applied to a zero T is the root.
type Schema[T any] interface {
	TypeName() string
	Apply(object *T, change Change) error
}

// Object is a loaded object.
type Object[T any] struct {
	ID    ObjectID
	State T

	// Created is the root change's timestamp.
	Created int64
}
