// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cob

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// objectDomainKey is the BLAKE3 domain key for object ids. Changing it
// renames every object.
var objectDomainKey = [32]byte{
	'r', 'a', 'd', '.', 'c', 'o', 'b', '.', 'o', 'b', 'j', 'e', 'c', 't',
}

// ShortLength is the number of hex characters in a short object id.
const ShortLength = 11

// Bounds on the hex part of an [Identifier].
const (
	MinIdentifierLength = 4
	MaxIdentifierLength = 2 * len(ObjectID{})
)

// identifierScheme may prefix a user-supplied identifier.
const identifierScheme = "rad:cob:"

var (
	// ErrInvalidIdentifier is returned for identifiers that are not
	// hex or have the wrong length.
	ErrInvalidIdentifier = errors.New("invalid object identifier")

	// ErrAmbiguous is returned when an identifier prefix matches more
	// than one object.
	ErrAmbiguous = errors.New("ambiguous object identifier")

	// ErrNotFound is returned when no object matches.
	ErrNotFound = errors.New("object not found")
)

// ObjectID names a collaborative object.
type ObjectID [32]byte

// HashRoot computes the id of the object whose root change envelope
// encodes to data.
func HashRoot(data []byte) ObjectID {
	hasher, err := blake3.NewKeyed(objectDomainKey[:])
	if err != nil {
		panic("cob: BLAKE3 keyed hasher: " + err.Error())
	}
	hasher.Write(data)
	var id ObjectID
	copy(id[:], hasher.Sum(nil))
	return id
}

// ParseObjectID decodes a full 64-character hex id.
func ParseObjectID(text string) (ObjectID, error) {
	var id ObjectID
	if len(text) != 2*len(id) {
		return id, fmt.Errorf("object id %q: %w: want %d hex characters", text, ErrInvalidIdentifier, 2*len(id))
	}
	if _, err := hex.Decode(id[:], []byte(text)); err != nil {
		return id, fmt.Errorf("object id %q: %w: %v", text, ErrInvalidIdentifier, err)
	}
	return id, nil
}

func (id ObjectID) String() string { return hex.EncodeToString(id[:]) }

// Short returns the first ShortLength hex characters.
func (id ObjectID) Short() string { return id.String()[:ShortLength] }

func (id ObjectID) IsZero() bool { return id == ObjectID{} }

func (id ObjectID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ObjectID) UnmarshalText(text []byte) error {
	parsed, err := ParseObjectID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Identifier is a user-supplied, possibly abbreviated object id: a hex
// prefix or rad:cob:<hex>.
type Identifier struct {
	prefix string
}

// ParseIdentifier validates a user-supplied identifier.
func ParseIdentifier(text string) (Identifier, error) {
	prefix := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(text), identifierScheme))
	if len(prefix) < MinIdentifierLength || len(prefix) > MaxIdentifierLength {
		return Identifier{}, fmt.Errorf("%q: %w: want %d to %d hex characters",
			text, ErrInvalidIdentifier, MinIdentifierLength, MaxIdentifierLength)
	}
	for _, r := range prefix {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'f') {
			return Identifier{}, fmt.Errorf("%q: %w: %q is not hex", text, ErrInvalidIdentifier, r)
		}
	}
	return Identifier{prefix: prefix}, nil
}

// Matches reports whether id starts with the identifier.
func (i Identifier) Matches(id ObjectID) bool {
	return i.prefix != "" && strings.HasPrefix(id.String(), i.prefix)
}

func (i Identifier) String() string { return i.prefix }

// resolve picks the single id among candidates that the identifier
// matches.
func (i Identifier) resolve(candidates []ObjectID) (ObjectID, error) {
	var matched []ObjectID
	for _, candidate := range candidates {
		if i.Matches(candidate) {
			matched = append(matched, candidate)
		}
	}
	switch len(matched) {
	case 0:
		return ObjectID{}, fmt.Errorf("%s: %w", i.prefix, ErrNotFound)
	case 1:
		return matched[0], nil
	}
	names := make([]string, len(matched))
	for index, id := range matched {
		names[index] = id.String()
	}
	return ObjectID{}, fmt.Errorf("%s matches %d objects, use a longer prefix: %s: %w",
		i.prefix, len(matched), strings.Join(names, ", "), ErrAmbiguous)
}
