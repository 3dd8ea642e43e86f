// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package reflike validates git branch and reference names. A
// [RefLike] is only ever constructed through [Parse], so holding one
// means the name is safe to splice into a ref path such as
// refs/namespaces/<id>/refs/heads/<name>.
package reflike

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrInvalidUTF8 is returned for names that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("reference name is not valid UTF-8")

// RefLike is a validated, slash-normalized reference name.
type RefLike struct {
	name string
}

// forbidden holds ASCII bytes git refuses in ref components.
var forbidden [128]bool

func init() {
	for c := 0; c < 0x20; c++ {
		forbidden[c] = true
	}
	forbidden[0x7f] = true
	for _, c := range " ~^:?*[\\" {
		forbidden[c] = true
	}
}

// Parse validates name and returns its normalized form. Repeated
// slashes collapse to one and leading or trailing slashes are dropped
// before the component rules are checked.
func Parse(name string) (RefLike, error) {
	if !utf8.ValidString(name) {
		return RefLike{}, ErrInvalidUTF8
	}
	normalized := normalize(name)
	if normalized == "" {
		return RefLike{}, fmt.Errorf("reference name %q is empty", name)
	}
	if normalized[0] == '-' {
		return RefLike{}, fmt.Errorf("reference name %q must not start with '-'", name)
	}
	if strings.Contains(normalized, "..") {
		return RefLike{}, fmt.Errorf("reference name %q must not contain '..'", name)
	}
	if strings.Contains(normalized, "@{") {
		return RefLike{}, fmt.Errorf("reference name %q must not contain '@{'", name)
	}
	if normalized == "@" {
		return RefLike{}, fmt.Errorf("reference name %q is reserved", name)
	}
	for i := 0; i < len(normalized); i++ {
		c := normalized[i]
		if c < utf8.RuneSelf && forbidden[c] {
			return RefLike{}, fmt.Errorf("reference name %q: invalid character %q at position %d", name, c, i)
		}
	}
	for _, component := range strings.Split(normalized, "/") {
		if component[0] == '.' {
			return RefLike{}, fmt.Errorf("reference name %q: component %q starts with '.'", name, component)
		}
		if strings.HasSuffix(component, ".lock") {
			return RefLike{}, fmt.Errorf("reference name %q: component %q ends with '.lock'", name, component)
		}
		if strings.HasSuffix(component, ".") {
			return RefLike{}, fmt.Errorf("reference name %q: component %q ends with '.'", name, component)
		}
	}
	return RefLike{name: normalized}, nil
}

// MustParse is Parse for constants and tests. Panics on error.
func MustParse(name string) RefLike {
	ref, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return ref
}

// Shorthand strips a refs/heads/ prefix from a full reference name
// and validates the rest, the way git abbreviates HEAD's target for
// display.
func Shorthand(full string) (RefLike, error) {
	return Parse(strings.TrimPrefix(full, "refs/heads/"))
}

// String returns the normalized name.
func (r RefLike) String() string { return r.name }

// IsZero reports whether r was never parsed.
func (r RefLike) IsZero() bool { return r.name == "" }

// Join appends r to prefix with a single separating slash.
func (r RefLike) Join(prefix string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + r.name
}

// MarshalText implements encoding.TextMarshaler.
func (r RefLike) MarshalText() ([]byte, error) {
	if r.name == "" {
		return nil, fmt.Errorf("cannot encode an empty reference name")
	}
	return []byte(r.name), nil
}

// UnmarshalText validates the decoded name.
func (r *RefLike) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func normalize(name string) string {
	var builder strings.Builder
	previousSlash := true
	for i := 0; i < len(name); i++ {
		if name[i] == '/' {
			if previousSlash {
				continue
			}
			previousSlash = true
		} else {
			previousSlash = false
		}
		builder.WriteByte(name[i])
	}
	return strings.TrimSuffix(builder.String(), "/")
}
