// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fault classifies errors that reach the user. The lifecycle
// controller wraps every error it returns in an [Error] carrying a
// [Kind] and, where one exists, a remediation hint. The CLI renders
// the message and hint; nothing below the CLI prints them.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error by what the user can do about it.
type Kind string

const (
	// Usage: the invocation itself is wrong (unknown flag, malformed
	// patch id). Fix the command line.
	Usage Kind = "usage"

	// Precondition: the environment is not ready (not a git
	// repository, detached HEAD, HEAD not pushed, no rad remote).
	Precondition Kind = "precondition"

	// Resolution: the request could not be mapped onto a single
	// target or patch (no merge target, ambiguous update).
	Resolution Kind = "resolution"

	// Store: the monorepo or object store failed or refused the
	// write (I/O, schema violation, not the owner).
	Store Kind = "store"

	// Abort: the user declined a confirmation or left the editor
	// without saving.
	Abort Kind = "abort"
)

// Error is an error with a kind and an optional hint.
type Error struct {
	Kind Kind
	Err  error
	Hint string
}

func (e *Error) Error() string { return e.Err.Error() }

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Wrap classifies err. Returns nil for a nil err. An err that is
// already an *Error keeps its kind and hint.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

// WithHint classifies err and attaches hint.
func WithHint(kind Kind, err error, hint string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err, Hint: hint}
}

// Newf creates a classified error from a format string.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// "" when err is unclassified.
func KindOf(err error) Kind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}

// HintOf returns the first non-empty hint in err's chain.
func HintOf(err error) string {
	for err != nil {
		var classified *Error
		if !errors.As(err, &classified) {
			return ""
		}
		if classified.Hint != "" {
			return classified.Hint
		}
		err = classified.Err
	}
	return ""
}
