// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package identity

// LazyState is the resolution state of a [Lazy] value.
type LazyState int

const (
	Unresolved LazyState = iota
	Resolved
	Failed
)

func (s LazyState) String() string {
	switch s {
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return "unresolved"
	}
}

// Lazy caches the result of an on-demand lookup. A failed lookup is
// remembered (and its error kept for diagnostics) so that the caller
// falls back to a default instead of retrying or aborting.
type Lazy[T any] struct {
	state LazyState
	value T
	err   error
}

// Resolve runs fetch once. Later calls return the cached state.
func (l *Lazy[T]) Resolve(fetch func() (T, error)) LazyState {
	if l.state != Unresolved {
		return l.state
	}
	value, err := fetch()
	if err != nil {
		l.state = Failed
		l.err = err
		return l.state
	}
	l.value = value
	l.state = Resolved
	return l.state
}

// State returns the current resolution state.
func (l *Lazy[T]) State() LazyState { return l.state }

// Get returns the value and true only when resolved.
func (l *Lazy[T]) Get() (T, bool) {
	return l.value, l.state == Resolved
}

// Or returns the resolved value, or fallback in any other state.
func (l *Lazy[T]) Or(fallback T) T {
	if l.state == Resolved {
		return l.value
	}
	return fallback
}

// Err returns the lookup error of a failed resolution.
func (l *Lazy[T]) Err() error { return l.err }
