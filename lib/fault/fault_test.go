// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fault

import (
	"errors"
	"fmt"
	"testing"
)

var errDetached = errors.New("HEAD is detached")

func TestWrapPreservesChain(t *testing.T) {
	err := Wrap(Precondition, fmt.Errorf("reading HEAD: %w", errDetached))
	if !errors.Is(err, errDetached) {
		t.Error("errors.Is lost the sentinel through Wrap")
	}
	if KindOf(err) != Precondition {
		t.Errorf("KindOf = %q, want %q", KindOf(err), Precondition)
	}
}

func TestWrapKeepsExistingKind(t *testing.T) {
	inner := WithHint(Precondition, errDetached, "check out a branch")
	outer := Wrap(Store, inner)
	if KindOf(outer) != Precondition {
		t.Errorf("KindOf = %q, want %q", KindOf(outer), Precondition)
	}
	if HintOf(outer) != "check out a branch" {
		t.Errorf("HintOf = %q", HintOf(outer))
	}
}

func TestHintOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("creating patch: %w",
		WithHint(Precondition, errors.New("head not found"), "run `git push rad` and try again"))
	if HintOf(err) != "run `git push rad` and try again" {
		t.Errorf("HintOf = %q", HintOf(err))
	}
	if HintOf(errors.New("plain")) != "" {
		t.Error("unclassified errors carry no hint")
	}
	if Wrap(Usage, nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}
