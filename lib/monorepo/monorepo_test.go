// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package monorepo

import (
	"errors"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bureau-foundation/rad-patch/lib/testutil"
)

var signature = object.Signature{Name: "peer", Email: "peer@rad", When: testutil.Epoch}

func TestWriteCommitAndReadFile(t *testing.T) {
	repo := testutil.NewRepo(t)
	hash, err := WriteCommit(repo, []Entry{
		{Name: "signature", Data: []byte{1, 2, 3}},
		{Name: "change", Data: []byte("payload")},
	}, nil, signature, "create")
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	data, err := ReadFile(repo, hash, "change")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("change = %q, want %q", data, "payload")
	}
	if _, err := ReadFile(repo, hash, "absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadFile(absent): err = %v, want ErrNotFound", err)
	}
}

func TestWriteCommitIsContentAddressed(t *testing.T) {
	first := testutil.NewRepo(t)
	second := testutil.NewRepo(t)
	entries := []Entry{{Name: "change", Data: []byte("same")}}

	a, err := WriteCommit(first, entries, nil, signature, "msg")
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	b, err := WriteCommit(second, entries, nil, signature, "msg")
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	if a != b {
		t.Errorf("identical commits hashed differently: %s vs %s", a, b)
	}
}

func TestCompareAndSwap(t *testing.T) {
	repo := testutil.NewRepo(t)
	const name = "refs/namespaces/abc/refs/cobs/thing/1"
	first, err := WriteCommit(repo, []Entry{{Name: "change", Data: []byte("1")}}, nil, signature, "1")
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}
	second, err := WriteCommit(repo, []Entry{{Name: "change", Data: []byte("2")}}, []plumbing.Hash{first}, signature, "2")
	if err != nil {
		t.Fatalf("WriteCommit: %v", err)
	}

	if err := CompareAndSwap(repo, name, first, plumbing.ZeroHash); err != nil {
		t.Fatalf("creating ref: %v", err)
	}
	if err := CompareAndSwap(repo, name, second, plumbing.ZeroHash); !errors.Is(err, ErrConflict) {
		t.Fatalf("creating an existing ref: err = %v, want ErrConflict", err)
	}
	if err := CompareAndSwap(repo, name, second, second); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale previous: err = %v, want ErrConflict", err)
	}
	if err := CompareAndSwap(repo, name, second, first); err != nil {
		t.Fatalf("advancing ref: %v", err)
	}

	tip, err := Resolve(repo, name)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if tip != second {
		t.Errorf("tip = %s, want %s", tip, second)
	}
	if _, err := Resolve(repo, "refs/heads/absent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(absent): err = %v, want ErrNotFound", err)
	}
}

func TestRefs(t *testing.T) {
	repo := testutil.NewRepo(t)
	id := testutil.NewHistory(t, repo).Commit("root")
	testutil.SetRef(t, repo, "refs/namespaces/p/refs/heads/main", id)
	testutil.SetRef(t, repo, "refs/namespaces/p/refs/remotes/x/heads/main", id)
	testutil.SetRef(t, repo, "refs/namespaces/q/refs/heads/main", id)

	refs, err := Refs(repo, "refs/namespaces/p/")
	if err != nil {
		t.Fatalf("Refs: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("Refs returned %d refs, want 2: %v", len(refs), refs)
	}
	if refs["refs/namespaces/p/refs/heads/main"] != testutil.Hash(t, id) {
		t.Errorf("missing or wrong refs/namespaces/p/refs/heads/main")
	}
}
