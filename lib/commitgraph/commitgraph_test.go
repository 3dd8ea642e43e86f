// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commitgraph

import (
	"errors"
	"testing"

	"github.com/bureau-foundation/rad-patch/lib/oid"
	"github.com/bureau-foundation/rad-patch/lib/testutil"
)

// diamond builds:
//
//	root - a - c (main)
//	    \     /
//	     - b -   ... and x on top of b (feature)
func diamond(t *testing.T) (graph *Graph, ids map[string]oid.Oid) {
	t.Helper()
	working := testutil.NewRepo(t)
	monorepo := testutil.NewRepo(t)
	history := testutil.NewHistory(t, working, monorepo)

	ids = make(map[string]oid.Oid)
	ids["root"] = history.Commit("root")
	ids["a"] = history.Commit("a", ids["root"])
	ids["b"] = history.Commit("b", ids["root"])
	ids["c"] = history.Commit("c", ids["a"], ids["b"])
	ids["x"] = history.Commit("x", ids["b"])

	testutil.Checkout(t, working, "feature", ids["x"])
	testutil.SetRef(t, monorepo, "refs/heads/main", ids["c"])
	return New(working, monorepo), ids
}

func TestHead(t *testing.T) {
	graph, ids := diamond(t)
	branch, head, err := graph.Head()
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	if branch.String() != "feature" {
		t.Errorf("branch = %q, want feature", branch)
	}
	if head != ids["x"] {
		t.Errorf("head = %s, want %s", head, ids["x"])
	}
}

func TestHeadDetached(t *testing.T) {
	working := testutil.NewRepo(t)
	id := testutil.NewHistory(t, working).Commit("only")
	testutil.Detach(t, working, id)

	graph := New(working, testutil.NewRepo(t))
	if _, _, err := graph.Head(); !errors.Is(err, ErrDetachedHead) {
		t.Fatalf("Head on detached HEAD: err = %v, want ErrDetachedHead", err)
	}
	head, err := graph.HeadOid()
	if err != nil {
		t.Fatalf("HeadOid: %v", err)
	}
	if head != id {
		t.Errorf("HeadOid = %s, want %s", head, id)
	}
}

func TestHeadUnborn(t *testing.T) {
	graph := New(testutil.NewRepo(t), testutil.NewRepo(t))
	if _, _, err := graph.Head(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Head on empty repository: err = %v, want ErrNotFound", err)
	}
}

func TestFindCommitFallsBackToWorkingCopy(t *testing.T) {
	working := testutil.NewRepo(t)
	monorepo := testutil.NewRepo(t)
	history := testutil.NewHistory(t, working, monorepo)
	shared := history.Commit("shared")
	local := history.In(working).Commit("local only\n\nbody text", shared)

	graph := New(working, monorepo)
	commit, err := graph.FindCommit(local)
	if err != nil {
		t.Fatalf("FindCommit: %v", err)
	}
	summary, err := commit.Summary()
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary != "local only" {
		t.Errorf("summary = %q, want %q", summary, "local only")
	}
	if len(commit.Parents) != 1 || commit.Parents[0] != shared {
		t.Errorf("parents = %v, want [%s]", commit.Parents, shared)
	}

	contained, err := graph.Contains(local)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if contained {
		t.Error("Contains reports a working-copy-only commit as present in the monorepo")
	}
	contained, err = graph.Contains(shared)
	if err != nil {
		t.Fatalf("Contains: %v", err)
	}
	if !contained {
		t.Error("Contains does not find a monorepo commit")
	}
}

func TestFindCommitMissing(t *testing.T) {
	graph := New(testutil.NewRepo(t), testutil.NewRepo(t))
	missing := oid.MustParse("1111111111111111111111111111111111111111")
	if _, err := graph.FindCommit(missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("FindCommit(missing): err = %v, want ErrNotFound", err)
	}
}

func TestCommitMessageInvalidUTF8(t *testing.T) {
	working := testutil.NewRepo(t)
	id := testutil.NewHistory(t, working).Commit("bad \xff byte")
	commit, err := New(working, testutil.NewRepo(t)).FindCommit(id)
	if err != nil {
		t.Fatalf("FindCommit: %v", err)
	}
	if _, err := commit.Message(); !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("Message: err = %v, want ErrInvalidUTF8", err)
	}
}

func TestTip(t *testing.T) {
	graph, ids := diamond(t)
	tip, ok, err := graph.Tip("refs/heads/main")
	if err != nil || !ok {
		t.Fatalf("Tip(main) = %v, %v", ok, err)
	}
	if tip != ids["c"] {
		t.Errorf("tip = %s, want %s", tip, ids["c"])
	}
	if _, ok, err := graph.Tip("refs/heads/absent"); err != nil || ok {
		t.Errorf("Tip(absent) = %v, %v; want false, nil", ok, err)
	}
}

func TestMergeBase(t *testing.T) {
	graph, ids := diamond(t)
	tests := []struct {
		name string
		a, b string
		want string
	}{
		{"merge and side branch", "c", "x", "b"},
		{"siblings", "a", "b", "root"},
		{"ancestor", "root", "c", "root"},
		{"identical", "x", "x", "x"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			base, err := graph.MergeBase(ids[test.a], ids[test.b])
			if err != nil {
				t.Fatalf("MergeBase: %v", err)
			}
			if base != ids[test.want] {
				t.Errorf("MergeBase(%s, %s) = %s, want %s", test.a, test.b, base, ids[test.want])
			}
		})
	}
}

func TestMergeBaseUnrelated(t *testing.T) {
	repo := testutil.NewRepo(t)
	history := testutil.NewHistory(t, repo)
	one := history.Commit("one")
	two := history.Commit("two")
	if _, err := New(nil, repo).MergeBase(one, two); !errors.Is(err, ErrNoMergeBase) {
		t.Fatalf("MergeBase of unrelated roots: err = %v, want ErrNoMergeBase", err)
	}
}

func TestIsAncestor(t *testing.T) {
	graph, ids := diamond(t)
	tests := []struct {
		ancestor, descendant string
		want                 bool
	}{
		{"root", "c", true},
		{"b", "c", true},
		{"c", "c", true},
		{"x", "c", false},
		{"c", "root", false},
	}
	for _, test := range tests {
		got, err := graph.IsAncestor(ids[test.ancestor], ids[test.descendant])
		if err != nil {
			t.Fatalf("IsAncestor(%s, %s): %v", test.ancestor, test.descendant, err)
		}
		if got != test.want {
			t.Errorf("IsAncestor(%s, %s) = %v, want %v", test.ancestor, test.descendant, got, test.want)
		}
	}
}

func TestAheadBehind(t *testing.T) {
	graph, ids := diamond(t)
	ahead, behind, err := graph.AheadBehind(ids["x"], ids["c"])
	if err != nil {
		t.Fatalf("AheadBehind: %v", err)
	}
	// x is ahead by itself; c is ahead by a and c.
	if ahead != 1 || behind != 2 {
		t.Errorf("AheadBehind(x, c) = %d, %d; want 1, 2", ahead, behind)
	}
	ahead, behind, err = graph.AheadBehind(ids["c"], ids["c"])
	if err != nil {
		t.Fatalf("AheadBehind: %v", err)
	}
	if ahead != 0 || behind != 0 {
		t.Errorf("AheadBehind(c, c) = %d, %d; want 0, 0", ahead, behind)
	}
}

func TestCommitsBetween(t *testing.T) {
	graph, ids := diamond(t)
	var got []oid.Oid
	for commit, err := range graph.CommitsBetween(ids["root"], ids["c"]) {
		if err != nil {
			t.Fatalf("CommitsBetween: %v", err)
		}
		got = append(got, commit.Oid)
	}
	want := []oid.Oid{ids["a"], ids["b"], ids["c"]}
	if len(got) != len(want) {
		t.Fatalf("CommitsBetween(root, c) yielded %d commits, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("commit %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestCommitsBetweenStopsEarly(t *testing.T) {
	graph, ids := diamond(t)
	count := 0
	for _, err := range graph.CommitsBetween(ids["root"], ids["c"]) {
		if err != nil {
			t.Fatalf("CommitsBetween: %v", err)
		}
		count++
		break
	}
	if count != 1 {
		t.Errorf("iterated %d commits after break, want 1", count)
	}
}

func TestCommitsBetweenMissingTip(t *testing.T) {
	graph, ids := diamond(t)
	missing := oid.MustParse("2222222222222222222222222222222222222222")
	for _, err := range graph.CommitsBetween(ids["root"], missing) {
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		return
	}
	t.Fatal("CommitsBetween with a missing tip yielded nothing")
}
