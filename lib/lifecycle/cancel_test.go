// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/rad-patch/lib/fault"
	"github.com/bureau-foundation/rad-patch/lib/term"
)

// promptWatcher records terminal output and signals the first time a
// question is printed.
type promptWatcher struct {
	question string
	asked    chan struct{}
	once     sync.Once

	mu     sync.Mutex
	output bytes.Buffer
}

func (p *promptWatcher) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bytes.Contains(data, []byte(p.question)) {
		p.once.Do(func() { close(p.asked) })
	}
	return p.output.Write(data)
}

func TestPropose_CancelDuringUpdatePrompt(t *testing.T) {
	w := newWorld(t)
	b := w.commit("B", w.main)
	w.writes("Fix thing")
	if err := w.propose(noSync()); err != nil {
		t.Fatalf("create: %v", err)
	}
	w.commit("C", b)

	input, answers := io.Pipe()
	defer answers.Close()
	watcher := &promptWatcher{question: "Continue?", asked: make(chan struct{})}
	terminal := term.NewPlain(watcher, w.clock)
	controller := New(Config{
		Identity: w.self,
		Project:  w.metadata,
		Monorepo: w.monorepo,
		Graph:    w.graph,
		Patches:  w.selfStore,
		Terminal: terminal,
		Prompter: term.NewLinePrompter(terminal, input),
		Editor:   w.editor,
		Syncer:   w.syncer,
	})

	options := noSync()
	options.Update = Update{Mode: UpdateAny}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- controller.Propose(ctx, options) }()

	// Yes to "Update?", then interrupt while "Continue?" waits and
	// press Enter afterwards.
	if _, err := answers.Write([]byte("y\n")); err != nil {
		t.Fatalf("answering Update?: %v", err)
	}
	select {
	case <-watcher.asked:
	case err := <-done:
		t.Fatalf("Propose returned %v before asking to continue", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Continue? was never asked")
	}
	cancel()
	go answers.Write([]byte("\n"))

	select {
	case err := <-done:
		assertKind(t, err, ErrUserAbort, fault.Abort)
	case <-time.After(5 * time.Second):
		t.Fatal("Propose still blocked after cancellation")
	}

	entries := w.patches()
	if len(entries) != 1 {
		t.Fatalf("got %d patches, want 1", len(entries))
	}
	if version, _ := entries[0].Patch.Latest(); version != 0 {
		t.Errorf("version = %d after an interrupted update, want 0", version)
	}
	if len(w.syncer.calls) != 0 {
		t.Errorf("sync ran %d times", len(w.syncer.calls))
	}
}
