// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Prompter asks the user yes/no questions.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// LinePrompter reads answers a line at a time. An empty answer takes
// the default, yes. End of input answers no. A cancelled context ends
// a pending question at once, even while the read is blocked.
type LinePrompter struct {
	terminal *Terminal
	input    *bufio.Reader

	start sync.Once
	lines chan readResult
}

type readResult struct {
	line string
	err  error
}

// NewLinePrompter returns a prompter that writes questions to terminal
// and reads answers from input.
func NewLinePrompter(terminal *Terminal, input io.Reader) *LinePrompter {
	return &LinePrompter{
		terminal: terminal,
		input:    bufio.NewReader(input),
		lines:    make(chan readResult),
	}
}

// readLines feeds lines to p.lines until the input fails. A line read
// after the caller gave up waits for the next question.
func (p *LinePrompter) readLines() {
	defer close(p.lines)
	for {
		line, err := p.input.ReadString('\n')
		p.lines <- readResult{line, err}
		if err != nil {
			return
		}
	}
}

func (p *LinePrompter) Confirm(ctx context.Context, question string) (bool, error) {
	p.start.Do(func() { go p.readLines() })
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fmt.Fprintf(p.terminal.out, "%s %s %s ", p.terminal.Positive("?"), p.terminal.Bold(question), p.terminal.Dim("[Y/n]"))

		var result readResult
		select {
		case <-ctx.Done():
			p.terminal.Blank()
			return false, ctx.Err()
		case read, ok := <-p.lines:
			result = read
			if !ok {
				result.err = io.EOF
			}
		}
		// Both may have been ready; cancellation wins over the answer.
		if err := ctx.Err(); err != nil {
			p.terminal.Blank()
			return false, err
		}

		line, err := result.line, result.err
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("reading answer: %w", err)
		}
		if errors.Is(err, io.EOF) && line == "" {
			p.terminal.Blank()
			return false, nil
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "", "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		p.terminal.Print(p.terminal.Negative("Please answer yes or no."))
	}
}

// Answers is a Prompter that replays a fixed list of answers, for
// non-interactive callers and tests. Questions are recorded. Running
// out of answers is an error.
type Answers struct {
	Replies   []bool
	Questions []string
}

func (a *Answers) Confirm(_ context.Context, question string) (bool, error) {
	a.Questions = append(a.Questions, question)
	if len(a.Replies) == 0 {
		return false, fmt.Errorf("unexpected question %q", question)
	}
	reply := a.Replies[0]
	a.Replies = a.Replies[1:]
	return reply, nil
}

// Always is a Prompter that answers every question with its value.
type Always bool

func (a Always) Confirm(context.Context, string) (bool, error) {
	return bool(a), nil
}
