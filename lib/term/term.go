// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package term is the user-facing output of rad-patch: styled lines,
// badges, a markdown preview, confirmation prompts, and the editor
// round-trip used to write patch messages. Diagnostics go to the
// command logger; everything a user is meant to read goes through a
// [Terminal].
//
// Styling is chosen once, when the Terminal is created. A writer that
// is not a terminal gets the Ascii profile, so redirected output and
// test buffers carry no escape sequences.
package term

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	xterm "golang.org/x/term"

	"github.com/bureau-foundation/rad-patch/lib/clock"
)

// DefaultWidth is the wrap width used when the output is not a
// terminal or its size cannot be read.
const DefaultWidth = 80

// Terminal writes styled output to a single writer.
type Terminal struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	profile  termenv.Profile
	width    int
	clock    clock.Clock
}

// New returns a Terminal writing to out. Colors are enabled only when
// out is a terminal.
func New(out io.Writer, clk clock.Clock) *Terminal {
	profile := termenv.Ascii
	width := DefaultWidth
	if file, ok := out.(*os.File); ok && xterm.IsTerminal(int(file.Fd())) {
		profile = termenv.ANSI256
		if columns, _, err := xterm.GetSize(int(file.Fd())); err == nil && columns > 0 {
			width = columns
		}
	}
	return newTerminal(out, clk, profile, width)
}

// NewPlain returns a Terminal that never emits escape sequences.
func NewPlain(out io.Writer, clk clock.Clock) *Terminal {
	return newTerminal(out, clk, termenv.Ascii, DefaultWidth)
}

func newTerminal(out io.Writer, clk clock.Clock, profile termenv.Profile, width int) *Terminal {
	if clk == nil {
		clk = clock.Real()
	}
	renderer := lipgloss.NewRenderer(out, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)
	return &Terminal{
		out:      out,
		renderer: renderer,
		profile:  profile,
		width:    width,
		clock:    clk,
	}
}

// Writer returns the underlying writer.
func (t *Terminal) Writer() io.Writer { return t.out }

// Width returns the wrap width.
func (t *Terminal) Width() int { return t.width }

// Print writes text followed by a newline.
func (t *Terminal) Print(text string) {
	fmt.Fprintln(t.out, text)
}

// Blank writes an empty line.
func (t *Terminal) Blank() {
	fmt.Fprintln(t.out)
}

// Info writes a formatted line.
func (t *Terminal) Info(format string, args ...any) {
	fmt.Fprintf(t.out, format+"\n", args...)
}

// Success writes a formatted line marked with a check.
func (t *Terminal) Success(format string, args ...any) {
	t.Print(t.Positive("✓") + " " + fmt.Sprintf(format, args...))
}

// Headline writes a bold line followed by a blank line.
func (t *Terminal) Headline(text string) {
	t.Print(t.Bold(text))
	t.Blank()
}

// Ago renders a unix timestamp relative to now ("3 minutes ago").
func (t *Terminal) Ago(unix int64) string {
	return relativeTime(time.Unix(unix, 0), t.clock.Now())
}

// TextWidth returns the visible width of text, ignoring escape
// sequences.
func TextWidth(text string) int {
	return ansi.StringWidth(text)
}

// Spinner reports the progress of one step. The step is announced when
// it starts and settled with a check or a cross.
type Spinner struct {
	terminal *Terminal
	message  string
	done     bool
}

// Spinner starts a progress line for message.
func (t *Terminal) Spinner(message string) *Spinner {
	return &Spinner{terminal: t, message: message}
}

// Message replaces the text the spinner settles with.
func (s *Spinner) Message(message string) {
	s.message = message
}

// Finish settles the spinner as successful.
func (s *Spinner) Finish() {
	s.settle(s.terminal.Positive("✓"))
}

// Failed settles the spinner as failed.
func (s *Spinner) Failed() {
	s.settle(s.terminal.Negative("✗"))
}

func (s *Spinner) settle(mark string) {
	if s.done {
		return
	}
	s.done = true
	s.terminal.Print(mark + " " + strings.TrimSpace(s.message))
}
