// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates the diagnostic logger for a command run.
// When stderr is a terminal it uses slog.TextHandler for human-readable
// output; when stderr is piped or redirected (CI, scripts, tests) it
// uses slog.JSONHandler. The level is Info, or Debug when verbose.
//
// User-facing output does not go through this logger. Callers scope it
// with command context via With():
//
//	logger := cli.NewCommandLogger(verbose).With("command", "patch")
func NewCommandLogger(verbose bool) *slog.Logger {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), verbose)
}

func newLogger(output io.Writer, terminal, verbose bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		options.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if terminal {
		handler = slog.NewTextHandler(output, options)
	} else {
		handler = slog.NewJSONHandler(output, options)
	}
	return slog.New(handler)
}
