// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package replicate hands a branch to the replication tool after a
// patch is created or updated. rad-patch does not talk to seeds
// itself; it runs the configured command and reports its failure.
package replicate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/bureau-foundation/rad-patch/lib/reflike"
)

// Syncer replicates a branch of the current project.
type Syncer interface {
	Sync(ctx context.Context, branch reflike.RefLike, verbose bool) error
}

// CommandSyncer runs an external command: Argv followed by
// "--branch <branch>" and, when verbose, "--verbose".
type CommandSyncer struct {
	Argv []string

	// Dir is the working directory; empty means the current one.
	Dir string

	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// Sync runs the command and waits for it. Stderr is included in the
// error when the command fails and no Stderr writer is set.
func (s *CommandSyncer) Sync(ctx context.Context, branch reflike.RefLike, verbose bool) error {
	if len(s.Argv) == 0 {
		return fmt.Errorf("sync: no command configured")
	}
	args := append(append([]string{}, s.Argv[1:]...), "--branch", branch.String())
	if verbose {
		args = append(args, "--verbose")
	}

	command := exec.CommandContext(ctx, s.Argv[0], args...)
	command.Dir = s.Dir
	command.Stdout = s.Stdout
	var stderr bytes.Buffer
	if s.Stderr != nil {
		command.Stderr = s.Stderr
	} else {
		command.Stderr = &stderr
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("running sync", "argv", append([]string{s.Argv[0]}, args...))

	if err := command.Run(); err != nil {
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return fmt.Errorf("sync %s: %w (stderr: %s)", s.Argv[0], err, detail)
		}
		return fmt.Errorf("sync %s: %w", s.Argv[0], err)
	}
	return nil
}

// Disabled is a Syncer that does nothing, for --no-sync.
type Disabled struct{}

func (Disabled) Sync(context.Context, reflike.RefLike, bool) error { return nil }
