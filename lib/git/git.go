// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package git runs the git CLI against a working copy. Reads of the
// commit graph and the monorepo go through go-git in-process (see
// lib/commitgraph); this package covers the cases where git's own
// configuration resolution matters, such as finding the user's editor
// the same way `git commit` would.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Binary is the git executable looked up on PATH. Tests override it.
var Binary = "git"

// Repository is a working copy at a specific directory. Every command
// is run as "git -C <dir>".
type Repository struct {
	dir string
}

// NewRepository returns a Repository targeting dir.
func NewRepository(dir string) *Repository {
	return &Repository{dir: dir}
}

// Dir returns the repository directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Run executes a git command and returns stdout. Stderr is included
// in the error on failure.
func (r *Repository) Run(ctx context.Context, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	command := r.Command(ctx, args...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", fmt.Errorf("git %s in %s: %w (stderr: %s)",
			strings.Join(args, " "), r.dir, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Command returns an unstarted *exec.Cmd with -C prepended.
func (r *Repository) Command(ctx context.Context, args ...string) *exec.Cmd {
	fullArgs := append([]string{"-C", r.dir}, args...)
	return exec.CommandContext(ctx, Binary, fullArgs...)
}

// Editor returns the editor command git would launch for this
// repository, honoring GIT_EDITOR, core.editor, VISUAL and EDITOR in
// git's order of precedence.
func (r *Repository) Editor(ctx context.Context) (string, error) {
	output, err := r.Run(ctx, "var", "GIT_EDITOR")
	if err != nil {
		return "", fmt.Errorf("resolving editor: %w", err)
	}
	editor := strings.TrimSpace(output)
	if editor == "" {
		return "", fmt.Errorf("no editor configured (set core.editor or EDITOR)")
	}
	return editor, nil
}
