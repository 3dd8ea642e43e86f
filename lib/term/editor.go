// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package term

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Editor lets the user edit a buffer. saved is false when the user
// left the editor without saving the buffer.
type Editor interface {
	Edit(ctx context.Context, initial string) (text string, saved bool, err error)
}

// CommandEditor runs an external editor on a temporary .markdown file.
// Command is interpreted by sh, the way git runs core.editor, so it
// may carry its own arguments ("code --wait").
type CommandEditor struct {
	Command string

	// Dir holds the temporary file. Empty means os.TempDir.
	Dir string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewCommandEditor returns an editor attached to the process's
// standard streams.
func NewCommandEditor(command string) *CommandEditor {
	return &CommandEditor{
		Command: command,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Edit writes initial to a temporary file, waits for the editor to
// exit, and returns the file's contents with surrounding newlines
// trimmed. The buffer counts as saved when the editor wrote the file,
// even without changing it. The file is removed on every path.
func (e *CommandEditor) Edit(ctx context.Context, initial string) (string, bool, error) {
	if strings.TrimSpace(e.Command) == "" {
		return "", false, fmt.Errorf("no editor configured")
	}

	file, err := os.CreateTemp(e.Dir, "RAD_PATCH_*.markdown")
	if err != nil {
		return "", false, fmt.Errorf("creating editor file: %w", err)
	}
	path := file.Name()
	defer os.Remove(path)

	if _, err := file.WriteString(initial); err != nil {
		file.Close()
		return "", false, fmt.Errorf("writing editor file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", false, fmt.Errorf("writing editor file: %w", err)
	}
	// Backdate the file so a save in the same clock tick as the write
	// still moves its modification time.
	written := time.Now().Add(-time.Minute).Truncate(time.Second)
	if err := os.Chtimes(path, written, written); err != nil {
		return "", false, fmt.Errorf("preparing editor file: %w", err)
	}

	command := exec.CommandContext(ctx, "sh", "-c", e.Command+` "$@"`, e.Command, path)
	command.Stdin = e.Stdin
	command.Stdout = e.Stdout
	command.Stderr = e.Stderr
	if err := command.Run(); err != nil {
		return "", false, fmt.Errorf("running editor %q: %w", e.Command, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", false, fmt.Errorf("reading editor file: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("reading editor file: %w", err)
	}
	if info.ModTime().Equal(written) && string(data) == initial {
		return "", false, nil
	}
	return strings.Trim(string(data), "\r\n"), true, nil
}

// ScriptedEditor is an Editor that applies a function to the buffer
// instead of running a program. A nil Func leaves the buffer unsaved.
type ScriptedEditor struct {
	Func func(initial string) string

	// Seen records every initial buffer.
	Seen []string
}

func (e *ScriptedEditor) Edit(_ context.Context, initial string) (string, bool, error) {
	e.Seen = append(e.Seen, initial)
	if e.Func == nil {
		return "", false, nil
	}
	return strings.Trim(e.Func(initial), "\r\n"), true, nil
}
