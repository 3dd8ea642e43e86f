// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package term

import (
	"context"
	"strings"
)

// PatchMessage is appended to the commit message when the user edits a
// new patch's title and description.
const PatchMessage = `
<!--
Please enter a patch message for your changes. An empty
message aborts the patch proposal.

The first line is the patch title. The patch description
follows, and must be separated with a blank line, just
like a commit message. Markdown is supported in the title
and description.
-->
`

// RevisionMessage is the buffer offered when the user comments on a
// patch update.
const RevisionMessage = `
<!--
Please enter a comment for your patch update. Leaving this
blank is also okay.
-->
`

// StripHelp removes every literal occurrence of the trimmed help block
// from text. Matching is by exact substring: a message that quotes the
// help block loses the quote too.
func StripHelp(text, help string) string {
	marker := strings.TrimSpace(help)
	if marker == "" {
		return text
	}
	return strings.ReplaceAll(text, marker, "")
}

// ParseMessage splits an edited patch message into title and
// description. The help block is stripped first; the title is
// everything before the first blank line and the description is the
// rest, both trimmed.
//
// A message without a blank line is accepted as a title with no
// description. This deliberately differs from older rad tooling,
// which rejected such a message as an invalid title or description;
// only an empty title is refused, by the caller.
func ParseMessage(text string) (title, description string) {
	text = strings.ReplaceAll(StripHelp(text, PatchMessage), "\r\n", "\n")
	title, description, _ = strings.Cut(strings.TrimSpace(text), "\n\n")
	return strings.TrimSpace(title), strings.TrimSpace(description)
}

// CommentMode selects where a revision comment comes from.
type CommentMode int

const (
	// CommentPrompt asks for the comment in the editor.
	CommentPrompt CommentMode = iota
	// CommentText uses text given on the command line.
	CommentText
	// CommentBlank leaves the comment empty.
	CommentBlank
)

// Comment is a comment source. The zero value prompts.
type Comment struct {
	Mode CommentMode
	Text string
}

// Get returns the comment. In prompt mode the editor is seeded with
// help, which is stripped from the result; leaving the editor without
// saving gives an empty comment.
func (c Comment) Get(ctx context.Context, editor Editor, help string) (string, error) {
	switch c.Mode {
	case CommentText:
		return c.Text, nil
	case CommentBlank:
		return "", nil
	}
	text, saved, err := editor.Edit(ctx, help)
	if err != nil {
		return "", err
	}
	if !saved {
		return "", nil
	}
	return strings.TrimSpace(StripHelp(text, help)), nil
}
