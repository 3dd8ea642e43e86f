// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bureau-foundation/rad-patch/lib/cob"
	"github.com/bureau-foundation/rad-patch/lib/commitgraph"
	"github.com/bureau-foundation/rad-patch/lib/oid"
	"github.com/bureau-foundation/rad-patch/lib/patch"
	"github.com/bureau-foundation/rad-patch/lib/reflike"
	"github.com/bureau-foundation/rad-patch/lib/term"
)

// Propose proposes the working copy's HEAD: as a new patch, or as a
// new revision of an existing one when options.Update asks for it.
func (c *Controller) Propose(ctx context.Context, options Options) error {
	t := c.terminal
	t.Headline("🌱 Creating patch for " + t.Highlight(c.project.Name))

	branch, head, err := c.graph.Head()
	if err != nil {
		if errors.Is(err, commitgraph.ErrDetachedHead) {
			return classify(fmt.Errorf("cannot create patch from detached head; aborting: %w", err))
		}
		return classify(err)
	}
	headCommit, err := c.graph.FindCommit(head)
	if err != nil {
		return classify(err)
	}

	// Nobody can merge a commit that is not in the monorepo.
	spinner := t.Spinner(fmt.Sprintf("Looking for HEAD (%s) in storage...", t.Secondary(head.Short())))
	found, err := c.graph.Contains(head)
	if err != nil {
		spinner.Failed()
		return classify(err)
	}
	if !found {
		spinner.Failed()
		t.Blank()
		return classify(ErrHeadNotInStore)
	}
	spinner.Finish()

	targets, err := patch.FindMergeTargets(c.graph, head, c.project, c.identity.Peer())
	if err != nil {
		return classify(err)
	}
	for _, merged := range targets.Merged {
		info := c.peerInfo(merged.Peer)
		t.Info("%s %s", info.Name(), t.BadgeSecondary("merged"))
	}
	target, err := c.chooseTarget(targets.NotMerged)
	if err != nil {
		return classify(err)
	}

	mergeBase, err := c.graph.MergeBase(target.Oid, head)
	if err != nil {
		return classify(fmt.Errorf("finding merge base with %s: %w", target.Oid.Short(), err))
	}
	c.logger.Debug("resolved merge target",
		"peer", target.Peer.String(),
		"target", target.Oid.String(),
		"head", head.String(),
		"merge_base", mergeBase.String(),
	)

	existing, err := c.findExisting(head, target.Oid, mergeBase, options.Update)
	if err != nil {
		return err
	}
	if existing != nil {
		if existing.Patch == nil {
			t.Info("Nothing to do, patch is already up to date.")
			return nil
		}
		return c.update(ctx, *existing, head, branch, options)
	}

	var commits []commitgraph.Commit
	for commit, err := range c.graph.CommitsBetween(mergeBase, head) {
		if err != nil {
			return classify(err)
		}
		commits = append(commits, commit)
	}

	targetInfo := c.peerInfo(target.Peer)
	t.Blank()
	t.Info("%s/%s (%s) <- %s/%s (%s)",
		targetInfo.Name(),
		t.Highlight(c.project.DefaultBranch.String()),
		t.Secondary(target.Oid.Short()),
		c.identity.Name,
		t.Highlight(branch.String()),
		t.Secondary(head.Short()),
	)
	if err := c.printAheadBehind(head, target.Oid); err != nil {
		return err
	}
	t.Blank()
	if err := c.printCommits(commits); err != nil {
		return err
	}
	t.Blank()

	if err := c.confirm(ctx, "Continue?", "patch proposal"); err != nil {
		return err
	}

	message, err := headCommit.Message()
	if err != nil {
		return classify(fmt.Errorf("commit message is not valid UTF-8; aborting: %w", err))
	}
	edited, saved, err := c.editor.Edit(ctx, message+term.PatchMessage)
	if err != nil {
		return classify(err)
	}
	if !saved {
		return classify(fmt.Errorf("patch message not saved: %w", ErrUserAbort))
	}
	title, description := term.ParseMessage(edited)
	if title == "" {
		return classify(ErrEmptyTitle)
	}
	c.printPreview(title, description)

	if err := c.confirm(ctx, "Create patch?", "patch proposal"); err != nil {
		return err
	}

	id, err := c.patches.Create(c.project.Urn, title, description, patch.Upstream, head, nil)
	if err != nil {
		return classify(err)
	}
	c.logger.Debug("patch created", "patch", id.String(), "head", head.String())

	t.Blank()
	t.Success("Patch %s created 🌱", t.Highlight(id.String()))
	return c.sync(ctx, branch, options)
}

// chooseTarget picks the merge target among the peers whose default
// branch lacks HEAD. Peers whose branches agree are one target.
func (c *Controller) chooseTarget(candidates []patch.Target) (patch.Target, error) {
	if len(candidates) == 0 {
		return patch.Target{}, ErrNoMergeTarget
	}
	first := candidates[0]
	for _, candidate := range candidates[1:] {
		if candidate.Oid != first.Oid {
			var listed []string
			for _, target := range candidates {
				info := c.peerInfo(target.Peer)
				listed = append(listed, info.Name()+" ("+target.Oid.Short()+")")
			}
			return patch.Target{}, fmt.Errorf("%w: %s", ErrAmbiguousTarget, strings.Join(listed, ", "))
		}
	}
	return first, nil
}

// findExisting resolves --update to the patch being updated. A nil
// result means a new patch; an Entry with no Patch means HEAD is
// already proposed and there is nothing to do.
func (c *Controller) findExisting(head, targetHead, mergeBase oid.Oid, update Update) (*patch.Entry, error) {
	switch update.Mode {
	case UpdateAny:
		spinner := c.terminal.Spinner("Finding patches to update...")
		candidates, err := patch.FindUnmergedWithBase(c.graph, c.patches, c.project.Urn, head, targetHead, mergeBase)
		if err != nil {
			spinner.Failed()
			return nil, classify(err)
		}
		switch len(candidates) {
		case 0:
			current, err := c.proposesHead(head)
			if err != nil {
				spinner.Failed()
				return nil, classify(err)
			}
			if current != nil {
				spinner.Message(fmt.Sprintf("Found existing patch %s %s",
					c.terminal.Tertiary(current.ID.Short()), c.terminal.Italic(current.Patch.Title)))
				spinner.Finish()
				return &patch.Entry{ID: current.ID}, nil
			}
			spinner.Failed()
			c.terminal.Blank()
			return nil, classify(ErrNoUpdateCandidate)
		case 1:
			found := candidates[0]
			spinner.Message(fmt.Sprintf("Found existing patch %s %s",
				c.terminal.Tertiary(found.ID.Short()), c.terminal.Italic(found.Patch.Title)))
			spinner.Finish()
			c.terminal.Blank()
			return &found, nil
		default:
			spinner.Failed()
			c.terminal.Blank()
			return nil, classify(ErrAmbiguousUpdate)
		}

	case UpdatePatch:
		id, err := c.patches.ResolveID(c.project.Urn, update.ID)
		if errors.Is(err, cob.ErrNotFound) {
			return nil, classify(fmt.Errorf("%w: '%s'", ErrPatchNotFound, update.ID))
		}
		if err != nil {
			return nil, classify(err)
		}
		found, ok, err := c.patches.Get(c.project.Urn, id)
		if err != nil {
			return nil, classify(err)
		}
		if !ok {
			return nil, classify(fmt.Errorf("%w: '%s'", ErrPatchNotFound, id))
		}
		return &patch.Entry{ID: id, Patch: found}, nil
	}
	return nil, nil
}

// proposesHead returns the caller's open, unmerged patch whose latest
// revision is head, if any.
func (c *Controller) proposesHead(head oid.Oid) (*patch.Entry, error) {
	own, err := c.patches.ProposedBy(c.identity.Urn, c.project.Urn)
	if err != nil {
		return nil, err
	}
	for _, entry := range own {
		_, latest := entry.Patch.Latest()
		if latest.Oid == head && len(latest.Merges) == 0 {
			return &entry, nil
		}
	}
	return nil, nil
}

// update appends HEAD as a new revision of an existing patch.
func (c *Controller) update(ctx context.Context, entry patch.Entry, head oid.Oid, branch reflike.RefLike, options Options) error {
	t := c.terminal
	current, latest := entry.Patch.Latest()
	if latest.Oid == head {
		t.Info("Nothing to do, patch is already up to date.")
		return nil
	}

	if err := c.confirm(ctx, "Update?", "patch update"); err != nil {
		return err
	}
	t.Blank()

	t.Info("%s %s (%s) -> %s (%s)",
		t.Tertiary(entry.ID.Short()),
		t.Dim("R"+strconv.Itoa(current)),
		t.Secondary(latest.Oid.Short()),
		t.Dim("R"+strconv.Itoa(current+1)),
		t.Secondary(head.Short()),
	)
	comment, err := options.Comment.Get(ctx, c.editor, term.RevisionMessage)
	if err != nil {
		return classify(err)
	}
	if err := c.printAheadBehind(head, latest.Oid); err != nil {
		return err
	}
	t.Blank()

	if err := c.confirm(ctx, "Continue?", "patch update"); err != nil {
		return err
	}

	version, err := c.patches.Update(c.project.Urn, entry.ID, comment, head)
	if err != nil {
		return classify(err)
	}
	if version != current+1 {
		panic(fmt.Sprintf("patch %s: store returned version %d after version %d", entry.ID, version, current))
	}
	c.logger.Debug("patch updated", "patch", entry.ID.String(), "version", version, "head", head.String())

	t.Blank()
	t.Success("Patch %s updated 🌱", t.Highlight(entry.ID.String()))
	t.Blank()
	return c.sync(ctx, branch, options)
}

func (c *Controller) sync(ctx context.Context, branch reflike.RefLike, options Options) error {
	if !options.Sync {
		return nil
	}
	if err := c.syncer.Sync(ctx, branch, options.Verbose); err != nil {
		return classify(err)
	}
	return nil
}

func (c *Controller) printCommits(commits []commitgraph.Commit) error {
	// Newest first, the way git log shows them.
	for i := len(commits) - 1; i >= 0; i-- {
		summary, err := commits[i].Summary()
		if err != nil {
			return classify(fmt.Errorf("commit %s: %w", commits[i].Oid.Short(), err))
		}
		c.terminal.Info("%s %s", c.terminal.Secondary(commits[i].Oid.Short()), summary)
	}
	return nil
}

func (c *Controller) printPreview(title, description string) {
	t := c.terminal
	top := t.Dim("╭─ " + title + " ───────")
	t.Blank()
	t.Print(top)
	t.Blank()
	if description == "" {
		t.Print(t.Italic("No description provided."))
	} else {
		t.Markdown(description)
	}
	t.Blank()
	t.Print(t.Dim("╰" + strings.Repeat("─", max(term.TextWidth(top)-1, 0))))
	t.Blank()
}
