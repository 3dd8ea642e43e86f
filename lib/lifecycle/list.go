// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/oid"
	"github.com/bureau-foundation/rad-patch/lib/patch"
	"github.com/bureau-foundation/rad-patch/lib/term"
)

// treePrefix leads the second line of every listed patch; timeline
// lines are indented to match it.
const treePrefix = "└── "

// List prints the project's open patches, the caller's first. It
// never writes to the store.
func (c *Controller) List(ctx context.Context) error {
	proposed, err := c.patches.Proposed(c.project.Urn)
	if err != nil {
		return classify(err)
	}

	// A detached or unborn HEAD only loses the ahead/behind column.
	head, err := c.graph.HeadOid()
	if err != nil {
		c.logger.Debug("HEAD unavailable for ahead/behind", "error", err)
		head = oid.Oid{}
	}

	var own, other []patch.Entry
	for _, entry := range proposed {
		if entry.Patch.Author.Urn == c.identity.Urn {
			own = append(own, entry)
		} else {
			other = append(other, entry)
		}
	}
	c.logger.Debug("listing patches", "own", len(own), "other", len(other))

	c.terminal.Print(c.terminal.BadgePositive("YOU PROPOSED"))
	if len(own) == 0 {
		c.terminal.Blank()
		c.terminal.Print(c.terminal.Italic("Nothing to show."))
	}
	for _, entry := range own {
		c.terminal.Blank()
		if err := c.printPatch(entry, head); err != nil {
			return err
		}
	}

	c.terminal.Blank()
	c.terminal.Print(c.terminal.BadgeSecondary("OTHERS PROPOSED"))
	c.terminal.Blank()
	if len(other) == 0 {
		c.terminal.Print(c.terminal.Italic("Nothing to show."))
	}
	for _, entry := range other {
		if err := c.printPatch(entry, head); err != nil {
			return err
		}
	}
	c.terminal.Blank()
	return nil
}

type timelineEvent struct {
	timestamp int64
	text      string
}

func (c *Controller) printPatch(entry patch.Entry, head oid.Oid) error {
	p := entry.Patch
	p.Author.Resolve(c.resolveName)
	for _, revision := range p.Revisions {
		for _, review := range revision.Reviews {
			review.Author.Resolve(c.resolveName)
		}
	}

	t := c.terminal
	version, revision := p.Latest()

	diff := ""
	if !head.IsZero() {
		ahead, behind, err := c.graph.AheadBehind(revision.Oid, head)
		if err != nil {
			return classify(err)
		}
		if ahead > 0 || behind > 0 {
			diff = "ahead " + t.Positive(ahead) + ", behind " + t.Negative(behind)
		} else {
			diff = t.Dim("up to date")
		}
	}
	t.Print(joinFields(t.Bold(p.Title), t.Dim("R"+strconv.Itoa(version)), t.Secondary(revision.Oid.Short()), diff))

	author := []string{
		treePrefix + t.Secondary(entry.ID.Short()),
		"opened by",
		t.Tertiary(p.Author.DisplayName()),
	}
	if p.Author.Urn == c.identity.Urn {
		author = append(author, t.Secondary("(you)"))
	}
	author = append(author, t.Dim(t.Ago(p.Timestamp)))
	t.Print(joinFields(author...))

	indent := strings.Repeat(" ", term.TextWidth(treePrefix))
	var timeline []timelineEvent
	for _, merge := range revision.Merges {
		info := c.peerInfo(merge.Peer)
		fields := append([]string{indent + t.Secondary("✓ merged"), "by", t.Tertiary(info.Name())}, c.peerBadges(info)...)
		timeline = append(timeline, timelineEvent{merge.Timestamp, joinFields(fields...)})
	}
	for _, peer := range sortedReviewers(revision) {
		review := revision.Reviews[peer]
		info := c.peerInfo(peer)
		fields := append([]string{indent + c.verdict(review.Verdict), "by", t.Tertiary(review.Author.DisplayName())}, c.peerBadges(info)...)
		timeline = append(timeline, timelineEvent{review.Timestamp, joinFields(fields...)})
	}
	slices.SortStableFunc(timeline, func(a, b timelineEvent) int {
		return cmp.Compare(a.timestamp, b.timestamp)
	})
	for i := len(timeline) - 1; i >= 0; i-- {
		t.Print(joinFields(timeline[i].text, t.Dim(t.Ago(timeline[i].timestamp))))
	}
	return nil
}

func (c *Controller) verdict(verdict patch.Verdict) string {
	switch verdict {
	case patch.Accept:
		return c.terminal.Positive("✓ accepted")
	case patch.Reject:
		return c.terminal.Negative("✗ rejected")
	default:
		return c.terminal.Negative("⋄ reviewed")
	}
}

func sortedReviewers(revision *patch.Revision) []identity.PeerID {
	peers := make([]identity.PeerID, 0, len(revision.Reviews))
	for peer := range revision.Reviews {
		peers = append(peers, peer)
	}
	return identity.SortPeers(peers)
}

// joinFields joins the non-empty fields with single spaces.
func joinFields(fields ...string) string {
	kept := fields[:0:0]
	for _, field := range fields {
		if field != "" {
			kept = append(kept, field)
		}
	}
	return strings.Join(kept, " ")
}
