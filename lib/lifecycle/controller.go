// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle runs the rad patch flows: listing open patches,
// proposing HEAD as a new patch, and updating an existing patch with a
// new revision.
//
// A Controller is built once per invocation from the acting identity,
// the project, and the terminal collaborators (prompter, editor,
// syncer). Flows are sequential and blocking. Every error a flow
// returns is classified with a [fault.Kind]; a store that reports an
// unexpected version after an update panics.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	git "github.com/go-git/go-git/v5"

	"github.com/bureau-foundation/rad-patch/lib/cob"
	"github.com/bureau-foundation/rad-patch/lib/commitgraph"
	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/oid"
	"github.com/bureau-foundation/rad-patch/lib/patch"
	"github.com/bureau-foundation/rad-patch/lib/project"
	"github.com/bureau-foundation/rad-patch/lib/replicate"
	"github.com/bureau-foundation/rad-patch/lib/term"
)

// UpdateMode selects whether a proposal updates an existing patch.
type UpdateMode int

const (
	// UpdateNone creates a new patch.
	UpdateNone UpdateMode = iota
	// UpdateAny updates the single open patch of the caller's that
	// forks where HEAD does.
	UpdateAny
	// UpdatePatch updates the patch named by Update.ID.
	UpdatePatch
)

// Update is the --update option.
type Update struct {
	Mode UpdateMode
	ID   cob.Identifier
}

// Options configures a proposal.
type Options struct {
	Update  Update
	Sync    bool
	Verbose bool
	Comment term.Comment
}

// Config holds a Controller's collaborators. Logger may be nil.
type Config struct {
	Identity identity.LocalIdentity
	Project  project.Metadata
	Monorepo *git.Repository
	Graph    *commitgraph.Graph
	Patches  *patch.Store
	Terminal *term.Terminal
	Prompter term.Prompter
	Editor   term.Editor
	Syncer   replicate.Syncer
	Logger   *slog.Logger
}

// Controller runs the patch flows for one identity and project.
type Controller struct {
	identity identity.LocalIdentity
	project  project.Metadata
	monorepo *git.Repository
	graph    *commitgraph.Graph
	patches  *patch.Store
	terminal *term.Terminal
	prompter term.Prompter
	editor   term.Editor
	syncer   replicate.Syncer
	logger   *slog.Logger
}

// New returns a Controller.
func New(config Config) *Controller {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	syncer := config.Syncer
	if syncer == nil {
		syncer = replicate.Disabled{}
	}
	return &Controller{
		identity: config.Identity,
		project:  config.Project,
		monorepo: config.Monorepo,
		graph:    config.Graph,
		patches:  config.Patches,
		terminal: config.Terminal,
		prompter: config.Prompter,
		editor:   config.Editor,
		syncer:   syncer,
		logger:   logger.With("project", config.Project.Urn.String()),
	}
}

// resolveName looks up a person's display name.
func (c *Controller) resolveName(urn identity.Urn) (string, error) {
	if urn == c.identity.Urn && c.identity.Name != "" {
		return c.identity.Name, nil
	}
	person, err := project.LoadPerson(c.monorepo, urn)
	if err != nil {
		return "", err
	}
	if person.Name == "" {
		return "", fmt.Errorf("person %s has no name", urn.Short())
	}
	return person.Name, nil
}

func (c *Controller) peerInfo(peer identity.PeerID) project.PeerInfo {
	return project.GetPeerInfo(c.monorepo, peer, c.project, c.identity.Peer())
}

// peerBadges renders the delegate and (you) markers for a peer.
func (c *Controller) peerBadges(info project.PeerInfo) []string {
	var badges []string
	if info.Delegate {
		badges = append(badges, c.terminal.BadgeSecondary("delegate"))
	}
	if info.Self {
		badges = append(badges, c.terminal.Secondary("(you)"))
	}
	return badges
}

// confirm asks question and turns "no" into ErrUserAbort described
// by abort.
func (c *Controller) confirm(ctx context.Context, question, abort string) error {
	ok, err := c.prompter.Confirm(ctx, question)
	if errors.Is(err, context.Canceled) {
		return classify(fmt.Errorf("%s: %w", abort, ErrUserAbort))
	}
	if err != nil {
		return classify(err)
	}
	if !ok {
		return classify(fmt.Errorf("%s: %w", abort, ErrUserAbort))
	}
	return nil
}

// printAheadBehind reports how far from diverges from onto.
func (c *Controller) printAheadBehind(from, onto oid.Oid) error {
	ahead, behind, err := c.graph.AheadBehind(from, onto)
	if err != nil {
		return classify(err)
	}
	c.terminal.Info("%s commit(s) ahead, %s commit(s) behind %s",
		c.terminal.Positive(ahead),
		c.terminal.Negative(behind),
		c.terminal.Secondary(onto.Short()))
	return nil
}
