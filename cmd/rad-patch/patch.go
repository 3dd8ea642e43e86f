// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/rad-patch/cmd/rad-patch/cli"
	"github.com/bureau-foundation/rad-patch/lib/clock"
	"github.com/bureau-foundation/rad-patch/lib/cob"
	"github.com/bureau-foundation/rad-patch/lib/commitgraph"
	"github.com/bureau-foundation/rad-patch/lib/fault"
	"github.com/bureau-foundation/rad-patch/lib/git"
	"github.com/bureau-foundation/rad-patch/lib/lifecycle"
	"github.com/bureau-foundation/rad-patch/lib/patch"
	"github.com/bureau-foundation/rad-patch/lib/profile"
	"github.com/bureau-foundation/rad-patch/lib/project"
	"github.com/bureau-foundation/rad-patch/lib/replicate"
	"github.com/bureau-foundation/rad-patch/lib/term"
)

// updateAny is the value --update takes when given without an id. It
// is not hex, so it never collides with a patch id.
const updateAny = "any"

// environment is what a run needs from the process.
type environment struct {
	dir    string
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	clock  clock.Clock
	logger func(verbose bool) *slog.Logger
}

func systemEnvironment() environment {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	return environment{
		dir:    dir,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		clock:  clock.Real(),
		logger: cli.NewCommandLogger,
	}
}

// patchParams holds the parsed flags.
type patchParams struct {
	list      bool
	verbose   bool
	sync      bool
	noSync    bool
	update    string
	comment   optionalString
	noComment bool
}

func patchCommand(env environment) *cli.Command {
	var params patchParams
	var command *cli.Command
	command = &cli.Command{
		Name:    "rad-patch",
		Summary: "Manage radicle patches",
		Description: `Propose the current branch as a patch, update an existing patch with
a new revision, or list the project's open patches.

Run inside a working copy whose "rad" remote points at the project.
HEAD must have been pushed to the monorepo with 'git push rad'.`,
		Usage: "rad-patch [<option>...]",
		Examples: []cli.Example{
			{Description: "Propose the current branch as a new patch", Command: "rad-patch"},
			{Description: "Add a revision to the patch sharing HEAD's base", Command: "rad-patch --update --comment 'Address review'"},
			{Description: "Add a revision to a specific patch", Command: "rad-patch --update 3f2a9c1"},
			{Description: "List open patches", Command: "rad-patch --list"},
		},
		Output: env.stderr,
		Flags:  params.flagSet,
		Run: func(ctx context.Context, args []string) error {
			list, options, err := params.options(command, args)
			if err != nil {
				return err
			}
			return runPatch(ctx, env, list, options)
		},
	}
	return command
}

func (p *patchParams) flagSet() *pflag.FlagSet {
	*p = patchParams{}
	flagSet := pflag.NewFlagSet("rad-patch", pflag.ContinueOnError)
	flagSet.BoolVarP(&p.list, "list", "l", false, "list all patches")
	flagSet.StringVarP(&p.update, "update", "u", "", "update an existing patch, by `id` or the one sharing HEAD's base")
	flagSet.Lookup("update").NoOptDefVal = updateAny
	flagSet.BoolVar(&p.sync, "sync", true, "sync the patch to seeds")
	flagSet.BoolVar(&p.noSync, "no-sync", false, "do not sync the patch")
	flagSet.Var(&p.comment, "comment", "comment for the patch revision (default: prompt)")
	flagSet.BoolVar(&p.noComment, "no-comment", false, "leave the revision comment blank")
	flagSet.BoolVarP(&p.verbose, "verbose", "v", false, "verbose output")
	return flagSet
}

// options turns the parsed flags and positional args into lifecycle
// options. "--update <id>" leaves the id positional, since --update
// alone is valid.
func (p *patchParams) options(command *cli.Command, args []string) (bool, lifecycle.Options, error) {
	options := lifecycle.Options{
		Sync:    p.sync && !p.noSync,
		Verbose: p.verbose,
	}

	update := p.update
	if update == updateAny && len(args) > 0 {
		update, args = args[0], args[1:]
	}
	if len(args) > 0 {
		return false, options, command.UsageError("unexpected argument '%s'", args[0])
	}
	if p.list && (update != "" || p.comment.set || p.noComment) {
		return false, options, command.UsageError("--list cannot be combined with --update, --comment or --no-comment")
	}
	switch update {
	case "":
		options.Update = lifecycle.Update{Mode: lifecycle.UpdateNone}
	case updateAny:
		options.Update = lifecycle.Update{Mode: lifecycle.UpdateAny}
	default:
		id, err := cob.ParseIdentifier(update)
		if err != nil {
			return false, options, command.UsageError("invalid patch id '%s'", update)
		}
		options.Update = lifecycle.Update{Mode: lifecycle.UpdatePatch, ID: id}
	}

	switch {
	case p.noComment:
		options.Comment = term.Comment{Mode: term.CommentBlank}
	case p.comment.set:
		options.Comment = term.Comment{Mode: term.CommentText, Text: p.comment.value}
	default:
		options.Comment = term.Comment{Mode: term.CommentPrompt}
	}
	return p.list, options, nil
}

// runPatch opens the working copy and profile, then lists or proposes.
func runPatch(ctx context.Context, env environment, list bool, options lifecycle.Options) error {
	working, urn, err := project.OpenWorkingCopy(env.dir)
	if err != nil {
		return err
	}
	prof, err := profile.Load()
	if err != nil {
		return err
	}
	metadata, err := project.Load(prof.Monorepo, urn, prof.Identity.Peer())
	if err != nil {
		return fault.Wrap(fault.Precondition, fmt.Errorf("couldn't load project %s from local state: %w", urn, err))
	}

	logger := env.logger(options.Verbose).With("command", "patch")
	logger.Debug("opened project", "project", urn.String(), "peer", prof.Identity.Peer().String())

	terminal := term.New(env.stdout, env.clock)
	var syncer replicate.Syncer = replicate.Disabled{}
	if options.Sync {
		syncer = &replicate.CommandSyncer{
			Argv:   prof.Config.Sync.Command,
			Dir:    env.dir,
			Stdout: env.stdout,
			Stderr: env.stderr,
			Logger: logger,
		}
	}

	controller := lifecycle.New(lifecycle.Config{
		Identity: prof.Identity,
		Project:  metadata,
		Monorepo: prof.Monorepo,
		Graph:    commitgraph.New(working, prof.Monorepo),
		Patches:  patch.NewStore(prof.Monorepo, prof.Identity, env.clock, logger),
		Terminal: terminal,
		Prompter: term.NewLinePrompter(terminal, env.stdin),
		Editor: &gitEditor{
			configured: prof.Config.Editor,
			repo:       git.NewRepository(env.dir),
			stdin:      env.stdin,
			stdout:     env.stdout,
			stderr:     env.stderr,
		},
		Syncer: syncer,
		Logger: logger,
	})
	if list {
		return controller.List(ctx)
	}
	return controller.Propose(ctx, options)
}

// gitEditor resolves the editor command on first use: the profile's
// editor setting, else whatever git would launch.
type gitEditor struct {
	configured string
	repo       *git.Repository
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

func (e *gitEditor) Edit(ctx context.Context, initial string) (string, bool, error) {
	command := e.configured
	if command == "" {
		resolved, err := e.repo.Editor(ctx)
		if err != nil {
			return "", false, fault.WithHint(fault.Precondition, err, "set core.editor or EDITOR, or editor in config.yaml")
		}
		command = resolved
	}
	editor := term.NewCommandEditor(command)
	editor.Stdin = e.stdin
	editor.Stdout = e.stdout
	editor.Stderr = e.stderr
	return editor.Edit(ctx, initial)
}

// optionalString is a string flag that records whether it was given.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(value string) error {
	o.value = value
	o.set = true
	return nil
}

func (o *optionalString) Type() string { return "string" }
