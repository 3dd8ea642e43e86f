// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package profile opens the acting peer's profile: its configuration,
// local identity, signing key, and monorepo.
package profile

import (
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"

	"github.com/bureau-foundation/rad-patch/lib/config"
	"github.com/bureau-foundation/rad-patch/lib/fault"
	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/monorepo"
	"github.com/bureau-foundation/rad-patch/lib/project"
)

const authHint = "Did you run `rad auth`?"

// Profile is a loaded profile. Its monorepo stays open for the life of
// the command.
type Profile struct {
	Config   *config.Config
	Identity identity.LocalIdentity
	Monorepo *git.Repository
}

// Load opens the profile in RAD_HOME.
func Load() (*Profile, error) {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrNoProfile) {
			return nil, fault.WithHint(fault.Precondition, err, authHint)
		}
		return nil, fault.Wrap(fault.Precondition, err)
	}
	return Open(cfg)
}

// Open opens the profile described by cfg.
func Open(cfg *config.Config) (*Profile, error) {
	urn, err := identity.ParseUrn(cfg.Identity.Urn)
	if err != nil {
		return nil, fault.Wrap(fault.Precondition, fmt.Errorf("profile identity: %w", err))
	}
	signer, err := identity.LoadSigner(cfg.Paths.Key)
	if err != nil {
		return nil, fault.WithHint(fault.Precondition, err, authHint)
	}
	repo, err := monorepo.Open(cfg.Paths.Monorepo)
	if err != nil {
		return nil, fault.WithHint(fault.Precondition, err, authHint)
	}

	name := cfg.Identity.Name
	if person, err := project.LoadPerson(repo, urn); err == nil && person.Name != "" {
		name = person.Name
	}

	return &Profile{
		Config: cfg,
		Identity: identity.LocalIdentity{
			Urn:    urn,
			Name:   name,
			Signer: signer,
		},
		Monorepo: repo,
	}, nil
}
