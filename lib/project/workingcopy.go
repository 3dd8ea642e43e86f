// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package project

import (
	"errors"
	"fmt"
	"strings"

	git "github.com/go-git/go-git/v5"

	"github.com/bureau-foundation/rad-patch/lib/fault"
	"github.com/bureau-foundation/rad-patch/lib/identity"
)

// RemoteName is the git remote that links a working copy to its
// project in the monorepo.
const RemoteName = "rad"

const urlScheme = "rad://"

// ErrNoRemote is returned when the working copy has no rad remote.
var ErrNoRemote = errors.New("could not find radicle URL in git config")

// OpenWorkingCopy opens the git repository containing dir and returns
// it with the urn of the project its rad remote points at.
func OpenWorkingCopy(dir string) (*git.Repository, identity.Urn, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, identity.Urn{}, fault.WithHint(fault.Precondition, err, "This is not a git repository.")
	}
	urn, err := RemoteUrn(repo)
	if err != nil {
		return nil, identity.Urn{}, err
	}
	return repo, urn, nil
}

// RemoteUrn reads the rad remote's URL, of the form
// rad://<project id>, optionally with a .git suffix.
func RemoteUrn(repo *git.Repository) (identity.Urn, error) {
	remote, err := repo.Remote(RemoteName)
	if err != nil {
		if errors.Is(err, git.ErrRemoteNotFound) {
			return identity.Urn{}, fault.WithHint(fault.Precondition, ErrNoRemote, "Did you run `rad init`?")
		}
		return identity.Urn{}, fault.WithHint(fault.Precondition,
			fmt.Errorf("reading remote %q: %w", RemoteName, err), "Did you run `rad init`?")
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return identity.Urn{}, fault.WithHint(fault.Precondition, ErrNoRemote, "Did you run `rad init`?")
	}
	return ParseRemoteURL(urls[0])
}

// ParseRemoteURL extracts the project urn from a rad remote URL.
func ParseRemoteURL(url string) (identity.Urn, error) {
	rest, ok := strings.CutPrefix(url, urlScheme)
	if !ok {
		return identity.Urn{}, fault.Newf(fault.Precondition, "remote %q has URL %q, expected %s<project id>", RemoteName, url, urlScheme)
	}
	rest = strings.TrimSuffix(strings.TrimSuffix(rest, "/"), ".git")
	urn, err := identity.ParseUrn("rad:git:" + rest)
	if err != nil {
		return identity.Urn{}, fault.Wrap(fault.Precondition, fmt.Errorf("remote %q: %w", RemoteName, err))
	}
	return urn, nil
}
