// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package project reads project and person identity documents from
// the monorepo, and locates the project a git working copy belongs to.
//
// Identity documents are CBOR blobs in the commit at
// refs/namespaces/<id>/refs/rad/id: a "project" blob for projects and
// a "person" blob for persons. A project's tracked peers are those
// with at least one ref under refs/namespaces/<id>/refs/remotes/<peer>/.
package project

import (
	"errors"
	"fmt"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/bureau-foundation/rad-patch/lib/codec"
	"github.com/bureau-foundation/rad-patch/lib/identity"
	"github.com/bureau-foundation/rad-patch/lib/monorepo"
	"github.com/bureau-foundation/rad-patch/lib/reflike"
)

// ErrNotFound is returned when an identity document does not exist in
// the monorepo.
var ErrNotFound = errors.New("identity not found")

const (
	projectBlob = "project"
	personBlob  = "person"
)

// Metadata describes a project as seen from one peer's monorepo.
type Metadata struct {
	Urn           identity.Urn
	Name          string
	Description   string
	DefaultBranch reflike.RefLike
	Delegates     []identity.PeerID

	// TrackedPeers is sorted by peer id and always includes the peer
	// that loaded the metadata.
	TrackedPeers []identity.PeerID
}

// IsDelegate reports whether peer is one of the project's delegates.
func (m Metadata) IsDelegate(peer identity.PeerID) bool {
	for _, delegate := range m.Delegates {
		if delegate == peer {
			return true
		}
	}
	return false
}

// RemotesPrefix returns the ref prefix under which a peer's replica of
// the project lives.
func (m Metadata) RemotesPrefix(peer identity.PeerID) string {
	return m.Urn.Namespace() + "refs/remotes/" + peer.String() + "/"
}

type document struct {
	Name          string            `cbor:"name"`
	Description   string            `cbor:"description,omitempty"`
	DefaultBranch reflike.RefLike   `cbor:"default_branch"`
	Delegates     []identity.PeerID `cbor:"delegates"`
}

// Person is a person identity document.
type Person struct {
	Urn  identity.Urn `cbor:"-"`
	Name string       `cbor:"name"`

	// Ens is the person's ENS name, when one was attached.
	Ens string `cbor:"ens,omitempty"`
}

// Load reads the project's identity document and enumerates its
// tracked peers. self is always tracked.
func Load(repo *git.Repository, urn identity.Urn, self identity.PeerID) (Metadata, error) {
	var doc document
	if err := readDocument(repo, urn, projectBlob, &doc); err != nil {
		return Metadata{}, fmt.Errorf("project %s: %w", urn, err)
	}

	prefix := urn.Namespace() + "refs/remotes/"
	refs, err := monorepo.Refs(repo, prefix)
	if err != nil {
		return Metadata{}, err
	}
	tracked := []identity.PeerID{self}
	for name := range refs {
		component, _, _ := strings.Cut(strings.TrimPrefix(name, prefix), "/")
		peer, err := identity.ParsePeer(component)
		if err != nil {
			continue
		}
		tracked = append(tracked, peer)
	}

	return Metadata{
		Urn:           urn,
		Name:          doc.Name,
		Description:   doc.Description,
		DefaultBranch: doc.DefaultBranch,
		Delegates:     identity.SortPeers(doc.Delegates),
		TrackedPeers:  identity.SortPeers(tracked),
	}, nil
}

// Save writes the project identity document and points refs/rad/id at
// it. Project creation proper belongs to
// `rad init`; Save exists so replicas and fixtures can be seeded.
func Save(repo *git.Repository, metadata Metadata, when time.Time) error {
	doc := document{
		Name:          metadata.Name,
		Description:   metadata.Description,
		DefaultBranch: metadata.DefaultBranch,
		Delegates:     identity.SortPeers(metadata.Delegates),
	}
	_, err := writeDocument(repo, metadata.Urn, projectBlob, doc, when)
	return err
}

// LoadPerson reads a person identity document.
func LoadPerson(repo *git.Repository, urn identity.Urn) (Person, error) {
	var person Person
	if err := readDocument(repo, urn, personBlob, &person); err != nil {
		return Person{}, fmt.Errorf("person %s: %w", urn, err)
	}
	person.Urn = urn
	return person, nil
}

// SavePerson writes a person identity document under the person's
// own namespace.
func SavePerson(repo *git.Repository, person Person, when time.Time) error {
	_, err := writeDocument(repo, person.Urn, personBlob, person, when)
	return err
}

// SetPeerPerson records which person speaks for peer within the
// project by pointing the peer's rad/self ref at the person's identity
// commit. For the local peer the ref is refs/rad/self.
func SetPeerPerson(repo *git.Repository, project identity.Urn, peer, self identity.PeerID, person identity.Urn) error {
	hash, err := monorepo.Resolve(repo, idRef(person))
	if err != nil {
		return fmt.Errorf("person %s: %w", person, err)
	}
	name := selfRef(project, peer, self)
	ref := plumbing.NewHashReference(plumbing.ReferenceName(name), hash)
	if err := repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("setting %s: %w", name, err)
	}
	return nil
}

// PeerPerson returns the person that peer published within the project.
func PeerPerson(repo *git.Repository, project identity.Urn, peer, self identity.PeerID) (Person, error) {
	name := selfRef(project, peer, self)
	hash, err := monorepo.Resolve(repo, name)
	if err != nil {
		if errors.Is(err, monorepo.ErrNotFound) {
			return Person{}, fmt.Errorf("peer %s in %s: %w", peer.Short(), project.Short(), ErrNotFound)
		}
		return Person{}, err
	}
	data, err := monorepo.ReadFile(repo, hash, personBlob)
	if err != nil {
		return Person{}, fmt.Errorf("reading %s: %w", name, err)
	}
	var person Person
	if err := codec.Unmarshal(data, &person); err != nil {
		return Person{}, fmt.Errorf("decoding %s: %w", name, err)
	}
	return person, nil
}

func idRef(urn identity.Urn) string {
	return urn.Namespace() + "refs/rad/id"
}

func selfRef(project identity.Urn, peer, self identity.PeerID) string {
	if peer == self {
		return project.Namespace() + "refs/rad/self"
	}
	return project.Namespace() + "refs/remotes/" + peer.String() + "/rad/self"
}

func readDocument(repo *git.Repository, urn identity.Urn, blob string, into any) error {
	hash, err := monorepo.Resolve(repo, idRef(urn))
	if err != nil {
		if errors.Is(err, monorepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	data, err := monorepo.ReadFile(repo, hash, blob)
	if err != nil {
		if errors.Is(err, monorepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := codec.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decoding %s document: %w", blob, err)
	}
	return nil
}

func writeDocument(repo *git.Repository, urn identity.Urn, blob string, doc any, when time.Time) (plumbing.Hash, error) {
	data, err := codec.Marshal(doc)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("encoding %s document: %w", blob, err)
	}
	name := idRef(urn)
	previous, err := monorepo.Resolve(repo, name)
	if err != nil && !errors.Is(err, monorepo.ErrNotFound) {
		return plumbing.ZeroHash, err
	}
	var parents []plumbing.Hash
	if !previous.IsZero() {
		parents = []plumbing.Hash{previous}
	}
	signature := object.Signature{Name: urn.String(), Email: urn.ID() + "@rad", When: when}
	hash, err := monorepo.WriteCommit(repo, []monorepo.Entry{{Name: blob, Data: data}}, parents, signature, "identity: "+blob)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	if err := monorepo.CompareAndSwap(repo, name, hash, previous); err != nil {
		return plumbing.ZeroHash, err
	}
	return hash, nil
}
