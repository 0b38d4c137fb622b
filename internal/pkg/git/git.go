// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

// Package git derives release version metadata from the state of a git repository.
package git

import (
	"errors"
	"strings"
	"time"

	"github.com/blang/semver/v4"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
)

// Description captures the release-relevant state of a repository at HEAD: the commit,
// the nearest semantic version tag reachable from it, and whether the working tree is
// clean.
type Description struct {
	clean    bool
	commit   *object.Commit
	nearest  *semver.Version // nil when no semver tag is reachable from HEAD
	distance uint64          // commits between the nearest tag and HEAD
}

// Describe inspects the git repository at path and describes its HEAD.
func Describe(path string) (*Description, error) {
	r, err := git.PlainOpen(path)
	if err != nil {
		return nil, err
	}

	head, err := r.Head()
	if err != nil {
		return nil, err
	}

	c, err := r.CommitObject(head.Hash())
	if err != nil {
		return nil, err
	}

	tags, err := taggedVersions(r)
	if err != nil {
		return nil, err
	}

	d := Description{commit: c}

	log, err := r.Log(&git.LogOptions{Order: git.LogOrderCommitterTime, From: c.Hash})
	if err != nil {
		return nil, err
	}

	// Walk back from HEAD until a tagged commit is found.
	err = log.ForEach(func(c *object.Commit) error {
		if v, ok := tags[c.Hash]; ok {
			d.nearest = &v
			return storer.ErrStop
		}
		d.distance++
		return nil
	})
	if err != nil {
		return nil, err
	}

	w, err := r.Worktree()
	if err != nil {
		return nil, err
	}

	status, err := w.Status()
	if err != nil {
		return nil, err
	}
	d.clean = status.IsClean()

	return &d, nil
}

// taggedVersions maps commit hashes to the semantic versions tagging them. Annotated
// and lightweight tags are both considered; tag names that do not parse as semantic
// versions are skipped. Note that r.Tags is used rather than r.TagObjects, since the
// latter also yields unreferenced (deleted) tags.
func taggedVersions(r *git.Repository) (map[plumbing.Hash]semver.Version, error) {
	iter, err := r.Tags()
	if err != nil {
		return nil, err
	}

	tags := make(map[plumbing.Hash]semver.Version)
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		v, err := semver.Parse(strings.TrimPrefix(ref.Name().Short(), "v"))
		if err != nil {
			return nil
		}

		switch obj, err := r.TagObject(ref.Hash()); err {
		case nil:
			tags[obj.Target] = v
		case plumbing.ErrObjectNotFound:
			tags[ref.Hash()] = v
		default:
			return err
		}
		return nil
	})
	return tags, err
}

// IsClean reports whether the working tree was free of local modifications.
func (d *Description) IsClean() bool {
	return d.clean
}

// CommitHash returns the hash of the described commit.
func (d *Description) CommitHash() string {
	return d.commit.Hash.String()
}

// CommitTime returns the committer time of the described commit.
func (d *Description) CommitTime() time.Time {
	return d.commit.Committer.When
}

var errTagNotFound = errors.New("semantic version tag not found")

// Version derives a semantic version from d. A directly-tagged commit yields the tag's
// version verbatim. Otherwise, "0.devel.N" pre-release components are appended, after
// bumping the patch level of a non-pre-release tag, so that the derived version sorts
// after the tag it builds on and before the next release.
//
// For example, with two commits on top of a v0.1.2 tag, 0.1.3-0.devel.2 is derived.
func (d *Description) Version() (semver.Version, error) {
	if d.nearest == nil {
		return semver.Version{}, errTagNotFound
	}

	v := *d.nearest
	if d.distance == 0 {
		return v, nil
	}

	if len(v.Pre) == 0 {
		v.Patch++
	}

	v.Pre = append(v.Pre,
		semver.PRVersion{VersionNum: 0, IsNum: true},
		semver.PRVersion{VersionStr: "devel"},
		semver.PRVersion{VersionNum: d.distance, IsNum: true},
	)

	return v, nil
}
