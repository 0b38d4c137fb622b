// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

// Package release implements upstream release checking against the GitHub releases
// API. It locates the latest release of a repository, decides whether it is newer than
// the installed version, and surfaces artifact URLs and API-recorded digests for
// verification.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/blang/semver/v4"
	"github.com/hashicorp/go-retryablehttp"
)

const defaultAPIBase = "https://api.github.com"

// Release describes an upstream release.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset describes a downloadable release artifact.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	Digest             string `json:"digest"`
}

// Checker queries the GitHub releases API for application updates.
type Checker struct {
	apiBase string
	hc      *retryablehttp.Client
}

// CheckerOpt are used to configure c.
type CheckerOpt func(c *Checker) error

// OptCheckerAPIBase overrides the GitHub API base URL.
func OptCheckerAPIBase(base string) CheckerOpt {
	return func(c *Checker) error {
		c.apiBase = strings.TrimRight(base, "/")
		return nil
	}
}

// OptCheckerTimeout bounds the total time of each API request attempt.
func OptCheckerTimeout(d time.Duration) CheckerOpt {
	return func(c *Checker) error {
		c.hc.HTTPClient.Timeout = d
		return nil
	}
}

// NewChecker returns a Checker configured with opts.
func NewChecker(opts ...CheckerOpt) (*Checker, error) {
	hc := retryablehttp.NewClient()
	hc.RetryMax = 2
	hc.HTTPClient.Timeout = 30 * time.Second
	hc.Logger = nil

	c := &Checker{apiBase: defaultAPIBase, hc: hc}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("release: %w", err)
		}
	}
	return c, nil
}

// Latest returns the latest release of repo, given as "owner/name".
func (c *Checker) Latest(ctx context.Context, repo string) (*Release, error) {
	return c.get(ctx, fmt.Sprintf("%s/repos/%s/releases/latest", c.apiBase, repo))
}

// ByTag returns the release of repo with the specified tag.
func (c *Checker) ByTag(ctx context.Context, repo, tag string) (*Release, error) {
	return c.get(ctx, fmt.Sprintf("%s/repos/%s/releases/tags/%s", c.apiBase, repo, tag))
}

func (c *Checker) get(ctx context.Context, rawURL string) (*Release, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("release: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release: unexpected status %d from %v", resp.StatusCode, rawURL)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("release: %w", err)
	}
	return &rel, nil
}

// Version returns the release tag parsed as a semantic version, tolerating a leading
// "v".
func (r *Release) Version() (semver.Version, error) {
	v, err := semver.ParseTolerant(r.TagName)
	if err != nil {
		return semver.Version{}, fmt.Errorf("release: %w", err)
	}
	return v, nil
}

// NewerThan returns whether r is a newer version than installed.
func (r *Release) NewerThan(installed string) (bool, error) {
	rv, err := r.Version()
	if err != nil {
		return false, err
	}

	iv, err := semver.ParseTolerant(installed)
	if err != nil {
		return false, fmt.Errorf("release: %w", err)
	}
	return rv.GT(iv), nil
}

// FindAsset returns the first asset whose name matches pattern, using filepath.Match
// syntax.
func (r *Release) FindAsset(pattern string) (*Asset, bool) {
	for i, a := range r.Assets {
		if ok, err := filepath.Match(pattern, a.Name); err == nil && ok {
			return &r.Assets[i], true
		}
	}
	return nil, false
}

// Checksum returns the digest recorded by the API for a, stripped of its algorithm
// prefix, suitable as a direct checksum for verification. An empty string is returned
// when the API recorded no digest.
func (a *Asset) Checksum() string {
	d := strings.TrimSpace(a.Digest)
	if i := strings.IndexByte(d, ':'); i >= 0 {
		d = d[i+1:]
	}
	return d
}
