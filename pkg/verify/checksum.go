// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package verify

import (
	"bufio"
	"context"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// resolveChecksum determines the expected digest for the artifact at path. Sources are
// consulted in priority order, first match wins:
//
//  1. A non-empty direct value is returned verbatim; the caller already extracted it
//     from a trusted source, and no fetch is attempted.
//  2. A configured Policy.ChecksumURL is fetched and searched for an entry matching
//     the artifact's basename. A fetch failure is a hard failure: a configured source
//     that is unreachable must not silently degrade to "no checksum".
//  3. Neither present: an empty digest and no error.
//
// An empty result is only a problem if the policy requires a checksum; that decision
// belongs to the caller, not the resolver.
func resolveChecksum(ctx context.Context, f Fetcher, p Policy, path, direct string) (string, error) {
	if direct = strings.TrimSpace(direct); direct != "" {
		return direct, nil
	}

	if p.ChecksumURL == "" {
		return "", nil
	}

	mf, err := f.FetchToFile(ctx, p.ChecksumURL, p.AllowInsecureHTTP)
	if err != nil {
		return "", &FetchError{URL: p.ChecksumURL, Err: err}
	}
	defer os.Remove(mf)

	m, err := os.Open(mf)
	if err != nil {
		return "", err
	}
	defer m.Close()

	entry, err := findManifestEntry(m, filepath.Base(path))
	if err != nil {
		return "", &FetchError{URL: p.ChecksumURL, Err: err}
	}
	return entry, nil
}

// findManifestEntry scans a checksum manifest for a line whose leading token is a
// SHA-256 or SHA-512 hex digest and whose remaining tokens name base. When no line
// names base, the first valid-looking digest line is returned; manifests with
// nonstandard formatting frequently carry a single unlabeled digest. An empty string
// is returned when the manifest has no valid digest line at all. A manifest that
// cannot be read in full is an error; a truncated scan must not pass off an earlier
// line as the answer.
func findManifestEntry(r io.Reader, base string) (string, error) {
	var first string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || !isHexDigest(fields[0]) {
			continue
		}

		if first == "" {
			first = fields[0]
		}

		for _, f := range fields[1:] {
			// A leading "*" marks binary mode in BSD-style manifests.
			f = strings.TrimPrefix(f, "*")
			f = strings.TrimPrefix(f, "./")
			if f == base {
				return fields[0], nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return first, nil
}

// isHexDigest returns whether s is a SHA-256 or SHA-512 sized hex string.
func isHexDigest(s string) bool {
	if len(s) != 2*sha256Size && len(s) != 2*sha512Size {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

const (
	sha256Size = 32
	sha512Size = 64
)
