// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package verify

import (
	"crypto"
	_ "crypto/md5"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	errHashUnavailable = errors.New("hash algorithm unavailable")
	errHashUnsupported = errors.New("hash algorithm unsupported")
)

var supportedAlgorithms = map[crypto.Hash]string{
	crypto.MD5:    "md5",
	crypto.SHA256: "sha256",
	crypto.SHA512: "sha512",
}

// algorithmName returns the lower-case name of h.
func algorithmName(h crypto.Hash) string {
	if n, ok := supportedAlgorithms[h]; ok {
		return n
	}
	return "unknown"
}

// AlgorithmByName returns the hash function with the specified name. The supported
// names are "md5", "sha256" and "sha512".
func AlgorithmByName(name string) (crypto.Hash, error) {
	for h, n := range supportedAlgorithms {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return h, nil
		}
	}
	return 0, fmt.Errorf("verify: %w: %v", errHashUnsupported, name)
}

// hashValue calculates a digest by applying hash function h to the contents read from
// r. If h is not available, errHashUnavailable is returned.
func hashValue(h crypto.Hash, r io.Reader) ([]byte, error) {
	if !h.Available() {
		return nil, errHashUnavailable
	}

	w := h.New()
	if _, err := io.Copy(w, r); err != nil {
		return nil, err
	}
	return w.Sum(nil), nil
}

// fileDigest streams the file at path through hash function h, and returns the digest
// as a lower-case hex string. The file is never read into memory in full.
func fileDigest(path string, h crypto.Hash) (string, error) {
	if _, ok := supportedAlgorithms[h]; !ok {
		return "", errHashUnsupported
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	value, err := hashValue(h, f)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(value), nil
}

// fileDigestMatches computes the digest of the file at path with h, and compares it
// against expected. Hex digests are compared case-insensitively, without truncation.
func fileDigestMatches(path, expected string, h crypto.Hash) (actual string, ok bool, err error) {
	actual, err = fileDigest(path, h)
	if err != nil {
		return "", false, err
	}
	return actual, strings.EqualFold(actual, strings.TrimSpace(expected)), nil
}

// FileDigest returns the hex-encoded digest of the file at path, calculated with hash
// function h.
func FileDigest(path string, h crypto.Hash) (string, error) {
	d, err := fileDigest(path, h)
	if err != nil {
		return "", fmt.Errorf("verify: %w", err)
	}
	return d, nil
}

// FileDigestMatches returns whether the digest of the file at path matches expected.
// The comparison is case-insensitive.
func FileDigestMatches(path, expected string, h crypto.Hash) (bool, error) {
	_, ok, err := fileDigestMatches(path, expected, h)
	if err != nil {
		return false, fmt.Errorf("verify: %w", err)
	}
	return ok, nil
}
