// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package verify

import (
	"crypto"
	"errors"
	"fmt"
)

// KeySource enumerates the supported key-acquisition strategies for signature
// verification.
type KeySource int

const (
	// KeySourceUserKeyring verifies against the caller's pre-existing keyring. No
	// ephemeral trust store is created or destroyed.
	KeySourceUserKeyring KeySource = iota

	// KeySourceURL imports a key file fetched from Policy.KeyURL into an ephemeral
	// keyring.
	KeySourceURL

	// KeySourceKeyserver fetches the key from a public keyserver into an ephemeral
	// keyring.
	KeySourceKeyserver

	// KeySourceWKD resolves the key via Web Key Directory into an ephemeral keyring.
	KeySourceWKD
)

// String returns the name of s.
func (s KeySource) String() string {
	switch s {
	case KeySourceUserKeyring:
		return "user_keyring"
	case KeySourceURL:
		return "url"
	case KeySourceKeyserver:
		return "keyserver"
	case KeySourceWKD:
		return "wkd"
	default:
		return "unknown"
	}
}

var (
	errKeyPairIncomplete = errors.New("gpg key ID and fingerprint must be configured together")
	errKeyURLRequired    = errors.New("key URL required for url key source")
	errKeySourceUnknown  = errors.New("unknown key source")
)

// Policy is the per-application trust policy applied when verifying an artifact. It is
// caller-owned and read only; the zero value enables the checksum and header-digest
// phases with SHA-256, and disables signature verification.
type Policy struct {
	// RequireChecksum makes the absence of a resolvable checksum a hard failure.
	// When false, absence is a no-op pass.
	RequireChecksum bool

	// SkipChecksum disables the checksum phase entirely.
	SkipChecksum bool

	// SkipHeaderDigest disables the header-digest phase entirely.
	SkipHeaderDigest bool

	// ChecksumHash selects the checksum algorithm. The zero value selects SHA-256.
	ChecksumHash crypto.Hash

	// ChecksumURL is the location of a remote manifest (e.g. a SHASUMS file)
	// containing digests keyed by filename.
	ChecksumURL string

	// GPGKeyID and GPGFingerprint enable signature verification. Both must be set
	// together; leaving both empty disables the signature phase.
	GPGKeyID       string
	GPGFingerprint string

	// SignatureURL is an explicit detached signature URL. When empty, the signature
	// location is derived as <download URL>.sig, falling back to <download URL>.asc.
	SignatureURL string

	// KeySource selects the key-acquisition strategy for signature verification.
	KeySource KeySource

	// KeyURL is the location of the public key file used by KeySourceURL.
	KeyURL string

	// AllowInsecureHTTP permits fetching checksum, signature and key side-files over
	// plain HTTP.
	AllowInsecureHTTP bool
}

// hash returns the checksum algorithm selected by p.
func (p Policy) hash() crypto.Hash {
	if p.ChecksumHash == 0 {
		return crypto.SHA256
	}
	return p.ChecksumHash
}

// signatureConfigured returns whether signature verification is enabled by p.
func (p Policy) signatureConfigured() bool {
	return p.GPGKeyID != "" && p.GPGFingerprint != ""
}

// Validate checks that p is internally consistent.
func (p Policy) Validate() error {
	if (p.GPGKeyID == "") != (p.GPGFingerprint == "") {
		return fmt.Errorf("verify: %w", errKeyPairIncomplete)
	}

	if _, ok := supportedAlgorithms[p.hash()]; !ok {
		return fmt.Errorf("verify: %w", errHashUnsupported)
	}

	if p.signatureConfigured() {
		switch p.KeySource {
		case KeySourceUserKeyring, KeySourceKeyserver, KeySourceWKD:
		case KeySourceURL:
			if p.KeyURL == "" {
				return fmt.Errorf("verify: %w", errKeyURLRequired)
			}
		default:
			return fmt.Errorf("verify: %w: %v", errKeySourceUnknown, int(p.KeySource))
		}
	}

	return nil
}

// Artifact identifies a downloaded file to be verified. The file is read only; it is
// never modified by verification.
type Artifact struct {
	// Path is the location of the downloaded file on the local filesystem.
	Path string

	// SourceURL is the URL the file was downloaded from.
	SourceURL string

	// Checksum is an optional digest supplied directly by the caller, e.g. extracted
	// from a trusted release API response. When set, it takes priority over every
	// other checksum source.
	Checksum string

	// App is the application display name, used in events and failure reports only.
	App string
}
