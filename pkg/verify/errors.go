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

// Kind enumerates the classes of verification failure.
type Kind int

const (
	// KindUnknown indicates a failure that does not fall into any other class.
	KindUnknown Kind = iota

	// KindNetwork indicates a fetch of a checksum manifest, signature file or key
	// failed after the fetch collaborator's retry policy was exhausted.
	KindNetwork

	// KindValidation indicates a checksum mismatch, or a checksum that was required
	// by policy but could not be resolved.
	KindValidation

	// KindGPG indicates a fingerprint mismatch, a missing signing key, or a failed
	// cryptographic signature check.
	KindGPG

	// KindMissingDep indicates a required external tool is absent.
	KindMissingDep
)

// String returns the name of k, matching the audit log vocabulary.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NETWORK_ERROR"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindGPG:
		return "GPG_ERROR"
	case KindMissingDep:
		return "MISSING_DEP"
	default:
		return "UNKNOWN"
	}
}

// kinder is implemented by errors that carry a failure kind.
type kinder interface {
	kind() Kind
}

// KindOf returns the failure kind associated with err, or KindUnknown if err does not
// originate from this package.
func KindOf(err error) Kind {
	var k kinder
	if errors.As(err, &k) {
		return k.kind()
	}
	return KindUnknown
}

// kindedError attaches a failure kind to an error that does not carry one itself.
type kindedError struct {
	k   Kind
	err error
}

func (e *kindedError) Error() string { return e.err.Error() }
func (e *kindedError) Unwrap() error { return e.err }
func (e *kindedError) kind() Kind    { return e.k }

// ErrChecksumRequired is the error returned when a checksum is required by policy but
// could not be resolved from any configured source.
var ErrChecksumRequired = errors.New("checksum missing and required")

// FetchError records a failed fetch of a remote side-file or key.
type FetchError struct {
	URL string // URL that could not be fetched.
	Err error  // Wrapped error.
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %v: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
func (e *FetchError) kind() Kind    { return KindNetwork }

// Is compares e against target. If target is a FetchError and matches e or target has
// a zero value URL, true is returned.
func (e *FetchError) Is(target error) bool {
	t, ok := target.(*FetchError)
	if !ok {
		return false
	}
	return t.URL == "" || t.URL == e.URL
}

// ChecksumMismatchError records an error when the digest of an artifact does not match
// the expected value.
type ChecksumMismatchError struct {
	Hash     crypto.Hash // Hash algorithm used for the comparison.
	Expected string      // Expected hex digest.
	Actual   string      // Actual hex digest of the artifact.
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("expected %v %v, got %v", algorithmName(e.Hash), e.Expected, e.Actual)
}

func (e *ChecksumMismatchError) kind() Kind { return KindValidation }

// Is compares e against target. If target is a ChecksumMismatchError and matches e or
// target has zero value digests, true is returned.
func (e *ChecksumMismatchError) Is(target error) bool {
	t, ok := target.(*ChecksumMismatchError)
	if !ok {
		return false
	}
	if t.Expected != "" && t.Expected != e.Expected {
		return false
	}
	return t.Actual == "" || t.Actual == e.Actual
}

// FingerprintMismatchError records an error when the fingerprint of the signing key
// does not match the fingerprint pinned in the policy.
type FingerprintMismatchError struct {
	Expected string // Normalized fingerprint from the policy.
	Actual   string // Normalized fingerprint read from the keyring.
}

func (e *FingerprintMismatchError) Error() string {
	return fmt.Sprintf("fingerprint mismatch: expected %v, got %v", e.Expected, e.Actual)
}

func (e *FingerprintMismatchError) kind() Kind { return KindGPG }

// Is compares e against target. If target is a FingerprintMismatchError and matches e
// or target has zero value fingerprints, true is returned.
func (e *FingerprintMismatchError) Is(target error) bool {
	t, ok := target.(*FingerprintMismatchError)
	if !ok {
		return false
	}
	if t.Expected != "" && t.Expected != e.Expected {
		return false
	}
	return t.Actual == "" || t.Actual == e.Actual
}

// KeyNotFoundError records an error when the signing key cannot be located in the
// keyring. This fails closed, identically to a fingerprint mismatch.
type KeyNotFoundError struct {
	KeyID string // Key ID that could not be located.
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("key %v not found in keyring", e.KeyID)
}

func (e *KeyNotFoundError) kind() Kind { return KindGPG }

// Is compares e against target. If target is a KeyNotFoundError and matches e or
// target has a zero value KeyID, true is returned.
func (e *KeyNotFoundError) Is(target error) bool {
	t, ok := target.(*KeyNotFoundError)
	if !ok {
		return false
	}
	return t.KeyID == "" || t.KeyID == e.KeyID
}

// KeyImportError records a failure to import key material into a keyring.
type KeyImportError struct {
	Err error // Wrapped error.
}

func (e *KeyImportError) Error() string {
	return fmt.Sprintf("key import failed: %v", e.Err)
}

func (e *KeyImportError) Unwrap() error { return e.Err }
func (e *KeyImportError) kind() Kind    { return KindGPG }

// SignatureNotValidError records an error when the cryptographic check of a detached
// signature fails.
type SignatureNotValidError struct {
	Err error // Wrapped error.
}

func (e *SignatureNotValidError) Error() string {
	return fmt.Sprintf("signature not valid: %v", e.Err)
}

func (e *SignatureNotValidError) Unwrap() error { return e.Err }
func (e *SignatureNotValidError) kind() Kind    { return KindGPG }

// Is compares e against target.
func (e *SignatureNotValidError) Is(target error) bool {
	_, ok := target.(*SignatureNotValidError)
	return ok
}

// MissingDepError records an error when a required external tool is absent. It is
// detected when a Verifier is constructed, never mid-verification.
type MissingDepError struct {
	Tool string // Name of the missing tool.
	Err  error  // Wrapped error.
}

func (e *MissingDepError) Error() string {
	return fmt.Sprintf("required tool %v not available: %v", e.Tool, e.Err)
}

func (e *MissingDepError) Unwrap() error { return e.Err }
func (e *MissingDepError) kind() Kind    { return KindMissingDep }

// Is compares e against target. If target is a MissingDepError and matches e or target
// has a zero value Tool, true is returned.
func (e *MissingDepError) Is(target error) bool {
	t, ok := target.(*MissingDepError)
	if !ok {
		return false
	}
	return t.Tool == "" || t.Tool == e.Tool
}
