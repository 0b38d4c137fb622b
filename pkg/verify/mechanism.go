// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package verify

import (
	"context"
	"strings"
)

// Mechanism abstracts the OpenPGP capability used to manage keyrings and check
// detached signatures. The home argument of each method is the path of an isolated
// keyring directory, or empty to use the caller's pre-existing keyring.
type Mechanism interface {
	// Check eagerly verifies the mechanism is usable. A failure here carries
	// KindMissingDep.
	Check() error

	// ImportKey imports the key file at path into home.
	ImportKey(ctx context.Context, home, path string) error

	// FetchKeyserver imports keyID into home from the keyserver at server.
	FetchKeyserver(ctx context.Context, home, server, keyID string) error

	// FetchWKD resolves keyID via Web Key Directory and imports it into home.
	FetchWKD(ctx context.Context, home, keyID string) error

	// Fingerprint returns the primary key fingerprint of keyID in home as a hex
	// string. A KeyNotFoundError is returned when the key cannot be located.
	Fingerprint(ctx context.Context, home, keyID string) (string, error)

	// VerifyDetached checks the detached signature at sigPath over the file at path
	// using the keys in home.
	VerifyDetached(ctx context.Context, home, sigPath, path string) error
}

// normalizeFingerprint strips whitespace and a leading "0x" from s, and upper-cases
// it, so that fingerprints from policies, keyrings and gpg output compare equal.
func normalizeFingerprint(s string) string {
	s = strings.Join(strings.Fields(s), "")
	return strings.TrimPrefix(strings.ToUpper(s), "0X")
}
