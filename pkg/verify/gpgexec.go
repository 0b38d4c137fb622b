// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package verify

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// GPGMechanism runs the GnuPG binary as an external process, isolating each keyring
// with --homedir. It is the default Mechanism: gpg's trust store semantics have no
// drop-in native equivalent.
type GPGMechanism struct {
	// Bin is the path of the gpg executable. Empty means "gpg", resolved from PATH.
	Bin string
}

func (m *GPGMechanism) bin() string {
	if m.Bin == "" {
		return "gpg"
	}
	return m.Bin
}

// Check verifies the gpg executable is present.
func (m *GPGMechanism) Check() error {
	if _, err := exec.LookPath(m.bin()); err != nil {
		return &MissingDepError{Tool: m.bin(), Err: err}
	}
	return nil
}

// run executes gpg in batch mode against home, returning combined output.
func (m *GPGMechanism) run(ctx context.Context, home string, args ...string) (string, error) {
	base := []string{"--batch", "--no-tty"}
	if home != "" {
		base = append(base, "--homedir", home)
	}

	var buf bytes.Buffer
	cmd := exec.CommandContext(ctx, m.bin(), append(base, args...)...)
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return buf.String(), fmt.Errorf("%v: %w: %v", m.bin(), err, strings.TrimSpace(buf.String()))
	}
	return buf.String(), nil
}

// ImportKey imports the key file at path into home.
func (m *GPGMechanism) ImportKey(ctx context.Context, home, path string) error {
	if _, err := m.run(ctx, home, "--import", path); err != nil {
		return &KeyImportError{Err: err}
	}
	return nil
}

// FetchKeyserver imports keyID into home from the keyserver at server.
func (m *GPGMechanism) FetchKeyserver(ctx context.Context, home, server, keyID string) error {
	if _, err := m.run(ctx, home, "--keyserver", server, "--recv-keys", keyID); err != nil {
		return &FetchError{URL: server, Err: err}
	}
	return nil
}

// FetchWKD resolves keyID via Web Key Directory and imports it into home.
func (m *GPGMechanism) FetchWKD(ctx context.Context, home, keyID string) error {
	if _, err := m.run(ctx, home, "--auto-key-locate", "clear,wkd", "--locate-keys", keyID); err != nil {
		return &FetchError{URL: keyID, Err: err}
	}
	return nil
}

// Fingerprint returns the primary key fingerprint of keyID in home, read from gpg's
// machine-readable colon output.
func (m *GPGMechanism) Fingerprint(ctx context.Context, home, keyID string) (string, error) {
	out, err := m.run(ctx, home, "--with-colons", "--fingerprint", keyID)
	if err != nil {
		return "", &KeyNotFoundError{KeyID: keyID}
	}

	fp := parseColonFingerprint(out)
	if fp == "" {
		return "", &KeyNotFoundError{KeyID: keyID}
	}
	return fp, nil
}

// parseColonFingerprint extracts the first fpr record from --with-colons output. The
// fingerprint is field 10 of the record.
func parseColonFingerprint(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "fpr:") {
			continue
		}
		if fields := strings.Split(line, ":"); len(fields) > 9 {
			return fields[9]
		}
	}
	return ""
}

// VerifyDetached checks the detached signature at sigPath over the file at path.
func (m *GPGMechanism) VerifyDetached(ctx context.Context, home, sigPath, path string) error {
	if _, err := m.run(ctx, home, "--verify", sigPath, path); err != nil {
		return &SignatureNotValidError{Err: err}
	}
	return nil
}
