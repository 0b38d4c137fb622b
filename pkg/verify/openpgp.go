// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package verify

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/google/uuid"
)

var errNoFetcher = errors.New("no fetcher configured")

// OpenPGPMechanism is an in-process Mechanism built on the ProtonMail OpenPGP library.
// Keys are materialized as files inside the keyring directory, and keyserver and Web
// Key Directory lookups are resolved over HTTPS through the fetch collaborator. The
// caller's pre-existing keyring is read from $GNUPGHOME/pubring.gpg (or
// ~/.gnupg/pubring.gpg).
type OpenPGPMechanism struct {
	// Fetcher retrieves keys for the keyserver and WKD strategies.
	Fetcher Fetcher
}

// Check verifies the mechanism is usable.
func (m *OpenPGPMechanism) Check() error {
	if m.Fetcher == nil {
		return &MissingDepError{Tool: "fetcher", Err: errNoFetcher}
	}
	return nil
}

// readKeys parses armored or binary OpenPGP key material from r.
func readKeys(r io.Reader) (openpgp.EntityList, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	el, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(b))
	if err != nil {
		el, err = openpgp.ReadKeyRing(bytes.NewReader(b))
	}
	return el, err
}

// ImportKey copies the key file at path into home, after checking it parses as key
// material.
func (m *OpenPGPMechanism) ImportKey(ctx context.Context, home, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return &KeyImportError{Err: err}
	}

	if _, err := readKeys(bytes.NewReader(b)); err != nil {
		return &KeyImportError{Err: err}
	}

	name := "key-" + uuid.New().String() + ".pgp"
	if err := os.WriteFile(filepath.Join(home, name), b, 0o600); err != nil {
		return &KeyImportError{Err: err}
	}
	return nil
}

// hkpLookupURL converts an hkp(s) keyserver address and key ID into an HKP key lookup
// URL.
func hkpLookupURL(server, keyID string) string {
	server = strings.TrimSuffix(server, "/")
	switch {
	case strings.HasPrefix(server, "hkps://"):
		server = "https://" + strings.TrimPrefix(server, "hkps://")
	case strings.HasPrefix(server, "hkp://"):
		server = "http://" + strings.TrimPrefix(server, "hkp://")
	}

	id := normalizeFingerprint(keyID)
	return server + "/pks/lookup?op=get&options=mr&search=0x" + id
}

// FetchKeyserver imports keyID into home from the keyserver at server.
func (m *OpenPGPMechanism) FetchKeyserver(ctx context.Context, home, server, keyID string) error {
	if err := m.Check(); err != nil {
		return err
	}

	lookup := hkpLookupURL(server, keyID)
	path, err := m.Fetcher.FetchToFile(ctx, lookup, strings.HasPrefix(lookup, "http://"))
	if err != nil {
		return &FetchError{URL: lookup, Err: err}
	}
	defer os.Remove(path)

	return m.ImportKey(ctx, home, path)
}

// zbase32 encodes b using the z-base-32 alphabet, as used by WKD mailbox hashes.
func zbase32(b []byte) string {
	const alphabet = "ybndrfg8ejkmcpqxot1uwisza345h769"

	var sb strings.Builder
	var buf uint32
	var bits int
	for _, c := range b {
		buf = buf<<8 | uint32(c)
		bits += 8
		for bits >= 5 {
			bits -= 5
			sb.WriteByte(alphabet[(buf>>uint(bits))&0x1f])
		}
	}
	if bits > 0 {
		sb.WriteByte(alphabet[(buf<<uint(5-bits))&0x1f])
	}
	return sb.String()
}

// wkdURLs derives the advanced and direct Web Key Directory lookup URLs for an
// email-like identifier.
func wkdURLs(id string) (advanced, direct string, err error) {
	at := strings.LastIndex(id, "@")
	if at <= 0 || at == len(id)-1 {
		return "", "", fmt.Errorf("not an email-like identifier: %q", id)
	}

	local, domain := id[:at], strings.ToLower(id[at+1:])
	sum := sha1.Sum([]byte(strings.ToLower(local)))
	hash := zbase32(sum[:])
	q := "?l=" + url.QueryEscape(local)

	advanced = fmt.Sprintf("https://openpgpkey.%s/.well-known/openpgpkey/%s/hu/%s%s", domain, domain, hash, q)
	direct = fmt.Sprintf("https://%s/.well-known/openpgpkey/hu/%s%s", domain, hash, q)
	return advanced, direct, nil
}

// FetchWKD resolves keyID via Web Key Directory and imports it into home. The advanced
// method is probed first, per the WKD lookup order.
func (m *OpenPGPMechanism) FetchWKD(ctx context.Context, home, keyID string) error {
	if err := m.Check(); err != nil {
		return err
	}

	advanced, direct, err := wkdURLs(keyID)
	if err != nil {
		return &KeyImportError{Err: err}
	}

	lookup := direct
	if ok, _ := m.Fetcher.ProbeExists(ctx, advanced); ok {
		lookup = advanced
	}

	path, err := m.Fetcher.FetchToFile(ctx, lookup, false)
	if err != nil {
		return &FetchError{URL: lookup, Err: err}
	}
	defer os.Remove(path)

	return m.ImportKey(ctx, home, path)
}

// loadKeyring reads all key material in home, or the caller's pre-existing keyring
// when home is empty.
func (m *OpenPGPMechanism) loadKeyring(home string) (openpgp.EntityList, error) {
	if home == "" {
		return readUserKeyring()
	}

	entries, err := os.ReadDir(home)
	if err != nil {
		return nil, err
	}

	var el openpgp.EntityList
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		f, err := os.Open(filepath.Join(home, entry.Name()))
		if err != nil {
			return nil, err
		}
		keys, err := readKeys(f)
		f.Close()
		if err != nil {
			continue // not key material
		}
		el = append(el, keys...)
	}
	return el, nil
}

// readUserKeyring reads the caller's pre-existing public keyring.
func readUserKeyring() (openpgp.EntityList, error) {
	home := os.Getenv("GNUPGHOME")
	if home == "" {
		h, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		home = filepath.Join(h, ".gnupg")
	}

	f, err := os.Open(filepath.Join(home, "pubring.gpg"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return openpgp.ReadKeyRing(f)
}

// findEntity returns the entity in el whose primary key fingerprint ends with the
// normalized keyID, accommodating short IDs, long IDs and full fingerprints.
func findEntity(el openpgp.EntityList, keyID string) (*openpgp.Entity, error) {
	want := normalizeFingerprint(keyID)
	if want == "" {
		return nil, &KeyNotFoundError{KeyID: keyID}
	}

	for _, e := range el {
		fp := strings.ToUpper(hex.EncodeToString(e.PrimaryKey.Fingerprint))
		if strings.HasSuffix(fp, want) {
			return e, nil
		}
	}
	return nil, &KeyNotFoundError{KeyID: keyID}
}

// Fingerprint returns the primary key fingerprint of keyID in home.
func (m *OpenPGPMechanism) Fingerprint(ctx context.Context, home, keyID string) (string, error) {
	el, err := m.loadKeyring(home)
	if err != nil {
		return "", &KeyNotFoundError{KeyID: keyID}
	}

	e, err := findEntity(el, keyID)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(e.PrimaryKey.Fingerprint), nil
}

// VerifyDetached checks the detached signature at sigPath over the file at path using
// the keys in home. Armored and binary signatures are both accepted.
func (m *OpenPGPMechanism) VerifyDetached(ctx context.Context, home, sigPath, path string) error {
	el, err := m.loadKeyring(home)
	if err != nil {
		return &SignatureNotValidError{Err: err}
	}

	sig, err := os.ReadFile(sigPath)
	if err != nil {
		return &SignatureNotValidError{Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return &SignatureNotValidError{Err: err}
	}
	defer f.Close()

	if bytes.Contains(sig, []byte("-----BEGIN PGP")) {
		_, err = openpgp.CheckArmoredDetachedSignature(el, f, bytes.NewReader(sig), nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(el, f, bytes.NewReader(sig), nil)
	}
	if err != nil {
		return &SignatureNotValidError{Err: err}
	}
	return nil
}
