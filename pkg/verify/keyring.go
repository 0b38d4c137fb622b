// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DefaultKeyserver is the public keyserver consulted by KeySourceKeyserver unless
// overridden with OptVerifyKeyserver.
const DefaultKeyserver = "hkps://keyserver.ubuntu.com"

// keyring is an isolated OpenPGP trust store, scoped to a single signature phase. An
// empty dir denotes the caller's pre-existing keyring.
type keyring struct {
	dir       string
	ephemeral bool
}

// destroy removes the ephemeral trust store, if one was created. It is safe to call on
// every exit path.
func (k *keyring) destroy() {
	if k.ephemeral && k.dir != "" {
		os.RemoveAll(k.dir)
	}
}

// newEphemeralDir creates a fresh keyring directory with mode 0700.
func newEphemeralDir() (string, error) {
	dir := filepath.Join(os.TempDir(), "updatewatch-keyring-"+uuid.New().String())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// prepareKeyring materializes a keyring populated according to the key source in p.
// On error, any ephemeral directory created is removed before returning; no temp
// directories leak on the failure path.
func prepareKeyring(ctx context.Context, m Mechanism, f Fetcher, keyserver string, p Policy) (_ *keyring, err error) {
	if p.KeySource == KeySourceUserKeyring {
		return &keyring{}, nil
	}

	dir, err := newEphemeralDir()
	if err != nil {
		return nil, err
	}

	// A partially-populated keyring directory must not leak when any step below fails.
	defer func() {
		if err != nil {
			os.RemoveAll(dir)
		}
	}()

	switch p.KeySource {
	case KeySourceURL:
		var path string
		path, err = f.FetchToFile(ctx, p.KeyURL, p.AllowInsecureHTTP)
		if err != nil {
			err = &FetchError{URL: p.KeyURL, Err: err}
			return nil, err
		}
		defer os.Remove(path)

		if err = m.ImportKey(ctx, dir, path); err != nil {
			return nil, err
		}

	case KeySourceKeyserver:
		if err = m.FetchKeyserver(ctx, dir, keyserver, p.GPGKeyID); err != nil {
			return nil, err
		}

	case KeySourceWKD:
		if err = m.FetchWKD(ctx, dir, p.GPGKeyID); err != nil {
			return nil, err
		}

	default:
		err = fmt.Errorf("%w: %v", errKeySourceUnknown, int(p.KeySource))
		return nil, err
	}

	return &keyring{dir: dir, ephemeral: true}, nil
}
