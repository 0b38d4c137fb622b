// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package verify

import (
	"context"
	"errors"
	"os"
	"testing"
)

func TestPrepareKeyring_UserKeyring(t *testing.T) {
	m := &fakeMechanism{}
	f := &mockFetcher{}

	kr, err := prepareKeyring(context.Background(), m, f, DefaultKeyserver, Policy{})
	if err != nil {
		t.Fatal(err)
	}
	defer kr.destroy()

	if got, want := kr.dir, ""; got != want {
		t.Errorf("got dir %q, want %q", got, want)
	}
	if kr.ephemeral {
		t.Error("unexpected ephemeral keyring")
	}
}

func TestPrepareKeyring_URL(t *testing.T) {
	const keyURL = "https://example.org/release.asc"

	m := &fakeMechanism{}
	f := &mockFetcher{files: map[string][]byte{keyURL: []byte("key material")}}

	p := Policy{KeySource: KeySourceURL, KeyURL: keyURL}
	kr, err := prepareKeyring(context.Background(), m, f, DefaultKeyserver, p)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := len(m.importHomes), 1; got != want {
		t.Fatalf("got %v imports, want %v", got, want)
	}
	if got, want := m.importHomes[0], kr.dir; got != want {
		t.Errorf("got import home %v, want %v", got, want)
	}

	if fi, err := os.Stat(kr.dir); err != nil {
		t.Fatal(err)
	} else if got, want := fi.Mode().Perm(), os.FileMode(0o700); got != want {
		t.Errorf("got mode %v, want %v", got, want)
	}

	kr.destroy()
	if _, err := os.Stat(kr.dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("keyring directory %v not removed", kr.dir)
	}
}

func TestPrepareKeyring_URLFetchFailure(t *testing.T) {
	const keyURL = "https://example.org/release.asc"

	m := &fakeMechanism{}
	f := &mockFetcher{}

	p := Policy{KeySource: KeySourceURL, KeyURL: keyURL}
	_, err := prepareKeyring(context.Background(), m, f, DefaultKeyserver, p)
	if want := (&FetchError{URL: keyURL}); !errors.Is(err, want) {
		t.Fatalf("got error %v, want %v", err, want)
	}

	if got, want := len(m.importHomes), 0; got != want {
		t.Errorf("got %v imports, want %v", got, want)
	}
}

func TestPrepareKeyring_ImportFailureCleansUp(t *testing.T) {
	const keyURL = "https://example.org/release.asc"

	m := &fakeMechanism{importErr: &KeyImportError{Err: errors.New("bad key")}}
	f := &mockFetcher{files: map[string][]byte{keyURL: []byte("junk")}}

	p := Policy{KeySource: KeySourceURL, KeyURL: keyURL}
	_, err := prepareKeyring(context.Background(), m, f, DefaultKeyserver, p)
	if want := (&KeyImportError{}); !errors.As(err, &want) {
		t.Fatalf("got error %v, want KeyImportError", err)
	}

	// The ephemeral directory must not leak on the failure path.
	if got, want := len(m.importHomes), 1; got != want {
		t.Fatalf("got %v imports, want %v", got, want)
	}
	if _, err := os.Stat(m.importHomes[0]); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("keyring directory %v not removed", m.importHomes[0])
	}
}

func TestPrepareKeyring_Keyserver(t *testing.T) {
	m := &fakeMechanism{}
	f := &mockFetcher{}

	p := Policy{KeySource: KeySourceKeyserver, GPGKeyID: "0xDEADBEEF"}
	kr, err := prepareKeyring(context.Background(), m, f, "hkps://keys.example.org", p)
	if err != nil {
		t.Fatal(err)
	}
	defer kr.destroy()

	if got, want := len(m.keyserverCalls), 1; got != want {
		t.Fatalf("got %v keyserver calls, want %v", got, want)
	}
	if got, want := m.keyserverCalls[0], "hkps://keys.example.org 0xDEADBEEF"; got != want {
		t.Errorf("got call %q, want %q", got, want)
	}
}

func TestPrepareKeyring_WKD(t *testing.T) {
	m := &fakeMechanism{}
	f := &mockFetcher{}

	p := Policy{KeySource: KeySourceWKD, GPGKeyID: "releases@example.org"}
	kr, err := prepareKeyring(context.Background(), m, f, DefaultKeyserver, p)
	if err != nil {
		t.Fatal(err)
	}
	defer kr.destroy()

	if got, want := len(m.wkdCalls), 1; got != want {
		t.Fatalf("got %v WKD calls, want %v", got, want)
	}
	if got, want := m.wkdCalls[0], "releases@example.org"; got != want {
		t.Errorf("got call %q, want %q", got, want)
	}
}

func TestPrepareKeyring_FetchFailureCleansUp(t *testing.T) {
	m := &fakeMechanism{keyserverErr: &FetchError{URL: "hkps://keys.example.org", Err: errors.New("timeout")}}
	f := &mockFetcher{}

	p := Policy{KeySource: KeySourceKeyserver, GPGKeyID: "0xDEADBEEF"}
	_, err := prepareKeyring(context.Background(), m, f, "hkps://keys.example.org", p)
	if want := (&FetchError{}); !errors.Is(err, want) {
		t.Fatalf("got error %v, want %v", err, want)
	}

	if got, want := len(m.importHomes), 1; got != want {
		t.Fatalf("got %v keyring dirs, want %v", got, want)
	}
	if _, err := os.Stat(m.importHomes[0]); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("keyring directory %v not removed", m.importHomes[0])
	}
}
