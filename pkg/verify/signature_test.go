// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package verify

import (
	"context"
	"errors"
	"testing"
)

func TestVerify_SignatureSkipped(t *testing.T) {
	path := writeFile(t, "app.tar.gz", []byte("abc"))

	f := &mockFetcher{}
	m := &fakeMechanism{}
	er := &eventRecorder{}
	v := newTestVerifier(t, f, m, er, &reportRecorder{})

	p := Policy{SkipChecksum: true, SkipHeaderDigest: true}
	a := Artifact{Path: path, SourceURL: "https://example.org/app.tar.gz"}

	if err := v.Verify(context.Background(), p, a); err != nil {
		t.Fatal(err)
	}

	// An unconfigured signature phase emits no event and touches no keyring.
	if got, want := len(er.events), 0; got != want {
		t.Errorf("got %v events, want %v", got, want)
	}
	if got, want := m.verifyCalls, 0; got != want {
		t.Errorf("got %v signature checks, want %v", got, want)
	}
}

func TestVerify_SignatureFallbackToAsc(t *testing.T) {
	const sourceURL = "https://example.org/app.tar.gz"

	path := writeFile(t, "app.tar.gz", []byte("abc"))

	f := &mockFetcher{
		files: map[string][]byte{sourceURL + ".asc": []byte("signature")},
	}
	m := &fakeMechanism{fingerprint: testFP}
	er := &eventRecorder{}
	v := newTestVerifier(t, f, m, er, &reportRecorder{})

	p := Policy{SkipChecksum: true, SkipHeaderDigest: true, GPGKeyID: testKeyID, GPGFingerprint: testFP}
	a := Artifact{Path: path, SourceURL: sourceURL}

	if err := v.Verify(context.Background(), p, a); err != nil {
		t.Fatal(err)
	}

	// The .sig location is attempted first; the .asc alternative is probed and
	// fetched exactly once.
	wantFetches := []string{sourceURL + ".sig", sourceURL + ".asc"}
	if got, want := len(f.fetches), len(wantFetches); got != want {
		t.Fatalf("got %v fetches %v, want %v", got, f.fetches, want)
	}
	for i, want := range wantFetches {
		if got := f.fetches[i]; got != want {
			t.Errorf("fetch %v: got %v, want %v", i, got, want)
		}
	}

	if got, want := len(f.probes), 1; got != want {
		t.Fatalf("got %v probes, want %v", got, want)
	}
	if got, want := f.probes[0], sourceURL+".asc"; got != want {
		t.Errorf("got probe %v, want %v", got, want)
	}
}

func TestVerify_SignatureMissing(t *testing.T) {
	const sourceURL = "https://example.org/app.tar.gz"

	path := writeFile(t, "app.tar.gz", []byte("abc"))

	f := &mockFetcher{}
	m := &fakeMechanism{fingerprint: testFP}
	er := &eventRecorder{}
	rr := &reportRecorder{}
	v := newTestVerifier(t, f, m, er, rr)

	p := Policy{SkipChecksum: true, SkipHeaderDigest: true, GPGKeyID: testKeyID, GPGFingerprint: testFP}
	a := Artifact{Path: path, SourceURL: sourceURL}

	err := v.Verify(context.Background(), p, a)
	if want := (&FetchError{}); !errors.Is(err, want) {
		t.Fatalf("got error %v, want %v", err, want)
	}
	if got, want := KindOf(err), KindNetwork; got != want {
		t.Errorf("got kind %v, want %v", got, want)
	}

	if got, want := len(er.events), 1; got != want {
		t.Fatalf("got %v events, want %v", got, want)
	}
	if er.events[0].Success {
		t.Error("unexpected success event")
	}
	if got, want := er.events[0].Actual, NotComputed; got != want {
		t.Errorf("got actual %v, want %v", got, want)
	}
}

func TestVerify_SignatureURLOverrideNoFallback(t *testing.T) {
	const sigURL = "https://mirror.example.org/app.tar.gz.sign"

	path := writeFile(t, "app.tar.gz", []byte("abc"))

	f := &mockFetcher{}
	m := &fakeMechanism{fingerprint: testFP}
	er := &eventRecorder{}
	v := newTestVerifier(t, f, m, er, &reportRecorder{})

	p := Policy{
		SkipChecksum:     true,
		SkipHeaderDigest: true,
		GPGKeyID:         testKeyID,
		GPGFingerprint:   testFP,
		SignatureURL:     sigURL,
	}
	a := Artifact{Path: path, SourceURL: "https://example.org/app.tar.gz"}

	err := v.Verify(context.Background(), p, a)
	if want := (&FetchError{URL: sigURL}); !errors.Is(err, want) {
		t.Fatalf("got error %v, want %v", err, want)
	}

	// No .asc probing when the signature location was configured explicitly.
	if got, want := len(f.probes), 0; got != want {
		t.Errorf("got %v probes, want %v", got, want)
	}
}

func TestVerify_FingerprintMismatch(t *testing.T) {
	const sourceURL = "https://example.org/app.tar.gz"

	path := writeFile(t, "app.tar.gz", []byte("abc"))

	f := &mockFetcher{files: map[string][]byte{sourceURL + ".sig": []byte("signature")}}
	m := &fakeMechanism{fingerprint: testOtherFP}
	er := &eventRecorder{}
	rr := &reportRecorder{}
	v := newTestVerifier(t, f, m, er, rr)

	p := Policy{SkipChecksum: true, SkipHeaderDigest: true, GPGKeyID: testKeyID, GPGFingerprint: testFP}
	a := Artifact{Path: path, SourceURL: sourceURL}

	err := v.Verify(context.Background(), p, a)
	if want := (&FingerprintMismatchError{Expected: testFP, Actual: testOtherFP}); !errors.Is(err, want) {
		t.Fatalf("got error %v, want %v", err, want)
	}

	if got, want := m.verifyCalls, 0; got != want {
		t.Errorf("got %v signature checks, want %v", got, want)
	}

	if got, want := len(er.events), 1; got != want {
		t.Fatalf("got %v events, want %v", got, want)
	}

	ev := er.events[0]
	if got, want := ev.Expected, testFP; got != want {
		t.Errorf("got expected %v, want %v", got, want)
	}
	if got, want := ev.Actual, testOtherFP; got != want {
		t.Errorf("got actual %v, want %v", got, want)
	}

	if got, want := len(rr.kinds), 1; got != want {
		t.Fatalf("got %v reports, want %v", got, want)
	}
	if got, want := rr.kinds[0], KindGPG; got != want {
		t.Errorf("got kind %v, want %v", got, want)
	}
}

func TestVerify_FingerprintNormalized(t *testing.T) {
	const sourceURL = "https://example.org/app.tar.gz"

	path := writeFile(t, "app.tar.gz", []byte("abc"))

	f := &mockFetcher{files: map[string][]byte{sourceURL + ".sig": []byte("signature")}}
	m := &fakeMechanism{fingerprint: "0123 4567 89ab cdef 0123 4567 89ab cdef 0123 4567"}
	er := &eventRecorder{}
	v := newTestVerifier(t, f, m, er, &reportRecorder{})

	p := Policy{
		SkipChecksum:     true,
		SkipHeaderDigest: true,
		GPGKeyID:         testKeyID,
		GPGFingerprint:   "0x" + testFP,
	}
	a := Artifact{Path: path, SourceURL: sourceURL}

	if err := v.Verify(context.Background(), p, a); err != nil {
		t.Fatal(err)
	}
}

func TestVerify_SignatureNotValid(t *testing.T) {
	const sourceURL = "https://example.org/app.tar.gz"

	path := writeFile(t, "app.tar.gz", []byte("abc"))

	f := &mockFetcher{files: map[string][]byte{sourceURL + ".sig": []byte("signature")}}
	m := &fakeMechanism{
		fingerprint: testFP,
		verifyErr:   &SignatureNotValidError{Err: errors.New("bad signature")},
	}
	er := &eventRecorder{}
	rr := &reportRecorder{}
	v := newTestVerifier(t, f, m, er, rr)

	p := Policy{SkipChecksum: true, SkipHeaderDigest: true, GPGKeyID: testKeyID, GPGFingerprint: testFP}
	a := Artifact{Path: path, SourceURL: sourceURL}

	err := v.Verify(context.Background(), p, a)
	if want := (&SignatureNotValidError{}); !errors.Is(err, want) {
		t.Fatalf("got error %v, want %v", err, want)
	}
	if got, want := KindOf(err), KindGPG; got != want {
		t.Errorf("got kind %v, want %v", got, want)
	}

	if got, want := len(er.events), 1; got != want {
		t.Fatalf("got %v events, want %v", got, want)
	}
	if er.events[0].Success {
		t.Error("unexpected success event")
	}
}

func TestVerify_KeyNotFound(t *testing.T) {
	const sourceURL = "https://example.org/app.tar.gz"

	path := writeFile(t, "app.tar.gz", []byte("abc"))

	f := &mockFetcher{files: map[string][]byte{sourceURL + ".sig": []byte("signature")}}
	m := &fakeMechanism{fingerprintErr: &KeyNotFoundError{KeyID: testKeyID}}
	er := &eventRecorder{}
	v := newTestVerifier(t, f, m, er, &reportRecorder{})

	p := Policy{SkipChecksum: true, SkipHeaderDigest: true, GPGKeyID: testKeyID, GPGFingerprint: testFP}
	a := Artifact{Path: path, SourceURL: sourceURL}

	err := v.Verify(context.Background(), p, a)
	if want := (&KeyNotFoundError{KeyID: testKeyID}); !errors.Is(err, want) {
		t.Fatalf("got error %v, want %v", err, want)
	}
	if got, want := KindOf(err), KindGPG; got != want {
		t.Errorf("got kind %v, want %v", got, want)
	}
}
