// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package verify

import (
	"context"
	"crypto"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/updatewatch/updatewatch/internal/pkg/fetch"
)

// Verifier verifies downloaded artifacts against per-application trust policies.
type Verifier struct {
	fetcher   Fetcher
	mech      Mechanism
	sink      EventSink
	reporter  Reporter
	keyserver string
	timeFunc  func() time.Time
}

// VerifierOpt are used to configure v.
type VerifierOpt func(v *Verifier) error

// OptVerifyWithFetcher sets the network-fetch collaborator used for checksum
// manifests, signatures and keys.
func OptVerifyWithFetcher(f Fetcher) VerifierOpt {
	return func(v *Verifier) error {
		v.fetcher = f
		return nil
	}
}

// OptVerifyWithMechanism sets the OpenPGP mechanism used for signature verification.
func OptVerifyWithMechanism(m Mechanism) VerifierOpt {
	return func(v *Verifier) error {
		v.mech = m
		return nil
	}
}

// OptVerifyWithEventSink routes the Event emitted for each attempted phase to s.
func OptVerifyWithEventSink(s EventSink) VerifierOpt {
	return func(v *Verifier) error {
		v.sink = s
		return nil
	}
}

// OptVerifyWithReporter routes hard-failure reports to r.
func OptVerifyWithReporter(r Reporter) VerifierOpt {
	return func(v *Verifier) error {
		v.reporter = r
		return nil
	}
}

// OptVerifyKeyserver overrides the keyserver consulted by KeySourceKeyserver.
func OptVerifyKeyserver(server string) VerifierOpt {
	return func(v *Verifier) error {
		v.keyserver = server
		return nil
	}
}

// OptVerifyWithTime sets fn as the source of event timestamps, useful to ensure
// deterministic events.
func OptVerifyWithTime(fn func() time.Time) VerifierOpt {
	return func(v *Verifier) error {
		v.timeFunc = fn
		return nil
	}
}

// NewVerifier returns a Verifier configured with opts. The mechanism's dependency
// check runs here: a missing GPG helper surfaces immediately with KindMissingDep,
// never deep inside a verification call.
func NewVerifier(opts ...VerifierOpt) (*Verifier, error) {
	v := &Verifier{
		keyserver: DefaultKeyserver,
		timeFunc:  time.Now,
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
	}

	if v.fetcher == nil {
		v.fetcher = fetch.NewClient()
	}
	if v.mech == nil {
		v.mech = &GPGMechanism{}
	}
	if v.sink == nil {
		v.sink = EventSinkFunc(func(Event) {})
	}
	if v.reporter == nil {
		v.reporter = ReporterFunc(func(Kind, string, string) {})
	}

	if err := v.mech.Check(); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	return v, nil
}

// Verify checks the artifact a against policy p. It returns nil only if every
// attempted, required phase passed. The phases run in a fixed order: checksum, header
// digest, signature. The first fail-closed failure aborts the call; events already
// emitted remain valid audit records. The header-digest phase is advisory and never
// aborts; it is the single fail-open behavior in the package.
func (v *Verifier) Verify(ctx context.Context, p Policy, a Artifact) error {
	if err := p.Validate(); err != nil {
		return err
	}

	if !p.SkipChecksum {
		if err := v.checksumPhase(ctx, p, a); err != nil {
			return v.fail(err, a)
		}
	}

	if !p.SkipHeaderDigest {
		v.headerDigestPhase(ctx, p, a)
	}

	res, err := v.verifySignature(ctx, p, a)
	if !res.skipped {
		v.emitSignatureEvent(res, a, err == nil)
	}
	if err != nil {
		return v.fail(err, a)
	}

	return nil
}

// fail reports err exactly once and wraps it for return.
func (v *Verifier) fail(err error, a Artifact) error {
	msg := fmt.Sprintf("%s: %v", filepath.Base(a.Path), err)
	v.reporter.Report(KindOf(err), msg, a.App)
	return fmt.Errorf("verify: %w", err)
}

// checksumPhase resolves the expected digest for a and compares it against a local
// hash. An empty, non-required result is a pass, but still constitutes an attempted
// phase and is logged; only a phase disabled by policy emits nothing.
func (v *Verifier) checksumPhase(ctx context.Context, p Policy, a Artifact) error {
	h := p.hash()
	ev := Event{
		Type:      EventChecksum,
		Algorithm: algorithmName(h),
		Expected:  NotComputed,
		Actual:    NotComputed,
		Path:      a.Path,
		SourceURL: a.SourceURL,
		App:       a.App,
		Time:      v.timeFunc(),
	}

	expected, err := resolveChecksum(ctx, v.fetcher, p, a.Path, a.Checksum)
	if err != nil {
		v.sink.Emit(ev)
		return err
	}

	if expected == "" {
		if p.RequireChecksum {
			v.sink.Emit(ev)
			return &kindedError{k: KindValidation, err: ErrChecksumRequired}
		}

		ev.Success = true
		v.sink.Emit(ev)
		return nil
	}

	ev.Expected = strings.ToLower(expected)
	actual, ok, err := fileDigestMatches(a.Path, expected, h)
	if err != nil {
		v.sink.Emit(ev)
		return &kindedError{k: KindValidation, err: err}
	}

	ev.Actual = actual
	if !ok {
		v.sink.Emit(ev)
		return &ChecksumMismatchError{Hash: h, Expected: ev.Expected, Actual: actual}
	}

	ev.Success = true
	v.sink.Emit(ev)
	return nil
}

// headerDigestPhase compares a vendor-supplied digest response header against a local
// hash. A mismatch is deliberately advisory: CDN-supplied digests are occasionally
// stale, and must not block an otherwise checksummed, signed artifact. A warning event
// is emitted, and verification continues. When the probe fails or the response carries
// no digest header, there is nothing to check and no event is emitted.
func (v *Verifier) headerDigestPhase(ctx context.Context, p Policy, a Artifact) {
	hdr, err := v.fetcher.PeekHeaders(ctx, a.SourceURL)
	if err != nil {
		return
	}

	h, expected := digestFromHeaders(hdr)
	if expected == "" {
		return
	}

	ev := Event{
		Type:      EventHeaderDigest,
		Algorithm: algorithmName(h),
		Expected:  expected,
		Actual:    NotComputed,
		Path:      a.Path,
		SourceURL: a.SourceURL,
		App:       a.App,
		Time:      v.timeFunc(),
	}

	actual, ok, err := fileDigestMatches(a.Path, expected, h)
	if err != nil {
		v.sink.Emit(ev)
		return
	}

	ev.Actual = actual
	ev.Success = ok
	v.sink.Emit(ev)
}

// digestFromHeaders extracts a vendor-supplied content digest from response headers.
func digestFromHeaders(hdr http.Header) (crypto.Hash, string) {
	if d := hdr.Get("X-Checksum-Sha256"); d != "" {
		return crypto.SHA256, strings.ToLower(strings.TrimSpace(d))
	}
	if d := hdr.Get("X-Checksum-Sha512"); d != "" {
		return crypto.SHA512, strings.ToLower(strings.TrimSpace(d))
	}
	return 0, ""
}

// emitSignatureEvent emits the Event for an attempted signature phase.
func (v *Verifier) emitSignatureEvent(res signatureResult, a Artifact, ok bool) {
	v.sink.Emit(Event{
		Type:        EventSignature,
		Success:     ok,
		Expected:    res.expectedFP,
		Actual:      res.actualFP,
		Path:        a.Path,
		SourceURL:   a.SourceURL,
		KeyID:       res.keyID,
		Fingerprint: res.actualFP,
		App:         a.App,
		Time:        v.timeFunc(),
	})
}
