// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package verify

import (
	"context"
	"os"
)

// signatureResult captures the observable outcome of the signature phase, for event
// construction.
type signatureResult struct {
	skipped    bool   // Signature verification not configured by policy.
	sigURL     string // Signature URL used (or last attempted).
	keyID      string // Configured signing key ID.
	expectedFP string // Normalized fingerprint pinned in the policy.
	actualFP   string // Normalized fingerprint read from the keyring.
}

// verifySignature implements the signature phase. When the policy does not pin a key
// ID and fingerprint, it passes trivially: unconfigured signature verification is
// intentional policy, not a failure. Everything else fails closed, including a signing
// key that cannot be located in the keyring.
func (v *Verifier) verifySignature(ctx context.Context, p Policy, a Artifact) (signatureResult, error) {
	res := signatureResult{
		keyID:      p.GPGKeyID,
		expectedFP: normalizeFingerprint(p.GPGFingerprint),
		actualFP:   NotComputed,
	}

	if !p.signatureConfigured() {
		res.skipped = true
		return res, nil
	}

	// Locate and fetch the detached signature. The .asc fallback applies only when
	// the signature URL was derived, never when the policy overrides it.
	sigURL := p.SignatureURL
	derived := sigURL == ""
	if derived {
		sigURL = a.SourceURL + ".sig"
	}
	res.sigURL = sigURL

	sigPath, ferr := v.fetcher.FetchToFile(ctx, sigURL, p.AllowInsecureHTTP)
	if ferr != nil && derived {
		alt := a.SourceURL + ".asc"
		if ok, _ := v.fetcher.ProbeExists(ctx, alt); ok {
			res.sigURL = alt
			sigPath, ferr = v.fetcher.FetchToFile(ctx, alt, p.AllowInsecureHTTP)
		}
	}
	if ferr != nil {
		return res, &FetchError{URL: res.sigURL, Err: ferr}
	}
	defer os.Remove(sigPath)

	// Materialize the keyring for the configured key source. destroy is deferred so
	// the cleanup guarantee holds on every exit path.
	kr, err := prepareKeyring(ctx, v.mech, v.fetcher, v.keyserver, p)
	if err != nil {
		return res, err
	}
	defer kr.destroy()

	// The signing key must be present and match the pinned fingerprint.
	actual, err := v.mech.Fingerprint(ctx, kr.dir, p.GPGKeyID)
	if err != nil {
		return res, err
	}
	res.actualFP = normalizeFingerprint(actual)
	if res.actualFP != res.expectedFP {
		return res, &FingerprintMismatchError{Expected: res.expectedFP, Actual: res.actualFP}
	}

	if err := v.mech.VerifyDetached(ctx, kr.dir, sigPath, a.Path); err != nil {
		return res, err
	}

	return res, nil
}
