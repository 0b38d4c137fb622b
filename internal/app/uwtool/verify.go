// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package uwtool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/updatewatch/updatewatch/internal/pkg/fetch"
	"github.com/updatewatch/updatewatch/pkg/verify"
)

// VerifyOptions collects the policy knobs exposed by the verify command.
type VerifyOptions struct {
	Checksum         string // Direct checksum value, wins over ChecksumURL.
	ChecksumURL      string // URL of a checksum value or manifest.
	ChecksumAlg      string // Checksum algorithm name (default sha256).
	RequireChecksum  bool   // Fail when no checksum can be resolved.
	SkipChecksum     bool   // Disable the checksum phase.
	SkipHeaderDigest bool   // Disable the advisory header-digest phase.
	KeyID            string // Signing key ID; paired with Fingerprint.
	Fingerprint      string // Pinned signing key fingerprint.
	SignatureURL     string // Detached signature URL override.
	KeySource        string // Key source name (user_keyring, url, keyserver, wkd).
	KeyURL           string // Key URL for the url key source.
	Keyserver        string // Keyserver override for the keyserver key source.
	AllowInsecure    bool   // Permit plain-http URLs.
	InProcess        bool   // Use the in-process OpenPGP mechanism instead of gpg.
}

// parseKeySource maps a key source name to its verify.KeySource. An empty name selects
// the user keyring.
func parseKeySource(name string) (verify.KeySource, error) {
	switch name {
	case "", verify.KeySourceUserKeyring.String():
		return verify.KeySourceUserKeyring, nil
	case verify.KeySourceURL.String():
		return verify.KeySourceURL, nil
	case verify.KeySourceKeyserver.String():
		return verify.KeySourceKeyserver, nil
	case verify.KeySourceWKD.String():
		return verify.KeySourceWKD, nil
	default:
		return 0, fmt.Errorf("unknown key source %q", name)
	}
}

// Verify verifies the artifact at path, downloaded from sourceURL, against the policy
// described by o. Each attempted phase is written to the output stream as a JSON line;
// hard failures are additionally reported on the error stream.
func (a *App) Verify(ctx context.Context, path, sourceURL string, o VerifyOptions) error {
	ks, err := parseKeySource(o.KeySource)
	if err != nil {
		return err
	}

	p := verify.Policy{
		RequireChecksum:   o.RequireChecksum,
		SkipChecksum:      o.SkipChecksum,
		SkipHeaderDigest:  o.SkipHeaderDigest,
		ChecksumURL:       o.ChecksumURL,
		GPGKeyID:          o.KeyID,
		GPGFingerprint:    o.Fingerprint,
		SignatureURL:      o.SignatureURL,
		KeySource:         ks,
		KeyURL:            o.KeyURL,
		AllowInsecureHTTP: o.AllowInsecure,
	}

	if o.ChecksumAlg != "" {
		h, err := verify.AlgorithmByName(o.ChecksumAlg)
		if err != nil {
			return err
		}
		p.ChecksumHash = h
	}

	enc := json.NewEncoder(a.opts.out)
	sink := verify.EventSinkFunc(func(ev verify.Event) {
		enc.Encode(ev) //nolint:errcheck
	})
	reporter := verify.ReporterFunc(func(k verify.Kind, msg, app string) {
		if app != "" {
			fmt.Fprintf(a.opts.err, "%s: [%s] %s\n", app, k, msg)
			return
		}
		fmt.Fprintf(a.opts.err, "[%s] %s\n", k, msg)
	})

	vopts := []verify.VerifierOpt{
		verify.OptVerifyWithEventSink(sink),
		verify.OptVerifyWithReporter(reporter),
	}
	if o.Keyserver != "" {
		vopts = append(vopts, verify.OptVerifyKeyserver(o.Keyserver))
	}
	if o.InProcess {
		vopts = append(vopts, verify.OptVerifyWithMechanism(&verify.OpenPGPMechanism{
			Fetcher: fetch.NewClient(),
		}))
	}

	v, err := verify.NewVerifier(vopts...)
	if err != nil {
		return err
	}

	return v.Verify(ctx, p, verify.Artifact{
		Path:      path,
		SourceURL: sourceURL,
		Checksum:  o.Checksum,
	})
}
