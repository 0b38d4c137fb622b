// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

/*
Package verify decides whether a downloaded artifact is authentic and intact before it
is installed.

To verify an artifact, create a Verifier and supply a per-application Policy along with
the artifact to check:

	v, err := verify.NewVerifier()
	if err != nil {
		// The GPG helper is missing; this surfaces here, not mid-verification.
	}

	err = v.Verify(ctx, p, verify.Artifact{
		Path:      "/tmp/app_1.2.3_amd64.deb",
		SourceURL: "https://example.com/app_1.2.3_amd64.deb",
		App:       "app",
	})

Verification runs up to three phases, each independently skippable via Policy flags:

  - checksum: the expected digest is resolved from a directly-supplied value, or from a
    remote checksum manifest, and compared against a local hash of the artifact.
  - header digest: a vendor-supplied digest response header, if present, is compared
    against a local hash. A mismatch here is advisory only, and never aborts
    verification; this is the single fail-open behavior in the package.
  - signature: a detached PGP signature is fetched and checked against the artifact
    using an isolated, ephemeral keyring, and the signing key fingerprint is compared
    against the pinned fingerprint in the policy.

Every attempted phase produces an Event, routed to the EventSink supplied via
OptVerifyWithEventSink. Events form the audit trail and are emitted regardless of
outcome. Every hard failure additionally produces exactly one report through the
Reporter supplied via OptVerifyWithReporter.

The signature check runs through a Mechanism. The default, GPGMechanism, shells out to
the gpg binary with an isolated home directory. OpenPGPMechanism is an in-process
alternative built on the ProtonMail OpenPGP library.
*/
package verify
