// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package uwtool

import (
	"github.com/spf13/cobra"
	"github.com/updatewatch/updatewatch/internal/app/uwtool"
)

// getVerify returns a command that verifies a downloaded artifact.
func getVerify(co commandOpts) *cobra.Command {
	var opts uwtool.VerifyOptions

	cmd := &cobra.Command{
		Use:   "verify <path> <source_url>",
		Short: "Verify artifact",
		Long: `Verify a downloaded artifact against a checksum and, when a signing key is pinned, a
detached OpenPGP signature. Each attempted verification phase is written to standard
output as a JSON line.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return co.app.Verify(cmd.Context(), args[0], args[1], opts)
		},
		DisableFlagsInUseLine: true,
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.Checksum, "checksum", "", "expected checksum value")
	fs.StringVar(&opts.ChecksumURL, "checksum-url", "", "URL of a checksum value or manifest")
	fs.StringVar(&opts.ChecksumAlg, "checksum-alg", "sha256", "checksum algorithm (md5|sha256|sha512)")
	fs.BoolVar(&opts.RequireChecksum, "require-checksum", false, "fail when no checksum can be resolved")
	fs.BoolVar(&opts.SkipChecksum, "skip-checksum", false, "disable the checksum phase")
	fs.BoolVar(&opts.SkipHeaderDigest, "skip-header-digest", false, "disable the advisory header-digest phase")
	fs.StringVar(&opts.KeyID, "key-id", "", "signing key ID")
	fs.StringVar(&opts.Fingerprint, "fingerprint", "", "pinned signing key fingerprint")
	fs.StringVar(&opts.SignatureURL, "signature-url", "", "detached signature URL override")
	fs.StringVar(&opts.KeySource, "key-source", "", "key source (user_keyring|url|keyserver|wkd)")
	fs.StringVar(&opts.KeyURL, "key-url", "", "key URL for the url key source")
	fs.StringVar(&opts.Keyserver, "keyserver", "", "keyserver for the keyserver key source")
	fs.BoolVar(&opts.AllowInsecure, "allow-insecure-http", false, "permit plain-http URLs")
	fs.BoolVar(&opts.InProcess, "in-process", false, "use the in-process OpenPGP mechanism instead of gpg")

	return cmd
}
