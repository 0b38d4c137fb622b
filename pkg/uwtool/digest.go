// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package uwtool

import (
	"github.com/spf13/cobra"
)

// getDigest returns a command that computes the digest of a file.
func getDigest(co commandOpts) *cobra.Command {
	var algorithm string

	cmd := &cobra.Command{
		Use:   "digest <path>",
		Short: "Compute file digest",
		Long:  "Compute the digest of a file, in checksum-manifest form.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return co.app.Digest(args[0], algorithm)
		},
		DisableFlagsInUseLine: true,
	}

	cmd.Flags().StringVar(&algorithm, "algorithm", "sha256", "digest algorithm (md5|sha256|sha512)")

	return cmd
}
