// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package uwtool

import (
	"github.com/spf13/cobra"
)

// getCheck returns a command that checks an upstream repository for updates.
func getCheck(co commandOpts) *cobra.Command {
	var (
		asset   string
		apiBase string
	)

	cmd := &cobra.Command{
		Use:   "check <owner/repo> <installed_version>",
		Short: "Check for updates",
		Long:  "Check the latest release of a GitHub repository against the installed version.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return co.app.Check(cmd.Context(), args[0], args[1], asset, apiBase)
		},
		DisableFlagsInUseLine: true,
	}

	fs := cmd.Flags()
	fs.StringVar(&asset, "asset", "", "asset name pattern to locate in the release")
	fs.StringVar(&apiBase, "api-base", "", "GitHub API base URL override")

	return cmd
}
