// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

// Package uwtool adds uwtool commands to a parent cobra.Command.
package uwtool

import (
	"github.com/spf13/cobra"
	"github.com/updatewatch/updatewatch/internal/app/uwtool"
)

// commandOpts contains configured options.
type commandOpts struct {
	app *uwtool.App
}

// CommandOpt are used to configure optional command behavior.
type CommandOpt func(*commandOpts) error

// AddCommands adds uwtool commands to cmd according to opts.
//
// A set of commands are provided to compute artifact digests, verify downloaded
// artifacts against checksum and signature policies, and check upstream releases for
// updates.
func AddCommands(cmd *cobra.Command, opts ...CommandOpt) error {
	app, err := uwtool.New(
		uwtool.OptAppOutput(cmd.OutOrStdout()),
		uwtool.OptAppError(cmd.ErrOrStderr()),
	)
	if err != nil {
		return err
	}

	co := commandOpts{app: app}

	for _, opt := range opts {
		if err := opt(&co); err != nil {
			return err
		}
	}

	cmd.AddCommand(
		getDigest(co),
		getVerify(co),
		getCheck(co),
	)

	return nil
}
