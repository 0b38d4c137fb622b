// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package uwtool

import (
	"fmt"
	"path/filepath"

	"github.com/updatewatch/updatewatch/pkg/verify"
)

// Digest computes the digest of the file at path using the named algorithm and writes
// it in checksum-manifest form.
func (a *App) Digest(path, algorithm string) error {
	h, err := verify.AlgorithmByName(algorithm)
	if err != nil {
		return err
	}

	d, err := verify.FileDigest(path, h)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(a.opts.out, "%s  %s\n", d, filepath.Base(path))
	return err
}
