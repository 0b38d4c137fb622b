// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

//go:build mage
// +build mage

package main

import (
	"fmt"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/updatewatch/updatewatch/internal/pkg/git"
)

// Aliases defines command-line aliases exposed by Mage.
//
//nolint:deadcode
var Aliases = map[string]interface{}{
	"build":   Build.All,
	"cover":   Cover.All,
	"install": Install.All,
	"test":    Test.All,
}

// ldFlags returns linker flags that embed version metadata from the git description of
// the working tree.
func ldFlags() (string, error) {
	d, err := git.Describe(".")
	if err != nil {
		return "", err
	}

	vars := map[string]string{
		"main.builtBy": "mage",
		"main.commit":  d.CommitHash(),
		"main.date":    d.CommitTime().UTC().Format(time.RFC3339),
	}

	if v, err := d.Version(); err == nil {
		vars["main.version"] = v.String()
	}

	if !d.IsClean() {
		vars["main.state"] = "dirty"
	}

	flags := ""
	for k, v := range vars {
		flags += fmt.Sprintf(" -X %s=%s", k, v)
	}
	return flags, nil
}

type Build mg.Namespace

// All compiles all assets.
func (ns Build) All() {
	mg.Deps(ns.Source)
}

// Source compiles all source code.
func (Build) Source() error {
	flags, err := ldFlags()
	if err != nil {
		return err
	}

	return sh.RunV(mg.GoCmd(), "build", "-ldflags", flags, "./...")
}

type Install mg.Namespace

// All installs all assets.
func (ns Install) All() {
	mg.Deps(ns.Bin)
}

// Bin installs binary to GOBIN.
func (Install) Bin() error {
	flags, err := ldFlags()
	if err != nil {
		return err
	}

	return sh.RunV(mg.GoCmd(), "install", "-ldflags", flags, "./cmd/uwtool")
}

type Test mg.Namespace

// All runs all tests.
func (ns Test) All() {
	mg.Deps(ns.Unit)
}

// Unit runs all unit tests.
func (Test) Unit() error {
	return sh.RunV(mg.GoCmd(), "test", "-race", "./...")
}

type Cover mg.Namespace

// All generates all coverage profiles.
func (ns Cover) All() {
	mg.Deps(ns.Unit)
}

// Unit generates a coverage profile from unit tests.
func (Cover) Unit() error {
	return sh.RunV(mg.GoCmd(), "test", "-race", "-coverprofile=cover.out", "./...")
}
