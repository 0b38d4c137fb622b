// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package uwtool

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/updatewatch/updatewatch/pkg/release"
)

// Check looks up the latest release of repo and reports whether it is newer than
// installed. When assetPattern is non-empty, the matching artifact and its recorded
// digest are listed. An empty apiBase uses the public GitHub API.
func (a *App) Check(ctx context.Context, repo, installed, assetPattern, apiBase string) error {
	var opts []release.CheckerOpt
	if apiBase != "" {
		opts = append(opts, release.OptCheckerAPIBase(apiBase))
	}

	c, err := release.NewChecker(opts...)
	if err != nil {
		return err
	}

	rel, err := c.Latest(ctx, repo)
	if err != nil {
		return err
	}

	newer, err := rel.NewerThan(installed)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.opts.out, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "Latest:\t%v\n", rel.TagName)
	fmt.Fprintf(tw, "Installed:\t%v\n", installed)
	fmt.Fprintf(tw, "Update available:\t%v\n", newer)

	if assetPattern != "" {
		asset, ok := rel.FindAsset(assetPattern)
		if !ok {
			return fmt.Errorf("no asset matching %q in release %v", assetPattern, rel.TagName)
		}

		fmt.Fprintf(tw, "Asset:\t%v\n", asset.Name)
		fmt.Fprintf(tw, "URL:\t%v\n", asset.BrowserDownloadURL)
		fmt.Fprintf(tw, "Size:\t%v\n", asset.Size)
		if d := asset.Checksum(); d != "" {
			fmt.Fprintf(tw, "Digest:\t%v\n", d)
		}
	}

	return nil
}
