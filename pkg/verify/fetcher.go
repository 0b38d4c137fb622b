// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package verify

import (
	"context"
	"net/http"
)

// Fetcher is the network collaborator used to retrieve checksum manifests, detached
// signatures and keys. All methods must be bounded by the collaborator's timeouts; a
// timeout is treated identically to any other fetch failure.
type Fetcher interface {
	// FetchToFile downloads rawURL to a temporary file and returns its path. The
	// caller owns the returned file and is responsible for removing it. Plain HTTP
	// URLs are refused unless allowInsecure is set.
	FetchToFile(ctx context.Context, rawURL string, allowInsecure bool) (string, error)

	// ProbeExists reports whether a resource exists at rawURL, without downloading
	// its body.
	ProbeExists(ctx context.Context, rawURL string) (bool, error)

	// PeekHeaders returns the response headers of a lightweight metadata probe of
	// rawURL.
	PeekHeaders(ctx context.Context, rawURL string) (http.Header, error)
}
