// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

// Package fetch provides the retrying HTTP collaborator used to retrieve checksum
// manifests, detached signatures and keys.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// ErrInsecureScheme is the error returned when a plain-http URL is refused.
var ErrInsecureScheme = errors.New("plain http refused by policy")

// StatusError records an unexpected HTTP response status.
type StatusError struct {
	URL        string // URL that was requested.
	StatusCode int    // Status code of the response.
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %v", e.StatusCode, e.URL)
}

// Is compares e against target. If target is a StatusError and matches e or target has
// a zero value StatusCode, true is returned.
func (e *StatusError) Is(target error) bool {
	t, ok := target.(*StatusError)
	if !ok {
		return false
	}
	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

// Client fetches remote resources with bounded timeouts and a small retry budget.
type Client struct {
	hc *retryablehttp.Client
}

// Option are used to configure a Client.
type Option func(c *Client)

// OptTimeout bounds the total time of each request attempt.
func OptTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.HTTPClient.Timeout = d }
}

// OptRetryMax sets the maximum number of retries per request.
func OptRetryMax(n int) Option {
	return func(c *Client) { c.hc.RetryMax = n }
}

// NewClient returns a Client configured with opts.
func NewClient(opts ...Option) *Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = 2
	hc.RetryWaitMin = 500 * time.Millisecond
	hc.RetryWaitMax = 5 * time.Second
	hc.HTTPClient.Timeout = 60 * time.Second
	hc.Logger = nil

	c := &Client{hc: hc}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// checkScheme refuses plain-http URLs unless explicitly permitted.
func checkScheme(rawURL string, allowInsecure bool) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if allowInsecure {
			return nil
		}
		return fmt.Errorf("%v: %w", rawURL, ErrInsecureScheme)
	default:
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
}

// FetchToFile downloads rawURL to a temporary file and returns its path. The caller
// owns the returned file and is responsible for removing it.
func (c *Client) FetchToFile(ctx context.Context, rawURL string, allowInsecure bool) (path string, err error) {
	if err := checkScheme(rawURL, allowInsecure); err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	tf, err := os.CreateTemp("", "updatewatch-fetch-*")
	if err != nil {
		return "", err
	}
	defer func() {
		tf.Close()
		if err != nil {
			os.Remove(tf.Name())
		}
	}()

	if _, err = io.Copy(tf, resp.Body); err != nil {
		return "", err
	}
	return tf.Name(), nil
}

// head issues a HEAD request to rawURL.
func (c *Client) head(ctx context.Context, rawURL string) (http.Header, int, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	return resp.Header, resp.StatusCode, nil
}

// ProbeExists reports whether a resource exists at rawURL using a HEAD request,
// falling back to a ranged GET for servers that reject HEAD.
func (c *Client) ProbeExists(ctx context.Context, rawURL string) (bool, error) {
	_, status, err := c.head(ctx, rawURL)
	if err != nil {
		return false, err
	}

	if status == http.StatusMethodNotAllowed {
		req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return false, err
		}
		req.Header.Set("Range", "bytes=0-0")

		resp, err := c.hc.Do(req)
		if err != nil {
			return false, err
		}
		resp.Body.Close()
		status = resp.StatusCode
	}

	return status >= http.StatusOK && status < http.StatusMultipleChoices, nil
}

// PeekHeaders returns the response headers of a HEAD request to rawURL.
func (c *Client) PeekHeaders(ctx context.Context, rawURL string) (http.Header, error) {
	hdr, status, err := c.head(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &StatusError{URL: rawURL, StatusCode: status}
	}
	return hdr, nil
}
