// Copyright (c) Contributors to the Updatewatch project.
// This software is licensed under a 3-clause BSD license. Please consult the LICENSE.md file
// distributed with the sources of this project regarding your rights to use or distribute this
// software.

package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const releaseJSON = `{
  "tag_name": "v1.4.0",
  "assets": [
    {
      "name": "app-linux-amd64.tar.gz",
      "browser_download_url": "https://example.org/app-linux-amd64.tar.gz",
      "size": 1048576,
      "digest": "sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
    },
    {
      "name": "app-windows-amd64.zip",
      "browser_download_url": "https://example.org/app-windows-amd64.zip",
      "size": 2097152,
      "digest": ""
    }
  ]
}`

func newTestChecker(t *testing.T) *Checker {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/example/app/releases/latest", "/repos/example/app/releases/tags/v1.4.0":
			w.Write([]byte(releaseJSON)) //nolint:errcheck
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	c, err := NewChecker(OptCheckerAPIBase(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestChecker_Latest(t *testing.T) {
	c := newTestChecker(t)

	rel, err := c.Latest(context.Background(), "example/app")
	if err != nil {
		t.Fatal(err)
	}

	if got, want := rel.TagName, "v1.4.0"; got != want {
		t.Errorf("got tag %v, want %v", got, want)
	}
	if got, want := len(rel.Assets), 2; got != want {
		t.Errorf("got %v assets, want %v", got, want)
	}
}

func TestChecker_LatestNotFound(t *testing.T) {
	c := newTestChecker(t)

	if _, err := c.Latest(context.Background(), "example/missing"); err == nil {
		t.Error("unexpected success")
	}
}

func TestChecker_ByTag(t *testing.T) {
	c := newTestChecker(t)

	rel, err := c.ByTag(context.Background(), "example/app", "v1.4.0")
	if err != nil {
		t.Fatal(err)
	}

	if got, want := rel.TagName, "v1.4.0"; got != want {
		t.Errorf("got tag %v, want %v", got, want)
	}
}

func TestRelease_NewerThan(t *testing.T) {
	tests := []struct {
		name      string
		tag       string
		installed string
		want      bool
		wantError bool
	}{
		{name: "Newer", tag: "v1.4.0", installed: "1.3.9", want: true},
		{name: "NewerWithPrefix", tag: "v1.4.0", installed: "v1.3.9", want: true},
		{name: "Equal", tag: "v1.4.0", installed: "1.4.0", want: false},
		{name: "Older", tag: "v1.4.0", installed: "1.5.0", want: false},
		{name: "PreRelease", tag: "v1.4.0", installed: "1.4.0-rc.1", want: true},
		{name: "BadTag", tag: "nightly", installed: "1.4.0", wantError: true},
		{name: "BadInstalled", tag: "v1.4.0", installed: "unknown", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Release{TagName: tt.tag}

			got, err := r.NewerThan(tt.installed)
			if gotErr := err != nil; gotErr != tt.wantError {
				t.Fatalf("got error %v, wantError %v", err, tt.wantError)
			}

			if err == nil {
				if want := tt.want; got != want {
					t.Errorf("got %v, want %v", got, want)
				}
			}
		})
	}
}

func TestRelease_FindAsset(t *testing.T) {
	r := &Release{Assets: []Asset{
		{Name: "app-linux-amd64.tar.gz"},
		{Name: "app-windows-amd64.zip"},
	}}

	tests := []struct {
		name    string
		pattern string
		want    string
		wantOK  bool
	}{
		{name: "Glob", pattern: "*.tar.gz", want: "app-linux-amd64.tar.gz", wantOK: true},
		{name: "Exact", pattern: "app-windows-amd64.zip", want: "app-windows-amd64.zip", wantOK: true},
		{name: "NoMatch", pattern: "*.deb", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := r.FindAsset(tt.pattern)
			if got, want := ok, tt.wantOK; got != want {
				t.Fatalf("got %v, want %v", got, want)
			}

			if ok {
				if got, want := a.Name, tt.want; got != want {
					t.Errorf("got asset %v, want %v", got, want)
				}
			}
		})
	}
}

func TestAsset_Checksum(t *testing.T) {
	tests := []struct {
		name   string
		digest string
		want   string
	}{
		{
			name:   "Prefixed",
			digest: "sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
			want:   "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
		{
			name:   "Bare",
			digest: "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
			want:   "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		},
		{name: "Empty", digest: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Asset{Digest: tt.digest}
			if got, want := a.Checksum(), tt.want; got != want {
				t.Errorf("got checksum %q, want %q", got, want)
			}
		})
	}
}
