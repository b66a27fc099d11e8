/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package registry

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lexfrei/go-hangar/pkg/hangar"
)

// SourceHangar is the source tag of the Hangar backend.
const SourceHangar = "hangar"

// maxHangarVersions is the page size requested from Hangar.
const maxHangarVersions = 500

// HangarConfig configures the Hangar backend.
type HangarConfig struct {
	// BaseURL of the Hangar API. Defaults to hangar.DefaultBaseURL.
	BaseURL string
	// Platform whose downloads and game versions are used. Defaults to PAPER.
	Platform string
	// HTTPClient overrides the HTTP client.
	HTTPClient *http.Client
	// Timeout overrides the request timeout.
	Timeout time.Duration
}

// HangarClient looks up PaperMC plugins on Hangar.
type HangarClient struct {
	client   *hangar.Client
	baseURL  string
	platform string
}

// NewHangarClient creates a Hangar backend.
func NewHangarClient(cfg HangarConfig) *HangarClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = hangar.DefaultBaseURL
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = hangar.DefaultTimeout
	}

	if cfg.Platform == "" {
		cfg.Platform = "PAPER"
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	tracked := *httpClient
	tracked.Transport = &notFoundTransport{next: httpClient.Transport}

	return &HangarClient{
		client: hangar.NewClient(hangar.Config{
			BaseURL:    cfg.BaseURL,
			HTTPClient: &tracked,
			Timeout:    cfg.Timeout,
		}),
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		platform: strings.ToUpper(cfg.Platform),
	}
}

// Lookup fetches the project and all of its versions.
func (c *HangarClient) Lookup(ctx context.Context, id string) (*Record, error) {
	ctx, missing := withNotFoundFlag(ctx)

	proj, err := c.client.GetProject(ctx, id)
	if err != nil {
		if missing.Load() {
			return nil, &NotFoundError{ID: id, Source: SourceHangar}
		}

		return nil, errors.Wrap(err, "failed to get project")
	}

	owner := proj.Namespace.Owner
	slug := proj.Namespace.Slug

	versionsList, err := c.client.ListVersions(ctx, owner, slug, hangar.ListOptions{
		Limit: maxHangarVersions,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list versions")
	}

	releases := make([]Release, 0, len(versionsList.Result))
	for _, v := range versionsList.Result {
		releases = append(releases, c.toRelease(v, owner, slug))
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].ReleaseDate.After(releases[j].ReleaseDate)
	})

	return &Record{
		ID:       id,
		Source:   SourceHangar,
		Aliases:  uniqueStrings(slug, proj.Name, owner+"/"+slug),
		Releases: releases,
	}, nil
}

func (c *HangarClient) toRelease(v hangar.Version, owner, slug string) Release {
	downloadURL, hash := c.extractDownload(v, owner, slug)

	platformVersions := v.PlatformDependencies[c.platform]

	gameVersions := v.GameVersions
	if len(gameVersions) == 0 {
		gameVersions = platformVersions
	}

	loaders := make([]string, 0, len(v.PlatformDependencies))
	for platform := range v.PlatformDependencies {
		loaders = append(loaders, strings.ToLower(platform))
	}

	sort.Strings(loaders)

	return Release{
		Version:      v.Name,
		Channel:      InferChannel(v.Name),
		GameVersions: gameVersions,
		Loaders:      loaders,
		ReleaseDate:  v.CreatedAt,
		DownloadURL:  downloadURL,
		Hash:         hash,
	}
}

// extractDownload resolves the download URL and hash for the configured platform.
// Externally hosted files fall back to the Hangar download endpoint.
func (c *HangarClient) extractDownload(v hangar.Version, owner, slug string) (string, string) {
	downloadInfo, ok := v.Downloads[c.platform]
	if !ok {
		return "", ""
	}

	downloadURL := ""
	hash := ""

	if downloadInfo.DownloadURL != "" {
		downloadURL = downloadInfo.DownloadURL
	} else if downloadInfo.ExternalURL != "" && isDirectDownloadURL(downloadInfo.ExternalURL) {
		downloadURL = downloadInfo.ExternalURL
	}

	if downloadInfo.FileInfo != nil {
		hash = downloadInfo.FileInfo.SHA256Hash
	}

	if downloadURL == "" {
		downloadURL = fmt.Sprintf("%s/projects/%s/%s/versions/%s/%s/download",
			c.baseURL, owner, slug, v.Name, c.platform)
	}

	return downloadURL, hash
}

// isDirectDownloadURL reports whether a URL points at a file rather than a web page.
func isDirectDownloadURL(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := strings.ToLower(parsed.Path)

	for _, ext := range []string{".jar", ".zip", ".tar.gz", ".tgz"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	return strings.HasSuffix(path, "/download") || strings.Contains(path, "/download/")
}

type notFoundKey struct{}

func withNotFoundFlag(ctx context.Context) (context.Context, *atomic.Bool) {
	flag := &atomic.Bool{}

	return context.WithValue(ctx, notFoundKey{}, flag), flag
}

// notFoundTransport flags the request context when the API answers 404.
type notFoundTransport struct {
	next http.RoundTripper
}

func (t *notFoundTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	next := t.next
	if next == nil {
		next = http.DefaultTransport
	}

	resp, err := next.RoundTrip(req)
	if err == nil && resp.StatusCode == http.StatusNotFound {
		if flag, ok := req.Context().Value(notFoundKey{}).(*atomic.Bool); ok {
			flag.Store(true)
		}
	}

	return resp, err //nolint:wrapcheck // transport errors pass through unchanged
}
