/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package registry

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/cockroachdb/errors"

	"github.com/lexfrei/modsyncer/pkg/download"
	"github.com/lexfrei/modsyncer/pkg/mods"
)

// SourceURL is the source tag of the direct URL backend.
const SourceURL = "url"

// URLTarget is a jar published at a fixed address.
type URLTarget struct {
	URL string
	// Version is used when the jar carries no readable metadata.
	Version string
	// Checksum is the expected SHA-256 of the jar, if known.
	Checksum string
}

// ValidateDownloadURL checks that a URL is usable for jar downloads.
func ValidateDownloadURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("URL is required for url source")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, "failed to parse URL")
	}

	if parsed.Scheme != "https" {
		return errors.Newf("URL must use HTTPS, got %s", parsed.Scheme)
	}

	if parsed.Host == "" {
		return errors.New("URL must have a valid host")
	}

	return nil
}

// URLSource serves single-release records for jars at fixed URLs. The jar is
// downloaded and its metadata read so dependencies are known.
type URLSource struct {
	fetcher download.Fetcher
	targets map[string]URLTarget
}

// NewURLSource creates a URL backend. Every target URL is validated.
func NewURLSource(fetcher download.Fetcher, targets map[string]URLTarget) (*URLSource, error) {
	for id, target := range targets {
		if err := ValidateDownloadURL(target.URL); err != nil {
			return nil, errors.Wrapf(err, "invalid URL for %s", id)
		}
	}

	return &URLSource{fetcher: fetcher, targets: targets}, nil
}

// Lookup downloads the jar configured for id.
func (s *URLSource) Lookup(ctx context.Context, id string) (*Record, error) {
	target, ok := s.targets[id]
	if !ok {
		return nil, &NotFoundError{ID: id, Source: SourceURL}
	}

	data, err := s.fetcher.Fetch(ctx, target.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to download jar")
	}

	entry, err := mods.ReadJAR(data)
	if err != nil {
		slog.WarnContext(ctx, "Jar metadata unavailable, using configured version",
			"id", id, "url", target.URL, "error", err)

		return &Record{ID: id, Source: SourceURL, Releases: []Release{buildURLRelease(target, "")}}, nil
	}

	if target.Checksum != "" && target.Checksum != entry.SHA256 {
		return nil, errors.Newf("checksum mismatch for %s: expected %s, got %s", id, target.Checksum, entry.SHA256)
	}

	rel := buildURLRelease(target, entry.Version)
	rel.Hash = entry.SHA256
	rel.Dependencies = entry.Dependencies
	rel.Incompatibilities = entry.Incompatibilities

	return &Record{
		ID:       id,
		Source:   SourceURL,
		Aliases:  uniqueStrings(entry.ID, entry.Name),
		Releases: []Release{rel},
	}, nil
}

func buildURLRelease(target URLTarget, ver string) Release {
	if ver == "" {
		ver = target.Version
	}

	if ver == "" {
		ver = "0.0.0"
	}

	return Release{
		Version:     ver,
		Channel:     InferChannel(ver),
		DownloadURL: target.URL,
		Hash:        target.Checksum,
	}
}
