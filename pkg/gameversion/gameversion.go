/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

// Package gameversion discovers the latest game version for a server type.
package gameversion

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lexfrei/modsyncer/pkg/download"
	"github.com/lexfrei/modsyncer/pkg/paper"
	"github.com/lexfrei/modsyncer/pkg/version"
)

const (
	// ServerPaper selects the PaperMC version list.
	ServerPaper = "paper"
	// ServerVanilla selects the Mojang version manifest.
	ServerVanilla = "vanilla"

	// DefaultManifestURL is the Mojang version manifest.
	DefaultManifestURL = "https://piston-meta.mojang.com/mc/game/version_manifest_v2.json"
)

// Source reports the latest stable game version.
type Source interface {
	Latest(ctx context.Context) (string, error)
}

// PaperAPI lists Paper versions.
type PaperAPI interface {
	GetPaperVersions(ctx context.Context) ([]string, error)
}

// PaperSource reads the latest version Paper builds exist for.
type PaperSource struct {
	API PaperAPI
}

// Latest returns the highest stable Paper version.
func (s *PaperSource) Latest(ctx context.Context) (string, error) {
	versions, err := s.API.GetPaperVersions(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to list Paper versions")
	}

	return paper.LatestStable(versions)
}

// VanillaSource reads the latest release from the Mojang version manifest.
type VanillaSource struct {
	Fetcher     download.Fetcher
	ManifestURL string
}

type manifest struct {
	Latest struct {
		Release  string `json:"release"`
		Snapshot string `json:"snapshot"`
	} `json:"latest"`
}

// Latest returns the manifest's latest release.
func (s *VanillaSource) Latest(ctx context.Context) (string, error) {
	url := s.ManifestURL
	if url == "" {
		url = DefaultManifestURL
	}

	data, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		return "", errors.Wrap(err, "failed to fetch version manifest")
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return "", errors.Wrap(err, "failed to parse version manifest")
	}

	if m.Latest.Release == "" {
		return "", errors.New("version manifest has no latest release")
	}

	return m.Latest.Release, nil
}

// NewSource returns the source for a server type.
func NewSource(serverType string, fetcher download.Fetcher) (Source, error) {
	switch strings.ToLower(serverType) {
	case ServerPaper, "":
		return &PaperSource{API: paper.NewClient()}, nil
	case ServerVanilla:
		return &VanillaSource{Fetcher: fetcher}, nil
	default:
		return nil, errors.Newf("unknown server type %q", serverType)
	}
}

// Resolve returns configured unless it is "latest", in which case the source is asked.
func Resolve(ctx context.Context, configured string, source Source) (string, error) {
	if !version.IsLatest(configured) {
		return configured, nil
	}

	latest, err := source.Latest(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve latest game version")
	}

	slog.InfoContext(ctx, "Resolved latest game version", "version", latest)

	return latest, nil
}
