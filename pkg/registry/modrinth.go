/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package registry

import (
	"context"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lexfrei/modsyncer/pkg/download"
	"github.com/lexfrei/modsyncer/pkg/mods"
	"github.com/lexfrei/modsyncer/pkg/version"
)

const (
	// SourceModrinth is the source tag of the Modrinth backend.
	SourceModrinth = "modrinth"
	// DefaultModrinthURL is the public Modrinth API.
	DefaultModrinthURL = "https://api.modrinth.com"
)

type modrinthProject struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type modrinthFile struct {
	URL     string            `json:"url"`
	Primary bool              `json:"primary"`
	Hashes  map[string]string `json:"hashes"`
}

type modrinthDependency struct {
	ProjectID      string `json:"project_id"`
	DependencyType string `json:"dependency_type"`
}

type modrinthVersion struct {
	VersionNumber string               `json:"version_number"`
	VersionType   string               `json:"version_type"`
	GameVersions  []string             `json:"game_versions"`
	Loaders       []string             `json:"loaders"`
	DatePublished time.Time            `json:"date_published"`
	Files         []modrinthFile       `json:"files"`
	Dependencies  []modrinthDependency `json:"dependencies"`
}

// ModrinthClient looks up mods on Modrinth.
type ModrinthClient struct {
	fetcher download.Fetcher
	baseURL string
}

// NewModrinthClient creates a Modrinth backend. An empty baseURL uses the public API.
func NewModrinthClient(fetcher download.Fetcher, baseURL string) *ModrinthClient {
	if baseURL == "" {
		baseURL = DefaultModrinthURL
	}

	return &ModrinthClient{fetcher: fetcher, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Lookup fetches the project (by id or slug) and its versions.
func (c *ModrinthClient) Lookup(ctx context.Context, id string) (*Record, error) {
	escaped := url.PathEscape(id)

	var project modrinthProject
	if err := c.get(ctx, "/v2/project/"+escaped, &project); err != nil {
		if download.IsNotFound(err) {
			return nil, &NotFoundError{ID: id, Source: SourceModrinth}
		}

		return nil, errors.Wrap(err, "failed to get project")
	}

	var versions []modrinthVersion
	if err := c.get(ctx, "/v2/project/"+escaped+"/version", &versions); err != nil {
		return nil, errors.Wrap(err, "failed to list versions")
	}

	releases := make([]Release, 0, len(versions))
	for _, v := range versions {
		releases = append(releases, v.toRelease())
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].ReleaseDate.After(releases[j].ReleaseDate)
	})

	return &Record{
		ID:       id,
		Source:   SourceModrinth,
		Aliases:  uniqueStrings(project.ID, project.Slug, project.Title),
		Releases: releases,
	}, nil
}

func (c *ModrinthClient) get(ctx context.Context, path string, out any) error {
	data, err := c.fetcher.Fetch(ctx, c.baseURL+path)
	if err != nil {
		return err //nolint:wrapcheck // callers wrap with context
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "failed to decode %s", path)
	}

	return nil
}

func (v modrinthVersion) toRelease() Release {
	channel, err := ParseChannel(v.VersionType)
	if err != nil {
		channel = InferChannel(v.VersionNumber)
	}

	rel := Release{
		Version:      v.VersionNumber,
		Channel:      channel,
		GameVersions: v.GameVersions,
		Loaders:      v.Loaders,
		ReleaseDate:  v.DatePublished,
	}

	for i, f := range v.Files {
		if f.Primary || i == 0 {
			rel.DownloadURL = f.URL
			rel.Hash = f.Hashes["sha512"]

			if f.Primary {
				break
			}
		}
	}

	for _, dep := range v.Dependencies {
		if dep.ProjectID == "" {
			continue
		}

		d := mods.Dependency{ID: dep.ProjectID, Range: version.AnyRange()}

		switch dep.DependencyType {
		case "required":
			rel.Dependencies = append(rel.Dependencies, d)
		case "optional":
			d.Optional = true
			rel.Dependencies = append(rel.Dependencies, d)
		case "incompatible":
			rel.Incompatibilities = append(rel.Incompatibilities, d)
		}
	}

	return rel
}
