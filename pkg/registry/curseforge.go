/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lexfrei/modsyncer/pkg/download"
	"github.com/lexfrei/modsyncer/pkg/mods"
	"github.com/lexfrei/modsyncer/pkg/version"
)

const (
	// SourceCurseForge is the source tag of the CurseForge backend.
	SourceCurseForge = "curseforge"
	// DefaultCurseForgeURL is the public CurseForge API.
	DefaultCurseForgeURL = "https://api.curseforge.com"
	// CurseForgeAPIKeyHeader carries the API key.
	CurseForgeAPIKeyHeader = "x-api-key"

	minecraftGameID    = 432
	curseForgePageSize = 50
	// maxCurseForgePages caps pagination for mods with very long histories.
	maxCurseForgePages = 20
)

const (
	cfReleaseRelease = 1
	cfReleaseBeta    = 2
	cfReleaseAlpha   = 3

	cfRelationOptional     = 2
	cfRelationRequired     = 3
	cfRelationIncompatible = 5

	cfHashSHA1 = 1
)

var (
	dottedVersion    = regexp.MustCompile(`\d+(?:\.\d+)+`)
	gameVersionLabel = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[Ss]napshot)?$`)
	curseForgeLoader = map[string]string{
		"fabric":   "fabric",
		"forge":    "forge",
		"neoforge": "neoforge",
		"quilt":    "quilt",
	}
)

type cfMod struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type cfHash struct {
	Value string `json:"value"`
	Algo  int    `json:"algo"`
}

type cfDependency struct {
	ModID        int64 `json:"modId"`
	RelationType int   `json:"relationType"`
}

type cfFile struct {
	DisplayName  string         `json:"displayName"`
	FileName     string         `json:"fileName"`
	ReleaseType  int            `json:"releaseType"`
	FileDate     time.Time      `json:"fileDate"`
	DownloadURL  string         `json:"downloadUrl"`
	GameVersions []string       `json:"gameVersions"`
	Hashes       []cfHash       `json:"hashes"`
	Dependencies []cfDependency `json:"dependencies"`
}

type cfPagination struct {
	Index       int `json:"index"`
	PageSize    int `json:"pageSize"`
	ResultCount int `json:"resultCount"`
	TotalCount  int `json:"totalCount"`
}

// CurseForgeClient looks up mods on CurseForge. The fetcher must send the API
// key header, see CurseForgeAPIKeyHeader.
type CurseForgeClient struct {
	fetcher download.Fetcher
	baseURL string
}

// NewCurseForgeClient creates a CurseForge backend. An empty baseURL uses the public API.
func NewCurseForgeClient(fetcher download.Fetcher, baseURL string) *CurseForgeClient {
	if baseURL == "" {
		baseURL = DefaultCurseForgeURL
	}

	return &CurseForgeClient{fetcher: fetcher, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Lookup accepts a numeric mod id or a slug.
func (c *CurseForgeClient) Lookup(ctx context.Context, id string) (*Record, error) {
	mod, err := c.findMod(ctx, id)
	if err != nil {
		return nil, err
	}

	files, err := c.listFiles(ctx, mod.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list files")
	}

	releases := make([]Release, 0, len(files))
	for _, f := range files {
		releases = append(releases, f.toRelease())
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].ReleaseDate.After(releases[j].ReleaseDate)
	})

	return &Record{
		ID:       id,
		Source:   SourceCurseForge,
		Aliases:  uniqueStrings(strconv.FormatInt(mod.ID, 10), mod.Slug, mod.Name),
		Releases: releases,
	}, nil
}

func (c *CurseForgeClient) findMod(ctx context.Context, id string) (cfMod, error) {
	if _, err := strconv.ParseInt(id, 10, 64); err == nil {
		var resp struct {
			Data cfMod `json:"data"`
		}

		if err := c.get(ctx, "/v1/mods/"+id, &resp); err != nil {
			if download.IsNotFound(err) {
				return cfMod{}, &NotFoundError{ID: id, Source: SourceCurseForge}
			}

			return cfMod{}, errors.Wrap(err, "failed to get mod")
		}

		return resp.Data, nil
	}

	var resp struct {
		Data []cfMod `json:"data"`
	}

	query := url.Values{}
	query.Set("gameId", strconv.Itoa(minecraftGameID))
	query.Set("slug", id)

	if err := c.get(ctx, "/v1/mods/search?"+query.Encode(), &resp); err != nil {
		return cfMod{}, errors.Wrap(err, "failed to search mod")
	}

	for _, mod := range resp.Data {
		if strings.EqualFold(mod.Slug, id) {
			return mod, nil
		}
	}

	return cfMod{}, &NotFoundError{ID: id, Source: SourceCurseForge}
}

func (c *CurseForgeClient) listFiles(ctx context.Context, modID int64) ([]cfFile, error) {
	var files []cfFile

	for page := 0; page < maxCurseForgePages; page++ {
		var resp struct {
			Data       []cfFile     `json:"data"`
			Pagination cfPagination `json:"pagination"`
		}

		path := fmt.Sprintf("/v1/mods/%d/files?index=%d&pageSize=%d",
			modID, page*curseForgePageSize, curseForgePageSize)

		if err := c.get(ctx, path, &resp); err != nil {
			return nil, err
		}

		files = append(files, resp.Data...)

		if len(resp.Data) == 0 || resp.Pagination.Index+resp.Pagination.ResultCount >= resp.Pagination.TotalCount {
			break
		}
	}

	return files, nil
}

func (c *CurseForgeClient) get(ctx context.Context, path string, out any) error {
	data, err := c.fetcher.Fetch(ctx, c.baseURL+path)
	if err != nil {
		return err //nolint:wrapcheck // callers wrap with context
	}

	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "failed to decode %s", path)
	}

	return nil
}

func (f cfFile) toRelease() Release {
	var gameVersions, loaders []string

	for _, label := range f.GameVersions {
		if loader, ok := curseForgeLoader[strings.ToLower(label)]; ok {
			loaders = append(loaders, loader)
		} else if gameVersionLabel.MatchString(label) {
			gameVersions = append(gameVersions, label)
		}
	}

	rel := Release{
		Version:      curseForgeVersion(f, gameVersions),
		Channel:      curseForgeChannel(f.ReleaseType),
		GameVersions: gameVersions,
		Loaders:      loaders,
		ReleaseDate:  f.FileDate,
		DownloadURL:  f.DownloadURL,
	}

	for _, h := range f.Hashes {
		if h.Algo == cfHashSHA1 {
			rel.Hash = h.Value
		}
	}

	for _, dep := range f.Dependencies {
		d := mods.Dependency{ID: strconv.FormatInt(dep.ModID, 10), Range: version.AnyRange()}

		switch dep.RelationType {
		case cfRelationRequired:
			rel.Dependencies = append(rel.Dependencies, d)
		case cfRelationOptional:
			d.Optional = true
			rel.Dependencies = append(rel.Dependencies, d)
		case cfRelationIncompatible:
			rel.Incompatibilities = append(rel.Incompatibilities, d)
		}
	}

	return rel
}

func curseForgeChannel(releaseType int) Channel {
	switch releaseType {
	case cfReleaseBeta:
		return ChannelBeta
	case cfReleaseAlpha:
		return ChannelAlpha
	case cfReleaseRelease:
		return ChannelRelease
	default:
		return ChannelRelease
	}
}

// curseForgeVersion extracts the mod version from the file name: the last
// dotted number that is not one of the file's game versions.
// "sodium-fabric-0.5.8+mc1.20.1.jar" with game version 1.20.1 yields "0.5.8".
func curseForgeVersion(f cfFile, gameVersions []string) string {
	for _, name := range []string{f.FileName, f.DisplayName} {
		matches := dottedVersion.FindAllString(strings.TrimSuffix(name, ".jar"), -1)

		for i := len(matches) - 1; i >= 0; i-- {
			if !version.ContainsVersion(gameVersions, matches[i]) {
				return matches[i]
			}
		}
	}

	return f.DisplayName
}
