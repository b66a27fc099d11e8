/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package registry

import (
	"context"
	"os"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/lexfrei/modsyncer/pkg/mods"
	"github.com/lexfrei/modsyncer/pkg/version"
)

// SourceStatic is the source tag of the static index backend.
const SourceStatic = "static"

type staticRelease struct {
	Version      string            `yaml:"version"`
	Channel      string            `yaml:"channel"`
	GameVersions []string          `yaml:"gameVersions"`
	Loaders      []string          `yaml:"loaders"`
	Released     time.Time         `yaml:"released"`
	URL          string            `yaml:"url"`
	Hash         string            `yaml:"hash"`
	Depends      map[string]string `yaml:"depends"`
	Recommends   map[string]string `yaml:"recommends"`
	Breaks       map[string]string `yaml:"breaks"`
}

type staticMod struct {
	ID       string          `yaml:"id"`
	Aliases  []string        `yaml:"aliases"`
	Releases []staticRelease `yaml:"releases"`
}

type staticFile struct {
	Mods []staticMod `yaml:"mods"`
}

// StaticIndex serves records from a YAML index file, for private mods or
// offline use. Identifiers and aliases match case-insensitively.
type StaticIndex struct {
	records map[string]*Record
}

// LoadStaticIndex reads an index file.
func LoadStaticIndex(path string) (*StaticIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read static index %s", path)
	}

	return ParseStaticIndex(data)
}

// ParseStaticIndex parses index YAML.
func ParseStaticIndex(data []byte) (*StaticIndex, error) {
	var file staticFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse static index")
	}

	index := &StaticIndex{records: make(map[string]*Record)}

	for _, m := range file.Mods {
		if m.ID == "" {
			return nil, errors.New("static index entry without id")
		}

		record := &Record{ID: m.ID, Source: SourceStatic, Aliases: m.Aliases}

		for _, r := range m.Releases {
			rel, err := r.toRelease()
			if err != nil {
				return nil, errors.Wrapf(err, "invalid release %s of %s", r.Version, m.ID)
			}

			record.Releases = append(record.Releases, rel)
		}

		sort.SliceStable(record.Releases, func(i, j int) bool {
			return version.Newer(
				version.VersionInfo{Version: record.Releases[i].Version, ReleaseDate: record.Releases[i].ReleaseDate},
				version.VersionInfo{Version: record.Releases[j].Version, ReleaseDate: record.Releases[j].ReleaseDate},
			)
		})

		for _, key := range append([]string{m.ID}, m.Aliases...) {
			norm := mods.NormalizeID(key)
			if existing, dup := index.records[norm]; dup && existing.ID != m.ID {
				return nil, errors.Newf("identifier %q used by both %s and %s", key, existing.ID, m.ID)
			}

			index.records[norm] = record
		}
	}

	return index, nil
}

// Lookup returns the record for id or an alias of it.
func (s *StaticIndex) Lookup(_ context.Context, id string) (*Record, error) {
	record, ok := s.records[mods.NormalizeID(id)]
	if !ok {
		return nil, &NotFoundError{ID: id, Source: SourceStatic}
	}

	return copyRecord(record), nil
}

func (r staticRelease) toRelease() (Release, error) {
	if r.Version == "" {
		return Release{}, errors.New("missing version")
	}

	channel, err := ParseChannel(r.Channel)
	if err != nil {
		return Release{}, err
	}

	deps, err := staticDependencies(r.Depends, false)
	if err != nil {
		return Release{}, err
	}

	optional, err := staticDependencies(r.Recommends, true)
	if err != nil {
		return Release{}, err
	}

	breaks, err := staticDependencies(r.Breaks, false)
	if err != nil {
		return Release{}, err
	}

	return Release{
		Version:           r.Version,
		Channel:           channel,
		GameVersions:      r.GameVersions,
		Loaders:           r.Loaders,
		Dependencies:      append(deps, optional...),
		Incompatibilities: breaks,
		ReleaseDate:       r.Released,
		DownloadURL:       r.URL,
		Hash:              r.Hash,
	}, nil
}

func staticDependencies(raw map[string]string, optional bool) ([]mods.Dependency, error) {
	ids := make([]string, 0, len(raw))
	for id := range raw {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	deps := make([]mods.Dependency, 0, len(ids))

	for _, id := range ids {
		rng, err := version.ParseRange(raw[id])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid range for %s", id)
		}

		deps = append(deps, mods.Dependency{ID: id, Range: rng, Optional: optional})
	}

	return deps, nil
}
