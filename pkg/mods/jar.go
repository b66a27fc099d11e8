/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package mods

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/lexfrei/modsyncer/pkg/version"
)

const (
	fabricManifest      = "fabric.mod.json"
	paperPluginManifest = "paper-plugin.yml"
	pluginManifest      = "plugin.yml"
)

// ErrNoMetadata is returned for jars that carry no recognised mod or plugin manifest.
var ErrNoMetadata = errors.New("jar contains no fabric.mod.json, paper-plugin.yml or plugin.yml")

// fabricModJSON represents the relevant fields of fabric.mod.json.
type fabricModJSON struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Version   string                `json:"version"`
	Depends   map[string]rangeValue `json:"depends"`
	Recommend map[string]rangeValue `json:"recommends"`
	Breaks    map[string]rangeValue `json:"breaks"`
	Conflicts map[string]rangeValue `json:"conflicts"`
}

// rangeValue accepts fabric's "string or array of strings" range notation.
type rangeValue []string

func (r *rangeValue) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = []string{single}

		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.Wrap(err, "version range must be a string or a list of strings")
	}

	*r = many

	return nil
}

// pluginYML represents the relevant fields from a Bukkit plugin.yml.
type pluginYML struct {
	Name       string   `yaml:"name"`
	Version    string   `yaml:"version"`
	APIVersion string   `yaml:"api-version"`
	Depend     []string `yaml:"depend"`
	SoftDepend []string `yaml:"softdepend"`
}

// paperPluginYML represents the relevant fields from a paper-plugin.yml.
type paperPluginYML struct {
	Name         string `yaml:"name"`
	Version      string `yaml:"version"`
	APIVersion   string `yaml:"api-version"`
	Dependencies struct {
		Server map[string]struct {
			Required *bool `yaml:"required"`
		} `yaml:"server"`
	} `yaml:"dependencies"`
}

// ReadJAR extracts an Entry from the bytes of a mod or plugin jar.
// fabric.mod.json wins over paper-plugin.yml, which wins over plugin.yml.
// The returned entry has no Source or File set.
func ReadJAR(data []byte) (Entry, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Entry{}, errors.Wrap(err, "failed to open jar as zip archive")
	}

	files := make(map[string]*zip.File, 3)

	for _, f := range zipReader.File {
		switch f.Name {
		case fabricManifest, paperPluginManifest, pluginManifest:
			files[f.Name] = f
		}
	}

	var entry Entry

	switch {
	case files[fabricManifest] != nil:
		entry, err = readManifest(files[fabricManifest], parseFabric)
	case files[paperPluginManifest] != nil:
		entry, err = readManifest(files[paperPluginManifest], parsePaperPlugin)
	case files[pluginManifest] != nil:
		entry, err = readManifest(files[pluginManifest], parsePlugin)
	default:
		return Entry{}, ErrNoMetadata
	}

	if err != nil {
		return Entry{}, err
	}

	hash := sha256.Sum256(data)
	entry.SHA256 = fmt.Sprintf("%x", hash)

	return entry, nil
}

func readManifest(f *zip.File, parse func(io.Reader) (Entry, error)) (Entry, error) {
	rc, err := f.Open()
	if err != nil {
		return Entry{}, errors.Wrapf(err, "failed to open %s in jar", f.Name)
	}

	defer func() { _ = rc.Close() }()

	entry, err := parse(rc)
	if err != nil {
		return Entry{}, errors.Wrapf(err, "failed to parse %s", f.Name)
	}

	if entry.ID == "" {
		return Entry{}, errors.Newf("%s has no identifier", f.Name)
	}

	return entry, nil
}

func parseFabric(r io.Reader) (Entry, error) {
	var manifest fabricModJSON
	if err := json.NewDecoder(r).Decode(&manifest); err != nil {
		return Entry{}, errors.Wrap(err, "failed to decode json")
	}

	deps, err := rangeDependencies(manifest.Depends, false)
	if err != nil {
		return Entry{}, err
	}

	recommended, err := rangeDependencies(manifest.Recommend, true)
	if err != nil {
		return Entry{}, err
	}

	breaks, err := rangeDependencies(manifest.Breaks, false)
	if err != nil {
		return Entry{}, err
	}

	conflicts, err := rangeDependencies(manifest.Conflicts, false)
	if err != nil {
		return Entry{}, err
	}

	return Entry{
		ID:                manifest.ID,
		Name:              manifest.Name,
		Version:           manifest.Version,
		Dependencies:      append(deps, recommended...),
		Incompatibilities: append(breaks, conflicts...),
	}, nil
}

func parsePlugin(r io.Reader) (Entry, error) {
	var manifest pluginYML
	if err := yaml.NewDecoder(r).Decode(&manifest); err != nil {
		return Entry{}, errors.Wrap(err, "failed to decode yaml")
	}

	deps := make([]Dependency, 0, len(manifest.Depend)+len(manifest.SoftDepend))
	for _, name := range manifest.Depend {
		deps = append(deps, Dependency{ID: name, Range: version.AnyRange()})
	}

	for _, name := range manifest.SoftDepend {
		deps = append(deps, Dependency{ID: name, Range: version.AnyRange(), Optional: true})
	}

	return Entry{
		ID:           manifest.Name,
		Name:         manifest.Name,
		Version:      manifest.Version,
		Dependencies: deps,
	}, nil
}

func parsePaperPlugin(r io.Reader) (Entry, error) {
	var manifest paperPluginYML
	if err := yaml.NewDecoder(r).Decode(&manifest); err != nil {
		return Entry{}, errors.Wrap(err, "failed to decode yaml")
	}

	names := make([]string, 0, len(manifest.Dependencies.Server))
	for name := range manifest.Dependencies.Server {
		names = append(names, name)
	}

	sort.Strings(names)

	deps := make([]Dependency, 0, len(names))

	for _, name := range names {
		// Paper treats a missing "required" as true.
		required := manifest.Dependencies.Server[name].Required
		deps = append(deps, Dependency{
			ID:       name,
			Range:    version.AnyRange(),
			Optional: required != nil && !*required,
		})
	}

	return Entry{
		ID:           manifest.Name,
		Name:         manifest.Name,
		Version:      manifest.Version,
		Dependencies: deps,
	}, nil
}

// rangeDependencies converts a fabric id→range map into sorted dependencies,
// skipping game and loader identifiers.
func rangeDependencies(in map[string]rangeValue, optional bool) ([]Dependency, error) {
	ids := make([]string, 0, len(in))

	for id := range in {
		if IsPlatformID(id) {
			continue
		}

		ids = append(ids, id)
	}

	sort.Strings(ids)

	out := make([]Dependency, 0, len(ids))

	for _, id := range ids {
		r, err := version.ParseRanges(in[id])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid range for %s", id)
		}

		out = append(out, Dependency{ID: id, Range: r, Optional: optional})
	}

	return out, nil
}
