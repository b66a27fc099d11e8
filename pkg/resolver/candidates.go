/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package resolver

import (
	"fmt"
	"sort"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/lexfrei/modsyncer/pkg/mods"
	"github.com/lexfrei/modsyncer/pkg/registry"
	"github.com/lexfrei/modsyncer/pkg/version"
)

// participant is one installed entry during selection.
type participant struct {
	entry  mods.Entry
	record *registry.Record
	// keys are the normalized names other mods may refer to this one by.
	keys sets.Set[string]
	// candidates are ordered best first and never empty.
	candidates []registry.Release
	choice     int
}

func (p *participant) chosen() registry.Release {
	return p.candidates[p.choice]
}

// resolved reports whether the registry knew the entry.
func (p *participant) resolved() bool {
	return p.record != nil
}

func (p *participant) matches(id string) bool {
	return p.keys.Has(mods.NormalizeID(id))
}

func (r *Resolver) buildParticipants(entries []mods.Entry, records []*registry.Record) ([]*participant, []Conflict) {
	participants := make([]*participant, len(entries))

	var conflicts []Conflict

	for i, entry := range entries {
		p := &participant{
			entry:  entry,
			record: records[i],
			keys:   sets.New(mods.NormalizeID(entry.ID)),
		}

		if entry.Name != "" {
			p.keys.Insert(mods.NormalizeID(entry.Name))
		}

		current := installedRelease(entry, nil)

		if p.record == nil {
			p.candidates = []registry.Release{current}
			participants[i] = p

			continue
		}

		p.keys.Insert(mods.NormalizeID(p.record.ID))

		for _, alias := range p.record.Aliases {
			p.keys.Insert(mods.NormalizeID(alias))
		}

		current = installedRelease(entry, p.record)

		candidates, reason := r.candidates(entry, p.record)
		if len(candidates) == 0 {
			conflicts = append(conflicts, Conflict{
				A:      entry.ID,
				Kind:   ConflictGameVersion,
				Reason: reason,
			})
		}

		if _, pinned := r.opts.Pins[mods.NormalizeID(entry.ID)]; pinned {
			p.candidates = candidates
		} else {
			p.candidates = withCurrent(candidates, current)
		}

		participants[i] = p
	}

	return participants, conflicts
}

// candidates filters and orders the releases acceptable for entry. When none
// remain, the returned reason says why.
func (r *Resolver) candidates(entry mods.Entry, record *registry.Record) ([]registry.Release, string) {
	if pinned, ok := r.opts.Pins[mods.NormalizeID(entry.ID)]; ok {
		if rel, found := record.Release(pinned); found {
			return []registry.Release{mergeInstalled(rel, entry)}, ""
		}

		return []registry.Release{mergeInstalled(registry.Release{Version: pinned}, entry)}, ""
	}

	if len(record.Releases) == 0 {
		return nil, fmt.Sprintf("%s has no published releases", entry.ID)
	}

	infos := make([]version.VersionInfo, 0, len(record.Releases))
	byVersion := make(map[string]registry.Release, len(record.Releases))

	for _, rel := range record.Releases {
		if !r.compatible(rel) {
			continue
		}

		if _, dup := byVersion[rel.Version]; dup {
			continue
		}

		if !r.opts.AllowDowngrade && isDowngrade(entry.Version, rel.Version) {
			continue
		}

		byVersion[rel.Version] = rel
		infos = append(infos, version.VersionInfo{Version: rel.Version, ReleaseDate: rel.ReleaseDate})
	}

	infos = version.FilterByUpdateDelayAt(infos, r.opts.UpdateDelay, r.opts.Now())
	if len(infos) == 0 {
		return nil, r.noCandidateReason(entry)
	}

	sort.SliceStable(infos, func(i, j int) bool {
		return version.Newer(infos[i], infos[j])
	})

	out := make([]registry.Release, 0, len(infos))
	for _, info := range infos {
		out = append(out, mergeInstalled(byVersion[info.Version], entry))
	}

	return out, ""
}

func (r *Resolver) compatible(rel registry.Release) bool {
	if !r.opts.Channel.Allows(rel.Channel) {
		return false
	}

	if r.opts.GameVersion != "" && len(rel.GameVersions) > 0 &&
		!version.ContainsVersion(rel.GameVersions, r.opts.GameVersion) {
		return false
	}

	if len(r.opts.Loaders) > 0 && len(rel.Loaders) > 0 {
		wanted := sets.New[string]()
		for _, l := range r.opts.Loaders {
			wanted.Insert(strings.ToLower(l))
		}

		for _, l := range rel.Loaders {
			if wanted.Has(strings.ToLower(l)) {
				return true
			}
		}

		return false
	}

	return true
}

func (r *Resolver) noCandidateReason(entry mods.Entry) string {
	parts := []string{}

	if r.opts.GameVersion != "" {
		parts = append(parts, "game version "+r.opts.GameVersion)
	}

	parts = append(parts, "channel "+string(r.opts.Channel))

	if r.opts.UpdateDelay > 0 {
		parts = append(parts, "update delay "+r.opts.UpdateDelay.String())
	}

	if !r.opts.AllowDowngrade && entry.Version != "" {
		parts = append(parts, "no downgrade below "+entry.Version)
	}

	return fmt.Sprintf("no release of %s matches %s, keeping %s",
		entry.ID, strings.Join(parts, ", "), entry.Version)
}

// installedRelease describes the installed version, taking registry metadata
// when the registry publishes it.
func installedRelease(entry mods.Entry, record *registry.Record) registry.Release {
	rel := registry.Release{Version: entry.Version}

	if record != nil {
		if published, ok := record.Release(entry.Version); ok {
			rel = published
		}
	}

	return mergeInstalled(rel, entry)
}

// mergeInstalled adds the entry's own declarations when rel is the installed version.
func mergeInstalled(rel registry.Release, entry mods.Entry) registry.Release {
	if rel.Version != entry.Version {
		return rel
	}

	rel.Dependencies = mergeDeclarations(rel.Dependencies, entry.Dependencies)
	rel.Incompatibilities = mergeDeclarations(rel.Incompatibilities, entry.Incompatibilities)

	return rel
}

func mergeDeclarations(published, declared []mods.Dependency) []mods.Dependency {
	if len(declared) == 0 {
		return published
	}

	out := make([]mods.Dependency, 0, len(published)+len(declared))
	seen := sets.New[string]()

	for _, d := range declared {
		seen.Insert(mods.NormalizeID(d.ID))
		out = append(out, d)
	}

	for _, d := range published {
		if !seen.Has(mods.NormalizeID(d.ID)) {
			out = append(out, d)
		}
	}

	return out
}

// withCurrent appends the installed release as a last resort candidate.
func withCurrent(candidates []registry.Release, current registry.Release) []registry.Release {
	for _, c := range candidates {
		if c.Version == current.Version {
			return candidates
		}
	}

	return append(candidates, current)
}

func isDowngrade(current, candidate string) bool {
	if current == "" {
		return false
	}

	down, err := version.IsDowngrade(current, candidate)

	return err == nil && down
}
