/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

// Package mods describes installed mods and plugins and discovers them from a server folder.
package mods

import (
	"sort"
	"strings"

	"github.com/lexfrei/modsyncer/pkg/version"
)

// sourceSeparator joins a registry tag and an identifier, e.g. "modrinth:sodium".
const sourceSeparator = ":"

// Dependency is an identifier with the version range it refers to.
// It describes both required dependencies and declared incompatibilities.
type Dependency struct {
	// ID is the identifier of the referenced mod.
	ID string
	// Range is the set of versions the declaration applies to.
	Range version.Range
	// Optional marks soft dependencies: checked only when the target is installed.
	Optional bool
}

// String renders the dependency as "id@range".
func (d Dependency) String() string {
	return d.ID + "@" + d.Range.String()
}

// Entry is a mod or plugin found in the install folder.
// Entries are created by a scan and never modified afterwards.
type Entry struct {
	// ID is the identifier used to look the mod up in its registry.
	ID string
	// Name is the human readable name, used as an alias for dependency matching.
	Name string
	// Version is the currently installed version.
	Version string
	// Source is the registry tag ("hangar", "modrinth", "curseforge", ...). Empty means any.
	Source string
	// Dependencies declared by the installed version.
	Dependencies []Dependency
	// Incompatibilities declared by the installed version.
	Incompatibilities []Dependency
	// File is the path of the jar the entry was read from, if any.
	File string
	// SHA256 is the hex digest of File.
	SHA256 string
}

// Ref returns the registry reference of the entry: "source:id", or just the id
// when no source is set.
func (e Entry) Ref() string {
	return JoinRef(e.Source, e.ID)
}

// JoinRef builds a registry reference from a source tag and an identifier.
func JoinRef(source, id string) string {
	if source == "" {
		return id
	}

	return source + sourceSeparator + id
}

// SplitRef splits a registry reference into source tag and identifier.
// References without a source return an empty tag.
func SplitRef(ref string) (string, string) {
	source, id, found := strings.Cut(ref, sourceSeparator)
	if !found {
		return "", ref
	}

	return source, id
}

// NormalizeID lowercases an identifier for alias matching.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// SortEntries orders entries by identifier, in place.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})
}

// platformIDs are dependency targets provided by the game or loader rather than by mods.
var platformIDs = map[string]struct{}{
	"minecraft":     {},
	"java":          {},
	"fabricloader":  {},
	"fabric-loader": {},
	"quilt_loader":  {},
	"forge":         {},
	"neoforge":      {},
	"paper":         {},
	"spigot":        {},
	"bukkit":        {},
	"velocity":      {},
}

// IsPlatformID reports whether id names the game or a loader rather than a mod.
func IsPlatformID(id string) bool {
	_, ok := platformIDs[NormalizeID(id)]

	return ok
}
