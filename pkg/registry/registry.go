/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

// Package registry provides lookups of available mod and plugin versions from
// third-party repositories.
package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lexfrei/modsyncer/pkg/mods"
)

// Channel is the release channel of a version.
type Channel string

const (
	// ChannelRelease marks stable releases.
	ChannelRelease Channel = "release"
	// ChannelBeta marks beta and release-candidate builds.
	ChannelBeta Channel = "beta"
	// ChannelAlpha marks alpha, snapshot and development builds.
	ChannelAlpha Channel = "alpha"
)

// ParseChannel converts a channel name to a Channel. Unknown names are an error.
func ParseChannel(raw string) (Channel, error) {
	switch Channel(strings.ToLower(strings.TrimSpace(raw))) {
	case ChannelRelease, "":
		return ChannelRelease, nil
	case ChannelBeta:
		return ChannelBeta, nil
	case ChannelAlpha:
		return ChannelAlpha, nil
	default:
		return "", errors.Newf("unknown release channel %q", raw)
	}
}

// Stability orders channels: release 0, beta 1, alpha 2.
func (c Channel) Stability() int {
	switch c {
	case ChannelBeta:
		return 1
	case ChannelAlpha:
		return 2
	default:
		return 0
	}
}

// Allows reports whether a release on channel other is acceptable when c is
// the least stable channel permitted.
func (c Channel) Allows(other Channel) bool {
	return other.Stability() <= c.Stability()
}

// InferChannel guesses a channel from a version string, for registries that
// do not publish one.
func InferChannel(version string) Channel {
	lower := strings.ToLower(version)

	for _, marker := range []string{"alpha", "snapshot", "dev", "nightly"} {
		if strings.Contains(lower, marker) {
			return ChannelAlpha
		}
	}

	for _, marker := range []string{"beta", "-rc", "pre"} {
		if strings.Contains(lower, marker) {
			return ChannelBeta
		}
	}

	return ChannelRelease
}

// Release is one published version of a mod.
type Release struct {
	// Version is the version string as published.
	Version string
	// Channel is the release channel.
	Channel Channel
	// GameVersions lists compatible game versions; entries may be patterns like "1.21.x".
	// Empty means unknown, which is treated as compatible.
	GameVersions []string
	// Loaders lists compatible loaders or platforms (fabric, paper, ...). Empty means any.
	Loaders []string
	// Dependencies declared by this version.
	Dependencies []mods.Dependency
	// Incompatibilities declared by this version.
	Incompatibilities []mods.Dependency
	// ReleaseDate is when this version was published.
	ReleaseDate time.Time
	// DownloadURL is where the jar can be fetched.
	DownloadURL string
	// Hash is the published checksum of the jar.
	Hash string
}

// Record is everything a registry knows about one mod.
type Record struct {
	// ID is the identifier the record was looked up with.
	ID string
	// Source is the registry the record came from.
	Source string
	// Aliases are other identifiers of the same mod (slug, numeric id, display name).
	Aliases []string
	// Releases are the available versions, newest first.
	Releases []Release
}

// Release returns the release with the given version string.
func (r *Record) Release(version string) (Release, bool) {
	for _, rel := range r.Releases {
		if rel.Version == version {
			return rel, true
		}
	}

	return Release{}, false
}

// Lookup resolves an identifier to the versions available for it.
// Implementations return *NotFoundError when the identifier is unknown.
type Lookup interface {
	Lookup(ctx context.Context, id string) (*Record, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, id string) (*Record, error)

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, id string) (*Record, error) {
	return f(ctx, id)
}

// NotFoundError is returned when a registry has no mod with the identifier.
type NotFoundError struct {
	ID     string
	Source string
}

func (e *NotFoundError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("mod %q not found in any registry", e.ID)
	}

	return fmt.Sprintf("mod %q not found in %s", e.ID, e.Source)
}

// IsNotFound reports whether err is or wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var notFound *NotFoundError

	return errors.As(err, &notFound)
}

// uniqueStrings drops empty and repeated values, keeping first occurrences.
func uniqueStrings(values ...string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))

	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}

		seen[v] = true
		out = append(out, v)
	}

	return out
}
