/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

// Package version provides version parsing, comparison and range matching for mod releases.
package version

import (
	"regexp"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
)

// numericPrefix captures the leading dotted numeric part of loosely formatted
// mod versions such as "mc1.21-4.2.0" or "build 12".
var numericPrefix = regexp.MustCompile(`(\d+(?:\.\d+){0,2})`)

// VersionInfo contains metadata about a specific version.
type VersionInfo struct {
	// Version is the version string.
	Version string
	// ReleaseDate is when this version was released.
	ReleaseDate time.Time
}

// ParseVersion parses a version string into a semver.Version.
// Strict semantic versions are tried first, then the first dotted numeric
// group found in the string is used. Returns an error if neither works.
func ParseVersion(raw string) (*semver.Version, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("version is empty")
	}

	v, err := semver.NewVersion(trimmed)
	if err == nil {
		return v, nil
	}

	match := numericPrefix.FindString(trimmed)
	if match == "" {
		return nil, errors.Wrapf(err, "failed to parse version %q", raw)
	}

	v, fallbackErr := semver.NewVersion(match)
	if fallbackErr != nil {
		return nil, errors.Wrapf(fallbackErr, "failed to parse version %q", raw)
	}

	return v, nil
}

// FilterByUpdateDelay filters versions based on release date and update delay.
// Only versions released before (now - delay) are returned.
// If delay is zero, a copy of all versions is returned.
func FilterByUpdateDelay(versions []VersionInfo, delay time.Duration) []VersionInfo {
	return FilterByUpdateDelayAt(versions, delay, time.Now())
}

// FilterByUpdateDelayAt is FilterByUpdateDelay with an explicit reference time.
func FilterByUpdateDelayAt(versions []VersionInfo, delay time.Duration, now time.Time) []VersionInfo {
	if delay == 0 {
		result := make([]VersionInfo, len(versions))
		copy(result, versions)

		return result
	}

	cutoff := now.Add(-delay)
	filtered := make([]VersionInfo, 0, len(versions))

	for _, v := range versions {
		if !v.ReleaseDate.After(cutoff) {
			filtered = append(filtered, v)
		}
	}

	return filtered
}

// FindMaxVersion finds the maximum version from a list of version strings.
// Returns empty string if the list is empty, and an error if all versions are invalid.
func FindMaxVersion(versions []string) (string, error) {
	if len(versions) == 0 {
		return "", nil
	}

	var maxVer *semver.Version

	var maxStr string

	for _, v := range versions {
		ver, err := ParseVersion(v)
		if err != nil {
			continue
		}

		if maxVer == nil || ver.GreaterThan(maxVer) {
			maxVer = ver
			maxStr = v
		}
	}

	if maxVer == nil {
		return "", errors.New("no valid versions found")
	}

	return maxStr, nil
}

// Newer reports whether a should be preferred over b: higher semantic version
// first, then the more recent release date. Unparseable versions lose against
// parseable ones and are ordered by release date among themselves. The raw
// strings break any remaining tie so ordering is total.
func Newer(a, b VersionInfo) bool {
	va, errA := ParseVersion(a.Version)
	vb, errB := ParseVersion(b.Version)

	switch {
	case errA == nil && errB != nil:
		return true
	case errA != nil && errB == nil:
		return false
	case errA == nil && errB == nil:
		if cmp := va.Compare(vb); cmp != 0 {
			return cmp > 0
		}
	}

	if !a.ReleaseDate.Equal(b.ReleaseDate) {
		return a.ReleaseDate.After(b.ReleaseDate)
	}

	return a.Version > b.Version
}
