/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package version

import "strings"

// MatchesVersionPattern checks if a target game version matches a glob pattern.
// Supports patterns like "1.21.x" or "1.21.*" which match "1.21" and any
// version starting with "1.21.".
func MatchesVersionPattern(pattern, target string) bool {
	if len(pattern) <= 2 {
		return false
	}

	suffix := pattern[len(pattern)-2:]
	if suffix != ".x" && suffix != ".*" {
		return false
	}

	base := pattern[:len(pattern)-2]

	return target == base || strings.HasPrefix(target, base+".")
}

// ContainsVersion checks if a game version is in the list.
// Supports both exact matches and glob patterns (e.g., "1.21.x").
func ContainsVersion(versions []string, target string) bool {
	for _, v := range versions {
		if v == target {
			return true
		}

		if MatchesVersionPattern(v, target) {
			return true
		}
	}

	return false
}
