/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package version

import (
	"strings"

	"github.com/cockroachdb/errors"
)

// Latest is the configuration value asking for the newest game version.
// It has to be resolved to a concrete version before comparing.
const Latest = "latest"

// IsLatest reports whether raw is the Latest marker, ignoring case and spaces.
func IsLatest(raw string) bool {
	return strings.EqualFold(strings.TrimSpace(raw), Latest)
}

// Compare orders two mod versions: -1 when a is older, 0 when equal, 1 when newer.
// Loose versions like "mc1.21-0.5.11" compare by their numeric part.
func Compare(a, b string) (int, error) {
	if IsLatest(a) || IsLatest(b) {
		return 0, errors.Newf("cannot compare unresolved %q version", Latest)
	}

	va, err := ParseVersion(a)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid version: %s", a)
	}

	vb, err := ParseVersion(b)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid version: %s", b)
	}

	return va.Compare(vb), nil
}

// IsDowngrade reports whether moving from current to candidate lowers the version.
func IsDowngrade(current, candidate string) (bool, error) {
	cmp, err := Compare(candidate, current)
	if err != nil {
		return false, err
	}

	return cmp < 0, nil
}
