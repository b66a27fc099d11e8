/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
)

// anyRange is the textual form of a range accepting every version.
const anyRange = "*"

// Range is a set of acceptable versions for a dependency or incompatibility.
//
// Accepted forms:
//   - semver constraints: ">=2.0", "^1.2", "~1.4", "1.20.x", ">=1.0 <2.0", "a || b"
//   - Maven intervals used by Forge metadata: "[1.0,2.0)", "[1.5]", "(,3)"
//   - empty string or "*": any version
type Range struct {
	raw         string
	constraints *semver.Constraints
}

// AnyRange returns a range that accepts every version.
func AnyRange() Range {
	return Range{raw: anyRange}
}

// ParseRange parses a version range.
func ParseRange(raw string) (Range, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == anyRange {
		return AnyRange(), nil
	}

	expr := trimmed
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "(") {
		converted, err := mavenToConstraint(trimmed)
		if err != nil {
			return Range{}, err
		}

		expr = converted
	}

	c, err := semver.NewConstraint(expr)
	if err != nil {
		return Range{}, errors.Wrapf(err, "failed to parse version range %q", raw)
	}

	return Range{raw: trimmed, constraints: c}, nil
}

// MustParseRange is ParseRange that panics on error. Intended for tests and constants.
func MustParseRange(raw string) Range {
	r, err := ParseRange(raw)
	if err != nil {
		panic(err)
	}

	return r
}

// ParseRanges parses several alternative ranges and joins them with OR,
// the way fabric.mod.json expresses a list of accepted ranges.
func ParseRanges(raws []string) (Range, error) {
	if len(raws) == 0 {
		return AnyRange(), nil
	}

	parts := make([]string, 0, len(raws))

	for _, raw := range raws {
		r, err := ParseRange(raw)
		if err != nil {
			return Range{}, err
		}

		if r.IsAny() {
			return AnyRange(), nil
		}

		parts = append(parts, r.expression())
	}

	return ParseRange(strings.Join(parts, " || "))
}

// IsAny reports whether the range accepts every version.
func (r Range) IsAny() bool {
	return r.constraints == nil
}

// Contains reports whether the version falls inside the range.
// Versions that cannot be parsed only match the any-range.
func (r Range) Contains(raw string) bool {
	if r.IsAny() {
		return true
	}

	v, err := ParseVersion(raw)
	if err != nil {
		return false
	}

	return r.constraints.Check(v)
}

// String returns the range as written.
func (r Range) String() string {
	if r.raw == "" {
		return anyRange
	}

	return r.raw
}

// expression returns the semver constraint form of the range.
func (r Range) expression() string {
	if r.IsAny() {
		return anyRange
	}

	return r.constraints.String()
}

// mavenToConstraint converts a Maven version interval into a semver constraint.
func mavenToConstraint(raw string) (string, error) {
	if len(raw) < 3 {
		return "", errors.Newf("invalid version interval %q", raw)
	}

	open := raw[0]
	closing := raw[len(raw)-1]

	if closing != ']' && closing != ')' {
		return "", errors.Newf("invalid version interval %q", raw)
	}

	body := raw[1 : len(raw)-1]

	lower, upper, hasComma := strings.Cut(body, ",")
	lower = strings.TrimSpace(lower)
	upper = strings.TrimSpace(upper)

	if !hasComma {
		if open != '[' || closing != ']' || lower == "" {
			return "", errors.Newf("invalid version interval %q", raw)
		}

		exact, err := intervalBound(raw, lower)
		if err != nil {
			return "", err
		}

		return "=" + exact, nil
	}

	parts := make([]string, 0, 2)

	if lower != "" {
		bound, err := intervalBound(raw, lower)
		if err != nil {
			return "", err
		}

		op := ">="
		if open == '(' {
			op = ">"
		}

		parts = append(parts, op+bound)
	}

	if upper != "" {
		bound, err := intervalBound(raw, upper)
		if err != nil {
			return "", err
		}

		op := "<="
		if closing == ')' {
			op = "<"
		}

		parts = append(parts, op+bound)
	}

	if len(parts) == 0 {
		return anyRange, nil
	}

	return strings.Join(parts, ", "), nil
}

// intervalBound expands a Maven bound to a full version. A short bound such as
// "1.5" would otherwise act as a wildcard over 1.5.x in a semver constraint.
func intervalBound(raw, bound string) (string, error) {
	v, err := ParseVersion(bound)
	if err != nil {
		return "", errors.Wrapf(err, "invalid bound in version interval %q", raw)
	}

	return v.String(), nil
}
