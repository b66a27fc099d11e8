/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package mods

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// maxJARSize is the maximum jar size read during a scan (100 MB).
const maxJARSize = 100 * 1024 * 1024

// ScanIssue describes a jar that could not be turned into an Entry.
type ScanIssue struct {
	File string
	Err  error
}

// ScanResult is the outcome of scanning an install folder.
type ScanResult struct {
	Entries []Entry
	Issues  []ScanIssue
}

// Scanner discovers installed mods and plugins from jar files in a folder.
type Scanner struct {
	// Source is assigned to every discovered entry.
	Source string
	// Sources overrides Source per identifier.
	Sources map[string]string
}

// Scan reads every *.jar directly inside dir. Jars without usable metadata
// are reported as issues and do not fail the scan. Two jars declaring the same
// identifier are both reported and only the first (by file name) is kept.
func (s *Scanner) Scan(ctx context.Context, dir string) (*ScanResult, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read mods directory %s", dir)
	}

	result := &ScanResult{}
	seen := make(map[string]string)

	for _, de := range dirEntries {
		if de.IsDir() || !strings.EqualFold(filepath.Ext(de.Name()), ".jar") {
			continue
		}

		path := filepath.Join(dir, de.Name())

		entry, err := s.scanFile(path)
		if err != nil {
			slog.WarnContext(ctx, "Skipping jar", "file", path, "error", err)
			result.Issues = append(result.Issues, ScanIssue{File: path, Err: err})

			continue
		}

		key := NormalizeID(entry.ID)
		if first, dup := seen[key]; dup {
			dupErr := errors.Newf("duplicate identifier %q, already provided by %s", entry.ID, first)
			slog.WarnContext(ctx, "Duplicate mod", "file", path, "id", entry.ID, "first", first)
			result.Issues = append(result.Issues, ScanIssue{File: path, Err: dupErr})

			continue
		}

		seen[key] = path

		slog.DebugContext(ctx, "Discovered mod", "id", entry.ID, "version", entry.Version, "file", path)
		result.Entries = append(result.Entries, entry)
	}

	SortEntries(result.Entries)
	sort.SliceStable(result.Issues, func(i, j int) bool {
		return result.Issues[i].File < result.Issues[j].File
	})

	return result, nil
}

func (s *Scanner) scanFile(path string) (Entry, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, errors.Wrap(err, "failed to stat jar")
	}

	if info.Size() > maxJARSize {
		return Entry{}, errors.Newf("jar exceeds maximum size of %d bytes", maxJARSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, errors.Wrap(err, "failed to read jar")
	}

	entry, err := ReadJAR(data)
	if err != nil {
		return Entry{}, err
	}

	entry.File = path
	entry.Source = s.Source

	if src, ok := s.Sources[entry.ID]; ok {
		entry.Source = src
	}

	return entry, nil
}
