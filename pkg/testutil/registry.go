/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/lexfrei/modsyncer/pkg/mods"
	"github.com/lexfrei/modsyncer/pkg/registry"
	"github.com/lexfrei/modsyncer/pkg/version"
)

// MockLookup is an in-memory registry.Lookup for tests.
type MockLookup struct {
	mu sync.Mutex

	// Records keyed by identifier.
	Records map[string]*registry.Record
	// Errors returned for specific identifiers instead of a record.
	Errors map[string]error

	// Calls records every looked-up identifier.
	Calls []string
}

// NewMockLookup creates an empty mock registry.
func NewMockLookup() *MockLookup {
	return &MockLookup{
		Records: make(map[string]*registry.Record),
		Errors:  make(map[string]error),
	}
}

// Add stores releases for id. Releases are kept in the given order.
func (m *MockLookup) Add(id string, releases ...registry.Release) *MockLookup {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Records[id] = &registry.Record{ID: id, Source: "mock", Releases: releases}

	return m
}

// Fail makes lookups of id return err.
func (m *MockLookup) Fail(id string, err error) *MockLookup {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Errors[id] = err

	return m
}

// Lookup returns a copy of the stored record, the configured error, or a NotFoundError.
func (m *MockLookup) Lookup(_ context.Context, id string) (*registry.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, id)

	if err, ok := m.Errors[id]; ok {
		return nil, err
	}

	record, ok := m.Records[id]
	if !ok {
		return nil, &registry.NotFoundError{ID: id, Source: "mock"}
	}

	out := *record
	out.Releases = append([]registry.Release(nil), record.Releases...)

	return &out, nil
}

// CallCount returns how many times id was looked up.
func (m *MockLookup) CallCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0

	for _, call := range m.Calls {
		if call == id {
			count++
		}
	}

	return count
}

// Rel builds a release channel version with the given game versions and a fixed date.
func Rel(ver string, gameVersions ...string) registry.Release {
	return registry.Release{
		Version:      ver,
		Channel:      registry.ChannelRelease,
		GameVersions: gameVersions,
		ReleaseDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Dep builds a required dependency on id within the given range.
func Dep(id, rng string) mods.Dependency {
	return mods.Dependency{ID: id, Range: version.MustParseRange(rng)}
}
