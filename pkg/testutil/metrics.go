/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package testutil

import (
	"sync"
	"time"
)

// MockMetricsRecorder implements metrics.Recorder with call tracking.
type MockMetricsRecorder struct {
	mu sync.Mutex

	LookupCalls   int
	LookupSources []string
	LookupErrors  int

	ResolveCalls int

	Updates   int
	Conflicts int
	Failures  int
}

// RecordLookup records the source and whether the call failed.
func (m *MockMetricsRecorder) RecordLookup(source string, err error, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LookupCalls++
	m.LookupSources = append(m.LookupSources, source)

	if err != nil {
		m.LookupErrors++
	}
}

// RecordResolve counts resolver runs.
func (m *MockMetricsRecorder) RecordResolve(_ error, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ResolveCalls++
}

// RecordPlan stores the last plan sizes.
func (m *MockMetricsRecorder) RecordPlan(updates, conflicts, failures int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Updates = updates
	m.Conflicts = conflicts
	m.Failures = failures
}

// Sources returns a copy of the recorded lookup sources.
func (m *MockMetricsRecorder) Sources() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.LookupSources...)
}
