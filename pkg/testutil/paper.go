/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package testutil

import (
	"context"
	"sync"
)

// MockPaperAPI is a mock implementation of gameversion.PaperAPI for testing.
type MockPaperAPI struct {
	mu sync.Mutex

	Versions    []string
	VersionsErr error

	GetVersionsCalls int
}

// GetPaperVersions returns the configured versions or error.
func (m *MockPaperAPI) GetPaperVersions(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetVersionsCalls++

	return m.Versions, m.VersionsErr
}
