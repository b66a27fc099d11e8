/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package testutil

import (
	"sort"
	"sync"

	"github.com/robfig/cron/v3"
)

// MockCronScheduler records scheduled jobs and runs them on demand.
type MockCronScheduler struct {
	mu sync.Mutex

	Jobs   map[cron.EntryID]*MockCronJob
	nextID cron.EntryID

	AddFuncError error
	started      bool
	stopped      bool
}

// MockCronJob is a job registered with the mock.
type MockCronJob struct {
	ID   cron.EntryID
	Spec string
	Func func()
}

// NewMockCronScheduler creates a new mock cron scheduler.
func NewMockCronScheduler() *MockCronScheduler {
	return &MockCronScheduler{
		Jobs:   make(map[cron.EntryID]*MockCronJob),
		nextID: 1,
	}
}

// AddFunc validates spec like the real scheduler and stores the job.
func (m *MockCronScheduler) AddFunc(spec string, cmd func()) (cron.EntryID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AddFuncError != nil {
		return 0, m.AddFuncError
	}

	if _, err := cron.ParseStandard(spec); err != nil {
		return 0, err
	}

	id := m.nextID
	m.nextID++
	m.Jobs[id] = &MockCronJob{ID: id, Spec: spec, Func: cmd}

	return id, nil
}

// Start marks the scheduler as started.
func (m *MockCronScheduler) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.started = true
}

// Stop marks the scheduler as stopped.
func (m *MockCronScheduler) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.started = false
	m.stopped = true
}

// IsStarted reports whether Start was called and Stop was not.
func (m *MockCronScheduler) IsStarted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.started
}

// IsStopped reports whether Stop was called.
func (m *MockCronScheduler) IsStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stopped
}

// TriggerAll runs every registered job once, in registration order.
func (m *MockCronScheduler) TriggerAll() {
	m.mu.Lock()

	jobs := make([]*MockCronJob, 0, len(m.Jobs))
	for _, job := range m.Jobs {
		jobs = append(jobs, job)
	}

	m.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })

	for _, job := range jobs {
		job.Func()
	}
}
