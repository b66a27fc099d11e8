/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

// Package cron runs jobs on a cron schedule.
package cron

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/robfig/cron/v3"
)

// Scheduler is an interface for cron scheduling operations.
type Scheduler interface {
	AddFunc(spec string, cmd func()) (cron.EntryID, error)
	Start()
	Stop()
}

// RealScheduler wraps robfig/cron for production use. A run still in
// progress when its next tick fires causes that tick to be skipped.
type RealScheduler struct {
	*cron.Cron
}

// NewRealScheduler creates a production cron scheduler.
func NewRealScheduler() *RealScheduler {
	logger := slogLogger{}

	return &RealScheduler{
		Cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
}

// Stop stops the scheduler and waits for running jobs.
func (r *RealScheduler) Stop() {
	ctx := r.Cron.Stop()
	<-ctx.Done()
}

// ValidateSpec checks a schedule expression. Standard five-field expressions
// and descriptors such as "@every 6h" or "@daily" are accepted.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return errors.Wrapf(err, "invalid schedule %q", spec)
	}

	return nil
}

// Run schedules job on spec and blocks until ctx is done, then stops the
// scheduler. With runNow the job also runs once before the first tick.
func Run(ctx context.Context, s Scheduler, spec string, runNow bool, job func(ctx context.Context)) error {
	if _, err := s.AddFunc(spec, func() { job(ctx) }); err != nil {
		return errors.Wrapf(err, "failed to schedule %q", spec)
	}

	if runNow {
		job(ctx)
	}

	s.Start()
	slog.InfoContext(ctx, "Scheduler started", "schedule", spec)

	<-ctx.Done()
	s.Stop()
	slog.InfoContext(ctx, "Scheduler stopped")

	return nil
}

// slogLogger adapts the default slog logger to cron.Logger.
type slogLogger struct{}

func (slogLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(msg, keysAndValues...)
}

func (slogLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(msg, append(keysAndValues, "error", err)...)
}
