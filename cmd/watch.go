/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lexfrei/modsyncer/internal/config"
	"github.com/lexfrei/modsyncer/pkg/cron"
	"github.com/lexfrei/modsyncer/pkg/resolver"
)

const defaultSchedule = "@every 6h"

// watcher re-resolves on a schedule and reports only when the plan changes.
type watcher struct {
	pipeline *pipeline
	render   func(report resolver.Report) error

	mu   sync.Mutex
	last string
}

// tick runs one resolution. It returns true when the plan fingerprint changed.
func (w *watcher) tick(ctx context.Context) bool {
	plan, err := w.pipeline.run(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Resolution failed", "error", err)

		return false
	}

	fingerprint := plan.Fingerprint()

	w.mu.Lock()
	changed := fingerprint != w.last
	w.last = fingerprint
	w.mu.Unlock()

	if !changed {
		slog.DebugContext(ctx, "Plan unchanged", "fingerprint", fingerprint)

		return false
	}

	report := plan.Report()

	slog.InfoContext(ctx, "Plan changed",
		"fingerprint", fingerprint,
		"updates", report.Updated,
		"conflicts", report.Conflicted,
		"failures", report.Failed)

	if err := w.render(report); err != nil {
		slog.ErrorContext(ctx, "Failed to print plan", "error", err)
	}

	return true
}

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var schedule string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run resolution on a schedule and report plan changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.ValidateSchedule(schedule); err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}

			p, err := newPipeline(cfg, opts.metricsFile)
			if err != nil {
				return err
			}

			w := &watcher{pipeline: p, render: func(report resolver.Report) error {
				return renderReport(opts.stdout, opts.output, report)
			}}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cron.Run(ctx, cron.NewRealScheduler(), schedule, true, func(ctx context.Context) {
				w.tick(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", defaultSchedule,
		"Cron expression or descriptor such as \"@every 6h\"")

	return cmd
}
