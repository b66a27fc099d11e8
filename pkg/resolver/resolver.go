/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

// Package resolver picks target versions for installed mods and detects
// conflicts between them.
package resolver

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/lexfrei/modsyncer/pkg/download"
	"github.com/lexfrei/modsyncer/pkg/metrics"
	"github.com/lexfrei/modsyncer/pkg/mods"
	"github.com/lexfrei/modsyncer/pkg/registry"
	"github.com/lexfrei/modsyncer/pkg/version"
)

const (
	// DefaultConcurrency bounds parallel registry lookups.
	DefaultConcurrency = 8
	// DefaultMaxPasses bounds the selection fixpoint iteration.
	DefaultMaxPasses = 10
)

// Options controls candidate filtering and selection.
type Options struct {
	// GameVersion restricts releases to those compatible with it. Empty disables the filter.
	GameVersion string
	// Channel is the least stable release channel accepted. Empty means release only.
	Channel registry.Channel
	// Loaders restricts releases to these loaders or platforms. Empty accepts any.
	Loaders []string
	// UpdateDelay skips releases younger than this.
	UpdateDelay time.Duration
	// Pins fixes the target version of an identifier.
	Pins map[string]string
	// AllowDowngrade permits targets below the installed version.
	AllowDowngrade bool
	// Concurrency bounds parallel lookups. Zero uses DefaultConcurrency.
	Concurrency int
	// MaxPasses bounds selection passes. Zero uses DefaultMaxPasses.
	MaxPasses int
	// Metrics receives run statistics. Nil disables metrics.
	Metrics metrics.Recorder
	// Now returns the reference time for UpdateDelay. Nil uses time.Now.
	Now func() time.Time
}

// Resolver builds resolution plans.
type Resolver struct {
	opts Options
}

// New validates options and creates a resolver.
func New(opts Options) (*Resolver, error) {
	channel, err := registry.ParseChannel(string(opts.Channel))
	if err != nil {
		return nil, errors.Wrap(err, "invalid options")
	}

	opts.Channel = channel

	if version.IsLatest(opts.GameVersion) {
		return nil, errors.New("invalid options: game version must be resolved before resolution")
	}

	if opts.Concurrency < 0 || opts.MaxPasses < 0 || opts.UpdateDelay < 0 {
		return nil, errors.New("invalid options: negative concurrency, passes or update delay")
	}

	if opts.Concurrency == 0 {
		opts.Concurrency = DefaultConcurrency
	}

	if opts.MaxPasses == 0 {
		opts.MaxPasses = DefaultMaxPasses
	}

	if opts.Metrics == nil {
		opts.Metrics = &metrics.NoopRecorder{}
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	pins := make(map[string]string, len(opts.Pins))

	for id, pinned := range opts.Pins {
		if pinned == "" {
			return nil, errors.Newf("invalid options: empty pinned version for %s", id)
		}

		pins[mods.NormalizeID(id)] = pinned
	}

	opts.Pins = pins

	return &Resolver{opts: opts}, nil
}

// Resolve looks every installed entry up and builds a plan.
//
// Lookup failures are recorded in the plan and do not stop resolution of the
// other entries. An error is returned for invalid input, or when ctx ends
// before any lookup completed.
func (r *Resolver) Resolve(ctx context.Context, installed []mods.Entry, lookup registry.Lookup) (*Plan, error) {
	start := time.Now()

	plan, err := r.resolve(ctx, installed, lookup)
	r.opts.Metrics.RecordResolve(err, time.Since(start))

	if err != nil {
		return nil, err
	}

	r.opts.Metrics.RecordPlan(len(plan.Updates()), len(plan.conflicts), len(plan.failures))

	slog.InfoContext(ctx, "Resolution complete",
		"mods", len(installed),
		"targets", len(plan.targets),
		"updates", len(plan.Updates()),
		"conflicts", len(plan.conflicts),
		"failures", len(plan.failures),
		"duration", time.Since(start))

	return plan, nil
}

func (r *Resolver) resolve(ctx context.Context, installed []mods.Entry, lookup registry.Lookup) (*Plan, error) {
	if lookup == nil {
		return nil, errors.New("registry lookup is required")
	}

	entries, err := validateEntries(installed)
	if err != nil {
		return nil, err
	}

	records, failures, err := r.fetch(ctx, entries, lookup)
	if err != nil {
		return nil, err
	}

	participants, conflicts := r.buildParticipants(entries, records)

	passes := selectVersions(participants, r.opts.MaxPasses)
	if passes > r.opts.MaxPasses {
		slog.WarnContext(ctx, "Selection did not reach a fixpoint", "passes", r.opts.MaxPasses)
	}

	if left := improveSelection(participants); left > 0 {
		slog.DebugContext(ctx, "No selection satisfies every declaration", "broken", left)
	}

	conflicts = append(conflicts, detectConflicts(participants)...)

	return newPlan(r.opts.GameVersion, participants, conflicts, failures), nil
}

func validateEntries(installed []mods.Entry) ([]mods.Entry, error) {
	entries := make([]mods.Entry, len(installed))
	copy(entries, installed)

	seen := make(map[string]bool, len(entries))

	for _, e := range entries {
		if e.ID == "" {
			return nil, errors.New("installed entry without identifier")
		}

		key := mods.NormalizeID(e.ID)
		if seen[key] {
			return nil, errors.Newf("duplicate identifier %q", e.ID)
		}

		seen[key] = true
	}

	mods.SortEntries(entries)

	return entries, nil
}

// fetch looks every entry up concurrently. Results are indexed like entries.
func (r *Resolver) fetch(
	ctx context.Context,
	entries []mods.Entry,
	lookup registry.Lookup,
) ([]*registry.Record, []Failure, error) {
	records := make([]*registry.Record, len(entries))
	errs := make([]error, len(entries))

	var completed atomic.Int32

	g := &errgroup.Group{}
	g.SetLimit(r.opts.Concurrency)

	for i := range entries {
		g.Go(func() error {
			record, err := lookup.Lookup(ctx, entries[i].Ref())
			if err == nil || ctx.Err() == nil {
				completed.Add(1)
			}

			records[i], errs[i] = record, err

			return nil
		})
	}

	_ = g.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil && completed.Load() == 0 && len(entries) > 0 {
		return nil, nil, errors.Wrap(ctxErr, "resolution cancelled before any lookup completed")
	}

	var failures []Failure

	for i, err := range errs {
		if err == nil {
			continue
		}

		var netErr *download.NetworkError

		failure := Failure{
			ID:        entries[i].ID,
			Err:       err,
			NotFound:  registry.IsNotFound(err),
			Transient: errors.As(err, &netErr),
		}

		slog.WarnContext(ctx, "Lookup failed", "id", failure.ID, "notFound", failure.NotFound, "error", err)

		failures = append(failures, failure)
		records[i] = nil
	}

	sort.SliceStable(failures, func(i, j int) bool { return failures[i].ID < failures[j].ID })

	return records, failures, nil
}
