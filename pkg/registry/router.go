/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/lexfrei/modsyncer/pkg/metrics"
	"github.com/lexfrei/modsyncer/pkg/mods"
)

type backend struct {
	source string
	lookup Lookup
}

// Router dispatches lookups to registry backends.
//
// A reference of the form "source:id" goes straight to the named backend.
// A bare identifier is tried against every backend in registration order and
// the first one that knows it wins.
type Router struct {
	backends []backend
	bySource map[string]Lookup
	metrics  metrics.Recorder
}

// NewRouter creates an empty router. A nil recorder disables metrics.
func NewRouter(recorder metrics.Recorder) *Router {
	if recorder == nil {
		recorder = &metrics.NoopRecorder{}
	}

	return &Router{
		bySource: make(map[string]Lookup),
		metrics:  recorder,
	}
}

// Register adds a backend under a source tag. Registering a tag twice replaces
// the earlier backend but keeps its position.
func (r *Router) Register(source string, lookup Lookup) {
	if _, exists := r.bySource[source]; exists {
		for i := range r.backends {
			if r.backends[i].source == source {
				r.backends[i].lookup = lookup
			}
		}
	} else {
		r.backends = append(r.backends, backend{source: source, lookup: lookup})
	}

	r.bySource[source] = lookup
}

// Sources returns the registered source tags in order.
func (r *Router) Sources() []string {
	out := make([]string, 0, len(r.backends))
	for _, b := range r.backends {
		out = append(out, b.source)
	}

	return out
}

// Lookup resolves ref against the configured backends.
func (r *Router) Lookup(ctx context.Context, ref string) (*Record, error) {
	source, id := mods.SplitRef(ref)

	if source != "" {
		lookup, ok := r.bySource[source]
		if !ok {
			return nil, errors.Newf("unknown registry %q", source)
		}

		return r.call(ctx, source, lookup, id)
	}

	if len(r.backends) == 0 {
		return nil, errors.New("no registries configured")
	}

	var firstErr error

	for _, b := range r.backends {
		record, err := r.call(ctx, b.source, b.lookup, id)
		if err == nil {
			return record, nil
		}

		if IsNotFound(err) {
			continue
		}

		slog.WarnContext(ctx, "Registry lookup failed, trying next registry",
			"registry", b.source, "id", id, "error", err)

		if firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}

	return nil, &NotFoundError{ID: id}
}

func (r *Router) call(ctx context.Context, source string, lookup Lookup, id string) (*Record, error) {
	start := time.Now()
	record, err := lookup.Lookup(ctx, id)
	r.metrics.RecordLookup(source, err, time.Since(start))

	if err != nil {
		if IsNotFound(err) {
			return nil, err
		}

		return nil, errors.Wrapf(err, "failed to look up %s in %s", id, source)
	}

	if record.Source == "" {
		record.Source = source
	}

	return record, nil
}
