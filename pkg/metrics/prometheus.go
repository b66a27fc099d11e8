/*
Copyright 2026, Aleksei Sviridkin.

SPDX-License-Identifier: BSD-3-Clause
*/

package metrics

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modsyncer"

// PrometheusRecorder implements Recorder on top of a Prometheus registry.
type PrometheusRecorder struct {
	lookups         *prometheus.CounterVec
	lookupErrors    *prometheus.CounterVec
	lookupDuration  *prometheus.HistogramVec
	resolves        prometheus.Counter
	resolveErrors   prometheus.Counter
	resolveDuration prometheus.Histogram
	planUpdates     prometheus.Gauge
	planConflicts   prometheus.Gauge
	planFailures    prometheus.Gauge
}

// NewPrometheusRecorder creates the metrics and registers them with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_requests_total",
			Help:      "Total number of registry lookups.",
		}, []string{"source"}),
		lookupErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_errors_total",
			Help:      "Total number of failed registry lookups.",
		}, []string{"source"}),
		lookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registry_duration_seconds",
			Help:      "Duration of registry lookups.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
		resolves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_runs_total",
			Help:      "Total number of resolver runs.",
		}),
		resolveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_errors_total",
			Help:      "Total number of resolver runs that returned an error.",
		}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Duration of resolver runs.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		planUpdates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "plan_updates",
			Help:      "Number of version changes proposed by the last plan.",
		}),
		planConflicts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "plan_conflicts",
			Help:      "Number of conflicts reported by the last plan.",
		}),
		planFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "plan_failures",
			Help:      "Number of identifiers the last plan could not look up.",
		}),
	}

	reg.MustRegister(
		r.lookups, r.lookupErrors, r.lookupDuration,
		r.resolves, r.resolveErrors, r.resolveDuration,
		r.planUpdates, r.planConflicts, r.planFailures,
	)

	return r
}

// RecordLookup records a registry lookup.
func (r *PrometheusRecorder) RecordLookup(source string, err error, duration time.Duration) {
	r.lookups.WithLabelValues(source).Inc()
	r.lookupDuration.WithLabelValues(source).Observe(duration.Seconds())

	if err != nil {
		r.lookupErrors.WithLabelValues(source).Inc()
	}
}

// RecordResolve records a resolver run.
func (r *PrometheusRecorder) RecordResolve(err error, duration time.Duration) {
	r.resolves.Inc()
	r.resolveDuration.Observe(duration.Seconds())

	if err != nil {
		r.resolveErrors.Inc()
	}
}

// RecordPlan records the size of the last produced plan.
func (r *PrometheusRecorder) RecordPlan(updates, conflicts, failures int) {
	r.planUpdates.Set(float64(updates))
	r.planConflicts.Set(float64(conflicts))
	r.planFailures.Set(float64(failures))
}

// WriteTextfile writes everything gathered by g to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return errors.Wrap(err, "failed to write metrics textfile")
	}

	return nil
}
