// Package metrics provides Prometheus metrics for modsyncer.
package metrics

import "time"

// Recorder defines the interface for recording resolution metrics.
type Recorder interface {
	// RecordLookup records a registry lookup.
	RecordLookup(source string, err error, duration time.Duration)

	// RecordResolve records a resolver run.
	RecordResolve(err error, duration time.Duration)

	// RecordPlan records the size of the last produced plan.
	RecordPlan(updates, conflicts, failures int)
}
