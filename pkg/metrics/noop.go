package metrics

import "time"

// NoopRecorder discards every observation. Router and Resolver fall back to it
// when no recorder is configured.
type NoopRecorder struct{}

func (*NoopRecorder) RecordLookup(string, error, time.Duration) {}

func (*NoopRecorder) RecordResolve(error, time.Duration) {}

func (*NoopRecorder) RecordPlan(int, int, int) {}
