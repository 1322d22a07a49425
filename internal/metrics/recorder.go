package metrics

import "time"

// ResultLabel enumerates per-notebook rebuild outcomes for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// Recorder defines observability hooks for rebuild passes. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for
// nil receivers when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveRebuildDuration(notebook string, d time.Duration, success bool)
	ObserveRunDuration(d time.Duration)
	IncRebuildResult(result ResultLabel)
	IncRunOutcome(outcome string) // outcome: success|failed
	SetGallerySize(n int)
	SetStaleCount(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRebuildDuration(string, time.Duration, bool) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)                  {}
func (NoopRecorder) IncRebuildResult(ResultLabel)                      {}
func (NoopRecorder) IncRunOutcome(string)                              {}
func (NoopRecorder) SetGallerySize(int)                                {}
func (NoopRecorder) SetStaleCount(int)                                 {}
