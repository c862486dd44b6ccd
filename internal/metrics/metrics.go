// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from an import run.
//
//   - It exposes a narrow interface (Backend) focused on counters and timing
//     data.
//   - It provides a global, pluggable backend that defaults to a no-op
//     implementation, so metrics are always safe to call even when no real
//     backend is configured.
//
// Concrete systems live in subpackages (prompush, datadog) so the importers
// depend only on this package.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the helpers below.
const (
	StepTotal           = "deload_step_total"
	StepDurationSeconds = "deload_step_duration_seconds"
	RowsTotal           = "deload_rows_total"
	BatchesTotal        = "deload_batches_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep measures latency and success/failure of one step of a unit
// ("annotation", "mRNA", ...). Steps are "schema", "truncate", "load",
// "analyze" and "verify".
func RecordStep(unit, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{
		"unit":   unit,
		"step":   step,
		"status": status,
	}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a row-level counter for the given unit and kind.
//
// Kinds mirror the import report: "read", "inserted" and the skip reasons
// ("short_row", "empty_id", "duplicate", "malformed").
func RecordRow(unit, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RowsTotal, float64(delta), Labels{
		"unit": unit,
		"kind": kind,
	})
}

// RecordBatches increments the flushed-batch counter for a table.
func RecordBatches(table string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{
		"table": table,
	})
}
