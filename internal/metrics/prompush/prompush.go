// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// An import is a batch job with no scrape endpoint, so collected metrics are
// pushed to a Pushgateway on Flush. The run id is attached as a grouping key
// so consecutive runs do not overwrite each other.
package prompush

import (
	"fmt"

	"deload/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	grouping   map[string]string
	reg        *prometheus.Registry

	stepCounter  *prometheus.CounterVec // deload_step_total
	stepDuration *prometheus.SummaryVec // deload_step_duration_seconds
	rowCounter   *prometheus.CounterVec // deload_rows_total
	batchCounter *prometheus.CounterVec // deload_batches_total
}

// NewBackend constructs a Pushgateway backend. An empty jobName defaults to
// "deload". grouping adds extra grouping labels (typically run_id).
func NewBackend(jobName, gatewayURL string, grouping map[string]string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "deload"
	}

	reg := prometheus.NewRegistry()

	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.StepTotal,
			Help: "Import step executions, partitioned by unit, step and status.",
		},
		[]string{"unit", "step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       metrics.StepDurationSeconds,
			Help:       "Duration of import steps in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"unit", "step", "status"},
	)
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.RowsTotal,
			Help: "Row counts per unit and kind (read, inserted, skip reasons).",
		},
		[]string{"unit", "kind"},
	)
	batchCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metrics.BatchesTotal,
			Help: "Bulk-insert batches flushed per table.",
		},
		[]string{"table"},
	)

	for _, c := range []prometheus.Collector{stepCounter, stepDuration, rowCounter, batchCounter} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}

	return &Backend{
		gatewayURL:   gatewayURL,
		jobName:      jobName,
		grouping:     grouping,
		reg:          reg,
		stepCounter:  stepCounter,
		stepDuration: stepDuration,
		rowCounter:   rowCounter,
		batchCounter: batchCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["unit"], labels["step"], labels["status"]).Add(delta)

	case metrics.RowsTotal:
		if b.rowCounter == nil {
			return
		}
		b.rowCounter.WithLabelValues(labels["unit"], labels["kind"]).Add(delta)

	case metrics.BatchesTotal:
		if b.batchCounter == nil {
			return
		}
		b.batchCounter.WithLabelValues(labels["table"]).Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDurationSeconds || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["unit"], labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	p := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg)
	for k, v := range b.grouping {
		p = p.Grouping(k, v)
	}
	return p.Push()
}
