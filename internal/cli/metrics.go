package cli

import (
	"fmt"

	"deload/internal/config"
	"deload/internal/metrics"
	"deload/internal/metrics/datadog"
	"deload/internal/metrics/prompush"
)

// newMetricsBackend returns nil for a disabled backend.
func newMetricsBackend(m config.Metrics, runID string) (metrics.Backend, error) {
	switch m.Backend {
	case "", "none":
		return nil, nil
	case "pushgateway":
		return prompush.NewBackend(m.Job, m.PushgatewayURL, map[string]string{"run_id": runID})
	case "datadog":
		return datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			GlobalTags: []string{"job:" + m.Job, "run_id:" + runID},
		})
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", m.Backend)
	}
}
