package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// newGateCollectors builds function-backed metrics that read gate state at
// scrape time.
func newGateCollectors(namespace string, gate GateSource) []prometheus.Collector {
	gaugeOpts := func(name, help string) prometheus.GaugeOpts {
		return prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      name,
			Help:      help,
		}
	}
	counterOpts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      name,
			Help:      help,
		}
	}

	return []prometheus.Collector{
		prometheus.NewGaugeFunc(
			gaugeOpts("permits_available", "Permits left in the current window"),
			func() float64 { return float64(gate.Stats().Available) },
		),
		prometheus.NewGaugeFunc(
			gaugeOpts("waiters", "Callers waiting for a permit"),
			func() float64 { return float64(gate.Stats().Waiting) },
		),
		prometheus.NewGaugeFunc(
			gaugeOpts("limit", "Configured permits per window"),
			func() float64 { return float64(gate.Stats().Limit) },
		),
		prometheus.NewGaugeFunc(
			gaugeOpts("period_seconds", "Configured window length in seconds"),
			func() float64 { return gate.Stats().Period.Seconds() },
		),
		prometheus.NewCounterFunc(
			counterOpts("permits_granted_total", "Total number of permits granted"),
			func() float64 { return float64(gate.Stats().Granted) },
		),
		prometheus.NewCounterFunc(
			counterOpts("refills_total", "Total number of windows that restored permits"),
			func() float64 { return float64(gate.Stats().Refills) },
		),
	}
}
