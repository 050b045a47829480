package metrics

import (
	"context"

	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/limits/ratelimit"
	"mercator-hq/docgate/pkg/submission"

	"github.com/prometheus/client_golang/prometheus"
)

// GateSource is anything that reports admission gate state.
// *ratelimit.Gate satisfies it.
type GateSource interface {
	Stats() ratelimit.Stats
}

// JournalSource reports recorder throughput.
type JournalSource interface {
	Recorded() uint64
	Dropped() uint64
}

// Collector owns the metrics registry and records docgate metrics.
//
// Collector implements submission.Observer and can be passed to
// submission.WithObserver directly.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	submissionMetrics *SubmissionMetrics
	inboxFiles        *prometheus.CounterVec
}

// NewCollector creates a metrics collector. If registry is nil a new one is
// created.
//
// Example:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RegisterGate(gate)
//	client, _ := submission.New(clientCfg, gate, submission.WithObserver(collector))
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}

	c := &Collector{
		config:            cfg,
		registry:          registry,
		submissionMetrics: NewSubmissionMetrics(cfg, registry),
		inboxFiles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "inbox",
				Name:      "files_total",
				Help:      "Total number of inbox document pairs processed",
			},
			[]string{"result"},
		),
	}
	registry.MustRegister(c.inboxFiles)

	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveSubmission records one submission outcome.
func (c *Collector) ObserveSubmission(_ context.Context, outcome *submission.Outcome) {
	c.submissionMetrics.Record(outcome)
}

// RecordInboxFile counts one processed inbox pair. result is "done" or
// "failed".
func (c *Collector) RecordInboxFile(result string) {
	c.inboxFiles.WithLabelValues(result).Inc()
}

// RegisterGate exposes the state of gate. It must be called at most once per
// collector.
func (c *Collector) RegisterGate(gate GateSource) {
	c.registry.MustRegister(newGateCollectors(c.config.Namespace, gate)...)
}

// RegisterJournal exposes recorder throughput. It must be called at most once
// per collector.
func (c *Collector) RegisterJournal(src JournalSource) {
	opts := func(state string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   c.config.Namespace,
			Subsystem:   "journal",
			Name:        "entries_total",
			Help:        "Total number of journal entries by state",
			ConstLabels: prometheus.Labels{"state": state},
		}
	}

	c.registry.MustRegister(
		prometheus.NewCounterFunc(opts("recorded"), func() float64 { return float64(src.Recorded()) }),
		prometheus.NewCounterFunc(opts("dropped"), func() float64 { return float64(src.Dropped()) }),
	)
}
