// Package metrics instruments the forensic detection pipeline. There is
// no HTTP transport in this core, so the registry is private: a caller
// that does expose /metrics (the CLI does not) would wrap Registry() in
// promhttp.HandlerFor.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aegisshield/forensics-engine/internal/model"
)

// Collector collects Prometheus series for one pipeline instance.
type Collector struct {
	registry *prometheus.Registry

	batchesTotal       prometheus.Counter
	batchDuration      prometheus.Histogram
	accountsFlagged    prometheus.Histogram
	ringsDetectedTotal *prometheus.CounterVec
	cycleBudgetHit     prometheus.Counter
	degradationsTotal  *prometheus.CounterVec
}

// New builds a Collector registered against its own private registry.
func New() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,

		batchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "forensics_pipeline_batches_total",
			Help: "Total number of transaction batches analyzed",
		}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "forensics_pipeline_batch_duration_seconds",
			Help:    "Duration of one full Analyze call",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		accountsFlagged: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "forensics_pipeline_accounts_flagged",
			Help:    "Number of suspicious accounts flagged per batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		ringsDetectedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forensics_pipeline_rings_detected_total",
			Help: "Total number of fraud rings detected, by pattern type",
		}, []string{"pattern_type"}),
		cycleBudgetHit: factory.NewCounter(prometheus.CounterOpts{
			Name: "forensics_pipeline_cycle_budget_exhausted_total",
			Help: "Total number of batches where cycle enumeration stopped on the candidate budget rather than exhausting the graph",
		}),
		degradationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "forensics_pipeline_analytics_degraded_total",
			Help: "Total number of non-fatal stage degradations, by stage",
		}, []string{"stage"}),
	}
}

// Registry exposes the private registry for a collector that wants to
// serve it (e.g. promhttp.HandlerFor in a surrounding service).
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordBatch records one completed Analyze call.
func (c *Collector) RecordBatch(duration time.Duration, accountsFlagged int, rings []model.FraudRing) {
	c.batchesTotal.Inc()
	c.batchDuration.Observe(duration.Seconds())
	c.accountsFlagged.Observe(float64(accountsFlagged))
	for _, r := range rings {
		c.ringsDetectedTotal.WithLabelValues(string(r.PatternType)).Inc()
	}
}

// RecordCycleBudgetExhausted records that cycle enumeration stopped on
// the candidate budget for the current batch.
func (c *Collector) RecordCycleBudgetExhausted() {
	c.cycleBudgetHit.Inc()
}

// RecordDegradation records a non-fatal AnalyticsDegraded event for the
// named stage ("cycles" or "centrality").
func (c *Collector) RecordDegradation(stage string) {
	c.degradationsTotal.WithLabelValues(stage).Inc()
}
