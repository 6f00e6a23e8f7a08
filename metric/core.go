package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains the core engine metrics.
type Metrics struct {
	// Resource lifecycle metrics
	ResourceOps        *prometheus.CounterVec
	TriplesWritten     *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	SaveDuration       *prometheus.HistogramVec

	// Identifier generation metrics
	IRIGenerationAttempts *prometheus.HistogramVec

	// Store metrics
	StoreRetries   prometheus.Counter
	StoreConflicts prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all engine metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ResourceOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semmodel",
				Subsystem: "resource",
				Name:      "operations_total",
				Help:      "Total number of resource operations",
			},
			[]string{"model", "operation"},
		),

		TriplesWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semmodel",
				Subsystem: "store",
				Name:      "triples_written_total",
				Help:      "Total number of triples written, by direction (added or removed)",
			},
			[]string{"model", "direction"},
		),

		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "semmodel",
				Subsystem: "validation",
				Name:      "failures_total",
				Help:      "Total number of attribute validation failures",
			},
			[]string{"model", "attribute"},
		),

		SaveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "semmodel",
				Subsystem: "resource",
				Name:      "save_duration_seconds",
				Help:      "Resource save duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"model"},
		),

		IRIGenerationAttempts: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "semmodel",
				Subsystem: "identifier",
				Name:      "generation_attempts",
				Help:      "Number of candidates checked before a free identifier was found",
				Buckets:   []float64{1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"model"},
		),

		StoreRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "semmodel",
				Subsystem: "store",
				Name:      "retries_total",
				Help:      "Total number of retried store writes",
			},
		),

		StoreConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "semmodel",
				Subsystem: "store",
				Name:      "conflicts_total",
				Help:      "Total number of store writes abandoned after a revision conflict",
			},
		),
	}
}

// Register registers every collector with the given registrar under the
// owner name "mapper".
func (c *Metrics) Register(r Registrar) error {
	collectors := map[string]prometheus.Collector{
		"resource_operations_total":      c.ResourceOps,
		"store_triples_written_total":    c.TriplesWritten,
		"validation_failures_total":      c.ValidationFailures,
		"resource_save_duration_seconds": c.SaveDuration,
		"identifier_generation_attempts": c.IRIGenerationAttempts,
		"store_retries_total":            c.StoreRetries,
		"store_conflicts_total":          c.StoreConflicts,
	}
	for name, collector := range collectors {
		if err := r.RegisterCollector("mapper", name, collector); err != nil {
			return err
		}
	}
	return nil
}

// RecordResourceOp increments the resource operation counter.
func (c *Metrics) RecordResourceOp(model, operation string) {
	c.ResourceOps.WithLabelValues(model, operation).Inc()
}

// RecordTriples records the size of an applied diff.
func (c *Metrics) RecordTriples(model string, added, removed int) {
	if added > 0 {
		c.TriplesWritten.WithLabelValues(model, "added").Add(float64(added))
	}
	if removed > 0 {
		c.TriplesWritten.WithLabelValues(model, "removed").Add(float64(removed))
	}
}

// RecordValidationFailure increments the validation failure counter.
func (c *Metrics) RecordValidationFailure(model, attribute string) {
	c.ValidationFailures.WithLabelValues(model, attribute).Inc()
}

// RecordSaveDuration records how long a save took.
func (c *Metrics) RecordSaveDuration(model string, duration time.Duration) {
	c.SaveDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordIRIGenerationAttempts records candidates checked during generation.
func (c *Metrics) RecordIRIGenerationAttempts(model string, attempts int) {
	c.IRIGenerationAttempts.WithLabelValues(model).Observe(float64(attempts))
}

// RecordStoreRetry increments the store retry counter.
func (c *Metrics) RecordStoreRetry() {
	c.StoreRetries.Inc()
}

// RecordStoreConflict increments the store conflict counter.
func (c *Metrics) RecordStoreConflict() {
	c.StoreConflicts.Inc()
}
