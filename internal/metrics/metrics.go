// Package metrics exports verifier verdicts as Prometheus metrics.
//
// A Collector owns a private registry, so tests and batch runs never share
// counters through the global default registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/accountcell/internal/engine"
	"github.com/roach88/accountcell/internal/ir"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "accountcell"

// Collector counts verdicts and journal writes.
type Collector struct {
	registry *prometheus.Registry

	verdicts      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	journalWrites *prometheus.CounterVec
	batchSize     prometheus.Histogram
}

var _ engine.Observer = (*Collector)(nil)

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.verdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "verifier",
			Name:      "verdicts_total",
			Help:      "Verdicts by action, code and code family",
		},
		[]string{"action", "code", "name", "family"},
	)

	c.duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "verifier",
			Name:      "verification_duration_seconds",
			Help:      "Time taken to verify one transaction",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10), // 10µs to ~2.6s
		},
		[]string{"action"},
	)

	c.journalWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "writes_total",
			Help:      "Journal entry writes, split by whether the verdict was new",
		},
		[]string{"result"},
	)

	c.batchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "snapshots",
			Help:      "Snapshots verified per batch run",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	c.registry.MustRegister(c.verdicts, c.duration, c.journalWrites, c.batchSize)
	return c
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveVerdict implements engine.Observer.
func (c *Collector) ObserveVerdict(action ir.Action, code engine.ErrorCode, elapsed time.Duration) {
	c.verdicts.WithLabelValues(string(action), strconv.Itoa(int(code)), code.String(), string(code.Family())).Inc()
	c.duration.WithLabelValues(string(action)).Observe(elapsed.Seconds())
}

// RecordJournalWrite counts one journal entry.
func (c *Collector) RecordJournalWrite(inserted bool) {
	result := "duplicate"
	if inserted {
		result = "inserted"
	}
	c.journalWrites.WithLabelValues(result).Inc()
}

// RecordBatch records the size of a finished batch run.
func (c *Collector) RecordBatch(snapshots int) {
	c.batchSize.Observe(float64(snapshots))
}

// WriteTextfile writes the registry in the text exposition format to path,
// for the node exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
