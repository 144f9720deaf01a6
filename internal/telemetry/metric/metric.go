package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chanstore"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds all chanstore collectors.
type Metrics struct {
	WritesTotal      *prometheus.CounterVec
	WriteDuration    prometheus.Histogram
	RecordsDeleted   prometheus.Counter
	RecordsAppended  prometheus.Counter
	LoadsTotal       prometheus.Counter
	LoadFallbacks    prometheus.Counter
	SnapshotBytes    prometheus.Gauge
	ProviderRequests *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
// A nil reg creates unregistered collectors.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WritesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "writes_total",
			Help:      "Full snapshot writes by result",
		}, []string{"result"}),
		WriteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "write_duration_seconds",
			Help:      "Latency of the delete-then-append write sequence",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		RecordsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records_deleted_total",
			Help:      "Channel records deleted by writes",
		}),
		RecordsAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records_appended_total",
			Help:      "Snapshot chunks appended by writes",
		}),
		LoadsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "loads_total",
			Help:      "Snapshot loads",
		}),
		LoadFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "load_fallbacks_total",
			Help:      "Loads that discarded unreadable channel state and started empty",
		}),
		SnapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "snapshot_bytes",
			Help:      "Size of the last written or loaded snapshot text",
		}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Channel provider calls by operation and result",
		}, []string{"op", "result"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.WritesTotal,
			m.WriteDuration,
			m.RecordsDeleted,
			m.RecordsAppended,
			m.LoadsTotal,
			m.LoadFallbacks,
			m.SnapshotBytes,
			m.ProviderRequests,
		)
	}
	return m
}

// ObserveWrite records one write attempt.
func (m *Metrics) ObserveWrite(elapsed time.Duration, deleted, appended, snapshotBytes int, err error) {
	if m == nil {
		return
	}
	m.WriteDuration.Observe(elapsed.Seconds())
	m.RecordsDeleted.Add(float64(deleted))
	m.RecordsAppended.Add(float64(appended))
	if err != nil {
		m.WritesTotal.WithLabelValues(ResultError).Inc()
		return
	}
	m.WritesTotal.WithLabelValues(ResultOK).Inc()
	m.SnapshotBytes.Set(float64(snapshotBytes))
}

// ObserveLoad records one snapshot load.
func (m *Metrics) ObserveLoad(snapshotBytes int, fallback bool) {
	if m == nil {
		return
	}
	m.LoadsTotal.Inc()
	if fallback {
		m.LoadFallbacks.Inc()
		return
	}
	m.SnapshotBytes.Set(float64(snapshotBytes))
}

// ObserveProvider records one provider call.
func (m *Metrics) ObserveProvider(op string, err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.ProviderRequests.WithLabelValues(op, result).Inc()
}
