package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the aircraft and gate registries.
// Tracks accepted and rejected operations, occupancy, and broadcast latency.
type Metrics struct {
	OperationsApplied  *prometheus.CounterVec
	OperationsRejected *prometheus.CounterVec
	OccupiedSlots      prometheus.Gauge
	OccupiedGates      prometheus.Gauge
	RegistryFull       prometheus.Counter
	JournalDropped     prometheus.Counter
	BroadcastDuration  prometheus.Histogram
}

// New creates a Metrics instance with all collectors registered on reg.
// Pass prometheus.DefaultRegisterer to expose them on the default handler.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ground_ops_operations_applied_total",
			Help: "Registry operations that changed state",
		}, []string{"registry", "kind"}),
		OperationsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ground_ops_operations_rejected_total",
			Help: "Registry operations ignored because the current state did not allow them",
		}, []string{"registry", "operation"}),
		OccupiedSlots: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ground_ops_aircraft_slots_occupied",
			Help: "Aircraft slots not in the FREE state",
		}),
		OccupiedGates: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ground_ops_gates_in_use",
			Help: "Gates that are reserved or occupied",
		}),
		RegistryFull: factory.NewCounter(prometheus.CounterOpts{
			Name: "ground_ops_registry_full_total",
			Help: "Detections refused because no aircraft slot was free",
		}),
		JournalDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "ground_ops_journal_dropped_total",
			Help: "Changes not journaled because the collector queue was full",
		}),
		BroadcastDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ground_ops_broadcast_duration_seconds",
			Help:    "Time spent delivering a change to all subscribers",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
	}
}

// ObserveApplied records an accepted operation.
// Safe to call on a nil receiver so metrics stay optional.
func (m *Metrics) ObserveApplied(registry, kind string) {
	if m == nil {
		return
	}
	m.OperationsApplied.WithLabelValues(registry, kind).Inc()
}

// ObserveRejected records an operation that was a no-op
func (m *Metrics) ObserveRejected(registry, operation string) {
	if m == nil {
		return
	}
	m.OperationsRejected.WithLabelValues(registry, operation).Inc()
}

// SetOccupiedSlots updates the occupied aircraft slot gauge
func (m *Metrics) SetOccupiedSlots(n int) {
	if m == nil {
		return
	}
	m.OccupiedSlots.Set(float64(n))
}

// SetOccupiedGates updates the in-use gate gauge
func (m *Metrics) SetOccupiedGates(n int) {
	if m == nil {
		return
	}
	m.OccupiedGates.Set(float64(n))
}

// IncrementRegistryFull records a refused detection
func (m *Metrics) IncrementRegistryFull() {
	if m == nil {
		return
	}
	m.RegistryFull.Inc()
}

// IncrementJournalDropped records a change that never reached the journal
func (m *Metrics) IncrementJournalDropped() {
	if m == nil {
		return
	}
	m.JournalDropped.Inc()
}

// ObserveBroadcast records the duration of a fan-out.
// Call with time.Now() taken before the fan-out started.
func (m *Metrics) ObserveBroadcast(start time.Time) {
	if m == nil {
		return
	}
	m.BroadcastDuration.Observe(time.Since(start).Seconds())
}
