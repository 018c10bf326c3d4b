package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters for inventory reconciliation and the bulk
// content workflow.
type Metrics struct {
	eventsReceived     *prometheus.CounterVec
	eventsUnresolved   prometheus.Counter
	staleDropped       prometheus.Counter
	pendingProducts    prometheus.Gauge
	reconciliations    *prometheus.CounterVec
	reconcileDuration  prometheus.Histogram
	generationAttempts *prometheus.CounterVec
	bulkItems          *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the collectors on registerer. Tests pass a
// private registry.
func NewWithRegisterer(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		eventsReceived: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_inventory_events_total",
			Help: "Inventory events received, by source",
		}, []string{"source"})),
		eventsUnresolved: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalogsync_inventory_events_unresolved_total",
			Help: "Inventory events that did not resolve to a product",
		})),
		staleDropped: register(registerer, prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalogsync_inventory_snapshots_stale_total",
			Help: "Inventory snapshots dropped because a newer one was pending",
		})),
		pendingProducts: register(registerer, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalogsync_reconciliations_pending",
			Help: "Products waiting for their debounce window to expire",
		})),
		reconciliations: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_reconciliations_total",
			Help: "Applied publish/hide decisions, by status and result",
		}, []string{"status", "result"})),
		reconcileDuration: register(registerer, prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "catalogsync_reconciliation_duration_seconds",
			Help:    "Duration of status updates sent to the storefront",
			Buckets: prometheus.DefBuckets,
		})),
		generationAttempts: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_bulk_generations_total",
			Help: "Content generations in the bulk workflow, by result",
		}, []string{"result"})),
		bulkItems: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "catalogsync_bulk_apply_total",
			Help: "Products and images applied by the bulk workflow, by kind and result",
		}, []string{"kind", "result"})),
	}
}

func register[T prometheus.Collector](registerer prometheus.Registerer, collector T) T {
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(T)
			if !ok {
				panic(fmt.Sprintf("collector already registered with unexpected type: %v", err))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector: %v", err))
	}
	return collector
}

func (m *Metrics) EventReceived(source string) {
	if m == nil {
		return
	}
	m.eventsReceived.WithLabelValues(source).Inc()
}

func (m *Metrics) EventUnresolved() {
	if m == nil {
		return
	}
	m.eventsUnresolved.Inc()
}

func (m *Metrics) StaleDropped() {
	if m == nil {
		return
	}
	m.staleDropped.Inc()
}

func (m *Metrics) PendingChanged(delta float64) {
	if m == nil {
		return
	}
	m.pendingProducts.Add(delta)
}

// ReconciliationApplied records one status update and its latency.
func (m *Metrics) ReconciliationApplied(status string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(status, result(err)).Inc()
	m.reconcileDuration.Observe(duration.Seconds())
}

func (m *Metrics) GenerationFinished(err error) {
	if m == nil {
		return
	}
	m.generationAttempts.WithLabelValues(result(err)).Inc()
}

// BulkApplied records one applied product or image ("product", "image").
func (m *Metrics) BulkApplied(kind string, err error) {
	if m == nil {
		return
	}
	m.bulkItems.WithLabelValues(kind, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
