package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures metrics collection.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	Enabled bool

	// Namespace is the metrics namespace prefix.
	Namespace string
}

// Metrics provides Prometheus metrics for the garage. The zero-value metrics
// produced by a disabled config are safe no-ops.
type Metrics struct {
	config MetricsConfig

	// Car metrics
	carStarts   *prometheus.CounterVec
	carStops    *prometheus.CounterVec
	engineSwaps *prometheus.CounterVec

	// Bay metrics
	baysCreated           prometheus.Counter
	journalEntriesTrimmed prometheus.Counter
	activeBays            prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace

	// Create a new registry
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		// Car metrics
		carStarts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "car_starts_total",
				Help:      "Total number of car starts",
			},
			[]string{"engine"},
		),
		carStops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "car_stops_total",
				Help:      "Total number of car stops",
			},
			[]string{"engine"},
		),
		engineSwaps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "engine_swaps_total",
				Help:      "Total number of engine swaps",
			},
			[]string{"from", "to"},
		),

		// Bay metrics
		baysCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bays_created_total",
				Help:      "Total number of bays created",
			},
		),
		journalEntriesTrimmed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "journal_entries_trimmed_total",
				Help:      "Total number of journal entries removed by maintenance",
			},
		),
		activeBays: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_bays",
				Help:      "Current number of bays in the garage",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.carStarts,
		m.carStops,
		m.engineSwaps,
		m.baysCreated,
		m.journalEntriesTrimmed,
		m.activeBays,
	)

	return m, nil
}

// Car Metrics

// RecordCarStart increments the start counter for an engine type.
func (m *Metrics) RecordCarStart(engineType string) {
	if m.carStarts == nil {
		return
	}
	m.carStarts.WithLabelValues(engineType).Inc()
}

// RecordCarStop increments the stop counter for an engine type.
func (m *Metrics) RecordCarStop(engineType string) {
	if m.carStops == nil {
		return
	}
	m.carStops.WithLabelValues(engineType).Inc()
}

// RecordEngineSwap records an engine swap by the outgoing and incoming types.
func (m *Metrics) RecordEngineSwap(oldType, newType string) {
	if m.engineSwaps == nil {
		return
	}
	m.engineSwaps.WithLabelValues(oldType, newType).Inc()
}

// Bay Metrics

// RecordBayCreated increments the counter for created bays.
func (m *Metrics) RecordBayCreated() {
	if m.baysCreated == nil {
		return
	}
	m.baysCreated.Inc()
}

// RecordJournalTrimmed adds the number of journal entries removed by a
// maintenance pass.
func (m *Metrics) RecordJournalTrimmed(count int64) {
	if m.journalEntriesTrimmed == nil {
		return
	}
	m.journalEntriesTrimmed.Add(float64(count))
}

// SetActiveBays sets the current number of bays.
func (m *Metrics) SetActiveBays(count float64) {
	if m.activeBays == nil {
		return
	}
	m.activeBays.Set(count)
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
