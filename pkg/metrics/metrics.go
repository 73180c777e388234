// Package metrics provides Prometheus metrics for the tourpoule scoring pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager holds all Prometheus metrics for one pipeline process.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	// Pipeline progress
	stagesProcessed prometheus.Counter
	stagesSkipped   prometheus.Counter

	// Scoring quality
	malformedRecords *prometheus.CounterVec
	substitutions    prometheus.Counter

	// Current state of the standings
	ridersTracked       prometheus.Gauge
	participantsTracked prometheus.Gauge
	leaderboardSize     prometheus.Gauge

	// Timings
	stageDuration  prometheus.Histogram
	exportDuration prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// init sets up the global manager on a private registry so the default Go
// collectors do not leak into the pipeline's metric set.
func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager()
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tourpoule",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.stagesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stages_processed_total",
		Help:      "Total number of stages fully processed",
	})

	m.stagesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stages_skipped_total",
		Help:      "Total number of stages skipped because their result data was missing or unreadable",
	})

	m.malformedRecords = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "malformed_records_total",
		Help:      "Total number of input records coerced to safe defaults, by component",
	}, []string{"component"})

	m.substitutions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "substitutions_total",
		Help:      "Total number of reserve-rider substitutions applied",
	})

	m.ridersTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "riders_tracked",
		Help:      "Number of riders with a scoring history",
	})

	m.participantsTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "participants_tracked",
		Help:      "Number of participants in the standings",
	})

	m.leaderboardSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_size",
		Help:      "Number of entries on the most recent leaderboard",
	})

	m.stageDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stage_processing_seconds",
		Help:      "Histogram of per-stage processing time in seconds",
		Buckets:   m.histogramBuckets,
	})

	m.exportDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "export_seconds",
		Help:      "Histogram of export/persistence time in seconds",
		Buckets:   m.histogramBuckets,
	})
}

// Handler returns an HTTP handler exposing the manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package-level helpers operating on the global manager.

// RecordStageProcessed increments the processed-stage counter.
func RecordStageProcessed() { globalManager.stagesProcessed.Inc() }

// RecordStageSkipped increments the skipped-stage counter.
func RecordStageSkipped() { globalManager.stagesSkipped.Inc() }

// RecordMalformedRecord counts an input record that was coerced to a safe default.
func RecordMalformedRecord(component string) {
	globalManager.malformedRecords.WithLabelValues(component).Inc()
}

// RecordSubstitution counts an applied reserve-rider substitution.
func RecordSubstitution() { globalManager.substitutions.Inc() }

// UpdateRidersTracked sets the rider-history gauge.
func UpdateRidersTracked(n int) { globalManager.ridersTracked.Set(float64(n)) }

// UpdateParticipantsTracked sets the participant gauge.
func UpdateParticipantsTracked(n int) { globalManager.participantsTracked.Set(float64(n)) }

// UpdateLeaderboardSize sets the leaderboard-size gauge.
func UpdateLeaderboardSize(n int) { globalManager.leaderboardSize.Set(float64(n)) }

// ObserveStageDuration records a per-stage processing time in seconds.
func ObserveStageDuration(seconds float64) { globalManager.stageDuration.Observe(seconds) }

// ObserveExportDuration records an export time in seconds.
func ObserveExportDuration(seconds float64) { globalManager.exportDuration.Observe(seconds) }

// Handler exposes the global registry over HTTP.
func Handler() http.Handler { return globalManager.Handler() }
