// Package metrics provides Prometheus metrics for the acquisition pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the acquisition service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Polling - how the live source is drained
	polls          prometheus.Counter
	chunks         prometheus.Counter
	samplesPulled  prometheus.Counter
	counterResets  prometheus.Counter
	bufferedSample prometheus.Gauge

	// Phases
	phasesCompleted *prometheus.CounterVec
	phaseDuration   prometheus.Histogram
	currentPhase    prometheus.Gauge

	// Epochs
	epochsRetained     prometheus.Counter
	shortEpochs        prometheus.Counter
	degenerateChannels prometheus.Counter
	epochSamples       prometheus.Histogram

	// Dataset sink
	datasetWrites       *prometheus.CounterVec
	datasetWriteLatency prometheus.Histogram

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec

	// Process
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
	systemGCPause    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "bria",
		subsystem:        "acquisition",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	counter := func(name, help string) prometheus.Counter {
		return auto.NewCounter(prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: m.constLabels,
		})
	}

	m.polls = counter("polls_total", "Total number of buffered-count polls against the sample source")
	m.chunks = counter("chunks_total", "Total number of full windows pulled from the sample source")
	m.samplesPulled = counter("samples_pulled_total", "Total number of per-channel samples pulled from the sample source")
	m.counterResets = counter("source_counter_resets_total", "Times the source buffered count went backwards (session restarted)")
	m.epochsRetained = counter("epochs_retained_total", "Total number of epochs retained for the dataset")
	m.shortEpochs = counter("short_epochs_total", "Epochs whose data under-ran the nominal phase length")
	m.degenerateChannels = counter("degenerate_channels_total", "Constant channels zeroed during rescaling")

	m.bufferedSample = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "source_buffered_samples",
		Help:        "Last observed buffered sample count of the current capture session",
		ConstLabels: m.constLabels,
	})

	m.currentPhase = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "current_phase",
		Help:        "Index of the phase being acquired, -1 when idle",
		ConstLabels: m.constLabels,
	})
	m.currentPhase.Set(-1)

	m.phasesCompleted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "phases_completed_total",
			Help:        "Total number of phases completed by kind (rest, epoch)",
			ConstLabels: m.constLabels,
		},
		[]string{"kind"},
	)

	m.phaseDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "phase_duration_seconds",
		Help:        "Wall-clock duration of acquisition phases in seconds",
		Buckets:     []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		ConstLabels: m.constLabels,
	})

	m.epochSamples = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "epoch_samples",
		Help:        "Number of samples per retained epoch",
		Buckets:     prometheus.ExponentialBuckets(250, 2, 8),
		ConstLabels: m.constLabels,
	})

	m.datasetWrites = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "dataset_writes_total",
			Help:        "Dataset write attempts by outcome",
			ConstLabels: m.constLabels,
		},
		[]string{"outcome"},
	)

	m.datasetWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "dataset_write_latency_milliseconds",
		Help:        "Dataset write latency in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "http_request_duration_milliseconds",
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: m.constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorRateByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        "errors_by_component_total",
			Help:        "Total number of errors by component",
			ConstLabels: m.constLabels,
		},
		[]string{"component", "error_type"},
	)

	m.systemMemory = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_bytes",
		Help:        "Heap bytes allocated by the process",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutines = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutines",
		Help:        "Number of live goroutines",
		ConstLabels: m.constLabels,
	})

	m.systemGCPause = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_milliseconds",
		Help:        "Average GC pause in milliseconds",
		Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		ConstLabels: m.constLabels,
	})
}

// RecordPoll increments the poll counter and tracks the observed buffered count.
func RecordPoll(buffered int) {
	globalManager.polls.Inc()
	globalManager.bufferedSample.Set(float64(buffered))
}

// RecordChunk records a pulled window of the given per-channel length.
func RecordChunk(samples int) {
	globalManager.chunks.Inc()
	globalManager.samplesPulled.Add(float64(samples))
}

// RecordCounterReset increments the source counter reset counter.
func RecordCounterReset() {
	globalManager.counterResets.Inc()
}

// UpdateCurrentPhase sets the index of the running phase (-1 when idle).
func UpdateCurrentPhase(index int) {
	globalManager.currentPhase.Set(float64(index))
}

// RecordPhaseCompleted records a finished phase of the given kind and duration.
func RecordPhaseCompleted(kind string, seconds float64) {
	globalManager.phasesCompleted.WithLabelValues(kind).Inc()
	globalManager.phaseDuration.Observe(seconds)
}

// RecordEpochRetained records a retained epoch and its length.
func RecordEpochRetained(samples int) {
	globalManager.epochsRetained.Inc()
	globalManager.epochSamples.Observe(float64(samples))
}

// RecordShortEpoch increments the short epoch counter.
func RecordShortEpoch() {
	globalManager.shortEpochs.Inc()
}

// RecordDegenerateChannels adds n zeroed channels.
func RecordDegenerateChannels(n int) {
	globalManager.degenerateChannels.Add(float64(n))
}

// RecordDatasetWrite records a dataset write attempt.
func RecordDatasetWrite(ok bool, latencyMs float64) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	globalManager.datasetWrites.WithLabelValues(outcome).Inc()
	globalManager.datasetWriteLatency.Observe(latencyMs)
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemory.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) {
	globalManager.systemGoroutines.Set(float64(n))
}

// RecordSystemGCPauseTime records the average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	globalManager.systemGCPause.Observe(ms)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
