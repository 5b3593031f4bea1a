package translate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backend attempt metrics
	backendAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tranzlate_backend_attempts_total",
			Help: "Total number of translation attempts sent to the backend",
		},
		[]string{"engine", "status"},
	)

	backendAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tranzlate_backend_attempt_duration_seconds",
			Help:    "Duration of single backend translation attempts in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		},
		[]string{"engine", "status"},
	)

	chunkRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tranzlate_chunk_request_size_bytes",
			Help:    "Size of chunk text sent for translation in bytes",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"engine"},
	)

	chunkResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tranzlate_chunk_response_size_bytes",
			Help:    "Size of translated chunk text in bytes",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"engine"},
	)

	// Retry metrics
	chunkRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tranzlate_chunk_retries_total",
			Help: "Total number of chunk re-attempts after a failed attempt",
		},
		[]string{"engine"},
	)

	chunkFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tranzlate_chunk_failures_total",
			Help: "Total number of chunks that failed after exhausting all attempts",
		},
		[]string{"engine"},
	)

	// Dispatch metrics
	chunksInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tranzlate_chunks_in_flight",
			Help: "Number of chunks currently being translated by dispatcher workers",
		},
	)

	dispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tranzlate_dispatch_duration_seconds",
			Help:    "Time to translate and reassemble all chunks of a document",
			Buckets: []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 120.0, 300.0},
		},
		[]string{"outcome"},
	)

	// Document metrics
	documentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tranzlate_documents_total",
			Help: "Total number of pipeline invocations by source kind and outcome",
		},
		[]string{"source", "outcome"},
	)
)

// Outcome labels shared by dispatch and document metrics.
const (
	OutcomeComplete = "complete"
	OutcomePartial  = "partial"
	OutcomeError    = "error"
)

// MetricsCollector records translation metrics for one engine.
type MetricsCollector struct {
	engine string
}

// NewMetricsCollector creates a new metrics collector for an engine.
func NewMetricsCollector(engine string) *MetricsCollector {
	return &MetricsCollector{engine: engine}
}

// RecordAttempt records metrics for a single backend attempt.
func (mc *MetricsCollector) RecordAttempt(duration time.Duration, success bool, requestSize, responseSize int) {
	status := "success"
	if !success {
		status = "error"
	}

	backendAttemptsTotal.WithLabelValues(mc.engine, status).Inc()
	backendAttemptDuration.WithLabelValues(mc.engine, status).Observe(duration.Seconds())
	chunkRequestSize.WithLabelValues(mc.engine).Observe(float64(requestSize))
	if success {
		chunkResponseSize.WithLabelValues(mc.engine).Observe(float64(responseSize))
	}
}

// RecordRetry records a re-attempt of a chunk.
func (mc *MetricsCollector) RecordRetry() {
	chunkRetriesTotal.WithLabelValues(mc.engine).Inc()
}

// RecordChunkFailure records a chunk that exhausted its attempts.
func (mc *MetricsCollector) RecordChunkFailure() {
	chunkFailuresTotal.WithLabelValues(mc.engine).Inc()
}

// ChunkStarted and ChunkFinished track dispatcher worker occupancy.
func ChunkStarted()  { chunksInFlight.Inc() }
func ChunkFinished() { chunksInFlight.Dec() }

// RecordDispatch records the time taken to dispatch a whole document.
func RecordDispatch(duration time.Duration, outcome string) {
	dispatchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordDocument records a pipeline invocation.
func RecordDocument(source, outcome string) {
	documentsTotal.WithLabelValues(source, outcome).Inc()
}
