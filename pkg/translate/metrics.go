package translate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Chunk request metrics
	chunkRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lengua_translation_chunk_requests_total",
			Help: "Total number of chunk translation calls, including retries",
		},
		[]string{"engine", "status"},
	)

	chunkRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lengua_translation_chunk_duration_seconds",
			Help:    "Duration of chunk translation calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		},
		[]string{"engine", "status"},
	)

	chunkRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lengua_translation_chunk_size_bytes",
			Help:    "Size of chunks sent for translation in bytes",
			Buckets: []float64{100, 1000, 5000, 10000, 25000, 50000, 80000},
		},
		[]string{"engine"},
	)

	chunkFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lengua_translation_chunk_fallbacks_total",
			Help: "Chunks served untranslated after all attempts failed",
		},
		[]string{"engine", "locale"},
	)

	// Document metrics
	documentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lengua_translation_documents_total",
			Help: "Documents processed by the pipeline by diagnostic outcome",
		},
		[]string{"locale", "diagnostic"},
	)

	documentChunks = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lengua_translation_document_chunks",
			Help:    "Number of chunks per translated document",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		},
		[]string{"locale"},
	)
)

// MetricsCollector records pipeline metrics for one engine.
type MetricsCollector struct {
	engine string
}

// NewMetricsCollector creates a new metrics collector for an engine.
func NewMetricsCollector(engine string) *MetricsCollector {
	return &MetricsCollector{engine: engine}
}

// RecordChunkRequest records one chunk call attempt.
func (mc *MetricsCollector) RecordChunkRequest(duration time.Duration, success bool, size int) {
	status := "success"
	if !success {
		status = "error"
	}

	chunkRequestsTotal.WithLabelValues(mc.engine, status).Inc()
	chunkRequestDuration.WithLabelValues(mc.engine, status).Observe(duration.Seconds())
	chunkRequestSize.WithLabelValues(mc.engine).Observe(float64(size))
}

// RecordFallback records a chunk that kept its original text.
func (mc *MetricsCollector) RecordFallback(locale string) {
	chunkFallbacksTotal.WithLabelValues(mc.engine, locale).Inc()
}

// RecordDocument records the outcome of a whole document.
func (mc *MetricsCollector) RecordDocument(locale, diagnostic string, chunks int) {
	documentsTotal.WithLabelValues(locale, diagnostic).Inc()
	if chunks > 0 {
		documentChunks.WithLabelValues(locale).Observe(float64(chunks))
	}
}
