package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RetrievalMetrics collects the retrieval engine's operational counters on a
// dedicated registry.
type RetrievalMetrics struct {
	registry *prometheus.Registry

	requestsTotal        *prometheus.CounterVec
	requestDuration      *prometheus.HistogramVec
	collectionQueries    *prometheus.CounterVec
	candidatePoolSize    prometheus.Histogram
	fusedResultSize      prometheus.Histogram
	rerankDuration       prometheus.Histogram
	attributionsTotal    prometheus.Counter
	degradedCollections  prometheus.Counter
	segmentHitsPublished prometheus.Counter
	segmentHitsApplied   prometheus.Counter
}

func NewRetrievalMetrics(service string) *RetrievalMetrics {
	registry := prometheus.NewRegistry()

	m := &RetrievalMetrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "retrieval",
				Subsystem: "engine",
				Name:      "requests_total",
				Help:      "Retrieval requests processed, by origin and status.",
				ConstLabels: prometheus.Labels{
					"service": service,
				},
			},
			[]string{"origin", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "retrieval",
				Subsystem: "engine",
				Name:      "request_duration_seconds",
				Help:      "End-to-end retrieval duration in seconds.",
				Buckets:   prometheus.DefBuckets,
				ConstLabels: prometheus.Labels{
					"service": service,
				},
			},
			[]string{"origin"},
		),
		collectionQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "retrieval",
				Subsystem: "engine",
				Name:      "collection_queries_total",
				Help:      "Per-collection retrieval dispatches.",
			},
			[]string{"collection_id"},
		),
		candidatePoolSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "retrieval",
			Subsystem: "engine",
			Name:      "candidate_pool_size",
			Help:      "Merged candidate pool size before fusion.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}),
		fusedResultSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "retrieval",
			Subsystem: "engine",
			Name:      "fused_result_size",
			Help:      "Fused result count after threshold and top-k.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		rerankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "retrieval",
			Subsystem: "engine",
			Name:      "rerank_duration_seconds",
			Help:      "Rerank model call duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
		attributionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "retrieval",
			Subsystem: "engine",
			Name:      "attributions_total",
			Help:      "Resource attributions emitted.",
		}),
		degradedCollections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "retrieval",
			Subsystem: "engine",
			Name:      "degraded_collections_total",
			Help:      "Collections that contributed zero candidates due to a failure.",
		}),
		segmentHitsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "retrieval",
			Subsystem: "telemetry",
			Name:      "segment_hits_published_total",
			Help:      "Segment hit events published to the queue.",
		}),
		segmentHitsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "retrieval",
			Subsystem: "telemetry",
			Name:      "segment_hits_applied_total",
			Help:      "Segment hit counters applied by the worker.",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.collectionQueries,
		m.candidatePoolSize,
		m.fusedResultSize,
		m.rerankDuration,
		m.attributionsTotal,
		m.degradedCollections,
		m.segmentHitsPublished,
		m.segmentHitsApplied,
	)
	return m
}

func (m *RetrievalMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *RetrievalMetrics) ObserveRequest(origin, status string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(origin, status).Inc()
	m.requestDuration.WithLabelValues(origin).Observe(duration.Seconds())
}

func (m *RetrievalMetrics) ObserveCollectionQuery(collectionID string) {
	m.collectionQueries.WithLabelValues(collectionID).Inc()
}

func (m *RetrievalMetrics) ObserveFusedResult(size int) {
	m.fusedResultSize.Observe(float64(size))
}

func (m *RetrievalMetrics) ObserveCandidatePool(size int) {
	m.candidatePoolSize.Observe(float64(size))
}

func (m *RetrievalMetrics) ObserveRerankDuration(duration time.Duration) {
	m.rerankDuration.Observe(duration.Seconds())
}

func (m *RetrievalMetrics) ObserveAttributions(count int) {
	m.attributionsTotal.Add(float64(count))
}

func (m *RetrievalMetrics) ObserveDegradedCollection() {
	m.degradedCollections.Inc()
}

func (m *RetrievalMetrics) ObserveSegmentHitsPublished(count int) {
	m.segmentHitsPublished.Add(float64(count))
}

func (m *RetrievalMetrics) ObserveSegmentHitsApplied(count int) {
	m.segmentHitsApplied.Add(float64(count))
}
