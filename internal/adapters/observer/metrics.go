package observer

import (
	"github.com/yz181x/dify/internal/core/domain"
	"github.com/yz181x/dify/internal/observability/metrics"
)

// MetricsObserver mirrors retrieval notifications into prometheus counters.
type MetricsObserver struct {
	metrics *metrics.RetrievalMetrics
}

func NewMetricsObserver(m *metrics.RetrievalMetrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) OnQuery(_, collectionID string) {
	o.metrics.ObserveCollectionQuery(collectionID)
}

func (o *MetricsObserver) OnResult(candidates []domain.ScoredCandidate) {
	o.metrics.ObserveFusedResult(len(candidates))
}

func (o *MetricsObserver) OnResource(attributions []domain.ResourceAttribution) {
	o.metrics.ObserveAttributions(len(attributions))
}
