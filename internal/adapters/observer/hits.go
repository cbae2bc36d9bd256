package observer

import (
	"context"
	"log/slog"
	"time"

	"github.com/yz181x/dify/internal/core/domain"
	"github.com/yz181x/dify/internal/core/ports"
	"github.com/yz181x/dify/internal/observability/metrics"
)

const publishTimeout = 5 * time.Second

// HitObserver publishes the node ids of fused results so the worker can bump
// hit counters. Publishing happens off the request path; a failure is logged
// and dropped.
type HitObserver struct {
	publisher ports.HitPublisher
	metrics   *metrics.RetrievalMetrics
	logger    *slog.Logger
}

func NewHitObserver(publisher ports.HitPublisher, m *metrics.RetrievalMetrics, logger *slog.Logger) *HitObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &HitObserver{publisher: publisher, metrics: m, logger: logger}
}

func (o *HitObserver) OnQuery(_, _ string) {}

func (o *HitObserver) OnResult(candidates []domain.ScoredCandidate) {
	if len(candidates) == 0 {
		return
	}
	nodeIDs := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.NodeID != "" {
			nodeIDs = append(nodeIDs, candidate.NodeID)
		}
	}
	if len(nodeIDs) == 0 {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := o.publisher.PublishSegmentHits(ctx, nodeIDs); err != nil {
			o.logger.Warn("segment_hits_publish_failed", "node_count", len(nodeIDs), "error", err)
			return
		}
		if o.metrics != nil {
			o.metrics.ObserveSegmentHitsPublished(len(nodeIDs))
		}
	}()
}

func (o *HitObserver) OnResource(_ []domain.ResourceAttribution) {}
