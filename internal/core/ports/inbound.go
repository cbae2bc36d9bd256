package ports

import (
	"context"

	"github.com/yz181x/dify/internal/core/domain"
)

// ContextRetriever is the inbound contract for multi-collection retrieval.
// It returns the formatted context string; resource attributions, when
// requested, are delivered through the registered observers.
type ContextRetriever interface {
	Retrieve(ctx context.Context, req domain.RetrievalRequest, observers ...RetrievalObserver) (string, error)
}

// SegmentHitRecorder is the inbound contract of the telemetry worker.
type SegmentHitRecorder interface {
	RecordHits(ctx context.Context, segmentNodeIDs []string) error
}
