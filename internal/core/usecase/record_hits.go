package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/yz181x/dify/internal/core/ports"
)

// RecordHitsUseCase applies segment hit events consumed by the worker. It is
// the only write path this service has against the document store.
type RecordHitsUseCase struct {
	segments ports.SegmentStore
	logger   *slog.Logger
}

func NewRecordHitsUseCase(segments ports.SegmentStore, logger *slog.Logger) *RecordHitsUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordHitsUseCase{segments: segments, logger: logger}
}

func (uc *RecordHitsUseCase) RecordHits(ctx context.Context, segmentNodeIDs []string) error {
	if len(segmentNodeIDs) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(segmentNodeIDs))
	unique := make([]string, 0, len(segmentNodeIDs))
	for _, nodeID := range segmentNodeIDs {
		if nodeID == "" {
			continue
		}
		if _, ok := seen[nodeID]; ok {
			continue
		}
		seen[nodeID] = struct{}{}
		unique = append(unique, nodeID)
	}
	if len(unique) == 0 {
		return nil
	}

	if err := uc.segments.IncrementHitCounts(ctx, unique); err != nil {
		return fmt.Errorf("increment hit counts: %w", err)
	}
	uc.logger.Debug("segment hits recorded", "segments", len(unique))
	return nil
}
