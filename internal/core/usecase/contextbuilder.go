package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/yz181x/dify/internal/core/domain"
)

// reconstructSegments resolves the ranked candidates back to persisted
// segments and restores the rank order assigned by the fusion stage. Only
// enabled, non-archived, completed segments survive; anything else is
// silently dropped. Segments whose node id is somehow absent from the rank
// map sort last.
func (uc *RetrieveUseCase) reconstructSegments(
	ctx context.Context,
	req domain.RetrievalRequest,
	scored []domain.ScoredCandidate,
) ([]domain.Segment, error) {
	nodeIDs := make([]string, 0, len(scored))
	positionByNode := make(map[string]int, len(scored))
	for i, sc := range scored {
		nodeIDs = append(nodeIDs, sc.NodeID)
		if _, seen := positionByNode[sc.NodeID]; !seen {
			positionByNode[sc.NodeID] = i
		}
	}

	segments, err := uc.segments.FindRetrievable(ctx, req.TenantID, req.CollectionIDs, nodeIDs)
	if err != nil {
		return nil, fmt.Errorf("find segments: %w", err)
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segmentRank(positionByNode, segments[i].NodeID) < segmentRank(positionByNode, segments[j].NodeID)
	})
	return segments, nil
}

func segmentRank(positionByNode map[string]int, nodeID string) int {
	if pos, ok := positionByNode[nodeID]; ok {
		return pos
	}
	return len(positionByNode)
}
