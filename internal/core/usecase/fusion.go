package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/yz181x/dify/internal/core/domain"
)

// fusePool runs the shared rerank fusion stage over the merged candidate
// pool. Unlike per-collection failures, a fusion failure aborts the request:
// it is the single step every collection's results flow through.
func (uc *RetrieveUseCase) fusePool(
	ctx context.Context,
	req domain.RetrievalRequest,
	pool []domain.Candidate,
) ([]domain.ScoredCandidate, error) {
	// Nothing to score, and no external call to waste.
	if req.TopK == 0 || len(pool) == 0 {
		return nil, nil
	}

	reranker, err := uc.models.ResolveReranker(ctx, req.TenantID, req.RerankingProvider, req.RerankingModel)
	if err != nil {
		return nil, fmt.Errorf("resolve rerank model: %w", err)
	}

	scored, err := reranker.Rerank(ctx, req.Query, pool)
	if err != nil {
		return nil, fmt.Errorf("rerank candidates: %w", err)
	}

	return applyFusionOrder(scored, req.ScoreThreshold, req.TopK), nil
}

// applyFusionOrder sorts scored candidates by descending fused score (stable,
// so pool order breaks ties), drops entries below the threshold when one is
// set, and truncates to topK. topK <= 0 means no truncation.
func applyFusionOrder(scored []domain.ScoredCandidate, scoreThreshold *float64, topK int) []domain.ScoredCandidate {
	out := make([]domain.ScoredCandidate, len(scored))
	copy(out, scored)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FusedScore > out[j].FusedScore
	})

	if scoreThreshold != nil {
		filtered := out[:0]
		for _, sc := range out {
			if sc.FusedScore >= *scoreThreshold {
				filtered = append(filtered, sc)
			}
		}
		out = filtered
	}

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}
