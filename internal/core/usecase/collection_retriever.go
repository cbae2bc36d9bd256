package usecase

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/yz181x/dify/internal/core/domain"
	"github.com/yz181x/dify/internal/core/ports"
)

// retrieveFromCollection produces one collection's contribution to the
// candidate pool. Every failure here is collection-local: missing records,
// unconfigured providers, and unreachable backends all map to an empty batch
// so sibling collections are never affected.
func (uc *RetrieveUseCase) retrieveFromCollection(
	ctx context.Context,
	req domain.RetrievalRequest,
	collectionID string,
	observers []ports.RetrievalObserver,
) []domain.Candidate {
	collection, err := uc.collections.FindCollection(ctx, req.TenantID, collectionID)
	if err != nil {
		if !domain.IsKind(err, domain.ErrCollectionNotFound) {
			uc.logger.Warn("collection lookup failed", "collection_id", collectionID, "error", err)
		}
		return nil
	}

	for _, obs := range observers {
		obs.OnQuery(req.Query, collection.ID)
	}

	switch collection.IndexingTechnique {
	case domain.IndexingEconomy:
		return uc.keywordRetrieve(ctx, req, collection)
	default:
		return uc.vectorRetrieve(ctx, req, collection)
	}
}

func (uc *RetrieveUseCase) keywordRetrieve(
	ctx context.Context,
	req domain.RetrievalRequest,
	collection *domain.Collection,
) []domain.Candidate {
	candidates, err := uc.keyword.Search(ctx, collection.ID, req.Query, req.TopK)
	if err != nil {
		uc.logger.Warn("keyword search failed",
			"collection_id", collection.ID, "error", err)
		return nil
	}
	return candidates
}

// vectorRetrieve dispatches the semantic and/or full-text legs for a
// vector-indexed collection, concurrently when the method is hybrid, and
// merges their batches after the join.
func (uc *RetrieveUseCase) vectorRetrieve(
	ctx context.Context,
	req domain.RetrievalRequest,
	collection *domain.Collection,
) []domain.Candidate {
	if req.TopK <= 0 {
		return nil
	}

	embedder, err := uc.models.ResolveEmbedder(ctx, req.TenantID, collection.EmbeddingProvider, collection.EmbeddingModel)
	if err != nil {
		uc.logger.Warn("embedding model unavailable, skipping collection",
			"collection_id", collection.ID,
			"provider", collection.EmbeddingProvider,
			"model", collection.EmbeddingModel,
			"error", err)
		return nil
	}

	cfg := collection.RetrievalModel()

	var semanticBatch, fullTextBatch []domain.Candidate
	g, gctx := errgroup.WithContext(ctx)

	if cfg.SearchMethod == domain.SearchMethodSemantic || cfg.SearchMethod == domain.SearchMethodHybrid {
		g.Go(func() error {
			semanticBatch = uc.semanticLeg(gctx, req, collection, cfg, embedder)
			return nil
		})
	}
	if cfg.SearchMethod == domain.SearchMethodFullText || cfg.SearchMethod == domain.SearchMethodHybrid {
		g.Go(func() error {
			fullTextBatch = uc.fullTextLeg(gctx, req, collection, cfg)
			return nil
		})
	}
	// Leg failures are absorbed inside each leg.
	_ = g.Wait()

	merged := make([]domain.Candidate, 0, len(semanticBatch)+len(fullTextBatch))
	merged = append(merged, semanticBatch...)
	merged = append(merged, fullTextBatch...)
	return merged
}

// semanticLeg runs the vector-similarity query. The request-level score
// threshold applies here; the collection threshold governs the full-text leg.
func (uc *RetrieveUseCase) semanticLeg(
	ctx context.Context,
	req domain.RetrievalRequest,
	collection *domain.Collection,
	cfg domain.RetrievalConfig,
	embedder ports.Embedder,
) []domain.Candidate {
	queryVector, err := embedder.EmbedQuery(ctx, req.Query)
	if err != nil {
		uc.logger.Warn("query embedding failed",
			"collection_id", collection.ID, "error", err)
		return nil
	}

	candidates, err := uc.vector.SemanticSearch(ctx, collection.ID, req.Query, queryVector, req.TopK, req.ScoreThreshold)
	if err != nil {
		uc.logger.Warn("semantic search failed",
			"collection_id", collection.ID, "error", err)
		return nil
	}

	if cfg.SearchMethod == domain.SearchMethodSemantic && cfg.RerankingEnable {
		return uc.legRerank(ctx, req, collection, cfg, candidates, req.ScoreThreshold)
	}
	return candidates
}

func (uc *RetrieveUseCase) fullTextLeg(
	ctx context.Context,
	req domain.RetrievalRequest,
	collection *domain.Collection,
	cfg domain.RetrievalConfig,
) []domain.Candidate {
	candidates, err := uc.vector.FullTextSearch(ctx, collection.ID, req.Query, req.TopK, cfg.EffectiveScoreThreshold())
	if err != nil {
		uc.logger.Warn("full text search failed",
			"collection_id", collection.ID, "error", err)
		return nil
	}

	if cfg.SearchMethod == domain.SearchMethodFullText && cfg.RerankingEnable {
		return uc.legRerank(ctx, req, collection, cfg, candidates, cfg.EffectiveScoreThreshold())
	}
	return candidates
}

// legRerank applies a collection-configured rerank pass over one search leg.
// Hybrid collections skip this: their reranking happens once, in the shared
// fusion stage. A failed leg rerank drops the leg's results.
func (uc *RetrieveUseCase) legRerank(
	ctx context.Context,
	req domain.RetrievalRequest,
	collection *domain.Collection,
	cfg domain.RetrievalConfig,
	candidates []domain.Candidate,
	scoreThreshold *float64,
) []domain.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	reranker, err := uc.models.ResolveReranker(ctx, req.TenantID, cfg.RerankingProvider, cfg.RerankingModel)
	if err != nil {
		uc.logger.Warn("leg rerank model unavailable",
			"collection_id", collection.ID,
			"provider", cfg.RerankingProvider,
			"error", err)
		return nil
	}

	scored, err := reranker.Rerank(ctx, req.Query, candidates)
	if err != nil {
		uc.logger.Warn("leg rerank failed",
			"collection_id", collection.ID, "error", err)
		return nil
	}

	ordered := applyFusionOrder(scored, scoreThreshold, len(scored))
	out := make([]domain.Candidate, 0, len(ordered))
	for _, sc := range ordered {
		candidate := sc.Candidate
		score := sc.FusedScore
		candidate.Score = &score
		out = append(out, candidate)
	}
	return out
}
