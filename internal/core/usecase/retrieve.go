package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/yz181x/dify/internal/core/domain"
	"github.com/yz181x/dify/internal/core/ports"
)

// RetrieveUseCase orchestrates multi-collection retrieval: fan-out across
// collections, rerank fusion of the merged candidate pool, and reconstruction
// of the ordered context from persisted segments.
type RetrieveUseCase struct {
	collections ports.CollectionStore
	segments    ports.SegmentStore
	documents   ports.DocumentStore
	keyword     ports.KeywordIndex
	vector      ports.VectorSearcher
	models      ports.ModelGateway
	observers   []ports.RetrievalObserver
	logger      *slog.Logger
}

func NewRetrieveUseCase(
	collections ports.CollectionStore,
	segments ports.SegmentStore,
	documents ports.DocumentStore,
	keyword ports.KeywordIndex,
	vector ports.VectorSearcher,
	models ports.ModelGateway,
	logger *slog.Logger,
	observers ...ports.RetrievalObserver,
) *RetrieveUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetrieveUseCase{
		collections: collections,
		segments:    segments,
		documents:   documents,
		keyword:     keyword,
		vector:      vector,
		models:      models,
		observers:   observers,
		logger:      logger,
	}
}

func (uc *RetrieveUseCase) Retrieve(
	ctx context.Context,
	req domain.RetrievalRequest,
	observers ...ports.RetrievalObserver,
) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}

	all := make([]ports.RetrievalObserver, 0, len(uc.observers)+len(observers))
	all = append(all, uc.observers...)
	all = append(all, observers...)

	pool := uc.dispatch(ctx, req, all)

	scored, err := uc.fusePool(ctx, req, pool)
	if err != nil {
		return "", err
	}

	for _, obs := range all {
		obs.OnResult(scored)
	}

	if len(scored) == 0 {
		return "", nil
	}

	sortedSegments, err := uc.reconstructSegments(ctx, req, scored)
	if err != nil {
		return "", err
	}

	if req.ReturnResource {
		attributions := uc.buildAttributions(ctx, req, sortedSegments, scored)
		for _, obs := range all {
			obs.OnResource(attributions)
		}
	}

	return formatContext(sortedSegments), nil
}

// dispatch launches one retriever goroutine per requested collection and
// concatenates their batches after the join. Each goroutine writes only its
// own slot, so the pool is assembled without shared mutable state.
func (uc *RetrieveUseCase) dispatch(
	ctx context.Context,
	req domain.RetrievalRequest,
	observers []ports.RetrievalObserver,
) []domain.Candidate {
	batches := make([][]domain.Candidate, len(req.CollectionIDs))

	g, gctx := errgroup.WithContext(ctx)
	for i, collectionID := range req.CollectionIDs {
		g.Go(func() error {
			batches[i] = uc.retrieveFromCollection(gctx, req, collectionID, observers)
			return nil
		})
	}
	// Per-collection failures are absorbed inside retrieveFromCollection.
	_ = g.Wait()

	total := 0
	for _, batch := range batches {
		total += len(batch)
	}
	pool := make([]domain.Candidate, 0, total)
	for _, batch := range batches {
		pool = append(pool, batch...)
	}
	return pool
}

func validateRequest(req domain.RetrievalRequest) error {
	if strings.TrimSpace(req.TenantID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "retrieve", fmt.Errorf("tenant_id is required"))
	}
	if strings.TrimSpace(req.Query) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "retrieve", fmt.Errorf("query is required"))
	}
	if req.TopK < 0 {
		return domain.WrapError(domain.ErrInvalidInput, "retrieve", fmt.Errorf("top_k must be >= 0, got %d", req.TopK))
	}
	if req.ScoreThreshold != nil && (*req.ScoreThreshold < 0 || *req.ScoreThreshold > 1) {
		return domain.WrapError(domain.ErrInvalidInput, "retrieve",
			fmt.Errorf("score_threshold must be within [0,1], got %v", *req.ScoreThreshold))
	}
	return nil
}

func formatContext(segments []domain.Segment) string {
	if len(segments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(segments))
	for i := range segments {
		parts = append(parts, segments[i].FormatContext())
	}
	return strings.Join(parts, "\n")
}
