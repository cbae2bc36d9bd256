package usecase

import (
	"context"
	"sync"

	"github.com/yz181x/dify/internal/core/domain"
	"github.com/yz181x/dify/internal/core/ports"
)

type collectionStoreFake struct {
	mu          sync.Mutex
	collections map[string]*domain.Collection
	err         error
	lookups     []string
}

func (f *collectionStoreFake) FindCollection(_ context.Context, _, collectionID string) (*domain.Collection, error) {
	f.mu.Lock()
	f.lookups = append(f.lookups, collectionID)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	collection, ok := f.collections[collectionID]
	if !ok {
		return nil, domain.WrapError(domain.ErrCollectionNotFound, "find collection", domain.ErrCollectionNotFound)
	}
	return collection, nil
}

type segmentStoreFake struct {
	segments   []domain.Segment
	err        error
	gotNodeIDs []string
	hitNodeIDs []string
	hitErr     error
}

func (f *segmentStoreFake) FindRetrievable(_ context.Context, _ string, _, nodeIDs []string) ([]domain.Segment, error) {
	f.gotNodeIDs = nodeIDs
	if f.err != nil {
		return nil, f.err
	}
	return f.segments, nil
}

func (f *segmentStoreFake) IncrementHitCounts(_ context.Context, nodeIDs []string) error {
	f.hitNodeIDs = nodeIDs
	return f.hitErr
}

type documentStoreFake struct {
	documents map[string]*domain.Document
}

func (f *documentStoreFake) FindEnabledDocument(_ context.Context, documentID string) (*domain.Document, error) {
	document, ok := f.documents[documentID]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "find document", domain.ErrDocumentNotFound)
	}
	return document, nil
}

type keywordIndexFake struct {
	mu         sync.Mutex
	candidates []domain.Candidate
	err        error
	calls      int
	gotQuery   string
	gotK       int
}

func (f *keywordIndexFake) Search(_ context.Context, _ string, query string, k int) ([]domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotQuery = query
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.candidates, nil
}

type vectorSearcherFake struct {
	mu            sync.Mutex
	semantic      map[string][]domain.Candidate
	fullText      map[string][]domain.Candidate
	semanticErr   error
	fullTextErr   error
	semanticCalls int
	fullTextCalls int
}

func (f *vectorSearcherFake) SemanticSearch(_ context.Context, collectionID, _ string, _ []float32, _ int, _ *float64) ([]domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.semanticCalls++
	if f.semanticErr != nil {
		return nil, f.semanticErr
	}
	return f.semantic[collectionID], nil
}

func (f *vectorSearcherFake) FullTextSearch(_ context.Context, collectionID, _ string, _ int, _ *float64) ([]domain.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fullTextCalls++
	if f.fullTextErr != nil {
		return nil, f.fullTextErr
	}
	return f.fullText[collectionID], nil
}

type embedderFake struct {
	err error
}

func (f *embedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

// rerankerFake scores candidates from a fixed node-id score table, returning
// them in input order as the port requires.
type rerankerFake struct {
	mu     sync.Mutex
	scores map[string]float64
	err    error
	calls  int
	gotLen int
}

func (f *rerankerFake) Rerank(_ context.Context, _ string, candidates []domain.Candidate) ([]domain.ScoredCandidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotLen = len(candidates)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		out = append(out, domain.ScoredCandidate{
			Candidate:  candidate,
			FusedScore: f.scores[candidate.NodeID],
		})
	}
	return out, nil
}

type modelGatewayFake struct {
	embedder    ports.Embedder
	embedderErr error
	reranker    ports.Reranker
	rerankerErr error
}

func (f *modelGatewayFake) ResolveEmbedder(context.Context, string, string, string) (ports.Embedder, error) {
	if f.embedderErr != nil {
		return nil, f.embedderErr
	}
	return f.embedder, nil
}

func (f *modelGatewayFake) ResolveReranker(context.Context, string, string, string) (ports.Reranker, error) {
	if f.rerankerErr != nil {
		return nil, f.rerankerErr
	}
	return f.reranker, nil
}

type observerFake struct {
	mu        sync.Mutex
	queries   []string
	results   [][]domain.ScoredCandidate
	resources [][]domain.ResourceAttribution
}

func (f *observerFake) OnQuery(query, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
}

func (f *observerFake) OnResult(candidates []domain.ScoredCandidate) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, candidates)
}

func (f *observerFake) OnResource(attributions []domain.ResourceAttribution) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resources = append(f.resources, attributions)
}
