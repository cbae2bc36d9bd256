package ports

import (
	"context"

	"github.com/yz181x/dify/internal/core/domain"
)

// CollectionStore reads collection records.
type CollectionStore interface {
	FindCollection(ctx context.Context, tenantID, collectionID string) (*domain.Collection, error)
}

// SegmentStore reads and updates persisted segments.
type SegmentStore interface {
	// FindRetrievable returns segments scoped to the tenant and collections
	// whose node id is in nodeIDs and which are enabled, not archived, and
	// completed. Order is unspecified.
	FindRetrievable(ctx context.Context, tenantID string, collectionIDs, nodeIDs []string) ([]domain.Segment, error)
	// IncrementHitCounts bumps hit counters for the given node ids.
	IncrementHitCounts(ctx context.Context, nodeIDs []string) error
}

// DocumentStore reads document records for attribution.
type DocumentStore interface {
	// FindEnabledDocument returns the document only when it is enabled and
	// not archived; otherwise domain.ErrDocumentNotFound.
	FindEnabledDocument(ctx context.Context, documentID string) (*domain.Document, error)
}

// KeywordIndex is the compact in-collection keyword table.
type KeywordIndex interface {
	Search(ctx context.Context, collectionID, query string, k int) ([]domain.Candidate, error)
}

// VectorSearcher issues similarity and lexical queries against the vector store.
type VectorSearcher interface {
	SemanticSearch(ctx context.Context, collectionID, query string, vector []float32, k int, scoreThreshold *float64) ([]domain.Candidate, error)
	FullTextSearch(ctx context.Context, collectionID, query string, k int, scoreThreshold *float64) ([]domain.Candidate, error)
}

// Embedder builds a query vector for semantic search.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Reranker scores candidates against the query. It returns one scored
// candidate per input, in input order; ordering, thresholding, and truncation
// are the fusion stage's responsibility.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []domain.Candidate) ([]domain.ScoredCandidate, error)
}

// ModelGateway resolves tenant-scoped model instances. Resolution fails with
// domain.ErrModelNotConfigured when the provider has no credentials.
type ModelGateway interface {
	ResolveEmbedder(ctx context.Context, tenantID, provider, model string) (Embedder, error)
	ResolveReranker(ctx context.Context, tenantID, provider, model string) (Reranker, error)
}

// RetrievalObserver receives fire-and-forget retrieval notifications.
type RetrievalObserver interface {
	OnQuery(query, collectionID string)
	OnResult(candidates []domain.ScoredCandidate)
	OnResource(attributions []domain.ResourceAttribution)
}

// HitPublisher emits segment hit events for asynchronous accounting.
type HitPublisher interface {
	PublishSegmentHits(ctx context.Context, nodeIDs []string) error
}

// HitSubscriber consumes segment hit events in the worker.
type HitSubscriber interface {
	SubscribeSegmentHits(ctx context.Context, handler func(context.Context, []string) error) error
}
