package domain

// SearchMethod selects which retrieval legs run for a vector-indexed collection.
type SearchMethod string

const (
	SearchMethodSemantic SearchMethod = "semantic_search"
	SearchMethodFullText SearchMethod = "full_text_search"
	SearchMethodHybrid   SearchMethod = "hybrid_search"
)

// RetrieverOriginDev enables verbose diagnostics on resource attributions.
const RetrieverOriginDev = "dev"

// RetrievalRequest is the inbound contract of one retrieval query.
type RetrievalRequest struct {
	TenantID          string   `json:"tenant_id"`
	CollectionIDs     []string `json:"collection_ids"`
	Query             string   `json:"query"`
	TopK              int      `json:"top_k"`
	ScoreThreshold    *float64 `json:"score_threshold,omitempty"`
	RerankingProvider string   `json:"reranking_provider"`
	RerankingModel    string   `json:"reranking_model"`
	ReturnResource    bool     `json:"return_resource"`
	RetrieverOrigin   string   `json:"retriever_origin"`
}

// Candidate is a retrieved passage reference prior to fusion scoring.
// NodeID resolves back to a persisted segment; candidates from different
// collections are structurally identical and freely mergeable.
type Candidate struct {
	NodeID       string   `json:"node_id"`
	Text         string   `json:"text"`
	CollectionID string   `json:"collection_id"`
	Score        *float64 `json:"score,omitempty"`
}

// ScoredCandidate is a Candidate carrying the fused relevance score assigned
// by the rerank stage.
type ScoredCandidate struct {
	Candidate
	FusedScore float64 `json:"fused_score"`
}

// ResourceAttribution is citation metadata describing where one piece of
// returned context originated. Positions are 1-based and contiguous.
type ResourceAttribution struct {
	Position       int      `json:"position"`
	CollectionID   string   `json:"collection_id"`
	CollectionName string   `json:"collection_name"`
	DocumentID     string   `json:"document_id"`
	DocumentName   string   `json:"document_name"`
	DataSourceType string   `json:"data_source_type"`
	SegmentID      string   `json:"segment_id"`
	RetrieverFrom  string   `json:"retriever_from"`
	Score          *float64 `json:"score"`
	Content        string   `json:"content"`

	// Diagnostics, populated only for the dev retriever origin.
	HitCount        *int64  `json:"hit_count,omitempty"`
	WordCount       *int    `json:"word_count,omitempty"`
	SegmentPosition *int    `json:"segment_position,omitempty"`
	NodeHash        *string `json:"index_node_hash,omitempty"`
}
