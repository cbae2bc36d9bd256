package domain

import "time"

// IndexingTechnique describes how a collection's segments are indexed.
type IndexingTechnique string

const (
	// IndexingEconomy uses the compact keyword table, no embeddings.
	IndexingEconomy IndexingTechnique = "economy"
	// IndexingHighQuality uses vector and full-text indexes.
	IndexingHighQuality IndexingTechnique = "high_quality"
)

// RetrievalConfig is a collection's stored retrieval model configuration.
type RetrievalConfig struct {
	SearchMethod          SearchMethod `json:"search_method"`
	RerankingEnable       bool         `json:"reranking_enable"`
	RerankingProvider     string       `json:"reranking_provider_name"`
	RerankingModel        string       `json:"reranking_model_name"`
	TopK                  int          `json:"top_k"`
	ScoreThresholdEnabled bool         `json:"score_threshold_enabled"`
	ScoreThreshold        float64      `json:"score_threshold"`
}

// DefaultRetrievalConfig applies when a collection has no stored retrieval model.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		SearchMethod:    SearchMethodSemantic,
		RerankingEnable: false,
		TopK:            2,
	}
}

// EffectiveScoreThreshold returns the configured threshold, or nil when
// thresholding is disabled.
func (c RetrievalConfig) EffectiveScoreThreshold() *float64 {
	if !c.ScoreThresholdEnabled {
		return nil
	}
	threshold := c.ScoreThreshold
	return &threshold
}

// Collection identifies an independently indexed partition of documents.
type Collection struct {
	ID                string            `json:"id"`
	TenantID          string            `json:"tenant_id"`
	Name              string            `json:"name"`
	IndexingTechnique IndexingTechnique `json:"indexing_technique"`
	EmbeddingProvider string            `json:"embedding_model_provider"`
	EmbeddingModel    string            `json:"embedding_model"`
	Retrieval         *RetrievalConfig  `json:"retrieval_model,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// RetrievalModel returns the stored retrieval config, falling back to defaults.
func (c *Collection) RetrievalModel() RetrievalConfig {
	if c.Retrieval == nil {
		return DefaultRetrievalConfig()
	}
	return *c.Retrieval
}
