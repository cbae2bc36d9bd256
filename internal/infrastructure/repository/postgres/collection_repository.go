package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yz181x/dify/internal/core/domain"
)

type CollectionRepository struct {
	db *sql.DB
}

func NewCollectionRepository(db *sql.DB) *CollectionRepository {
	return &CollectionRepository{db: db}
}

func (r *CollectionRepository) FindCollection(ctx context.Context, tenantID, collectionID string) (*domain.Collection, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, tenant_id, name, indexing_technique, embedding_model_provider, embedding_model, retrieval_model, created_at, updated_at
FROM collections
WHERE tenant_id = $1 AND id = $2
`, tenantID, collectionID)

	var collection domain.Collection
	var technique string
	var retrievalRaw []byte

	err := row.Scan(
		&collection.ID, &collection.TenantID, &collection.Name, &technique,
		&collection.EmbeddingProvider, &collection.EmbeddingModel,
		&retrievalRaw, &collection.CreatedAt, &collection.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrCollectionNotFound, "find collection", err)
		}
		return nil, fmt.Errorf("scan collection: %w", err)
	}

	collection.IndexingTechnique = domain.IndexingTechnique(technique)
	if len(retrievalRaw) > 0 {
		var cfg domain.RetrievalConfig
		if err := json.Unmarshal(retrievalRaw, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal retrieval model: %w", err)
		}
		collection.Retrieval = &cfg
	}
	return &collection, nil
}
